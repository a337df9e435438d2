// Package chain implements the audit commit adapter. Accepted trust
// mutations are mirrored as tagged transaction payloads to an append-only
// ledger; the returned audit reference (commit number plus object ID) lets
// any observer replay the subsystem's state changes in order.
package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/blake2b"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
)

// TransactionType tags a payload variant.
type TransactionType string

const (
	// TransactionFollow records a new follow edge.
	TransactionFollow TransactionType = "follow"

	// TransactionUnfollow records a removed follow edge.
	TransactionUnfollow TransactionType = "unfollow"

	// TransactionReputationUpdate records a reputation score change.
	TransactionReputationUpdate TransactionType = "reputation_update"
)

// TransactionPayload is the wire form of one audited mutation. TargetID is
// required for the follow variants; Score carries the new reputation score
// for reputation updates.
type TransactionPayload struct {
	Type      TransactionType `json:"type" validate:"required,oneof=follow unfollow reputation_update"`
	UserID    string          `json:"user_id" validate:"required,min=1,max=64"`
	TargetID  string          `json:"target_id,omitempty" validate:"required_if=Type follow,required_if=Type unfollow,max=64"`
	Score     float64         `json:"score,omitempty" validate:"gte=0,lte=1"`
	Reason    string          `json:"reason,omitempty" validate:"max=120"`
	Timestamp time.Time       `json:"timestamp" validate:"required"`
}

var validate = validator.New()

// Validate checks the payload against its variant rules.
func (p TransactionPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return shared.WrapError("chain", "Validate", shared.ErrPayloadInvalid,
			formatValidationError(err), err)
	}
	return nil
}

// Digest returns the hex-encoded BLAKE2b-256 digest of the canonical JSON
// encoding. Commits are idempotent per digest.
func (p TransactionPayload) Digest() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", shared.WrapError("chain", "Digest", shared.ErrPayloadInvalid,
			"payload not serializable", err)
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// formatValidationError flattens validator errors into one readable message.
func formatValidationError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	msg := ""
	for i, e := range validationErrors {
		if i > 0 {
			msg += "; "
		}
		switch e.Tag() {
		case "required", "required_if":
			msg += fmt.Sprintf("%s is required", e.Field())
		case "oneof":
			msg += fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
		case "max":
			msg += fmt.Sprintf("%s exceeds maximum length %s", e.Field(), e.Param())
		case "gte", "lte":
			msg += fmt.Sprintf("%s is out of range", e.Field())
		default:
			msg += fmt.Sprintf("%s is invalid", e.Field())
		}
	}
	return msg
}
