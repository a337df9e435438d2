package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// GATEWAY
// ══════════════════════════════════════════════════════════════════════════════

// Gateway commits transaction payloads to the audit ledger. Commits are
// idempotent per payload digest: recommitting an identical payload returns
// the original reference.
type Gateway interface {
	// Commit validates and appends the payload, returning its audit
	// reference. Returns shared.ErrPayloadInvalid for malformed payloads and
	// shared.ErrCommitFailed when the ledger rejects the append.
	Commit(ctx context.Context, payload TransactionPayload) (shared.AuditRef, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOCAL LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// LocalLedger is an in-process append-only ledger. Used in development and
// in deployments that run without an external chain endpoint; the commit
// numbering semantics match the remote gateway.
type LocalLedger struct {
	mu       sync.Mutex
	next     uint64
	byDigest map[string]shared.AuditRef
	entries  []LedgerEntry
}

// LedgerEntry is one committed payload with its reference.
type LedgerEntry struct {
	Ref     shared.AuditRef
	Digest  string
	Payload TransactionPayload
}

// NewLocalLedger creates an empty ledger. Commit numbers start at 1.
func NewLocalLedger() *LocalLedger {
	return &LocalLedger{
		next:     1,
		byDigest: make(map[string]shared.AuditRef),
	}
}

var _ Gateway = (*LocalLedger)(nil)

// Commit implements Gateway.
func (l *LocalLedger) Commit(_ context.Context, payload TransactionPayload) (shared.AuditRef, error) {
	if err := payload.Validate(); err != nil {
		return shared.AuditRef{}, err
	}

	digest, err := payload.Digest()
	if err != nil {
		return shared.AuditRef{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ref, ok := l.byDigest[digest]; ok {
		return ref, nil
	}

	ref := shared.AuditRef{
		CommitNumber: l.next,
		ObjectID:     uuid.New().String(),
	}
	l.next++
	l.byDigest[digest] = ref
	l.entries = append(l.entries, LedgerEntry{Ref: ref, Digest: digest, Payload: payload})

	return ref, nil
}

// Entries returns a copy of all committed entries in commit order.
func (l *LocalLedger) Entries() []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP GATEWAY
// ══════════════════════════════════════════════════════════════════════════════

// HTTPGateway commits payloads to a remote ledger endpoint over HTTP.
// Transient failures are retried with backoff.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
	retrier  *retry.Retrier
}

// HTTPGatewayConfig holds remote gateway settings.
type HTTPGatewayConfig struct {
	// Endpoint is the commit URL of the ledger service.
	Endpoint string

	// RequestTimeout bounds a single commit attempt.
	RequestTimeout time.Duration

	// Retrier overrides the default chain retrier.
	Retrier *retry.Retrier
}

// NewHTTPGateway creates a gateway against the given endpoint.
func NewHTTPGateway(cfg HTTPGatewayConfig) *HTTPGateway {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retrier := cfg.Retrier
	if retrier == nil {
		retrier = retry.ChainRetrier()
	}

	return &HTTPGateway{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		retrier:  retrier,
	}
}

var _ Gateway = (*HTTPGateway)(nil)

// commitResponse is the remote ledger's reply.
type commitResponse struct {
	CommitNumber uint64 `json:"commit_number"`
	ObjectID     string `json:"object_id"`
}

// Commit implements Gateway.
func (g *HTTPGateway) Commit(ctx context.Context, payload TransactionPayload) (shared.AuditRef, error) {
	if err := payload.Validate(); err != nil {
		return shared.AuditRef{}, err
	}

	digest, err := payload.Digest()
	if err != nil {
		return shared.AuditRef{}, err
	}

	body, err := json.Marshal(struct {
		TransactionPayload
		Digest string `json:"digest"`
	}{TransactionPayload: payload, Digest: digest})
	if err != nil {
		return shared.AuditRef{}, shared.WrapError("chain", "Commit", shared.ErrPayloadInvalid,
			"payload not serializable", err)
	}

	var ref shared.AuditRef
	err = g.retrier.Do(ctx, func(ctx context.Context) error {
		resp, err := g.post(ctx, body)
		if err != nil {
			return retry.Retryable(err)
		}
		ref = resp
		return nil
	})
	if err != nil {
		return shared.AuditRef{}, shared.WrapError("chain", "Commit", shared.ErrCommitFailed,
			fmt.Sprintf("ledger endpoint %s", g.endpoint), err)
	}

	return ref, nil
}

func (g *HTTPGateway) post(ctx context.Context, body []byte) (shared.AuditRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return shared.AuditRef{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return shared.AuditRef{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// Client errors will not succeed on retry.
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return shared.AuditRef{}, retry.Permanent(fmt.Errorf("ledger rejected commit: status %d: %s", resp.StatusCode, data))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return shared.AuditRef{}, fmt.Errorf("ledger commit failed: status %d", resp.StatusCode)
	}

	var out commitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return shared.AuditRef{}, fmt.Errorf("ledger response malformed: %w", err)
	}

	return shared.AuditRef{CommitNumber: out.CommitNumber, ObjectID: out.ObjectID}, nil
}
