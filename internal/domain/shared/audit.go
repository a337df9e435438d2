package shared

import "fmt"

// AuditRef points at the durable record of a committed state mutation. The
// ObjectID is opaque to callers; CommitNumber is monotonically increasing per
// backing store and usable for ordering.
type AuditRef struct {
	CommitNumber uint64 `json:"commit_number"`
	ObjectID     string `json:"object_id"`
}

// IsZero reports whether the reference is unset.
func (r AuditRef) IsZero() bool {
	return r.CommitNumber == 0 && r.ObjectID == ""
}

// String returns a representation for logging.
func (r AuditRef) String() string {
	return fmt.Sprintf("AuditRef{Commit: %d, Object: %s}", r.CommitNumber, r.ObjectID)
}
