package chain

import (
	"context"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/circuitbreaker"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MUTATION RECORDER
// ══════════════════════════════════════════════════════════════════════════════

// Recorder mirrors accepted trust mutations to the audit ledger. It
// subscribes to domain events, maps them to transaction payloads, and
// commits through a circuit breaker so a ledger outage never blocks the
// follow or scoring path. Commits are asynchronous and best-effort; the
// authoritative state lives in PostgreSQL.
type Recorder struct {
	gateway Gateway
	breaker *circuitbreaker.CircuitBreaker
	bus     shared.EventPublisher
	log     *logger.Logger
	timeout time.Duration
}

// RecorderConfig holds recorder settings.
type RecorderConfig struct {
	// Gateway is the ledger to commit to.
	Gateway Gateway

	// Bus receives MutationCommitted events after successful commits.
	// Optional.
	Bus shared.EventPublisher

	// Logger for commit outcomes.
	Logger *logger.Logger

	// CommitTimeout bounds one commit including retries.
	CommitTimeout time.Duration
}

// NewRecorder creates a Recorder.
func NewRecorder(cfg RecorderConfig) *Recorder {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	bus := cfg.Bus
	if bus == nil {
		bus = shared.NoopPublisher{}
	}
	timeout := cfg.CommitTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := &Recorder{
		gateway: cfg.Gateway,
		bus:     bus,
		log:     log.With(logger.Component("chain_recorder")),
		timeout: timeout,
	}
	r.breaker = circuitbreaker.ChainGatewayBreaker(func(name string, from, to circuitbreaker.State) {
		r.log.Warn("breaker state change",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	return r
}

// Register subscribes the recorder to the mutation events it mirrors.
func (r *Recorder) Register(sub shared.EventSubscriber) {
	sub.Subscribe(shared.EventUserFollowed, r.Handle)
	sub.Subscribe(shared.EventUserUnfollowed, r.Handle)
	sub.Subscribe(shared.EventReputationUpdated, r.Handle)
}

// Handle maps one domain event to a ledger commit.
func (r *Recorder) Handle(event shared.Event) error {
	payload, ok := payloadFromEvent(event)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var ref shared.AuditRef
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var commitErr error
		ref, commitErr = r.gateway.Commit(ctx, payload)
		return commitErr
	})
	if err != nil {
		r.log.Error("audit commit failed",
			logger.String("event_type", string(event.EventType())),
			logger.UserID(payload.UserID),
			logger.Err(err),
		)
		return err
	}

	r.log.Debug("mutation committed",
		logger.String("action", string(payload.Type)),
		logger.CommitNumber(ref.CommitNumber),
	)

	return r.bus.Publish(shared.NewMutationCommittedEvent(
		event.AggregateID(), string(payload.Type), ref.CommitNumber, ref.ObjectID,
	))
}

// payloadFromEvent maps the mirrored event variants to payloads. Events the
// recorder does not mirror return ok=false.
func payloadFromEvent(event shared.Event) (TransactionPayload, bool) {
	switch e := event.(type) {
	case shared.UserFollowedEvent:
		return TransactionPayload{
			Type:      TransactionFollow,
			UserID:    e.FollowerID,
			TargetID:  e.FollowedID,
			Timestamp: e.OccurredAt(),
		}, true
	case shared.UserUnfollowedEvent:
		return TransactionPayload{
			Type:      TransactionUnfollow,
			UserID:    e.FollowerID,
			TargetID:  e.FollowedID,
			Timestamp: e.OccurredAt(),
		}, true
	case shared.ReputationUpdatedEvent:
		return TransactionPayload{
			Type:      TransactionReputationUpdate,
			UserID:    e.UserID,
			Score:     e.NewScore,
			Reason:    e.Reason,
			Timestamp: e.OccurredAt(),
		}, true
	default:
		return TransactionPayload{}, false
	}
}
