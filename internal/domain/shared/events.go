// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the trust subsystem.
const (
	// Graph events
	EventUserFollowed   EventType = "graph.user_followed"
	EventUserUnfollowed EventType = "graph.user_unfollowed"

	// Reputation events
	EventProfileCreated    EventType = "reputation.profile_created"
	EventReputationUpdated EventType = "reputation.updated"
	EventLevelChanged      EventType = "reputation.level_changed"
	EventVoteRecorded      EventType = "reputation.vote_recorded"

	// Chain events
	EventMutationCommitted EventType = "chain.mutation_committed"

	// System events
	EventReconcileCompleted EventType = "system.reconcile_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Graph Events
// ═══════════════════════════════════════════════════════════════════════════

// UserFollowedEvent is emitted when a follow edge is created.
type UserFollowedEvent struct {
	BaseEvent
	FollowerID  string  `json:"follower_id"`
	FollowedID  string  `json:"followed_id"`
	TrustWeight float64 `json:"trust_weight"`
}

// Payload implements Event interface.
func (e UserFollowedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"follower_id":  e.FollowerID,
		"followed_id":  e.FollowedID,
		"trust_weight": e.TrustWeight,
	}
}

// NewUserFollowedEvent creates a new UserFollowedEvent.
func NewUserFollowedEvent(followerID, followedID string, trustWeight float64) UserFollowedEvent {
	return UserFollowedEvent{
		BaseEvent:   NewBaseEvent(EventUserFollowed, followerID),
		FollowerID:  followerID,
		FollowedID:  followedID,
		TrustWeight: trustWeight,
	}
}

// UserUnfollowedEvent is emitted when a follow edge is removed.
type UserUnfollowedEvent struct {
	BaseEvent
	FollowerID string `json:"follower_id"`
	FollowedID string `json:"followed_id"`
}

// Payload implements Event interface.
func (e UserUnfollowedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"follower_id": e.FollowerID,
		"followed_id": e.FollowedID,
	}
}

// NewUserUnfollowedEvent creates a new UserUnfollowedEvent.
func NewUserUnfollowedEvent(followerID, followedID string) UserUnfollowedEvent {
	return UserUnfollowedEvent{
		BaseEvent:  NewBaseEvent(EventUserUnfollowed, followerID),
		FollowerID: followerID,
		FollowedID: followedID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Reputation Events
// ═══════════════════════════════════════════════════════════════════════════

// ReputationUpdatedEvent is emitted whenever a profile's counters change and
// the score is recomputed.
type ReputationUpdatedEvent struct {
	BaseEvent
	UserID   string  `json:"user_id"`
	OldScore float64 `json:"old_score"`
	NewScore float64 `json:"new_score"`
	Reason   string  `json:"reason"`
}

// Payload implements Event interface.
func (e ReputationUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_score": e.OldScore,
		"new_score": e.NewScore,
		"reason":    e.Reason,
	}
}

// NewReputationUpdatedEvent creates a new ReputationUpdatedEvent.
func NewReputationUpdatedEvent(userID string, oldScore, newScore float64, reason string) ReputationUpdatedEvent {
	return ReputationUpdatedEvent{
		BaseEvent: NewBaseEvent(EventReputationUpdated, userID),
		UserID:    userID,
		OldScore:  oldScore,
		NewScore:  newScore,
		Reason:    reason,
	}
}

// LevelChangedEvent is emitted when a user's verification level crosses a
// threshold in either direction.
type LevelChangedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel string `json:"old_level"`
	NewLevel string `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelChangedEvent creates a new LevelChangedEvent.
func NewLevelChangedEvent(userID, oldLevel, newLevel string) LevelChangedEvent {
	return LevelChangedEvent{
		BaseEvent: NewBaseEvent(EventLevelChanged, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// MutationCommittedEvent is emitted when the chain adapter acknowledges a
// committed mutation with an audit reference.
type MutationCommittedEvent struct {
	BaseEvent
	Action       string `json:"action"`
	CommitNumber uint64 `json:"commit_number"`
	ObjectID     string `json:"object_id"`
}

// Payload implements Event interface.
func (e MutationCommittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"action":        e.Action,
		"commit_number": e.CommitNumber,
		"object_id":     e.ObjectID,
	}
}

// NewMutationCommittedEvent creates a new MutationCommittedEvent.
func NewMutationCommittedEvent(aggregateID, action string, commitNumber uint64, objectID string) MutationCommittedEvent {
	return MutationCommittedEvent{
		BaseEvent:    NewBaseEvent(EventMutationCommitted, aggregateID),
		Action:       action,
		CommitNumber: commitNumber,
		ObjectID:     objectID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes a single event.
type EventHandler func(event Event) error

// EventPublisher publishes events to interested subscribers.
type EventPublisher interface {
	// Publish delivers an event to all subscribers of its type.
	Publish(event Event) error
}

// EventSubscriber registers event handlers.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler)

	// SubscribeAll registers a handler for every event type.
	SubscribeAll(handler EventHandler)
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber

	// Close shuts down the bus and waits for in-flight handlers.
	Close() error
}

// NoopPublisher discards all events. Useful in tests and tools that do not
// care about event delivery.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(Event) error { return nil }
