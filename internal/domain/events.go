package domain

import (
	"context"
	"time"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventActivityCreated       EventType = "activity.created"
	EventActivityStatusChanged EventType = "activity.status_changed"
	EventActivityDeleted       EventType = "activity.deleted"
)

// LifecycleEvent describes a persisted change to an activity.
type LifecycleEvent struct {
	Type           EventType
	Activity       Activity
	PreviousStatus ActivityStatus
	OccurredAt     time.Time
}

// EventPublisher hands lifecycle events to downstream consumers.
// Implementations must not block the request path.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

// Publish performs no action.
func (NoopPublisher) Publish(context.Context, LifecycleEvent) error { return nil }
