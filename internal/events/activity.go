// Package events publishes activity lifecycle events to Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tigocode/solar-back/internal/domain"
)

// ActivityCreated represents the message emitted when a new activity is stored.
type ActivityCreated struct {
	ActivityID    string    `json:"activity_id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory"`
	Sector        string    `json:"sector"`
	ScheduledDate string    `json:"scheduled_date"`
	Status        string    `json:"status"`
	Duration      string    `json:"duration"`
	PhotoCount    int       `json:"photo_count"`
	OwnerID       string    `json:"owner_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ActivityStatusChanged tracks open/finished transitions.
type ActivityStatusChanged struct {
	ActivityID     string    `json:"activity_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status"`
	Duration       string    `json:"duration"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ActivityDeleted is emitted when an activity is removed.
type ActivityDeleted struct {
	ActivityID string    `json:"activity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Envelope is an encoded event waiting for delivery.
type Envelope struct {
	EventType     string          `json:"event_type"`
	Topic         string          `json:"topic"`
	SchemaSubject string          `json:"schema_subject"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// EventMetadata describes how to route an event type.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
	Schema        string
}

var eventCatalog = map[domain.EventType]EventMetadata{
	domain.EventActivityCreated: {
		Topic:         "activity_events",
		SchemaSubject: "activity_events-value",
		Schema:        activityCreatedSchema,
	},
	domain.EventActivityStatusChanged: {
		Topic:         "activity_status_changed",
		SchemaSubject: "activity_status_changed-value",
		Schema:        activityStatusChangedSchema,
	},
	domain.EventActivityDeleted: {
		Topic:         "activity_deleted",
		SchemaSubject: "activity_deleted-value",
		Schema:        activityDeletedSchema,
	},
}

// encodeEvent maps a domain event onto its wire payload and routing metadata.
func encodeEvent(event domain.LifecycleEvent) (Envelope, error) {
	meta, ok := eventCatalog[event.Type]
	if !ok {
		return Envelope{}, fmt.Errorf("unknown event type: %s", event.Type)
	}

	a := event.Activity
	var payload any
	switch event.Type {
	case domain.EventActivityCreated:
		payload = ActivityCreated{
			ActivityID:    a.ID,
			Title:         a.Title,
			Category:      a.Category,
			Subcategory:   a.Subcategory,
			Sector:        a.Sector,
			ScheduledDate: a.ScheduledDate,
			Status:        string(a.Status),
			Duration:      a.Duration,
			PhotoCount:    len(a.Photos),
			OwnerID:       a.OwnerID,
			OccurredAt:    event.OccurredAt,
		}
	case domain.EventActivityStatusChanged:
		payload = ActivityStatusChanged{
			ActivityID:     a.ID,
			Status:         string(a.Status),
			PreviousStatus: string(event.PreviousStatus),
			Duration:       a.Duration,
			OccurredAt:     event.OccurredAt,
		}
	case domain.EventActivityDeleted:
		payload = ActivityDeleted{ActivityID: a.ID, OccurredAt: event.OccurredAt}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventType:     string(event.Type),
		Topic:         meta.Topic,
		SchemaSubject: meta.SchemaSubject,
		PartitionKey:  a.ID,
		Payload:       body,
		OccurredAt:    event.OccurredAt,
	}, nil
}
