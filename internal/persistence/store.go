// Package persistence contains the document store contract and the typed collections built on it.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a document does not exist in its collection.
var ErrNotFound = errors.New("document not found")

// Collection names used by the service.
const (
	CollectionActivities = "activities"
	CollectionCategories = "categories"
	CollectionItems      = "items"
	CollectionUsers      = "users"
	CollectionEventDLQ   = "event_dlq"
)

// Store is a schemaless document store addressed by collection name and document ID.
// Bodies are JSON objects. Implementations do not offer multi-document transactions.
type Store interface {
	Insert(ctx context.Context, collection, id string, body json.RawMessage) error
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
	// FindBy returns documents whose top-level string field equals value.
	FindBy(ctx context.Context, collection, field, value string) ([]json.RawMessage, error)
	Replace(ctx context.Context, collection, id string, body json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}
