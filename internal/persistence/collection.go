package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Collection is a typed repository over one named collection of a Store.
// T must serialize its identifier under the JSON key "id".
type Collection[T any] struct {
	store Store
	name  string
}

// NewCollection binds T to the named collection.
func NewCollection[T any](store Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Create assigns a fresh ID, stores the record and returns the stored form.
func (c *Collection[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	id := uuid.NewString()
	body, err := encode(record, id)
	if err != nil {
		return zero, err
	}
	if err := c.store.Insert(ctx, c.name, id, body); err != nil {
		return zero, fmt.Errorf("%s: insert %s: %w", c.name, id, err)
	}
	return decode[T](body)
}

// FindAll returns every record of the collection in store order.
func (c *Collection[T]) FindAll(ctx context.Context) ([]T, error) {
	bodies, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", c.name, err)
	}
	return decodeAll[T](bodies)
}

// FindByID returns nil when no record has the given ID.
func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	body, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: get %s: %w", c.name, id, err)
	}
	record, err := decode[T](body)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindBy returns the records whose field equals value.
func (c *Collection[T]) FindBy(ctx context.Context, field, value string) ([]T, error) {
	bodies, err := c.store.FindBy(ctx, c.name, field, value)
	if err != nil {
		return nil, fmt.Errorf("%s: find by %s: %w", c.name, field, err)
	}
	return decodeAll[T](bodies)
}

// FindOneBy returns the first record whose field equals value, or nil.
func (c *Collection[T]) FindOneBy(ctx context.Context, field, value string) (*T, error) {
	records, err := c.FindBy(ctx, field, value)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// Update overwrites the whole stored record. It returns ErrNotFound when the record is gone.
func (c *Collection[T]) Update(ctx context.Context, record T) (T, error) {
	var zero T
	id, err := identify(record)
	if err != nil {
		return zero, err
	}
	body, err := encode(record, id)
	if err != nil {
		return zero, err
	}
	if err := c.store.Replace(ctx, c.name, id, body); err != nil {
		return zero, fmt.Errorf("%s: replace %s: %w", c.name, id, err)
	}
	return decode[T](body)
}

// Delete removes the record. It returns ErrNotFound when nothing was removed.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, c.name, id); err != nil {
		return fmt.Errorf("%s: delete %s: %w", c.name, id, err)
	}
	return nil
}

func encode[T any](record T, id string) (json.RawMessage, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	idValue, _ := json.Marshal(id)
	fields["id"] = idValue
	return json.Marshal(fields)
}

func identify[T any](record T) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", fmt.Errorf("document is not a JSON object: %w", err)
	}
	if probe.ID == "" {
		return "", errors.New("document has no id")
	}
	return probe.ID, nil
}

func decode[T any](body json.RawMessage) (T, error) {
	var record T
	if err := json.Unmarshal(body, &record); err != nil {
		return record, fmt.Errorf("decode document: %w", err)
	}
	return record, nil
}

func decodeAll[T any](bodies []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(bodies))
	for _, body := range bodies {
		record, err := decode[T](body)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}
