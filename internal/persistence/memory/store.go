// Package memory provides an in-process document store for local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/tigocode/solar-back/internal/persistence"
)

// Store keeps documents in memory, preserving insertion order per collection.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	order []string
	docs  map[string]json.RawMessage
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Insert implements persistence.Store.
func (s *Store) Insert(_ context.Context, name, id string, body json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]json.RawMessage)}
		s.collections[name] = c
	}
	if _, exists := c.docs[id]; exists {
		return fmt.Errorf("document %s/%s already exists", name, id)
	}
	c.docs[id] = clone(body)
	c.order = append(c.order, id)
	return nil
}

// Get implements persistence.Store.
func (s *Store) Get(_ context.Context, name, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	body, ok := c.docs[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return clone(body), nil
}

// List implements persistence.Store.
func (s *Store) List(_ context.Context, name string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return []json.RawMessage{}, nil
	}
	out := make([]json.RawMessage, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, clone(c.docs[id]))
	}
	return out, nil
}

// FindBy implements persistence.Store.
func (s *Store) FindBy(ctx context.Context, name, field, value string) ([]json.RawMessage, error) {
	all, err := s.List(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0)
	for _, body := range all {
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, err
		}
		if str, ok := fields[field].(string); ok && str == value {
			out = append(out, body)
		}
	}
	return out, nil
}

// Replace implements persistence.Store.
func (s *Store) Replace(_ context.Context, name, id string, body json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return persistence.ErrNotFound
	}
	if _, exists := c.docs[id]; !exists {
		return persistence.ErrNotFound
	}
	c.docs[id] = clone(body)
	return nil
}

// Delete implements persistence.Store.
func (s *Store) Delete(_ context.Context, name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return persistence.ErrNotFound
	}
	if _, exists := c.docs[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(c.docs, id)
	c.order = slices.DeleteFunc(c.order, func(existing string) bool { return existing == id })
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func clone(body json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), body...)
}
