package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tigocode/solar-back/internal/persistence"
)

// DeadLetter is an undelivered event kept in the document store for replay.
type DeadLetter struct {
	ID               string     `json:"id"`
	Envelope         Envelope   `json:"envelope"`
	Reason           string     `json:"reason"`
	RetryCount       int        `json:"retryCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	NextRetryAt      time.Time  `json:"nextRetryAt"`
	QuarantinedAt    *time.Time `json:"quarantinedAt,omitempty"`
	QuarantineReason string     `json:"quarantineReason,omitempty"`
}

// DeadLetterStore persists dead letters in the event_dlq collection.
type DeadLetterStore struct {
	entries *persistence.Collection[DeadLetter]
	now     func() time.Time
}

// NewDeadLetterStore binds the dead-letter collection of store.
func NewDeadLetterStore(store persistence.Store) *DeadLetterStore {
	return &DeadLetterStore{
		entries: persistence.NewCollection[DeadLetter](store, persistence.CollectionEventDLQ),
		now:     time.Now,
	}
}

// Write records envelope alongside the delivery failure reason.
func (s *DeadLetterStore) Write(ctx context.Context, envelope Envelope, reason string) error {
	now := s.now().UTC()
	_, err := s.entries.Create(ctx, DeadLetter{
		Envelope:    envelope,
		Reason:      fmt.Sprintf("%s (topic=%s)", reason, envelope.Topic),
		CreatedAt:   now,
		NextRetryAt: now,
	})
	return err
}

// List returns every dead letter, oldest first.
func (s *DeadLetterStore) List(ctx context.Context) ([]DeadLetter, error) {
	entries, err := s.entries.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// ReplayResult summarises one replay pass.
type ReplayResult struct {
	Delivered   int
	Rescheduled int
	Quarantined int
}

// Replayer retries dead letters with exponential backoff and quarantines
// entries that exhaust their retries.
type Replayer struct {
	store      *DeadLetterStore
	dispatcher *Dispatcher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewReplayer constructs a Replayer. Non-positive limits select 5 retries and a one minute base delay.
func NewReplayer(store *DeadLetterStore, dispatcher *Dispatcher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Replayer {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Replayer{store: store, dispatcher: dispatcher, maxRetries: maxRetries, baseDelay: baseDelay, logger: logger}
}

// RunOnce processes up to batchSize due entries.
func (r *Replayer) RunOnce(ctx context.Context, batchSize int) (ReplayResult, error) {
	var result ReplayResult

	entries, err := r.store.List(ctx)
	if err != nil {
		return result, err
	}

	now := r.store.now().UTC()
	for _, entry := range entries {
		if batchSize > 0 && result.Delivered+result.Rescheduled+result.Quarantined >= batchSize {
			break
		}
		if entry.QuarantinedAt != nil || entry.NextRetryAt.After(now) {
			continue
		}
		outcome, handleErr := r.handleEntry(ctx, entry, now)
		if handleErr != nil {
			err = errors.Join(err, handleErr)
			continue
		}
		replayCounter.WithLabelValues(outcome).Inc()
		switch outcome {
		case "delivered":
			result.Delivered++
		case "rescheduled":
			result.Rescheduled++
		case "quarantined":
			result.Quarantined++
		}
	}
	return result, err
}

func (r *Replayer) handleEntry(ctx context.Context, entry DeadLetter, now time.Time) (string, error) {
	if entry.RetryCount >= r.maxRetries {
		entry.QuarantinedAt = &now
		entry.QuarantineReason = "retry limit reached"
		if _, err := r.store.entries.Update(ctx, entry); err != nil {
			return "", err
		}
		return "quarantined", nil
	}

	deliverErr := r.dispatcher.deliver(ctx, entry.Envelope.Topic, []Envelope{entry.Envelope})
	if deliverErr == nil {
		if err := r.store.entries.Delete(ctx, entry.ID); err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return "", err
		}
		deliveredCounter.WithLabelValues(entry.Envelope.Topic).Inc()
		return "delivered", nil
	}

	r.logger.Warn("dead letter replay failed", "id", entry.ID, "topic", entry.Envelope.Topic, "error", deliverErr)
	entry.RetryCount++
	entry.Reason = deliverErr.Error()
	entry.NextRetryAt = now.Add(r.backoffDelay(entry.RetryCount))
	if _, err := r.store.entries.Update(ctx, entry); err != nil {
		return "", err
	}
	return "rescheduled", nil
}

// backoffDelay doubles per attempt, capped at one hour.
func (r *Replayer) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(1<<uint(attempt-1)) * r.baseDelay
	if delay > time.Hour || delay <= 0 {
		delay = time.Hour
	}
	return delay
}
