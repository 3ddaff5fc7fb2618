// Package refresh keeps the duration label of open activities in step with the wall clock.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tigocode/solar-back/internal/domain"
	"github.com/tigocode/solar-back/internal/observability"
)

// DefaultInterval is the period between two refresh passes.
const DefaultInterval = 15 * time.Minute

// Repository is the subset of activity persistence a refresh pass needs.
type Repository interface {
	FindAll(ctx context.Context) ([]domain.Activity, error)
	FindByID(ctx context.Context, id string) (*domain.Activity, error)
	Update(ctx context.Context, activity domain.Activity) (domain.Activity, error)
}

// Result summarises one refresh pass.
type Result struct {
	Scanned  int
	Updated  int
	Failures int
}

// Option configures optional behaviour for the Scheduler.
type Option func(*Scheduler)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithClock overrides the time source used to compute labels.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler recomputes duration labels on a fixed period.
// Passes are not serialised against each other or against request-driven updates;
// each write only touches a record that is still open.
type Scheduler struct {
	repo             Repository
	interval         time.Duration
	now              func() time.Time
	logger           *slog.Logger
	shutdownComplete chan struct{}
	stopOnce         sync.Once
}

// NewScheduler constructs a Scheduler. A non-positive interval selects DefaultInterval.
func NewScheduler(repo Repository, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		repo:             repo,
		interval:         interval,
		now:              time.Now,
		logger:           slog.Default(),
		shutdownComplete: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs a pass immediately and then once per interval until ctx is cancelled.
// It should be called in a goroutine. Wait unblocks once the first run has returned.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		s.stopOnce.Do(func() { close(s.shutdownComplete) })
	}()

	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("duration refresh pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until Start has returned.
func (s *Scheduler) Wait() {
	<-s.shutdownComplete
}

// RunOnce performs a single synchronous pass. Per-activity failures are logged and
// counted; only a failure to list activities aborts the pass.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	started := time.Now()
	var result Result

	activities, err := s.repo.FindAll(ctx)
	if err != nil {
		err = fmt.Errorf("list activities: %w", err)
		observability.RecordRefreshPass(started, 0, 0, err)
		return result, err
	}

	for _, activity := range activities {
		if !activity.IsOpen() || activity.CreatedAt == nil {
			continue
		}
		result.Scanned++

		label := domain.ComputeDuration(activity.CreatedAt, s.now())
		if label == activity.Duration {
			continue
		}

		written, err := s.refreshOne(ctx, activity.ID, label)
		if err != nil {
			result.Failures++
			s.logger.Warn("duration refresh failed for activity", "activity_id", activity.ID, "error", err)
			continue
		}
		if written {
			result.Updated++
		}
	}

	if result.Updated > 0 {
		s.logger.Info("duration refresh updated activities", "updated", result.Updated, "scanned", result.Scanned)
	}
	observability.RecordRefreshPass(started, result.Updated, result.Failures, nil)
	return result, nil
}

// refreshOne re-reads the activity so a finish that landed since the scan is not overwritten.
func (s *Scheduler) refreshOne(ctx context.Context, id, label string) (bool, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if current == nil || !current.IsOpen() || current.Duration == label {
		return false, nil
	}
	current.Duration = label
	if _, err := s.repo.Update(ctx, *current); err != nil {
		return false, err
	}
	return true, nil
}
