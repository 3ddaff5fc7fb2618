// Package domain defines the business logic for field activities, the catalog and users.
package domain

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/tigocode/solar-back/internal/persistence"
)

// ActivityRepository captures persistence operations for activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) (Activity, error)
	FindAll(ctx context.Context) ([]Activity, error)
	FindByID(ctx context.Context, id string) (*Activity, error)
	Update(ctx context.Context, activity Activity) (Activity, error)
	Delete(ctx context.Context, id string) error
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source used for createdAt and duration freezing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPublisher routes lifecycle events to publisher.
func WithPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// Service orchestrates the activity lifecycle.
type Service struct {
	repo      ActivityRepository
	uploader  *EvidenceUploader
	publisher EventPublisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(repo ActivityRepository, uploader *EvidenceUploader, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		uploader:  uploader,
		publisher: NoopPublisher{},
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateActivityInput captures the payload from the API layer.
type CreateActivityInput struct {
	Title         string
	Category      string
	Subcategory   string
	Sector        string
	ScheduledDate string
	Description   string
	Status        ActivityStatus
	Duration      string
	Photos        []string
	OwnerID       string
	OwnerName     string
}

// UpdateActivityInput carries the fields a caller may change. Nil means "not supplied".
// createdAt and duration are system-derived and deliberately absent.
type UpdateActivityInput struct {
	Title         *string
	Category      *string
	Subcategory   *string
	Sector        *string
	ScheduledDate *string
	Description   *string
	Status        *ActivityStatus
	Photos        *[]string
}

// CreateActivity validates the input, uploads evidence and stores a new activity.
// Activities submitted with evidence are recorded as already finished.
func (s *Service) CreateActivity(ctx context.Context, input CreateActivityInput) (*Activity, error) {
	if strings.TrimSpace(input.Category) == "" || strings.TrimSpace(input.ScheduledDate) == "" {
		return nil, invalid("category and scheduledDate are required")
	}

	photos := s.uploader.ProcessImages(ctx, input.Photos)
	// Hosted evidence finishes the activity whatever status was supplied.
	if len(photos) == 0 && input.Status != "" && !input.Status.Valid() {
		return nil, invalid("status must be %q or %q", StatusOpen, StatusFinished)
	}
	createdAt := s.now().UTC()

	activity := Activity{
		Title:         input.Title,
		Category:      input.Category,
		Subcategory:   input.Subcategory,
		Sector:        input.Sector,
		ScheduledDate: input.ScheduledDate,
		CreatedAt:     &createdAt,
		Description:   input.Description,
		Photos:        photos,
		OwnerID:       input.OwnerID,
		OwnerName:     input.OwnerName,
	}
	switch {
	case activity.Category == CategoryRocada:
		activity.Title = rocadaTitle(activity.Subcategory, activity.Sector)
	case strings.TrimSpace(activity.Title) == "":
		activity.Title = DefaultActivityTitle
	}

	switch {
	case len(photos) > 0:
		activity.Status = StatusFinished
		activity.Duration = "0m"
	case input.Status == StatusFinished:
		activity.Status = StatusFinished
		activity.Duration = ComputeDuration(&createdAt, createdAt)
	default:
		activity.Status = StatusOpen
		activity.Duration = cmp.Or(input.Duration, "0m")
	}

	stored, err := s.repo.Create(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	s.publish(ctx, LifecycleEvent{Type: EventActivityCreated, Activity: stored, OccurredAt: createdAt})
	return &stored, nil
}

// GetActivity fetches by ID.
func (s *Service) GetActivity(ctx context.Context, id string) (*Activity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find activity %s: %w", id, err)
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// ListActivities returns every activity, most recent scheduledDate first.
// Activities sharing a date are ordered by ID so the listing is stable.
func (s *Service) ListActivities(ctx context.Context) ([]Activity, error) {
	activities, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	slices.SortStableFunc(activities, func(a, b Activity) int {
		if c := parseScheduledDate(b.ScheduledDate).Compare(parseScheduledDate(a.ScheduledDate)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return activities, nil
}

// UpdateActivity merges caller fields into the stored activity.
// Attaching evidence to an open activity finishes it and freezes its duration.
func (s *Service) UpdateActivity(ctx context.Context, id string, input UpdateActivityInput) (*Activity, error) {
	if blank(input.Category) || blank(input.ScheduledDate) {
		return nil, invalid("category and scheduledDate cannot be empty")
	}

	current, err := s.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	activity := *current
	previous := activity.Status

	finishedByEvidence := false
	if input.Photos != nil {
		activity.Photos = s.uploader.ProcessImages(ctx, *input.Photos)
		if len(activity.Photos) > 0 && activity.IsOpen() {
			s.finish(&activity)
			finishedByEvidence = true
		}
	}

	assign(&activity.Title, input.Title)
	assign(&activity.Category, input.Category)
	assign(&activity.Subcategory, input.Subcategory)
	assign(&activity.Sector, input.Sector)
	assign(&activity.ScheduledDate, input.ScheduledDate)
	assign(&activity.Description, input.Description)

	if input.Status != nil && !finishedByEvidence {
		if !input.Status.Valid() {
			return nil, invalid("status must be %q or %q", StatusOpen, StatusFinished)
		}
		switch {
		case *input.Status == StatusFinished && activity.IsOpen():
			s.finish(&activity)
		default:
			activity.Status = *input.Status
		}
	}

	if activity.Category == CategoryRocada {
		activity.Title = rocadaTitle(activity.Subcategory, activity.Sector)
	}

	updated, err := s.save(ctx, activity)
	if err != nil {
		return nil, err
	}
	if updated.Status != previous {
		s.publishStatusChange(ctx, updated, previous)
	}
	return &updated, nil
}

// ToggleStatus flips an activity between open and finished.
// Finishing freezes the duration; reopening keeps it and lets the refresh job resume.
func (s *Service) ToggleStatus(ctx context.Context, id string) (*Activity, error) {
	current, err := s.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	activity := *current
	previous := activity.Status

	if activity.IsOpen() {
		s.finish(&activity)
	} else {
		activity.Status = StatusOpen
	}

	updated, err := s.save(ctx, activity)
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, updated, previous)
	return &updated, nil
}

// DeleteActivity removes an activity. Deleting a missing activity is not an error.
func (s *Service) DeleteActivity(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete activity %s: %w", id, err)
	}
	s.publish(ctx, LifecycleEvent{
		Type:       EventActivityDeleted,
		Activity:   Activity{ID: id},
		OccurredAt: s.now().UTC(),
	})
	return nil
}

func (s *Service) finish(activity *Activity) {
	activity.Status = StatusFinished
	activity.Duration = ComputeDuration(activity.CreatedAt, s.now())
}

func (s *Service) save(ctx context.Context, activity Activity) (Activity, error) {
	updated, err := s.repo.Update(ctx, activity)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Activity{}, ErrActivityNotFound
		}
		return Activity{}, fmt.Errorf("update activity %s: %w", activity.ID, err)
	}
	return updated, nil
}

func (s *Service) publishStatusChange(ctx context.Context, activity Activity, previous ActivityStatus) {
	s.publish(ctx, LifecycleEvent{
		Type:           EventActivityStatusChanged,
		Activity:       activity,
		PreviousStatus: previous,
		OccurredAt:     s.now().UTC(),
	})
}

func (s *Service) publish(ctx context.Context, event LifecycleEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("lifecycle event not published", "event_type", event.Type, "activity_id", event.Activity.ID, "error", err)
	}
}

func assign(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

func blank(value *string) bool {
	return value != nil && strings.TrimSpace(*value) == ""
}

// parseScheduledDate accepts YYYY-MM-DD or a full RFC 3339 timestamp; anything else sorts last.
func parseScheduledDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
