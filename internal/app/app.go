// Package app assembles stores, services and background workers from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tigocode/solar-back/internal/auth"
	"github.com/tigocode/solar-back/internal/config"
	"github.com/tigocode/solar-back/internal/domain"
	"github.com/tigocode/solar-back/internal/events"
	"github.com/tigocode/solar-back/internal/imagehost"
	"github.com/tigocode/solar-back/internal/persistence"
	"github.com/tigocode/solar-back/internal/persistence/memory"
	"github.com/tigocode/solar-back/internal/persistence/postgres"
	"github.com/tigocode/solar-back/internal/persistence/sqlite"
	"github.com/tigocode/solar-back/internal/refresh"
)

// App holds the wired components shared by the server and the CLI.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Store      persistence.Store
	Activities *persistence.Collection[domain.Activity]
	Service    *domain.Service
	Catalog    *domain.CatalogService
	Users      *domain.UserService
	Scheduler  *refresh.Scheduler

	// Dispatcher, DeadLetters and producer are nil when Kafka is not configured.
	Dispatcher  *events.Dispatcher
	DeadLetters *events.DeadLetterStore
	producer    *events.KafkaProducer
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OpenStore connects the configured document store.
func OpenStore(ctx context.Context, cfg config.Config) (persistence.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// New opens the store and wires every service.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(cfg, os.Stderr)
	}
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Activities: persistence.NewCollection[domain.Activity](store, persistence.CollectionActivities),
	}

	host, err := newImageHost(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var publisher domain.EventPublisher = domain.NoopPublisher{}
	if cfg.EventsEnabled() {
		a.producer = events.NewKafkaProducer(cfg.KafkaBrokers)
		a.DeadLetters = events.NewDeadLetterStore(store)
		a.Dispatcher = events.NewDispatcher(a.producer, events.NewSchemaRegistryClient(cfg.SchemaRegistryURL), a.DeadLetters,
			events.WithBufferSize(cfg.EventBufferSize),
			events.WithFlushInterval(cfg.EventFlushInterval),
			events.WithDispatcherLogger(logger),
		)
		publisher = a.Dispatcher
	}

	uploader := domain.NewEvidenceUploader(host, cfg.UploadTimeout, logger)
	a.Service = domain.NewService(a.Activities, uploader,
		domain.WithLogger(logger),
		domain.WithPublisher(publisher),
	)
	a.Catalog = domain.NewCatalogService(
		persistence.NewCollection[domain.Category](store, persistence.CollectionCategories),
		persistence.NewCollection[domain.Item](store, persistence.CollectionItems),
	)
	a.Users = domain.NewUserService(persistence.NewCollection[domain.User](store, persistence.CollectionUsers))
	a.Scheduler = refresh.NewScheduler(a.Activities, cfg.RefreshInterval, refresh.WithLogger(logger))
	return a, nil
}

// Tokens returns the signer configuration for login and the auth middleware.
func (a *App) Tokens() auth.Config {
	return auth.Config{Secret: a.Config.JWTSecret, Issuer: a.Config.JWTIssuer, TTL: a.Config.JWTTTL}
}

// Replayer returns a dead-letter replayer, or nil when events are disabled.
func (a *App) Replayer() *events.Replayer {
	if a.Dispatcher == nil {
		return nil
	}
	return events.NewReplayer(a.DeadLetters, a.Dispatcher, a.Config.DLQMaxRetries, a.Config.DLQBaseDelay, a.Logger)
}

// Close releases the Kafka writers and the store.
func (a *App) Close() error {
	var err error
	if a.producer != nil {
		err = a.producer.Close()
	}
	return errors.Join(err, a.Store.Close())
}

func newImageHost(cfg config.Config, logger *slog.Logger) (domain.ImageHost, error) {
	cloudinaryCfg := imagehost.CloudinaryConfig{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.EvidenceFolder,
	}
	if !cloudinaryCfg.Configured() {
		logger.Warn("cloudinary credentials missing, raw evidence photos will be dropped")
		return imagehost.Disabled{}, nil
	}
	host, err := imagehost.NewCloudinary(cloudinaryCfg)
	if err != nil {
		return nil, err
	}
	return host, nil
}
