package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tigocode/solar-back/internal/config"
	"github.com/tigocode/solar-back/internal/domain"
)

func TestNewWiresMemoryStoreWithoutEvents(t *testing.T) {
	cfg := config.Defaults()
	var logs bytes.Buffer

	a, err := New(context.Background(), cfg, NewLogger(cfg, &logs))
	require.NoError(t, err)
	defer a.Close()

	require.Nil(t, a.Dispatcher)
	require.Nil(t, a.Replayer())
	require.False(t, a.Tokens().Enabled())
	require.Contains(t, logs.String(), "cloudinary credentials missing")

	created, err := a.Service.CreateActivity(context.Background(), domain.CreateActivityInput{
		Category:      "Limpeza",
		ScheduledDate: "2024-05-01",
		Photos:        []string{"data:image/png;base64,AAAA", "https://cdn.example/ok.png"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn.example/ok.png"}, created.Photos)
}

func TestNewWiresEventsWhenBrokersConfigured(t *testing.T) {
	cfg := config.Defaults()
	cfg.KafkaBrokers = []string{"localhost:9092"}
	cfg.StoreDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "solar.db")

	a, err := New(context.Background(), cfg, NewLogger(cfg, &bytes.Buffer{}))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Dispatcher)
	require.NotNil(t, a.Replayer())
}

func TestNewLoggerHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Defaults()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	logger := NewLogger(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.StoreDriver = "mongo"
	_, err := OpenStore(context.Background(), cfg)
	require.Error(t, err)
}
