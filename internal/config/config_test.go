package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SOLAR_CONFIG_PATH", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3001", cfg.HTTPAddress)
	require.Equal(t, DriverMemory, cfg.StoreDriver)
	require.Equal(t, 120*time.Second, cfg.UploadTimeout)
	require.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	require.Equal(t, int64(50<<20), cfg.MaxBodyBytes)
	require.Equal(t, "*", cfg.CORSOrigin)
	require.False(t, cfg.EventsEnabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_address: ":9000"
store_driver: sqlite
sqlite_path: /var/lib/solar/solar.db
refresh_interval: 5m
kafka_brokers: ["kafka-1:9092", "kafka-2:9092"]
`), 0o600))

	t.Setenv("SOLAR_CONFIG_PATH", path)
	t.Setenv("HTTP_ADDRESS", ":9100")
	t.Setenv("UPLOAD_TIMEOUT", "30s")
	t.Setenv("AUTH_REQUIRED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9100", cfg.HTTPAddress)
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.Equal(t, "/var/lib/solar/solar.db", cfg.SQLitePath)
	require.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	require.Equal(t, 30*time.Second, cfg.UploadTimeout)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.EventsEnabled())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("SOLAR_CONFIG_PATH", "")
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	require.ErrorContains(t, err, "unknown store driver")

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	require.Error(t, err)
}

func TestKafkaBrokersSplit(t *testing.T) {
	require.Equal(t, []string{"a:9092", "b:9092"}, splitAndTrim(" a:9092, ,b:9092 "))
}
