package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := "SERVER_ADDRESS=:9090\n" +
		"POSTGRES_HOST=db\n" +
		"POSTGRES_USERNAME=rental\n" +
		"POSTGRES_PASSWORD=secret\n" +
		"POSTGRES_DATABASE=rental\n" +
		"REQUEST_TIMEOUT=3s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "postgres://rental:secret@db:5432/rental?sslmode=disable", cfg.PostgresConn)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "system", cfg.SystemUserID)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadConfig_EnvOverridesWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
	t.Setenv("SYSTEM_USER_ID", "payments-bot")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, "payments-bot", cfg.SystemUserID)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_PostgresWithoutConnection(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{StorageDriver: StorageDriverMemory, RequestTimeout: time.Second, SystemUserID: "system"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "sqlite" }},
		{name: "postgres without conn", mutate: func(c *Config) { c.StorageDriver = StorageDriverPostgres }},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }},
		{name: "empty system user", mutate: func(c *Config) { c.SystemUserID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(Config{LogLevel: "debug", LogFormat: "json"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger, err = NewLogger(Config{LogLevel: "warn"})
	require.NoError(t, err)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	_, err = NewLogger(Config{LogLevel: "loud"})
	assert.Error(t, err)

	_, err = NewLogger(Config{LogLevel: "info", LogFormat: "xml"})
	assert.Error(t, err)
}
