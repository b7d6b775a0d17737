package commons

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
database:
  host: db.internal
  port: 3306
  user: backoffice
  password: secret
  name: backoffice
  maxOpenConns: 10
  maxIdleConns: 2
  connMaxLifetime: 10m
log:
  level: debug
auth:
  jwtSecret: test-secret
order:
  transitionTxTimeout: 3s
  maxRetryAttempts: 5
invoice:
  dueDays: 14
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 10*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 3*time.Second, cfg.Order.TransitionTxTimeout)
	assert.Equal(t, 5, cfg.Order.MaxRetryAttempts)
	assert.Equal(t, 14, cfg.Invoice.DueDays)
}

func TestLoadConfig_MissingValuesFallBack(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8080
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 5*time.Second, cfg.Order.TransitionTxTimeout)
	assert.Equal(t, 3, cfg.Order.MaxRetryAttempts)
	assert.Equal(t, 30, cfg.Invoice.DueDays)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not: valid")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	path := writeConfigFile(t, `
order:
  transitionTxTimeout: soon
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
