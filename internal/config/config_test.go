package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "janus-protocol", cfg.Janus.Subprotocol)
	assert.Equal(t, 10*time.Second, cfg.Janus.TransactionTimeout)
	assert.Zero(t, cfg.Janus.TransactionTTL)
	assert.Equal(t, 54*time.Second, cfg.Janus.PingPeriod)
	assert.Equal(t, 4, cfg.Jobs.Workers)
	assert.Empty(t, cfg.Jobs.Dir)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: debug
port: 9090
janus:
  url: ws://gateway:8188
  transaction_ttl: 2m
cm:
  base_url: http://cm/api
jobs:
  dir: /var/jobs
  workers: 8
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "ws://gateway:8188", cfg.Janus.URL)
	assert.Equal(t, 2*time.Minute, cfg.Janus.TransactionTTL)
	assert.Equal(t, "janus-protocol", cfg.Janus.Subprotocol)
	assert.Equal(t, "http://cm/api", cfg.CM.BaseURL)
	assert.Equal(t, "/var/jobs", cfg.Jobs.Dir)
	assert.Equal(t, 8, cfg.Jobs.Workers)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ROOMBRIDGE_PORT", "7000")
	t.Setenv("ROOMBRIDGE_CM_BASE_URL", "http://override")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "http://override", cfg.CM.BaseURL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jobs:\n  workers: -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
