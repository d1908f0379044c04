package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/imagefeed/eviction"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.NotEmpty(t, cfg.Relays)
	assert.Equal(t, "https://bs.samt.st", cfg.BlossomServer)
	assert.Equal(t, 500, cfg.QueryLimit)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, 5*time.Minute, cfg.StaleAfterDuration())
	assert.Equal(t, 10*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, time.Second, cfg.RetryBaseDelayDuration())
	assert.Equal(t, 30*time.Second, cfg.RetryMaxDelayDuration())
	assert.Equal(t, eviction.LRU, cfg.EvictionPolicy())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
relays: [wss://relay.example.com]
timeout: 15s
eviction: fifo
refresh_interval: "off"
log:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"wss://relay.example.com"}, cfg.Relays)
	assert.Equal(t, 15*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, eviction.FIFO, cfg.EvictionPolicy())
	assert.Equal(t, time.Duration(0), cfg.RefreshDuration())
	assert.Equal(t, "debug", cfg.Log.Level)

	// untouched keys keep their default
	assert.Equal(t, "https://bs.samt.st", cfg.BlossomServer)
	assert.Equal(t, 5*time.Minute, cfg.StaleAfterDuration())
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
relays: [https://not-a-relay]
timeout: soon
eviction: lfu
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-relay")
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "lfu")
}

func TestDurationFallback(t *testing.T) {
	cfg := &Config{StaleAfter: "invalid", IdleExpire: "off"}
	assert.Equal(t, DefaultStaleAfter, cfg.StaleAfterDuration())
	assert.Equal(t, time.Duration(0), cfg.IdleExpireDuration())
	assert.Equal(t, DefaultRefreshInterval, cfg.RefreshDuration())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Shards)
}
