package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, "lobby.db", cfg.DBPath)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 200, cfg.HistoryLimit)
	assert.Equal(t, time.Duration(0), cfg.PendingTTL)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.Equal(t, 10*time.Second, cfg.ChatRateInterval)
}

func TestLoadFile_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9090\npending_ttl: 2m\nbackpressure: kick\n"), 0o644))
	t.Setenv("LOBBY_HISTORY_LIMIT", "50")
	t.Setenv("LOBBY_PORT", "9191")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Port, "env wins over file")
	assert.Equal(t, 2*time.Minute, cfg.PendingTTL)
	assert.Equal(t, "kick", cfg.Backpressure)
	assert.Equal(t, 50, cfg.HistoryLimit)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backpressure: block\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
