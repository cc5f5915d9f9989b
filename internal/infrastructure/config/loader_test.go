package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missing(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missing(t))
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.StateDir)
	assert.Equal(t, "~", cfg.Prefix)
	assert.Equal(t, 1000, cfg.FuseLimit)
	assert.Equal(t, 64, cfg.MaxDepth)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, 5.0, cfg.APIRate)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.OutputFilter)
	assert.False(t, cfg.Twitch.Enabled())
	assert.False(t, cfg.Kick.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PLADDER_STATE_DIR", "/var/lib/pladder")
	t.Setenv("PLADDER_FUSE_LIMIT", "10")
	t.Setenv("PLADDER_OUTPUT_FILTER", " upper ")
	t.Setenv("TWITCH_BOT_USERNAME", "pladder")
	t.Setenv("TWITCH_BOT_ACCESS_TOKEN", "oauth:x")
	t.Setenv("TWITCH_BOT_CHANNELS", "a, b,,c")
	t.Setenv("KICK_BOT_TOKEN", "k")
	t.Setenv("KICK_CHATROOM_ID", "42")

	cfg, err := Load(missing(t))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/pladder", cfg.StateDir)
	assert.Equal(t, 10, cfg.FuseLimit)
	assert.Equal(t, "upper", cfg.OutputFilter)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Twitch.Channels)
	assert.True(t, cfg.Twitch.Enabled())
	assert.True(t, cfg.Kick.Enabled())
	assert.Equal(t, 42, cfg.Kick.ChatroomID)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PLADDER_PREFIX=!\nPLADDER_MAX_DEPTH=8\n"), 0o600))
	// t.Setenv registra la restauración de las variables que godotenv fija.
	t.Setenv("PLADDER_PREFIX", "")
	t.Setenv("PLADDER_MAX_DEPTH", "")
	require.NoError(t, os.Unsetenv("PLADDER_PREFIX"))
	require.NoError(t, os.Unsetenv("PLADDER_MAX_DEPTH"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "!", cfg.Prefix)
	assert.Equal(t, 8, cfg.MaxDepth)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("PLADDER_FUSE_LIMIT", "0")
	t.Setenv("PLADDER_API_RATE", "-1")

	_, err := Load(missing(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLADDER_FUSE_LIMIT")
	assert.Contains(t, err.Error(), "PLADDER_API_RATE")

	t.Setenv("PLADDER_FUSE_LIMIT", "many")
	_, err = Load(missing(t))
	require.Error(t, err)
}
