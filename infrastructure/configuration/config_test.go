package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSync_FillsDefaults(t *testing.T) {
	var c Config
	c.Sync.VideoMaxAge = 3 * time.Minute

	initSync(&c)

	assert.Equal(t, 3*time.Minute, c.Sync.VideoMaxAge, "configured value is kept")
	assert.Equal(t, time.Hour, c.Sync.SubscriptionsMaxAge)
	assert.Equal(t, 24*time.Hour, c.Sync.EmptyScheduleMaxAge)
	assert.Equal(t, 500, c.Sync.TimelineVideoLimit)
	assert.Equal(t, 2, c.Worker.Concurrency)
	assert.Equal(t, "@every 5m", c.Worker.FollowedStreamsEvery)
}

func TestGetConfigValue(t *testing.T) {
	t.Setenv("YTTT_TEST_KEY", "")
	assert.Equal(t, "from-config", getConfigValue("from-config", "YTTT_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("YOUR_PLACEHOLDER", "YTTT_TEST_KEY", "default"))

	t.Setenv("YTTT_TEST_KEY", "from-env")
	assert.Equal(t, "from-env", getConfigValue("from-config", "YTTT_TEST_KEY", "default"))
}

func TestInitApp_PortFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "8088")
	var c Config

	initApp(&c)

	assert.Equal(t, 8088, c.App.Port)
}

func TestLoadEnvFromFile_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("YTTT_FROM_FILE=file\nYTTT_PRESET=file\n"), 0o600))
	t.Setenv("YTTT_PRESET", "process")
	t.Cleanup(func() { _ = os.Unsetenv("YTTT_FROM_FILE") })

	loaded := LoadEnvFromFile(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "file", os.Getenv("YTTT_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("YTTT_PRESET"))
}

func TestGetTwitchConfig_Defaults(t *testing.T) {
	t.Setenv("TWITCH_BASE_URL", "")
	saved := C
	defer func() { C = saved }()
	C = Config{}

	cfg := GetTwitchConfig()

	assert.Equal(t, "https://api.twitch.tv/helix", cfg.BaseURL)
	assert.Equal(t, float64(13), cfg.RequestsPerSecond)
	assert.Equal(t, 10, cfg.Burst)
}
