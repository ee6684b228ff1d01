package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeLedger/internal/adapters/logger"
)

// inEmptyDir runs the test from a directory without a .env file.
func inEmptyDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	inEmptyDir(t)
	for _, k := range []string{"DB_PATH", "WATCH_DIR", "SCAN_SCHEDULE", "REMOVE_ON_SUCCESS", "FORMAT_PROFILE", "HTTP_ADDR", "LOG_LEVEL", "LOG_PRETTY"} {
		t.Setenv(k, "")
	}
	os.Unsetenv("HTTP_ADDR")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "./data/accounts_history.db", cfg.DBPath)
	assert.Equal(t, "/fidelity", cfg.WatchDir)
	assert.Equal(t, "@every 10s", cfg.ScanSchedule)
	assert.True(t, cfg.RemoveOnSuccess)
	assert.Empty(t, cfg.FormatProfile)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	inEmptyDir(t)
	profile := filepath.Join(t.TempDir(), "format.toml")
	require.NoError(t, os.WriteFile(profile, []byte(`version = "test"`), 0o644))

	t.Setenv("DB_PATH", "/tmp/ledger.db")
	t.Setenv("WATCH_DIR", "/downloads")
	t.Setenv("SCAN_SCHEDULE", "0 */5 * * * *")
	t.Setenv("REMOVE_ON_SUCCESS", "false")
	t.Setenv("FORMAT_PROFILE", profile)
	t.Setenv("HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger.db", cfg.DBPath)
	assert.Equal(t, "/downloads", cfg.WatchDir)
	assert.Equal(t, "0 */5 * * * *", cfg.ScanSchedule)
	assert.False(t, cfg.RemoveOnSuccess)
	assert.Equal(t, profile, cfg.FormatProfile)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPAddr)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
}

func TestLoadConfig_ValidationErrorsAreCollected(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("REMOVE_ON_SUCCESS", "maybe")
	t.Setenv("FORMAT_PROFILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("SCAN_SCHEDULE", "   ")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REMOVE_ON_SUCCESS")
	assert.Contains(t, err.Error(), "FORMAT_PROFILE")
	assert.Contains(t, err.Error(), "SCAN_SCHEDULE")
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("WATCH_DIR", "")
	require.NoError(t, os.WriteFile(".env", []byte("WATCH_DIR=/from/dotenv\n"), 0o644))
	// godotenv.Load sets variables the process does not already have.
	os.Unsetenv("WATCH_DIR")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.WatchDir)
}

func TestLoadConfig_EmptyHTTPAddrDisablesAPI(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("HTTP_ADDR", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestLoadConfig_HTTPAddrFromDotEnv(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("HTTP_ADDR", "")
	os.Unsetenv("HTTP_ADDR")
	require.NoError(t, os.WriteFile(".env", []byte("HTTP_ADDR=\n"), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.HTTPAddr)
}
