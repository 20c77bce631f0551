package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfall/async"
	"github.com/emberfall/async/config"
)

var envVars = []string{
	"ASYNC_BACKEND",
	"ASYNC_LOG_LEVEL",
	"ASYNC_LOG_FORMAT",
	"ASYNC_SHUTDOWN_TIMEOUT",
}

// unsetEnv clears every variable the config reads for the duration of the test.
func unsetEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "") // restores the original value on cleanup
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, async.BackendThreaded, cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	unsetEnv(t)
	t.Setenv("ASYNC_BACKEND", "cooperative")
	t.Setenv("ASYNC_LOG_LEVEL", "debug")
	t.Setenv("ASYNC_SHUTDOWN_TIMEOUT", "250ms")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, async.BackendCooperative, cfg.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 250*time.Millisecond, cfg.ShutdownTimeout)
}

func TestLoad_InvalidBackend(t *testing.T) {
	unsetEnv(t)
	t.Setenv("ASYNC_BACKEND", "green-threads")

	_, err := config.Load()
	require.ErrorIs(t, err, config.ErrInvalidBackend)
}

func TestLoad_InvalidDuration(t *testing.T) {
	unsetEnv(t)
	t.Setenv("ASYNC_SHUTDOWN_TIMEOUT", "soon")

	_, err := config.Load()
	require.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_EnvFile(t *testing.T) {
	unsetEnv(t)
	path := writeFile(t, ".env", "ASYNC_BACKEND=cooperative\nASYNC_LOG_FORMAT=json\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, async.BackendCooperative, cfg.Backend)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	unsetEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorIs(t, err, config.ErrReadingFile)
}

func TestLoadFile(t *testing.T) {
	unsetEnv(t)
	path := writeFile(t, "async.yaml", "backend: cooperative\nlog_level: warn\nshutdown_timeout: 2s\n")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, async.BackendCooperative, cfg.Backend)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat, "settings missing from the file keep their defaults")
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFile_EnvWins(t *testing.T) {
	unsetEnv(t)
	path := writeFile(t, "async.yaml", "backend: cooperative\n")
	t.Setenv("ASYNC_BACKEND", "threaded")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, async.BackendThreaded, cfg.Backend)
}

func TestLoadFile_Errors(t *testing.T) {
	unsetEnv(t)

	_, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, config.ErrReadingFile)

	path := writeFile(t, "broken.yaml", "backend: [threaded\n")
	_, err = config.LoadFile(path)
	require.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestMustLoad(t *testing.T) {
	unsetEnv(t)
	assert.NotPanics(t, func() { config.MustLoad() })

	t.Setenv("ASYNC_LOG_FORMAT", "xml")
	assert.Panics(t, func() { config.MustLoad() })
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{"defaults", func(*config.Config) {}, nil},
		{"cooperative", func(c *config.Config) { c.Backend = async.BackendCooperative }, nil},
		{"json upper case", func(c *config.Config) { c.LogFormat = "JSON" }, nil},
		{"empty backend", func(c *config.Config) { c.Backend = "" }, config.ErrInvalidBackend},
		{"bad format", func(c *config.Config) { c.LogFormat = "xml" }, config.ErrInvalidLogFormat},
		{"negative timeout", func(c *config.Config) { c.ShutdownTimeout = -time.Second }, config.ErrInvalidShutdownTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
