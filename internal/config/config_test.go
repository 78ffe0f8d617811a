package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blocks/internal/config"
	"github.com/dmitrymomot/blocks/pkg/request"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, request.DefaultConfig(), cfg.Request)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "admin", cfg.Server.CPPathPrefix)
	require.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, slog.LevelInfo, cfg.Log.Level)
	require.Equal(t, "blocks", cfg.Cache.Prefix)
	require.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BLOCKS_URL_FORMAT", "path_info")
	t.Setenv("BLOCKS_ACTION_TRIGGER_WORD", "do")
	t.Setenv("BLOCKS_CACHE_TIME", "1h")
	t.Setenv("CP_HOSTS", "cp.example.com,*.admin.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("BLOCKS_PROBE_BASE_URL", "http://127.0.0.1:8080")

	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, request.FormatPathInfo, cfg.Request.URLFormat)
	require.Equal(t, "do", cfg.Request.ActionTriggerWord)
	require.Equal(t, time.Hour, cfg.Request.CacheTime)
	require.Equal(t, []string{"cp.example.com", "*.admin.example.com"}, cfg.Server.CPHosts)
	require.Equal(t, slog.LevelDebug, cfg.Log.Level)
	require.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	require.Equal(t, "http://127.0.0.1:8080", cfg.Request.ProbeBaseURL)
}

func TestLoad_FileOverridesEnv(t *testing.T) {
	t.Setenv("BLOCKS_PATH_VAR", "route")
	t.Setenv("SERVER_ADDR", ":9000")

	path := writeFile(t, `
server:
  addr: ":7000"
  cp_hosts: ["cp.example.com"]
request:
  url_format: querystring
  logout_trigger_word: signout
  probe_timeout: 500ms
log:
  level: warn
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, ":7000", cfg.Server.Addr)
	require.Equal(t, []string{"cp.example.com"}, cfg.Server.CPHosts)
	require.Equal(t, request.FormatQueryString, cfg.Request.URLFormat)
	require.Equal(t, "signout", cfg.Request.LogoutTriggerWord)
	require.Equal(t, 500*time.Millisecond, cfg.Request.ProbeTimeout)
	require.Equal(t, slog.LevelWarn, cfg.Log.Level)

	// Untouched by the file, so the env value stays.
	require.Equal(t, "route", cfg.Request.PathVar)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown url format in env", func(t *testing.T) {
		t.Setenv("BLOCKS_URL_FORMAT", "rewrite")

		_, err := config.Load("")
		require.ErrorIs(t, err, config.ErrParseEnv)
	})

	t.Run("unknown url format in file", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "request:\n  url_format: rewrite\n"))
		require.ErrorIs(t, err, config.ErrParseFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorIs(t, err, config.ErrReadFile)
	})

	t.Run("relative probe base url", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "request:\n  probe_base_url: /self\n"))
		require.ErrorIs(t, err, config.ErrInvalidValue)
	})

	t.Run("empty path var", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "request:\n  path_var: \"\"\n"))
		require.ErrorIs(t, err, config.ErrInvalidValue)
	})
}
