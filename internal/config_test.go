package internal

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "novadb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "novadb", cfg.AppName)
	require.Equal(t, "file", cfg.Storage.Mode)
	require.Equal(t, "./data", cfg.Storage.Workdir)
	require.Equal(t, "json", cfg.Storage.Codec)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, 16, cfg.Cache.SizeMB)
	require.Zero(t, cfg.CacheTTL())
	require.Equal(t, "127.0.0.1:8866", cfg.Server.Addr)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
app_name: shop
storage:
  mode: Pebble
  workdir: /var/lib/shop
  codec: msgpack
cache:
  enabled: false
  size_mb: 4
  ttl_seconds: 30
server:
  addr: 0.0.0.0:7000
log:
  level: debug
  format: json
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "shop", cfg.AppName)
	require.Equal(t, "pebble", cfg.Storage.Mode)
	require.Equal(t, "msgpack", cfg.Storage.Codec)
	require.False(t, cfg.Cache.Enabled)
	require.Equal(t, 30*time.Second, cfg.CacheTTL())
	require.Equal(t, "0.0.0.0:7000", cfg.Server.Addr)
	require.Equal(t, "127.0.0.1:9466", cfg.Server.MetricsAddr)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("NOVADB_STORAGE_MODE", "memory")
	t.Setenv("NOVADB_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Storage.Mode)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown mode":     "storage:\n  mode: mysql\n",
		"unknown codec":    "storage:\n  codec: xml\n",
		"redis needs addr": "storage:\n  mode: redis\n",
		"empty workdir":    "storage:\n  mode: bolt\n  workdir: \"\"\n",
		"bad level":        "log:\n  level: loud\n",
		"bad addr":         "server:\n  addr: nowhere\n",
		"cache too small":  "cache:\n  size_mb: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestWatchConfig_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")

	changed := make(chan *NovaDBConfig, 4)
	cfg, err := WatchConfig(path, func(c *NovaDBConfig) { changed <- c }, nil)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Log.Level)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	require.Eventually(t, func() bool {
		select {
		case c := <-changed:
			return c.Log.Level == "debug"
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNewLogger_LevelVar(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	lv.Set(ParseLogLevel("warn"))
	log := NewLogger(&buf, lv, "json")

	log.Info("hidden")
	require.Empty(t, buf.String())

	lv.Set(ParseLogLevel("debug"))
	log.Debug("shown", "table", "users")
	require.True(t, strings.Contains(buf.String(), `"table":"users"`))
}
