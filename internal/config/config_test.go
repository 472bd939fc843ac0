package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 64, cfg.Engine.CacheSize)
	assert.Equal(t, 4, cfg.Engine.GroupConcurrency)
	assert.Equal(t, []string{"digitalFilter"}, cfg.Engine.ProtectedKinds)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestParseOverlaysDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(strings.NewReader(`
store:
  driver: sqlite
  path: /tmp/nmr.db
engine:
  cacheSize: 0
`))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 0, cfg.Engine.CacheSize)
	assert.Equal(t, 4, cfg.Engine.GroupConcurrency)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown driver":   "store: {driver: postgres}",
		"missing path":     "store: {driver: badger}",
		"bad level":        "log: {level: loud}",
		"zero concurrency": "engine: {groupConcurrency: 0}",
		"negative cache":   "engine: {cacheSize: -1}",
		"metrics no label": "metrics: {enabled: true, service: \"\"}",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(in))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Parse(strings.NewReader("bogus: 1"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nmr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: {format: json}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "json"}.Logger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	LogConfig{Level: "debug", Format: "json"}.Logger(&buf).Debug("shown", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
