package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 60*time.Second, cfg.Portal.Timeout)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, "screenshot", cfg.Output.Prefix)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 0.2, cfg.Preview.Scale, 1e-9)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
portal:
  timeout: 5s
output:
  dir: /tmp/shots
server:
  port: 9090
`), 0644))

	m, err := Load(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Portal.Timeout)
	assert.Equal(t, "/tmp/shots", cfg.Output.Dir)
	assert.Equal(t, "screenshot", cfg.Output.Prefix)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, path, m.Path())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SNAPSHOOTER_PORTAL_TIMEOUT", "90s")
	t.Setenv("SNAPSHOOTER_SERVER_PORT", "7070")

	m, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, 90*time.Second, cfg.Portal.Timeout)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "server.port")

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: [1, 2\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSet(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	require.NoError(t, m.Set("portal.timeout", "2m"))
	require.NoError(t, m.Set("log_level", "WARN"))
	require.NoError(t, m.Set("log_pretty", "false"))
	require.NoError(t, m.Set("preview.scale", "0.5"))

	cfg := m.Get()
	assert.Equal(t, 2*time.Minute, cfg.Portal.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.InDelta(t, 0.5, cfg.Preview.Scale, 1e-9)
}

func TestSet_Rejects(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	tests := []struct {
		key, value string
	}{
		{"nope", "1"},
		{"server.port", "eighty"},
		{"server.port", "0"},
		{"portal.timeout", "soon"},
		{"portal.timeout", "-1s"},
		{"log_level", "chatty"},
		{"preview.scale", "1.5"},
		{"log_pretty", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			assert.Error(t, m.Set(tt.key, tt.value))
		})
	}

	// Rejected values leave the previous ones in place.
	cfg := m.Get()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Portal.Timeout)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	m, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, m.Set("portal.timeout", "45s"))
	require.NoError(t, m.Set("output.prefix", "shot"))
	require.NoError(t, m.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	cfg := reloaded.Get()
	assert.Equal(t, 45*time.Second, cfg.Portal.Timeout)
	assert.Equal(t, "shot", cfg.Output.Prefix)
}

func TestLookup(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	v, err := m.Lookup("output.prefix")
	require.NoError(t, err)
	assert.Equal(t, "screenshot", v)

	_, err = m.Lookup("output.nope")
	assert.Error(t, err)
}

func TestKeys_Sorted(t *testing.T) {
	assert.Equal(t, []string{
		"log_level",
		"log_pretty",
		"output.dir",
		"output.prefix",
		"portal.timeout",
		"preview.scale",
		"server.port",
	}, Keys())
}
