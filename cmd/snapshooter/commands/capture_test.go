package commands

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/bryanchriswhite/SnapShooter/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPath(t *testing.T) {
	cfg := config.Config{Output: config.OutputConfig{Dir: "/tmp/shots", Prefix: "screenshot"}}
	now := time.Date(2024, 5, 1, 13, 37, 0, 0, time.Local)

	assert.Equal(t, "desk.png", outputPath("desk.png", cfg, now))
	assert.Equal(t,
		filepath.Join("/tmp/shots", "screenshot-2024-05-01T13-37-00.png"),
		outputPath("", cfg, now))
}

func TestCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"capture"},
		{"detect"},
		{"serve"},
		{"config", "show"},
		{"config", "set"},
		{"config", "get"},
		{"config", "path"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if assert.NoError(t, err, path) {
			assert.Equal(t, path[len(path)-1], cmd.Name())
		}
	}
}

func TestWriteConfig(t *testing.T) {
	cfg := config.Config{
		LogLevel: "info",
		Portal:   config.PortalConfig{Timeout: 90 * time.Second},
		Server:   config.ServerConfig{Port: 8080},
	}

	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, cfg, "yaml"))
	assert.Contains(t, buf.String(), "timeout: 1m30s")
	assert.Contains(t, buf.String(), "port: 8080")

	buf.Reset()
	require.NoError(t, writeConfig(&buf, cfg, "json"))
	assert.Contains(t, buf.String(), `"log_level": "info"`)

	assert.Error(t, writeConfig(&buf, cfg, "toml"))
}

func TestRunConfigSet(t *testing.T) {
	prev := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { cfgFile = prev })

	require.NoError(t, runConfigSet(configSetCmd, []string{"log_level", "WARN"}))

	reloaded, err := config.Load(cfgFile)
	require.NoError(t, err)
	assert.Equal(t, "warn", reloaded.Get().LogLevel)

	assert.Error(t, runConfigSet(configSetCmd, []string{"no.such.key", "1"}))
}
