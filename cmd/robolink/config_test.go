package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RoboDK/RoboDK-API-sub002/logger"
	"github.com/RoboDK/RoboDK-API-sub002/robolink"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "robolink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		require := require.New(t)

		path := writeConfig(t, `
host: 10.0.0.5
port: 20500
port_end: 20502
connect_timeout: 500ms
command_timeout: 30s
long_timeout: 2h
safe_mode: false
log_level: debug
launcher:
  path: /opt/host/bin/host
  args: ["-DEBUG"]
  hidden: true
  ready_timeout: 90s
`)
		cfg, err := loadConfig(path)
		require.NoError(err)
		require.Equal("10.0.0.5", cfg.Host)
		require.Equal(20502, cfg.PortEnd)
		require.Equal(500*time.Millisecond, cfg.ConnectTimeout)
		require.Equal(2*time.Hour, cfg.LongTimeout)
		require.NotNil(cfg.SafeMode)
		require.False(*cfg.SafeMode)
		require.Nil(cfg.AutoRender)
		require.Equal("debug", cfg.LogLevel)
		require.Equal(90*time.Second, cfg.Launcher.ReadyTimeout)

		conn, err := robolink.NewConnectionConfig(cfg.Host, cfg.Port, cfg.options(logger.NewMockLogger())...)
		require.NoError(err)
		require.Equal([]int{20500, 20501, 20502}, conn.Ports())
		require.Equal(500*time.Millisecond, conn.ConnectTimeout())
		require.Equal(30*time.Second, conn.CommandTimeout())
		require.Equal(2*time.Hour, conn.LongTimeout())
		require.False(conn.SafeMode())
		require.True(conn.AutoRender())
		require.NotNil(conn.Launcher())
		require.Equal("/opt/host/bin/host", conn.Launcher().Path)
		require.True(conn.Launcher().Hidden)
	})

	t.Run("no file", func(t *testing.T) {
		require := require.New(t)

		cfg, err := loadConfig("")
		require.NoError(err)

		conn, err := robolink.NewConnectionConfig(cfg.Host, cfg.Port, cfg.options(logger.NewMockLogger())...)
		require.NoError(err)
		require.Equal(robolink.DefaultHost, conn.Host())
		require.Equal([]int{robolink.DefaultPort}, conn.Ports())
		require.Nil(conn.Launcher())
	})

	t.Run("invalid option", func(t *testing.T) {
		cfg, err := loadConfig(writeConfig(t, "command_timeout: 10ms\n"))
		require.NoError(t, err)

		_, err = robolink.NewConnectionConfig(cfg.Host, cfg.Port, cfg.options(logger.NewMockLogger())...)
		require.EqualError(t, err, "command timeout out of range [1, 3600]")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := loadConfig(writeConfig(t, "port: [1, 2\n"))
		require.Error(t, err)

		_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestValues(t *testing.T) {
	require := require.New(t)

	v, err := parseValues([]string{"0", "-90.5", "1e2"})
	require.NoError(err)
	require.Equal([]float64{0, -90.5, 100}, v)
	require.Equal("0.000 -90.500 100.000", formatValues(v))

	_, err = parseValues([]string{"1", "x"})
	require.ErrorContains(err, "value 2")
}
