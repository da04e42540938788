package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require := require.New(t)

	for in, want := range map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		" warn ":  WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(err, in)
		require.Equal(want, got, in)
	}

	_, err := ParseLevel("verbose")
	require.Error(err)

	require.Equal("warn", WarnLevel.String())
	require.Equal("Level(9)", Level(9).String())
}

func TestSlogLogger(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, InfoLevel, false)
	require.Equal(InfoLevel, l.Level())

	l.Debug("hidden")
	require.Zero(buf.Len())

	child := l.With("session", "abc")
	child.Warn("host warning", "message", "singularity")

	var rec map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &rec))
	require.Equal("WARN", rec["level"])
	require.Equal("host warning", rec["msg"])
	require.Equal("abc", rec["session"])
	require.Equal("singularity", rec["message"])
	require.Contains(rec, "ts")

	// child shares the parent's level
	buf.Reset()
	l.SetLevel(DebugLevel)
	require.Equal(DebugLevel, child.Level())
	child.Debug("visible")
	require.True(strings.Contains(buf.String(), "visible"))
}

func TestMockLogger(t *testing.T) {
	m := NewMockLogger()
	m.On("Info", "connected", []any{"port", 20500}).Once()

	m.Info("connected", "port", 20500)
	m.AssertExpectations(t)

	all := NewMockLogger().AllowAll()
	child := all.With("k", "v")
	child.Debug("anything")
	require.Same(t, all, child)
}
