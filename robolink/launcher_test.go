package robolink

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RoboDK/RoboDK-API-sub002/logger"
)

const helperHostEnv = "ROBOLINK_HELPER_HOST"

// TestHelperHostProcess is not a real test: it is the host executable started by the
// launcher tests. The mode comes from helperHostEnv.
func TestHelperHostProcess(t *testing.T) {
	mode := os.Getenv(helperHostEnv)
	if mode == "" {
		return
	}

	switch mode {
	case "exit":
		fmt.Println("loading library")
		os.Exit(0)
	case "silent":
		time.Sleep(time.Minute)
		os.Exit(0)
	}

	port := 0
	for _, arg := range os.Args {
		if v, ok := strings.CutPrefix(arg, "/PORT="); ok {
			port, _ = strconv.Atoi(v)
		}
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		fmt.Println("listen:", err)
		os.Exit(1)
	}

	h := &fakeHost{ln: ln, handlers: map[string]handlerFunc{}}
	h.handshake = h.acceptHandshake
	h.handle("Version", versionReply(statusOK, ""))
	go h.serve()

	fmt.Println("Starting services")
	fmt.Println("Running")

	time.Sleep(time.Minute)
	os.Exit(0)
}

func helperLauncher(mode string) *Launcher {
	return &Launcher{
		Path:         os.Args[0],
		Args:         []string{"-test.run=^TestHelperHostProcess$", "--"},
		Env:          []string{helperHostEnv + "=" + mode},
		ReadyTimeout: 10 * time.Second,
		Logger:       logger.NewMockLogger().AllowAll(),
	}
}

// freePort returns a port nothing listens on.
func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	return port
}

func TestLauncher_Args(t *testing.T) {
	require := require.New(t)

	l := &Launcher{Args: []string{"-DEBUG"}}
	require.Equal([]string{"-DEBUG", "/PORT=20500"}, l.args(20500))

	l.Hidden = true
	require.Equal([]string{"-DEBUG", "/PORT=20501", "-NOSPLASH", "-NOSHOW", "-HIDDEN"}, l.args(20501))
	require.Equal([]string{"-DEBUG"}, l.Args)
}

func TestDefaultHostPath(t *testing.T) {
	t.Setenv(HostPathEnv, "/custom/host")
	require.Equal(t, "/custom/host", DefaultHostPath())

	t.Setenv(HostPathEnv, "")
	require.NotEmpty(t, DefaultHostPath())
}

func TestLauncher_Start(t *testing.T) {
	t.Run("ready marker", func(t *testing.T) {
		require := require.New(t)

		proc, err := helperLauncher("ready").Start(context.Background(), freePort(t))
		require.NoError(err)
		t.Cleanup(func() { _ = proc.Kill() })

		require.Positive(proc.Pid())
		select {
		case <-proc.Done():
			require.Fail("host exited after becoming ready")
		default:
		}
	})

	t.Run("exits before ready", func(t *testing.T) {
		_, err := helperLauncher("exit").Start(context.Background(), freePort(t))
		require.ErrorIs(t, err, ErrHostExited)
	})

	t.Run("ready timeout", func(t *testing.T) {
		l := helperLauncher("silent")
		l.ReadyTimeout = 200 * time.Millisecond

		_, err := l.Start(context.Background(), freePort(t))
		require.ErrorIs(t, err, ErrHostNotReady)
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		_, err := helperLauncher("silent").Start(ctx, freePort(t))
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("missing executable", func(t *testing.T) {
		l := &Launcher{Path: "/nonexistent/host", Logger: logger.NewMockLogger().AllowAll()}
		_, err := l.Start(context.Background(), 20500)
		require.Error(t, err)
	})
}

func TestConnect_LaunchOnDemand(t *testing.T) {
	require := require.New(t)

	port := freePort(t)
	cfg, err := NewConnectionConfig("127.0.0.1", port,
		WithConnectTimeout(time.Second),
		WithLauncher(helperLauncher("ready")),
		WithLogger(logger.NewMockLogger().AllowAll()),
	)
	require.NoError(err)

	s, err := NewSession(cfg)
	require.NoError(err)
	require.NoError(s.Connect(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
		if proc := s.HostProcess(); proc != nil {
			_ = proc.Kill()
		}
	})

	require.NotNil(s.HostProcess())
	require.Equal(port, s.Port())
	require.Equal(uint64(1), s.Metrics().LaunchCount.Load())

	v, err := s.Version(context.Background())
	require.NoError(err)
	require.Equal("RoboDK", v.App)

	// the host keeps running after disconnect
	require.NoError(s.Disconnect())
	select {
	case <-s.HostProcess().Done():
		require.Fail("host exited on disconnect")
	default:
	}
}
