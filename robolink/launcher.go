package robolink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/RoboDK/RoboDK-API-sub002/internal/pool"
	"github.com/RoboDK/RoboDK-API-sub002/logger"
)

const (
	// HostPathEnv overrides the default location of the host executable.
	HostPathEnv = "ROBOLINK_HOST_PATH"

	// DefaultReadyMarker is the text the host prints on stdout once it accepts API connections.
	DefaultReadyMarker = "Running"

	// DefaultReadyTimeout bounds the wait for the ready marker.
	DefaultReadyTimeout = time.Minute
)

// Launcher starts the simulation host as a child process.
//
// The zero value is usable: it starts the executable returned by DefaultHostPath
// and waits up to DefaultReadyTimeout for DefaultReadyMarker.
type Launcher struct {
	// Path of the host executable. Empty means DefaultHostPath().
	Path string
	// Args are passed before the port argument.
	Args []string
	// Env entries are appended to the environment of the current process.
	Env []string
	// Hidden starts the host without splash screen and main window.
	Hidden bool
	// ReadyMarker is matched case-insensitively against each stdout line.
	ReadyMarker string
	// ReadyTimeout bounds the wait for the ready marker.
	ReadyTimeout time.Duration
	// Logger receives the host's stdout at debug level. Nil means the default logger.
	Logger logger.Logger
}

// DefaultHostPath returns the host executable path: the value of ROBOLINK_HOST_PATH when set,
// otherwise the default installation path for the current OS.
func DefaultHostPath() string {
	if p := os.Getenv(HostPathEnv); p != "" {
		return p
	}

	switch runtime.GOOS {
	case "windows":
		return `C:\RoboDK\bin\RoboDK.exe`
	case "darwin":
		return "/Applications/RoboDK.app/Contents/MacOS/RoboDK"
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "/opt/RoboDK/bin/RoboDK"
		}
		return filepath.Join(home, "RoboDK", "bin", "RoboDK")
	}
}

// HostProcess is a host started by a Launcher. Its stdout is drained until it exits.
type HostProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Pid returns the process id of the host.
func (p *HostProcess) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed when the host process has exited.
func (p *HostProcess) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the host exits and returns its exit error.
func (p *HostProcess) Wait() error {
	<-p.done
	return p.err
}

// Kill terminates the host immediately.
func (p *HostProcess) Kill() error {
	return p.cmd.Process.Kill()
}

// Start runs the host, telling it to listen on port, and blocks until it prints the ready
// marker. The process is killed if readiness is not reached.
//
// The host outlives ctx once ready: cancelling ctx only aborts the wait.
func (l *Launcher) Start(ctx context.Context, port int) (*HostProcess, error) {
	path := l.Path
	if path == "" {
		path = DefaultHostPath()
	}

	marker := strings.ToLower(l.ReadyMarker)
	if marker == "" {
		marker = strings.ToLower(DefaultReadyMarker)
	}

	timeout := l.ReadyTimeout
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}

	log := l.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	cmd := exec.Command(path, l.args(port)...) //nolint:gosec
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start host %q: %w", path, err)
	}

	proc := &HostProcess{cmd: cmd, done: make(chan struct{})}
	log = log.With("pid", cmd.Process.Pid)
	log.Info("host started", "path", path, "port", port)

	ready := make(chan error, 1)
	go proc.watch(stdout, marker, ready, log)

	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case err = <-ready:
	case <-timer.C:
		err = fmt.Errorf("%w after %s", ErrHostNotReady, timeout)
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		_ = proc.Kill()
		return nil, err
	}
	log.Info("host ready")

	return proc, nil
}

func (l *Launcher) args(port int) []string {
	args := slices.Clone(l.Args)
	args = append(args, fmt.Sprintf("/PORT=%d", port))
	if l.Hidden {
		args = append(args, "-NOSPLASH", "-NOSHOW", "-HIDDEN")
	}

	return args
}

// watch reads stdout line by line, signals ready on the first line containing the marker and
// keeps draining so the host never blocks on a full pipe.
func (p *HostProcess) watch(stdout io.Reader, marker string, ready chan<- error, log logger.Logger) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	signaled := false
	for scanner.Scan() {
		line := scanner.Text()
		log.Debug("host output", "line", line)

		if !signaled && strings.Contains(strings.ToLower(line), marker) {
			ready <- nil
			signaled = true
		}
	}
	_, _ = io.Copy(io.Discard, stdout)

	if !signaled {
		ready <- ErrHostExited
	}

	p.err = p.cmd.Wait()
	close(p.done)
}
