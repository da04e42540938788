package robolink

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/RoboDK/RoboDK-API-sub002/logger"
)

const (
	// DefaultHost is the host used when NewConnectionConfig receives an empty host.
	DefaultHost = "localhost"
	// DefaultPort is the API port the host listens on unless told otherwise.
	DefaultPort = 20500
)

// ConnectionConfig holds the parameters of a Session.
type ConnectionConfig struct {
	mu sync.RWMutex

	// host specifies the host running the simulator.
	host string

	// port is the first port probed by Connect.
	port int
	// portEnd is the last port probed by Connect. Ports port..portEnd are tried in order.
	// Defaults to port.
	portEnd int

	// connectTimeout bounds each TCP connect attempt and the handshake. It should be between
	// 100 milliseconds and 30 seconds.
	// Defaults to 3 seconds.
	connectTimeout time.Duration

	// commandTimeout bounds the round trip of an ordinary command. It should be between
	// 1 second and 1 hour.
	// Defaults to 10 seconds.
	commandTimeout time.Duration

	// longTimeout bounds the round trip of commands that wait on the user or on long host
	// operations: file loads, program generation, blocking moves, popups.
	// It should be between 1 second and 24 hours.
	// Defaults to 1 hour.
	longTimeout time.Duration

	// safeMode asks the host to validate every item handle it receives.
	// Defaults to true.
	safeMode bool

	// autoRender asks the host to render the scene after every command.
	// Defaults to true.
	autoRender bool

	// launcher starts the host when nothing answers on a local address.
	// Defaults to nil: no launch.
	launcher *Launcher

	// logger provides a logger instance for session events and errors.
	logger logger.Logger
}

// NewConnectionConfig creates a configuration for a session with the host at host:port.
//
// An empty host means DefaultHost and a zero port means DefaultPort.
// The opts parameter accepts ConnOption values; see the WithXXX functions.
//
// Returns the configuration and the first validation error encountered, if any.
func NewConnectionConfig(host string, port int, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		connectTimeout: 3 * time.Second,
		commandTimeout: 10 * time.Second,
		longTimeout:    time.Hour,
		safeMode:       true,
		autoRender:     true,
		logger:         logger.GetLogger(),
	}

	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}

	if err := withRemoteHost(host).apply(cfg); err != nil {
		return cfg, err
	}

	if err := withPort(port).apply(cfg); err != nil {
		return cfg, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func (cfg *ConnectionConfig) Host() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.host
}

func (cfg *ConnectionConfig) Port() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.port
}

// Ports returns the ports Connect probes, in order.
func (cfg *ConnectionConfig) Ports() []int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	ports := make([]int, 0, cfg.portEnd-cfg.port+1)
	for p := cfg.port; p <= cfg.portEnd; p++ {
		ports = append(ports, p)
	}

	return ports
}

func (cfg *ConnectionConfig) ConnectTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.connectTimeout
}

func (cfg *ConnectionConfig) CommandTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.commandTimeout
}

func (cfg *ConnectionConfig) LongTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.longTimeout
}

func (cfg *ConnectionConfig) SafeMode() bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.safeMode
}

func (cfg *ConnectionConfig) AutoRender() bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.autoRender
}

func (cfg *ConnectionConfig) Launcher() *Launcher {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.launcher
}

func (cfg *ConnectionConfig) Logger() logger.Logger {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.logger
}

// isLocal reports whether the configured host is this machine, the only case where
// the host may be launched on demand.
func (cfg *ConnectionConfig) isLocal() bool {
	host := cfg.Host()
	if strings.EqualFold(host, "localhost") {
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && ip.IsLoopback()
}

// ConnOption represents a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc struct {
	name      string
	runtime   bool
	applyFunc func(*ConnectionConfig) error
}

func (c *connOptFunc) apply(cfg *ConnectionConfig) error {
	if cfg == nil {
		return ErrConnConfigNil
	}

	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	return c.applyFunc(cfg)
}

func newConnOptFunc(name string, runtime bool, f func(*ConnectionConfig) error) *connOptFunc {
	return &connOptFunc{
		name:      name,
		runtime:   runtime,
		applyFunc: f,
	}
}

// withRemoteHost sets the host. It accepts an IP address or a syntactically valid host name.
func withRemoteHost(host string) ConnOption {
	return newConnOptFunc("withRemoteHost", false, func(cfg *ConnectionConfig) error {
		if ip := net.ParseIP(host); ip != nil {
			cfg.host = host
			return nil
		}

		host = strings.TrimSuffix(host, ".")
		if !isHostName(host) {
			return errors.New("invalid host")
		}
		cfg.host = host

		return nil
	})
}

func isHostName(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}

	for _, label := range strings.Split(s, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, c := range label {
			isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
			if !isAlnum && c != '-' && c != '_' {
				return false
			}
		}
	}

	return true
}

// withPort sets the first probed port and resets the probe range to that single port.
func withPort(port int) ConnOption {
	return newConnOptFunc("withPort", false, func(cfg *ConnectionConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port is out of range [1, 65535]")
		}
		cfg.port = port
		cfg.portEnd = port

		return nil
	})
}

// WithPortRange makes Connect probe every port from start to end, inclusive, until one
// accepts the connection. When the host has to be launched it is told to listen on start.
//
// An error is returned if the range is empty or outside [1, 65535].
//
// This option can't be changed at runtime.
func WithPortRange(start, end int) ConnOption {
	return newConnOptFunc("WithPortRange", false, func(cfg *ConnectionConfig) error {
		if start < 1 || end > 65535 || start > end {
			return fmt.Errorf("port range [%d, %d] is invalid", start, end)
		}
		cfg.port = start
		cfg.portEnd = end

		return nil
	})
}

// WithConnectTimeout sets the timeout of each TCP connect attempt and of the handshake.
// An error is returned if the timeout is outside the valid range (0.1-30 seconds).
//
// The default value is 3 seconds.
//
// This option can be changed at runtime.
func WithConnectTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithConnectTimeout", true, func(cfg *ConnectionConfig) error {
		if val < 100*time.Millisecond || val > 30*time.Second {
			return errors.New("connect timeout out of range [0.1, 30]")
		}
		cfg.connectTimeout = val

		return nil
	})
}

// WithCommandTimeout sets the round-trip timeout of ordinary commands.
// An error is returned if the timeout is outside the valid range (1-3600 seconds).
//
// The default value is 10 seconds.
//
// This option can be changed at runtime.
func WithCommandTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithCommandTimeout", true, func(cfg *ConnectionConfig) error {
		if val < time.Second || val > time.Hour {
			return errors.New("command timeout out of range [1, 3600]")
		}
		cfg.commandTimeout = val

		return nil
	})
}

// WithLongTimeout sets the round-trip timeout of long-running commands.
// An error is returned if the timeout is outside the valid range (1 second - 24 hours).
//
// The default value is 1 hour.
//
// This option can be changed at runtime.
func WithLongTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithLongTimeout", true, func(cfg *ConnectionConfig) error {
		if val < time.Second || val > 24*time.Hour {
			return errors.New("long timeout out of range [1, 86400]")
		}
		cfg.longTimeout = val

		return nil
	})
}

// WithSafeMode enables or disables item handle validation on the host.
// Disabling it speeds up commands but a stale handle may crash the host.
//
// The default value is true.
//
// This option can't be changed at runtime, it is sent during the handshake.
func WithSafeMode(val bool) ConnOption {
	return newConnOptFunc("WithSafeMode", false, func(cfg *ConnectionConfig) error {
		cfg.safeMode = val
		return nil
	})
}

// WithAutoRender enables or disables rendering after every command.
// Use Session.Render to refresh the view explicitly when it is disabled.
//
// The default value is true.
//
// This option can't be changed at runtime, it is sent during the handshake.
func WithAutoRender(val bool) ConnOption {
	return newConnOptFunc("WithAutoRender", false, func(cfg *ConnectionConfig) error {
		cfg.autoRender = val
		return nil
	})
}

// WithLauncher enables launch-on-demand: when no port answers and the host is local,
// Connect starts the host with l and probes again.
//
// This option can't be changed at runtime.
func WithLauncher(l *Launcher) ConnOption {
	return newConnOptFunc("WithLauncher", false, func(cfg *ConnectionConfig) error {
		cfg.launcher = l
		return nil
	})
}

// WithLogger sets the logger. A nil logger is rejected.
//
// This option can't be changed at runtime.
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", false, func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}
