package robolink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/RoboDK/RoboDK-API-sub002/internal/util"
	"github.com/RoboDK/RoboDK-API-sub002/logger"
	"github.com/RoboDK/RoboDK-API-sub002/wire"
)

const handshakeToken = "RDK_API"

// Session is one API connection to the simulation host.
//
// The protocol is half-duplex: commands issued concurrently on one Session are serialized,
// each waiting for the previous one to complete. Open several sessions to drive the host
// from independent goroutines without that serialization.
//
// A Session is not reconnected automatically. When a command fails with a TransportError or
// a ProtocolError the socket is closed and the session is Disconnected; call Connect again.
type Session struct {
	id     string
	cfg    *ConnectionConfig
	logger logger.Logger

	// mu serializes Connect, Disconnect and commands.
	mu   sync.Mutex
	conn net.Conn
	enc  *wire.Encoder
	dec  *wire.Decoder
	port int
	proc *HostProcess

	state      atomicState
	lastStatus atomic.Pointer[string]
	apiVersion atomic.Int32
	hostBuild  atomic.Int32
	metrics    *ConnectionMetrics
}

// NewSession creates a disconnected session with the given configuration.
func NewSession(cfg *ConnectionConfig) (*Session, error) {
	if cfg == nil {
		return nil, ErrConnConfigNil
	}

	id := uuid.NewString()
	s := &Session{
		id:      id,
		cfg:     cfg,
		logger:  cfg.Logger().With("session", id),
		metrics: newConnectionMetrics(),
	}
	s.lastStatus.Store(new(string))

	return s, nil
}

// Dial creates a session and connects it.
func Dial(ctx context.Context, host string, port int, opts ...ConnOption) (*Session, error) {
	cfg, err := NewConnectionConfig(host, port, opts...)
	if err != nil {
		return nil, err
	}

	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}

	if err := s.Connect(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// ID returns the unique identifier of the session, used in its log records.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state.Get()
}

// Config returns the session configuration.
func (s *Session) Config() *ConnectionConfig {
	return s.cfg
}

// Metrics returns the live counters of the session.
func (s *Session) Metrics() *ConnectionMetrics {
	return s.metrics
}

// LastStatusMessage returns the text of the latest warning or error reported by the host.
// It is cleared by every command that completes with a plain success status.
func (s *Session) LastStatusMessage() string {
	return *s.lastStatus.Load()
}

// HostBuild returns the build number the host reported during the handshake.
func (s *Session) HostBuild() int {
	return int(s.hostBuild.Load())
}

// APIVersion returns the API version the host reported during the handshake.
func (s *Session) APIVersion() int {
	return int(s.apiVersion.Load())
}

// Port returns the port of the current connection, or 0 when disconnected.
func (s *Session) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.port
}

// HostProcess returns the host started by this session, or nil if the session attached to a
// host that was already running. The host keeps running after Disconnect.
func (s *Session) HostProcess() *HostProcess {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.proc
}

// UpdateConfigOptions applies options that can be changed at runtime, such as timeouts.
// Options that only take effect at connect time are rejected with ErrNotRuntimeOption.
func (s *Session) UpdateConfigOptions(opts ...ConnOption) error {
	for _, opt := range opts {
		connOpt, ok := opt.(*connOptFunc)
		if !ok {
			return errors.New("invalid ConnOption type")
		}
		if !connOpt.runtime {
			return errors.Join(ErrNotRuntimeOption, errors.New(connOpt.name))
		}

		if err := opt.apply(s.cfg); err != nil {
			return err
		}
	}

	return nil
}

// Connect opens the socket and runs the handshake.
//
// The configured ports are probed in order, each with the connect timeout. If none accepts,
// the host is local and a Launcher is configured, the host is started on the first port
// and the ports are probed again. Connect on a connected session is a no-op.
//
// On failure the session stays Disconnected and a *ConnectionError is returned.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	host, ports := s.cfg.Host(), s.cfg.Ports()
	fail := func(err error) error {
		s.state.ToDisconnected()
		s.metrics.incConnectErrCount()
		s.logger.Warn("connect failed", "host", host, "error", err)

		return &ConnectionError{Host: host, Ports: ports, Err: err}
	}

	if !s.state.ToConnecting() {
		return fail(ErrInvalidTransition)
	}

	conn, port, err := s.dialAny(ctx, host, ports)
	if err != nil && ctx.Err() == nil {
		launcher := s.cfg.Launcher()
		if !s.cfg.isLocal() {
			return fail(err)
		}
		if launcher == nil {
			return fail(fmt.Errorf("%w: %w", ErrLauncherNotConfigured, err))
		}

		s.logger.Info("host not reachable, launching", "port", ports[0])
		proc, lerr := launcher.Start(ctx, ports[0])
		if lerr != nil {
			return fail(lerr)
		}
		s.proc = proc
		s.metrics.incLaunchCount()

		conn, port, err = s.dialAny(ctx, host, ports)
	}
	if err != nil {
		return fail(err)
	}

	enc, dec := wire.NewEncoder(conn), wire.NewDecoder(conn)
	if err := s.handshake(ctx, conn, enc, dec); err != nil {
		_ = conn.Close()
		return fail(err)
	}

	s.conn, s.enc, s.dec, s.port = conn, enc, dec, port
	s.state.ToReady()
	s.metrics.incConnectCount()
	s.logger.Info("connected", "host", host, "port", port, "build", s.HostBuild())

	return nil
}

func (s *Session) dialAny(ctx context.Context, host string, ports []int) (net.Conn, int, error) {
	dialer := &net.Dialer{Timeout: s.cfg.ConnectTimeout()}

	var lastErr error
	for _, port := range ports {
		conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return conn, port, nil
		}
		lastErr = err
		s.logger.Debug("port not reachable", "port", port, "error", err)

		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
	}

	return nil, 0, lastErr
}

// handshake announces the API client with the safe mode and auto render flags and waits
// for the host to echo the token, its API version, its build number and a status.
func (s *Session) handshake(ctx context.Context, conn net.Conn, enc *wire.Encoder, dec *wire.Decoder) error {
	deadline := time.Now().Add(s.cfg.ConnectTimeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return &TransportError{Op: "handshake", Err: err}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	flags := util.AppendFloat64Slice(nil, []int{util.BoolToInt(s.cfg.SafeMode()), util.BoolToInt(s.cfg.AutoRender())})

	err := enc.WriteLine(handshakeToken)
	if err == nil {
		err = enc.WriteArray(flags)
	}
	if err == nil {
		err = enc.Flush()
	}
	if err != nil {
		return &TransportError{Op: "handshake", Err: err}
	}

	ack, err := dec.ReadLine()
	if err != nil {
		return &TransportError{Op: "handshake", Err: ctxErrOr(ctx, err)}
	}
	if ack != handshakeToken {
		return fmt.Errorf("%w: got %q", ErrHandshake, ack)
	}

	version, err := dec.ReadInt32()
	if err != nil {
		return &TransportError{Op: "handshake", Err: ctxErrOr(ctx, err)}
	}
	build, err := dec.ReadInt32()
	if err != nil {
		return &TransportError{Op: "handshake", Err: ctxErrOr(ctx, err)}
	}
	if err := s.readStatus(handshakeToken, dec); err != nil {
		return err
	}

	s.apiVersion.Store(version)
	s.hostBuild.Store(build)

	return conn.SetDeadline(time.Time{})
}

// Disconnect closes the socket. It is safe to call on a disconnected session.
// A host started by the session is left running.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closeConn("disconnect")
}

// Close implements io.Closer; it is Disconnect.
func (s *Session) Close() error {
	return s.Disconnect()
}

// closeConn must be called with mu held.
func (s *Session) closeConn(reason string) error {
	s.state.ToDisconnected()
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn, s.enc, s.dec, s.port = nil, nil, nil, 0
	s.logger.Info("disconnected", "reason", reason)

	return err
}
