package robolink

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RoboDK/RoboDK-API-sub002/logger"
	"github.com/RoboDK/RoboDK-API-sub002/wire"
)

// handlerFunc serves one command. The command line has already been read.
type handlerFunc func(dec *wire.Decoder, enc *wire.Encoder) error

// fakeHost is a loopback stand-in for the simulation host.
type fakeHost struct {
	ln net.Listener

	mu        sync.Mutex
	handlers  map[string]handlerFunc
	commands  []string
	flags     []float64
	handshake handlerFunc
}

func newFakeHost(t *testing.T) *fakeHost {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := &fakeHost{ln: ln, handlers: map[string]handlerFunc{}}
	h.handshake = h.acceptHandshake
	t.Cleanup(func() { _ = ln.Close() })

	go h.serve()

	return h
}

func (h *fakeHost) port() int {
	return h.ln.Addr().(*net.TCPAddr).Port
}

func (h *fakeHost) handle(command string, f handlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handlers[command] = f
}

func (h *fakeHost) setHandshake(f handlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handshake = f
}

func (h *fakeHost) received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.commands...)
}

func (h *fakeHost) handshakeFlags() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.flags
}

func (h *fakeHost) serve() {
	for {
		conn, err := h.ln.Accept()
		if err != nil {
			return
		}
		go h.serveConn(conn)
	}
}

func (h *fakeHost) serveConn(conn net.Conn) {
	defer conn.Close()

	dec, enc := wire.NewDecoder(conn), wire.NewEncoder(conn)

	h.mu.Lock()
	handshake := h.handshake
	h.mu.Unlock()

	if err := handshake(dec, enc); err != nil {
		return
	}
	if err := enc.Flush(); err != nil {
		return
	}

	for {
		command, err := dec.ReadLine()
		if err != nil {
			return
		}

		h.mu.Lock()
		h.commands = append(h.commands, command)
		f, ok := h.handlers[command]
		h.mu.Unlock()

		if !ok {
			f = func(_ *wire.Decoder, enc *wire.Encoder) error {
				return writeStatus(enc, statusError, "unknown command "+command)
			}
		}
		// a handler error hangs up, which the client sees as a short read
		if err := f(dec, enc); err != nil {
			return
		}
		if err := enc.Flush(); err != nil {
			return
		}
	}
}

func (h *fakeHost) acceptHandshake(dec *wire.Decoder, enc *wire.Encoder) error {
	token, err := dec.ReadLine()
	if err != nil {
		return err
	}
	flags, err := dec.ReadArray()
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.flags = flags
	h.mu.Unlock()

	if token != handshakeToken {
		return enc.WriteLine("BAD")
	}

	return writeAll(enc, handshakeToken, int32(1), int32(5123), int32(statusOK))
}

// writeStatus writes a status and, for warnings and errors, its message.
func writeStatus(enc *wire.Encoder, status int32, msg string) error {
	if err := enc.WriteInt32(status); err != nil {
		return err
	}
	if status == statusWarning || status == statusError {
		return enc.WriteLine(msg)
	}

	return nil
}

// writeAll writes strings as lines, int32 as Int32, uint64 as handles, float64 as doubles,
// []float64 as arrays and wire.ItemRef as item references.
func writeAll(enc *wire.Encoder, fields ...any) error {
	for _, f := range fields {
		var err error
		switch v := f.(type) {
		case string:
			err = enc.WriteLine(v)
		case int32:
			err = enc.WriteInt32(v)
		case uint64:
			err = enc.WriteUint64(v)
		case float64:
			err = enc.WriteFloat64(v)
		case []float64:
			err = enc.WriteArray(v)
		case wire.ItemRef:
			err = enc.WriteItemRef(v)
		default:
			panic("writeAll: unsupported field")
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func testConfig(t *testing.T, port int, opts ...ConnOption) *ConnectionConfig {
	t.Helper()

	opts = append([]ConnOption{
		WithConnectTimeout(time.Second),
		WithLogger(logger.NewMockLogger().AllowAll()),
	}, opts...)
	cfg, err := NewConnectionConfig("127.0.0.1", port, opts...)
	require.NoError(t, err)

	return cfg
}

func connect(t *testing.T, h *fakeHost, opts ...ConnOption) *Session {
	t.Helper()

	s, err := NewSession(testConfig(t, h.port(), opts...))
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	return s
}
