package robolink

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnConfigNil indicates that a nil ConnectionConfig was provided.
	ErrConnConfigNil = errors.New("connection config is nil")

	// ErrNotConnected indicates that a command was issued on a session without an open socket.
	ErrNotConnected = errors.New("session is not connected")

	// ErrHandshake indicates that the host did not acknowledge the API handshake.
	ErrHandshake = errors.New("handshake not acknowledged")

	// ErrInvalidTransition is returned when an attempt is made to move the session
	// state to a state that is not reachable from the current one.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotRuntimeOption indicates that an option can only be set when the config is created.
	ErrNotRuntimeOption = errors.New("option can't be changed at runtime")
)

var (
	// ErrInvalidItem is returned when the host reports status 1: the item handle does not
	// refer to a live item, typically because it was deleted.
	ErrInvalidItem = errors.New("invalid item")

	// ErrLicense is returned when the host reports status 9.
	ErrLicense = errors.New("invalid license for API access")

	// ErrUnknownStatus is returned for host statuses in (0, 10) that have no defined meaning.
	ErrUnknownStatus = errors.New("unknown error")

	// ErrInvalidArgument indicates a caller-supplied argument rejected before any I/O.
	ErrInvalidArgument = errors.New("invalid argument")
)

var (
	// ErrLauncherNotConfigured indicates that the host is not reachable and launch-on-demand is disabled.
	ErrLauncherNotConfigured = errors.New("no launcher configured")

	// ErrHostExited indicates that the launched host exited before reporting readiness.
	ErrHostExited = errors.New("host process exited before it was ready")

	// ErrHostNotReady indicates that the launched host did not report readiness in time.
	ErrHostNotReady = errors.New("host process not ready")
)

// TransportError reports a failure of the socket or of the byte stream, including short reads
// and expired deadlines. The session is disconnected when a command fails with it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("robolink: %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response the client can't interpret, which leaves the stream
// in an unknown position. The session is disconnected when a command fails with it.
type ProtocolError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("robolink: %s: protocol: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("robolink: %s: protocol: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// StatusError carries a status code outside of the range the host is known to send.
type StatusError struct {
	Status int32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// RemoteError is returned when the host reports status 3. Message is the text sent by the host.
type RemoteError struct {
	Command string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("robolink: %s: %s", e.Command, e.Message)
}

// ConnectionError is returned by Connect. Err holds the last failure observed.
type ConnectionError struct {
	Host  string
	Ports []int
	Err   error
}

func (e *ConnectionError) Error() string {
	ports := make([]string, len(e.Ports))
	for i, p := range e.Ports {
		ports[i] = fmt.Sprint(p)
	}

	return fmt.Sprintf("robolink: connect to %s:[%s]: %v", e.Host, strings.Join(ports, ","), e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// isStatusError reports whether err was decoded from a well-formed status response,
// in which case the stream is still in sync.
func isStatusError(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) ||
		errors.Is(err, ErrInvalidItem) ||
		errors.Is(err, ErrLicense) ||
		errors.Is(err, ErrUnknownStatus)
}
