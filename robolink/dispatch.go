package robolink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoboDK/RoboDK-API-sub002/wire"
)

const (
	statusOK      = 0
	statusInvalid = 1
	statusWarning = 2
	statusError   = 3
	statusLicense = 9
)

// reply gives a response handler access to the typed fields that follow a status.
type reply struct {
	*wire.Decoder
	ctx     context.Context
	s       *Session
	command string
}

// CheckStatus reads and interprets an additional status, for commands that report
// completion separately from acceptance.
func (r *reply) CheckStatus() error {
	return r.s.readStatus(r.command, r.Decoder)
}

// ExtendDeadline moves the read deadline d from now, for the remainder of the exchange.
// A context deadline earlier than that still wins.
func (r *reply) ExtendDeadline(d time.Duration) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	deadline := time.Now().Add(d)
	if cd, ok := r.ctx.Deadline(); ok && cd.Before(deadline) {
		deadline = cd
	}

	return r.s.conn.SetReadDeadline(deadline)
}

type (
	sendFunc func(enc *wire.Encoder) error
	recvFunc func(r *reply) error
)

// call runs a command bounded by the command timeout.
func (s *Session) call(ctx context.Context, command string, send sendFunc, recv recvFunc) error {
	return s.roundTrip(ctx, command, s.cfg.CommandTimeout(), send, recv)
}

// callLong runs a command bounded by the long timeout.
func (s *Session) callLong(ctx context.Context, command string, send sendFunc, recv recvFunc) error {
	return s.roundTrip(ctx, command, s.cfg.LongTimeout(), send, recv)
}

// roundTrip is the single request/response path: command line, payload, status,
// response fields. Only one round trip is in flight per session.
//
// A context deadline earlier than timeout wins. Cancelling ctx interrupts blocked I/O.
// Any failure other than a host-reported status leaves the stream desynchronized, so
// the session is disconnected.
func (s *Session) roundTrip(ctx context.Context, command string, timeout time.Duration, send sendFunc, recv recvFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || !s.state.ToBusy() {
		return &TransportError{Op: command, Err: ErrNotConnected}
	}
	// nothing has been sent yet, the session stays usable
	if err := ctx.Err(); err != nil {
		s.state.ToReady()
		return err
	}

	start := time.Now()
	s.metrics.incCommandCount(command)
	s.metrics.incCommandInflight()
	defer func() {
		s.metrics.decCommandInflight()
		s.metrics.observeCommand(time.Since(start))
	}()

	s.logger.Debug("command", "name", command)

	err := s.exchange(ctx, command, timeout, send, recv)
	switch {
	case err == nil:
		s.state.ToReady()
		return nil

	case isStatusError(err):
		s.metrics.incCommandErrCount()
		s.state.ToReady()
		return err
	}

	s.metrics.incCommandErrCount()
	s.metrics.incFaultCount()
	err = s.classify(ctx, command, err)
	s.logger.Error("command failed, closing session", "name", command, "error", err)
	_ = s.closeConn("fault")

	return err
}

func (s *Session) exchange(ctx context.Context, command string, timeout time.Duration, send sendFunc, recv recvFunc) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetDeadline(deadline); err != nil {
		return err
	}
	conn := s.conn
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	if err := s.enc.WriteLine(command); err != nil {
		return err
	}
	if send != nil {
		if err := send(s.enc); err != nil {
			return err
		}
	}
	if err := s.enc.Flush(); err != nil {
		return err
	}

	if err := s.readStatus(command, s.dec); err != nil {
		return err
	}

	if recv == nil {
		return nil
	}

	return recv(&reply{Decoder: s.dec, ctx: ctx, s: s, command: command})
}

// readStatus reads a status code and the fields that accompany it.
//
//	0          success
//	1          invalid item, nothing follows
//	2          warning line follows, the command result follows it
//	3          error line follows
//	9          license error
//	(0, 10)    unknown error
//	otherwise  protocol fault
func (s *Session) readStatus(command string, dec *wire.Decoder) error {
	status, err := dec.ReadInt32()
	if err != nil {
		return err
	}

	switch {
	case status == statusOK:
		s.setLastStatus("")
		return nil

	case status == statusInvalid:
		s.setLastStatus(ErrInvalidItem.Error())
		return fmt.Errorf("robolink: %s: %w", command, ErrInvalidItem)

	case status == statusWarning:
		msg, err := dec.ReadLine()
		if err != nil {
			return err
		}
		s.setLastStatus(msg)
		s.metrics.incWarningCount()
		s.logger.Warn("host warning", "command", command, "message", msg)

		return nil

	case status == statusError:
		msg, err := dec.ReadLine()
		if err != nil {
			return err
		}
		s.setLastStatus(msg)

		return &RemoteError{Command: command, Message: msg}

	case status == statusLicense:
		s.setLastStatus(ErrLicense.Error())
		return fmt.Errorf("robolink: %s: %w", command, ErrLicense)

	case status > 0 && status < 10:
		s.setLastStatus(ErrUnknownStatus.Error())
		return fmt.Errorf("robolink: %s: %w (status %d)", command, ErrUnknownStatus, status)

	default:
		return &StatusError{Status: status}
	}
}

func (s *Session) setLastStatus(msg string) {
	s.lastStatus.Store(&msg)
}

// classify turns a fault into a TransportError or a ProtocolError.
func (s *Session) classify(ctx context.Context, command string, err error) error {
	var (
		statusErr *StatusError
		transport *TransportError
		protocol  *ProtocolError
	)

	switch {
	case errors.As(err, &transport), errors.As(err, &protocol):
		return err
	case errors.As(err, &statusErr):
		return &ProtocolError{Op: command, Reason: "unexpected status", Err: err}
	case errors.Is(err, wire.ErrMalformed), errors.Is(err, wire.ErrInvalidPose):
		return &ProtocolError{Op: command, Reason: "malformed payload", Err: err}
	default:
		return &TransportError{Op: command, Err: ctxErrOr(ctx, err)}
	}
}

// ctxErrOr prefers the context error when ctx is done, since an interrupted read
// otherwise surfaces as an expired deadline.
func ctxErrOr(ctx context.Context, err error) error {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		// the socket deadline may expire just before the context timer fires
		if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
			ctxErr = context.DeadlineExceeded
		}
	}
	if ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}

	return err
}
