package robolink

import "sync/atomic"

// State is the lifecycle state of a Session.
type State uint32

const (
	// DisconnectedState: no socket. Commands fail with ErrNotConnected.
	DisconnectedState State = iota
	// ConnectingState: probing ports, launching the host or running the handshake.
	ConnectingState
	// ReadyState: connected and idle.
	ReadyState
	// BusyState: one command is in flight.
	BusyState
)

func (s State) String() string {
	switch s {
	case DisconnectedState:
		return "Disconnected"
	case ConnectingState:
		return "Connecting"
	case ReadyState:
		return "Ready"
	case BusyState:
		return "Busy"
	default:
		return "Unknown"
	}
}

// atomicState holds a State with compare-and-swap transitions.
//
//	Disconnected → Connecting → Ready ⇄ Busy
//	any → Disconnected
type atomicState struct {
	state atomic.Uint32
}

func (st *atomicState) Get() State {
	return State(st.state.Load())
}

func (st *atomicState) String() string {
	return st.Get().String()
}

func (st *atomicState) IsDisconnected() bool {
	return st.Get() == DisconnectedState
}

func (st *atomicState) IsReady() bool {
	return st.Get() == ReadyState
}

func (st *atomicState) ToConnecting() bool {
	return st.cas(DisconnectedState, ConnectingState)
}

func (st *atomicState) ToReady() bool {
	if st.cas(ConnectingState, ReadyState) {
		return true
	}

	return st.cas(BusyState, ReadyState)
}

func (st *atomicState) ToBusy() bool {
	return st.cas(ReadyState, BusyState)
}

func (st *atomicState) ToDisconnected() {
	st.state.Store(uint32(DisconnectedState))
}

func (st *atomicState) cas(from, to State) bool {
	return st.state.CompareAndSwap(uint32(from), uint32(to))
}
