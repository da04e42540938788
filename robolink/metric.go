package robolink

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// ConnectionMetrics contains atomic metrics for a session.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc,
// see the metrics package for a ready-made collector.
type ConnectionMetrics struct {
	// ConnectCount indicates the number of successful handshakes.
	ConnectCount atomic.Uint64
	// ConnectErrCount indicates the number of failed Connect calls.
	ConnectErrCount atomic.Uint64
	// LaunchCount indicates the number of times the host was started by the session.
	LaunchCount atomic.Uint64

	// CommandCount indicates the number of commands sent.
	CommandCount atomic.Uint64
	// CommandErrCount indicates the number of commands that returned an error, of any kind.
	CommandErrCount atomic.Uint64
	// FaultCount indicates the number of transport or protocol faults that closed the session.
	FaultCount atomic.Uint64
	// WarningCount indicates the number of warnings (status 2) reported by the host.
	WarningCount atomic.Uint64
	// CommandDurationNanos is the accumulated round-trip time of all commands.
	CommandDurationNanos atomic.Uint64
	// CommandInflight is 1 while a command is in flight, 0 otherwise.
	CommandInflight atomic.Int64

	perCommand *xsync.MapOf[string, *atomic.Uint64]
}

func newConnectionMetrics() *ConnectionMetrics {
	return &ConnectionMetrics{perCommand: xsync.NewMapOf[string, *atomic.Uint64]()}
}

// CommandCounts returns the number of times each command name was sent.
func (m *ConnectionMetrics) CommandCounts() map[string]uint64 {
	counts := make(map[string]uint64, m.perCommand.Size())
	m.perCommand.Range(func(name string, c *atomic.Uint64) bool {
		counts[name] = c.Load()
		return true
	})

	return counts
}

func (m *ConnectionMetrics) incConnectCount() {
	m.ConnectCount.Add(1)
}

func (m *ConnectionMetrics) incConnectErrCount() {
	m.ConnectErrCount.Add(1)
}

func (m *ConnectionMetrics) incLaunchCount() {
	m.LaunchCount.Add(1)
}

func (m *ConnectionMetrics) incCommandCount(name string) {
	m.CommandCount.Add(1)
	c, _ := m.perCommand.LoadOrCompute(name, func() *atomic.Uint64 { return &atomic.Uint64{} })
	c.Add(1)
}

func (m *ConnectionMetrics) incCommandErrCount() {
	m.CommandErrCount.Add(1)
}

func (m *ConnectionMetrics) incFaultCount() {
	m.FaultCount.Add(1)
}

func (m *ConnectionMetrics) incWarningCount() {
	m.WarningCount.Add(1)
}

func (m *ConnectionMetrics) observeCommand(d time.Duration) {
	m.CommandDurationNanos.Add(uint64(d.Nanoseconds()))
}

func (m *ConnectionMetrics) incCommandInflight() {
	m.CommandInflight.Add(1)
}

func (m *ConnectionMetrics) decCommandInflight() {
	m.CommandInflight.Add(-1)
}
