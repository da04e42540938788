// Package metrics exports the counters of robolink sessions to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/RoboDK/RoboDK-API-sub002/robolink"
)

// DefaultNamespace prefixes every metric name unless NewCollector receives another one.
const DefaultNamespace = "robolink"

// Collector is a prometheus.Collector reading the ConnectionMetrics of a set of sessions
// at scrape time. Every metric carries a "session" label with the session id.
type Collector struct {
	sessions *xsync.MapOf[string, *robolink.Session]

	connects    *prometheus.Desc
	connectErrs *prometheus.Desc
	launches    *prometheus.Desc
	commands    *prometheus.Desc
	commandErrs *prometheus.Desc
	faults      *prometheus.Desc
	warnings    *prometheus.Desc
	duration    *prometheus.Desc
	inflight    *prometheus.Desc
	up          *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for sessions. An empty namespace means DefaultNamespace.
func NewCollector(namespace string, sessions ...*robolink.Session) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help,
			append([]string{"session"}, labels...), nil)
	}

	c := &Collector{
		sessions:    xsync.NewMapOf[string, *robolink.Session](),
		connects:    desc("connects_total", "Number of successful handshakes."),
		connectErrs: desc("connect_errors_total", "Number of failed connect attempts."),
		launches:    desc("host_launches_total", "Number of times the host was started on demand."),
		commands:    desc("commands_total", "Number of commands sent, by command name.", "command"),
		commandErrs: desc("command_errors_total", "Number of commands that returned an error."),
		faults:      desc("faults_total", "Number of transport or protocol faults that closed the session."),
		warnings:    desc("warnings_total", "Number of warnings reported by the host."),
		duration:    desc("command_duration_seconds_total", "Accumulated command round-trip time."),
		inflight:    desc("commands_inflight", "Commands currently in flight."),
		up:          desc("up", "1 when the session is connected, 0 otherwise."),
	}

	for _, s := range sessions {
		c.Add(s)
	}

	return c
}

// Add starts collecting s. Adding the same session twice is a no-op.
func (c *Collector) Add(s *robolink.Session) {
	c.sessions.Store(s.ID(), s)
}

// Remove stops collecting s.
func (c *Collector) Remove(s *robolink.Session) {
	c.sessions.Delete(s.ID())
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.connects, c.connectErrs, c.launches, c.commands, c.commandErrs,
		c.faults, c.warnings, c.duration, c.inflight, c.up,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.sessions.Range(func(id string, s *robolink.Session) bool {
		m := s.Metrics()

		counter := func(d *prometheus.Desc, v uint64, labels ...string) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), append([]string{id}, labels...)...)
		}

		counter(c.connects, m.ConnectCount.Load())
		counter(c.connectErrs, m.ConnectErrCount.Load())
		counter(c.launches, m.LaunchCount.Load())
		counter(c.commandErrs, m.CommandErrCount.Load())
		counter(c.faults, m.FaultCount.Load())
		counter(c.warnings, m.WarningCount.Load())
		for name, n := range m.CommandCounts() {
			counter(c.commands, n, name)
		}

		ch <- prometheus.MustNewConstMetric(c.duration, prometheus.CounterValue,
			time.Duration(m.CommandDurationNanos.Load()).Seconds(), id)
		ch <- prometheus.MustNewConstMetric(c.inflight, prometheus.GaugeValue,
			float64(m.CommandInflight.Load()), id)

		up := 0.0
		if st := s.State(); st == robolink.ReadyState || st == robolink.BusyState {
			up = 1
		}
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up, id)

		return true
	})
}
