// Package telemetry provides the append-only activity log and metrics
// counters the simulation core writes into. Formatting and reporting live
// outside the core; this package only accumulates.
package telemetry

import "log/slog"

// Severity classifies a log entry.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarn
)

// Event is one entry in the activity log.
type Event struct {
	Phase    uint64   `json:"phase"`
	Category string   `json:"category"` // "economy", "behavior", "orders", "death", ...
	Message  string   `json:"message"`
	ActorID  uint64   `json:"actor_id,omitempty"`
	Actor    string   `json:"actor,omitempty"`
	Severity Severity `json:"severity"`
}

// Log is a bounded in-memory activity log. Oldest entries are dropped once
// the cap is reached; persistence drains entries before that happens in
// normal operation.
type Log struct {
	events []Event
	max    int
}

// NewLog creates a log retaining at most max entries.
func NewLog(max int) *Log {
	if max <= 0 {
		max = 4096
	}
	return &Log{max: max}
}

// Append records an event and mirrors warnings to slog.
func (l *Log) Append(e Event) {
	l.events = append(l.events, e)
	if len(l.events) > l.max {
		l.events = l.events[len(l.events)-l.max:]
	}
	if e.Severity == SeverityWarn {
		slog.Warn(e.Message, "phase", e.Phase, "category", e.Category, "actor", e.Actor)
	}
}

// Recent returns up to n of the newest events, oldest first.
func (l *Log) Recent(n int) []Event {
	if n <= 0 || n > len(l.events) {
		n = len(l.events)
	}
	out := make([]Event, n)
	copy(out, l.events[len(l.events)-n:])
	return out
}

// Drain returns all buffered events and empties the log. Persistence calls
// this when flushing to the events table.
func (l *Log) Drain() []Event {
	out := l.events
	l.events = nil
	return out
}

// Len returns the number of buffered events.
func (l *Log) Len() int {
	return len(l.events)
}

// Metric names the counters the core increments. Offline reporting reads the
// accumulated counts.
const (
	MetricHires             = "hires"
	MetricReleases          = "releases"
	MetricSales             = "sales"
	MetricDividends         = "dividends"
	MetricPayrollSkipped    = "payroll_skipped"
	MetricEvictions         = "evictions"
	MetricDeaths            = "deaths"
	MetricBusinessesFounded = "businesses_founded"
	MetricBusinessDissolved = "businesses_dissolved"
	MetricSuccessions       = "successions"
	MetricGoodsProduced     = "goods_produced"
	MetricProductionHalts   = "production_halts"
	MetricOrdersPlaced      = "orders_placed"
	MetricOrdersDelivered   = "orders_delivered"
	MetricOrdersFailed      = "orders_failed"
	MetricOrdersCancelled   = "orders_cancelled"
	MetricOrdersStuck       = "orders_stuck"
	MetricRedirects         = "redirects"
	MetricStaleReferences   = "stale_references"
)

// Metrics accumulates named counters.
type Metrics struct {
	counts map[string]uint64
}

// NewMetrics creates an empty accumulator.
func NewMetrics() *Metrics {
	return &Metrics{counts: make(map[string]uint64)}
}

// Inc adds one to a counter.
func (m *Metrics) Inc(name string) {
	m.counts[name]++
}

// Add adds n to a counter.
func (m *Metrics) Add(name string, n uint64) {
	m.counts[name] += n
}

// Get returns a counter's value.
func (m *Metrics) Get(name string) uint64 {
	return m.counts[name]
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}
