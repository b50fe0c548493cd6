// Package observability aggregates relay counters for the heartbeat worker
// and the debug endpoint. It observes the pipeline, it never drives it.
package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

const recentCapacity = 32

// Activity is one recent relay event kept for the debug view.
type Activity struct {
	At   time.Time `json:"at"`
	Kind string    `json:"kind"`
	From string    `json:"from,omitempty"`
	To   string    `json:"to,omitempty"`
}

// Stats is a point-in-time snapshot of the relay counters.
type Stats struct {
	Sent          uint64     `json:"sent"`
	Delivered     uint64     `json:"delivered"`
	Replayed      uint64     `json:"replayed"`
	ReadAcks      uint64     `json:"read_acks"`
	DroppedPushes uint64     `json:"dropped_pushes"`
	UptimeSeconds float64    `json:"uptime_seconds"`
	Recent        []Activity `json:"recent"`
}

// Monitor collects delivery telemetry. Counters are atomic; the recent
// activity ring is guarded separately so hot paths never contend on it.
type Monitor struct {
	startedAt time.Time

	sent          atomic.Uint64
	delivered     atomic.Uint64
	replayed      atomic.Uint64
	readAcks      atomic.Uint64
	droppedPushes atomic.Uint64

	mu     sync.Mutex
	recent []Activity
}

func NewMonitor() *Monitor {
	return &Monitor{
		startedAt: time.Now().UTC(),
		recent:    make([]Activity, 0, recentCapacity),
	}
}

func (m *Monitor) MessageSent(from, to string) {
	m.sent.Add(1)
	m.record("sent", from, to)
}

func (m *Monitor) MessageDelivered(from, to string) {
	m.delivered.Add(1)
	m.record("delivered", from, to)
}

func (m *Monitor) MessageReplayed(from, to string) {
	m.replayed.Add(1)
	m.record("replayed", from, to)
}

func (m *Monitor) ReadAcknowledged() {
	m.readAcks.Add(1)
}

func (m *Monitor) PushDropped() {
	m.droppedPushes.Add(1)
}

func (m *Monitor) record(kind, from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.recent) == recentCapacity {
		copy(m.recent, m.recent[1:])
		m.recent = m.recent[:recentCapacity-1]
	}
	m.recent = append(m.recent, Activity{
		At:   time.Now().UTC(),
		Kind: kind,
		From: from,
		To:   to,
	})
}

// Snapshot returns the current counters and a copy of the activity ring.
func (m *Monitor) Snapshot() Stats {
	m.mu.Lock()
	recent := make([]Activity, len(m.recent))
	copy(recent, m.recent)
	m.mu.Unlock()

	return Stats{
		Sent:          m.sent.Load(),
		Delivered:     m.delivered.Load(),
		Replayed:      m.replayed.Load(),
		ReadAcks:      m.readAcks.Load(),
		DroppedPushes: m.droppedPushes.Load(),
		UptimeSeconds: time.Since(m.startedAt).Seconds(),
		Recent:        recent,
	}
}
