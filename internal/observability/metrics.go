package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/escalation"
	"github.com/emmanuelfore/tarisa-sub001/internal/events"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	eventCount   map[string]int64

	sweeps        int64
	escalated     int64
	maxEscalated  int64
	sweepFailures int64
	lastSweep     *escalation.SweepReport
	refreshFails  int64
}

// MetricsSnapshot is the JSON view served on /metrics.
type MetricsSnapshot struct {
	Requests        map[string]int64        `json:"requests"`
	Errors          map[string]int64        `json:"errors"`
	Events          map[string]int64        `json:"events"`
	Sweeps          int64                   `json:"sweeps"`
	Escalated       int64                   `json:"escalated"`
	MaxEscalated    int64                   `json:"max_escalated"`
	SweepFailures   int64                   `json:"sweep_failures"`
	RefreshFailures int64                   `json:"reference_refresh_failures"`
	LastSweep       *escalation.SweepReport `json:"last_sweep,omitempty"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		eventCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSweep folds a finished sweep into the totals.
func (m *Metrics) RecordSweep(report escalation.SweepReport) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	m.escalated += int64(report.Escalated)
	m.maxEscalated += int64(report.MaxEscalated)
	r := report
	m.lastSweep = &r
}

// RecordSweepFailure counts sweeps that could not run at all.
func (m *Metrics) RecordSweepFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepFailures++
}

// RecordRefreshFailure counts failed reference reloads.
func (m *Metrics) RecordRefreshFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshFails++
}

// RecordEvent counts a published event by type.
func (m *Metrics) RecordEvent(eventType events.EventType) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCount[string(eventType)]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MetricsSnapshot{
		Requests:        copyCounts(m.requestCount),
		Errors:          copyCounts(m.errorCount),
		Events:          copyCounts(m.eventCount),
		Sweeps:          m.sweeps,
		Escalated:       m.escalated,
		MaxEscalated:    m.maxEscalated,
		SweepFailures:   m.sweepFailures,
		RefreshFailures: m.refreshFails,
	}
	if m.lastSweep != nil {
		r := *m.lastSweep
		snap.LastSweep = &r
	}
	return snap
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
