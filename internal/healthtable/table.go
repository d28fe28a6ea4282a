// Package healthtable holds the per-host liveness record described in
// §4.3: last probe outcome and consecutive-failure count, kept behind a
// mutex so the background health cycle and live-traffic reactions can
// update it concurrently with reads from the façade.
package healthtable

import (
	"sync"
	"time"
)

// Record is one host's health snapshot (§3 "Host record").
type Record struct {
	Host                string
	LastOkAt            time.Time // zero value means "never"
	LastTriedAt         time.Time // zero value means "never"
	ConsecutiveFailures int
}

// Table tracks one Record per pool host.
type Table struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// New creates a table pre-populated with zero-value records for each host
// in the pool (component D, created at client construction).
func New(hosts []string) *Table {
	t := &Table{records: make(map[string]*Record, len(hosts))}
	for _, h := range hosts {
		t.records[h] = &Record{Host: h}
	}
	return t
}

// Get returns a copy of a host's record, or false if the host is not tracked.
func (t *Table) Get(host string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[host]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// MarkTried stamps LastTriedAt = now, ahead of a probe attempt.
func (t *Table) MarkTried(host string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.records[host]; ok {
		r.LastTriedAt = now
	}
}

// MarkAlive resets ConsecutiveFailures and stamps LastOkAt (I5, P3): any
// RADIUS response — accept, reject, or challenge — counts as alive.
func (t *Table) MarkAlive(host string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.records[host]; ok {
		r.LastOkAt = now
		r.ConsecutiveFailures = 0
	}
}

// MarkDead increments ConsecutiveFailures (P4): timeouts, malformed
// responses, and transport errors all count as dead.
func (t *Table) MarkDead(host string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.records[host]; ok {
		r.ConsecutiveFailures++
	}
}
