// Package selection synchronizes the client selection with the host and
// suppresses selection echoes between the two.
package selection

import (
	"sync"
	"time"
)

// DefaultWindow is how long a change selection record suppresses echoes.
const DefaultWindow = 1000 * time.Millisecond

// Record is a selection recently sent to or received from the host.
type Record struct {
	IDs map[string]struct{}
	At  time.Time
}

func newRecord(ids []string, at time.Time) Record {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Record{IDs: set, At: at}
}

func (r Record) equals(set map[string]struct{}) bool {
	if len(r.IDs) != len(set) {
		return false
	}
	for id := range set {
		if _, ok := r.IDs[id]; !ok {
			return false
		}
	}
	return true
}

func (r Record) intersects(set map[string]struct{}) bool {
	for id := range set {
		if _, ok := r.IDs[id]; ok {
			return true
		}
	}
	return false
}

// EchoFilter keeps change selection records for a time window and decides
// whether an outbound selection is an echo.
type EchoFilter struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	fuzzy   bool
	records []Record
}

// NewEchoFilter creates a filter. A nil now uses time.Now; a non-positive
// window uses DefaultWindow.
func NewEchoFilter(window time.Duration, now func() time.Time) *EchoFilter {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &EchoFilter{window: window, now: now}
}

// SetFuzzy enables intersection-based suppression. Only one host integration
// type needs it: it echoes back partial selections.
func (f *EchoFilter) SetFuzzy(fuzzy bool) {
	f.mu.Lock()
	f.fuzzy = fuzzy
	f.mu.Unlock()
}

// Fuzzy reports whether intersection-based suppression is enabled.
func (f *EchoFilter) Fuzzy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fuzzy
}

// IsFiltered prunes expired records and reports whether ids is an echo of a
// remaining record.
func (f *EchoFilter) IsFiltered(ids []string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruneLocked()

	set := newRecord(ids, time.Time{}).IDs
	for _, r := range f.records {
		if r.equals(set) {
			return true
		}
		if f.fuzzy && r.intersects(set) {
			return true
		}
	}
	return false
}

// Record stores ids with the current time, dropping expired records first.
func (f *EchoFilter) Record(ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruneLocked()
	f.records = append(f.records, newRecord(ids, f.now()))
}

// Prune drops records older than the window.
func (f *EchoFilter) Prune() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruneLocked()
}

// Len returns the number of records currently held.
func (f *EchoFilter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// Records returns a copy of the records currently held.
func (f *EchoFilter) Records() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Record, len(f.records))
	copy(out, f.records)
	return out
}

func (f *EchoFilter) pruneLocked() {
	cutoff := f.now().Add(-f.window)
	kept := f.records[:0]
	for _, r := range f.records {
		if !r.At.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	f.records = kept
}
