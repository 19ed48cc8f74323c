package rng

import "sync"

// Entry pairs a tick number with the generator state captured at the
// start of that tick.
type Entry struct {
	Tick  uint32 `json:"tick"`
	State State  `json:"state"`
}

// Record keeps a bounded rolling window of per-tick generator
// snapshots for desync diagnosis. Oldest entries evict first.
type Record struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

// DefaultRecordCapacity bounds the diagnostic window when no explicit
// capacity is configured.
const DefaultRecordCapacity = 256

// NewRecord builds a record retaining at most capacity entries.
func NewRecord(capacity int) *Record {
	if capacity <= 0 {
		capacity = DefaultRecordCapacity
	}
	return &Record{entries: make([]Entry, 0, capacity), max: capacity}
}

// RecordTickStart stores the state observed at the start of tick.
func (r *Record) RecordTickStart(tick uint32, state State) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Tick: tick, State: state})
	if overflow := len(r.entries) - r.max; overflow > 0 {
		copy(r.entries, r.entries[overflow:])
		r.entries = r.entries[:len(r.entries)-overflow]
	}
}

// Entries returns a copy of the window in chronological order.
func (r *Record) Entries() []Entry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.entries) == 0 {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports how many entries the window currently holds.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
