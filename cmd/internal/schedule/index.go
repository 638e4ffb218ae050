package schedule

import (
	"sort"
	"sync"
)

// Entry is one CONFIRMED booking on a tradesperson's calendar.
type Entry struct {
	Start     int64
	End       int64
	BookingID string
}

// Index is an in-memory accelerator over the booking ledger: per
// tradesperson, the ordered set of confirmed slots. The ledger stays
// authoritative; the index is rebuilt from it at startup and maintained
// incrementally by the booking service.
type Index struct {
	mu    sync.RWMutex
	slots map[string][]Entry // ordered by Start, non-overlapping
}

func NewIndex() *Index {
	return &Index{slots: make(map[string][]Entry)}
}

// Rebuild replaces the whole index with the given entries.
func (x *Index) Rebuild(byTradesperson map[string][]Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.slots = make(map[string][]Entry, len(byTradesperson))
	for tpID, entries := range byTradesperson {
		sorted := make([]Entry, len(entries))
		copy(sorted, entries)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
		x.slots[tpID] = sorted
	}
}

// IsFree reports whether [start, end) intersects no confirmed slot of
// the tradesperson.
func (x *Index) IsFree(tradespersonID string, start, end int64) bool {
	_, free := x.Conflicting(tradespersonID, start, end)
	return free
}

// Conflicting returns the booking occupying any part of [start, end),
// or ok=true when the window is free.
func (x *Index) Conflicting(tradespersonID string, start, end int64) (bookingID string, ok bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entries := x.slots[tradespersonID]
	// First entry starting at or after the window's end; only its
	// predecessor can still reach into the window.
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Start >= end })
	if i > 0 && entries[i-1].End > start {
		return entries[i-1].BookingID, false
	}
	return "", true
}

// Reserve inserts the slot, keeping the per-tradesperson ordering.
// Callers must have verified the window is free under the same
// tradesperson lock.
func (x *Index) Reserve(tradespersonID string, e Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	entries := x.slots[tradespersonID]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Start >= e.Start })
	entries = append(entries, Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	x.slots[tradespersonID] = entries
}

// Release removes the slot held by the given booking. Releasing a
// booking that holds no slot is a no-op.
func (x *Index) Release(tradespersonID, bookingID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	entries := x.slots[tradespersonID]
	for i, e := range entries {
		if e.BookingID == bookingID {
			x.slots[tradespersonID] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Entries returns a copy of the tradesperson's confirmed slots in
// start order.
func (x *Index) Entries(tradespersonID string) []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entries := x.slots[tradespersonID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
