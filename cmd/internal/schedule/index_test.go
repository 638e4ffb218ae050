package schedule

import (
	"sync"
	"testing"
)

const hour = int64(3600000)

func TestConflictingDetectsOverlap(t *testing.T) {
	index := NewIndex()
	index.Reserve("tp1", Entry{Start: 10 * hour, End: 11 * hour, BookingID: "b1"})

	conflictID, free := index.Conflicting("tp1", 10*hour, 11*hour)
	if free {
		t.Fatal("expected the reserved slot to conflict")
	}
	if conflictID != "b1" {
		t.Errorf("unexpected conflicting booking: %s", conflictID)
	}

	// Partial overlap from a half-hour offset still conflicts.
	if _, free := index.Conflicting("tp1", 10*hour+hour/2, 11*hour+hour/2); free {
		t.Error("expected a half-overlapping window to conflict")
	}
}

func TestAdjacentSlotsDoNotConflict(t *testing.T) {
	index := NewIndex()
	index.Reserve("tp1", Entry{Start: 10 * hour, End: 11 * hour, BookingID: "b1"})

	// Half-open intervals: [10,11) and [11,12) share no point.
	if !index.IsFree("tp1", 11*hour, 12*hour) {
		t.Error("expected the following slot to be free")
	}
	if !index.IsFree("tp1", 9*hour, 10*hour) {
		t.Error("expected the preceding slot to be free")
	}
}

func TestReserveKeepsOrdering(t *testing.T) {
	index := NewIndex()
	index.Reserve("tp1", Entry{Start: 14 * hour, End: 15 * hour, BookingID: "b2"})
	index.Reserve("tp1", Entry{Start: 10 * hour, End: 11 * hour, BookingID: "b1"})
	index.Reserve("tp1", Entry{Start: 12 * hour, End: 13 * hour, BookingID: "b3"})

	entries := index.Entries("tp1")
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Start >= entries[i].Start {
			t.Errorf("entries out of order at %d: %+v", i, entries)
		}
	}
}

func TestReleaseFreesSlot(t *testing.T) {
	index := NewIndex()
	index.Reserve("tp1", Entry{Start: 10 * hour, End: 11 * hour, BookingID: "b1"})

	index.Release("tp1", "b1")
	if !index.IsFree("tp1", 10*hour, 11*hour) {
		t.Error("expected the released slot to be free")
	}

	// Releasing an unknown booking is a no-op.
	index.Release("tp1", "b404")
}

func TestIndexIsPerTradesperson(t *testing.T) {
	index := NewIndex()
	index.Reserve("tp1", Entry{Start: 10 * hour, End: 11 * hour, BookingID: "b1"})

	if !index.IsFree("tp2", 10*hour, 11*hour) {
		t.Error("tp2's calendar must not see tp1's bookings")
	}
}

func TestRebuildReplacesState(t *testing.T) {
	index := NewIndex()
	index.Reserve("tp1", Entry{Start: 10 * hour, End: 11 * hour, BookingID: "stale"})

	index.Rebuild(map[string][]Entry{
		"tp2": {
			{Start: 14 * hour, End: 15 * hour, BookingID: "b2"},
			{Start: 12 * hour, End: 13 * hour, BookingID: "b1"},
		},
	})

	if !index.IsFree("tp1", 10*hour, 11*hour) {
		t.Error("rebuild must drop stale entries")
	}
	if index.IsFree("tp2", 12*hour, 13*hour) {
		t.Error("rebuild must install the new entries")
	}

	entries := index.Entries("tp2")
	if len(entries) != 2 || entries[0].BookingID != "b1" {
		t.Errorf("rebuild must sort entries by start: %+v", entries)
	}
}

func TestLockerSerializesPerTradesperson(t *testing.T) {
	locker := NewLocker()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locker.Lock("tp1")
			defer locker.Unlock("tp1")
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("expected 50 serialized increments, got %d", counter)
	}
}
