package schedule

import "sync"

// Locker hands out one mutex per tradesperson so that the
// check-availability-then-reserve sequence serializes per calendar.
// Requests for different tradespeople never block each other.
type Locker struct {
	mu   sync.Mutex
	held map[string]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]*sync.Mutex)}
}

func (l *Locker) Lock(tradespersonID string) {
	l.get(tradespersonID).Lock()
}

func (l *Locker) Unlock(tradespersonID string) {
	l.get(tradespersonID).Unlock()
}

// Mutexes are kept for the life of the process; the directory is small
// and tradespeople are never deleted.
func (l *Locker) get(tradespersonID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.held[tradespersonID]
	if !ok {
		m = &sync.Mutex{}
		l.held[tradespersonID] = m
	}
	return m
}
