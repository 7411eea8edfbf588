package session

import "sync"

// Locker serializes work per sender inside one process. Entries are dropped
// once no goroutine holds or waits on them.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*senderLock
}

type senderLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocker creates an empty keyed mutex.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*senderLock)}
}

// Lock blocks until the sender's lock is held and returns its release func.
func (l *Locker) Lock(sender string) func() {
	l.mu.Lock()
	entry, ok := l.locks[sender]
	if !ok {
		entry = &senderLock{}
		l.locks[sender] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, sender)
		}
		l.mu.Unlock()
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
