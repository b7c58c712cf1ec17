package pipeline

import "sync"

// Ticket identifies one request to load a flow.
type Ticket struct {
	Key string
	Gen uint64
}

// Latest lets only the most recent request win. Each [Latest.Begin]
// supersedes every earlier ticket; [Latest.Commit] applies a result only
// if its ticket is still the newest. The zero value is ready to use.
type Latest struct {
	mu  sync.Mutex
	gen uint64
	key string
}

// Begin starts a request for the flow identified by key.
func (l *Latest) Begin(key string) Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.key = key
	return Ticket{Key: key, Gen: l.gen}
}

// Current reports whether t is the newest ticket.
func (l *Latest) Current(t Ticket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return t.Gen == l.gen && t.Key == l.key
}

// Commit runs apply if t is still the newest ticket and reports whether it
// did. apply runs under the lock, so no newer Begin can interleave.
func (l *Latest) Commit(t Ticket, apply func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.Gen != l.gen || t.Key != l.key {
		return false
	}
	if apply != nil {
		apply()
	}
	return true
}
