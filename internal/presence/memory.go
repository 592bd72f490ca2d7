package presence

import (
	"sync"
	"time"
)

// MemoryTracker keeps heartbeat state in-process.
type MemoryTracker struct {
	mu       sync.RWMutex
	window   time.Duration
	lastSeen map[string]time.Time
}

// NewMemoryTracker initializes an empty tracker with the given freshness window.
func NewMemoryTracker(window time.Duration) *MemoryTracker {
	return &MemoryTracker{
		window:   window,
		lastSeen: make(map[string]time.Time),
	}
}

// Heartbeat updates the user's last-seen time. Out-of-order heartbeats
// (older than the stored value) are dropped.
func (t *MemoryTracker) Heartbeat(userID string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.lastSeen[userID]; ok && existing.After(at) {
		return nil
	}
	t.lastSeen[userID] = at
	return nil
}

// LastSeen returns the most recent heartbeat time for the user.
func (t *MemoryTracker) LastSeen(userID string) (time.Time, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ls, ok := t.lastSeen[userID]
	return ls, ok, nil
}

// Online reports whether the user's last heartbeat is within the window.
func (t *MemoryTracker) Online(userID string, now time.Time) (bool, error) {
	ls, ok, err := t.LastSeen(userID)
	if err != nil || !ok {
		return false, err
	}
	return Fresh(now, ls, t.window), nil
}
