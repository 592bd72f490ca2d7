// Package presence tracks per-user liveness derived from heartbeats.
//
// There is no explicit "going offline" signal: a user is online while their
// last heartbeat is within the freshness window and silently drops out of
// every other caller's view once it goes stale.
package presence

import "time"

// Tracker owns last-heartbeat state. Implementations must keep lastSeen
// monotonically non-decreasing per user: a heartbeat older than the stored
// value is ignored, never regresses state.
type Tracker interface {
	// Heartbeat records a liveness signal observed at the given time.
	Heartbeat(userID string, at time.Time) error
	// LastSeen returns the most recent heartbeat time, if any.
	LastSeen(userID string) (time.Time, bool, error)
	// Online reports whether the user's last heartbeat is fresh as of now.
	Online(userID string, now time.Time) (bool, error)
}

// Fresh reports whether a heartbeat at lastSeen is still within the window
// as of now. A zero lastSeen means the user was never seen. A lastSeen
// slightly ahead of now (clock skew between callers) counts as fresh.
func Fresh(now, lastSeen time.Time, window time.Duration) bool {
	if lastSeen.IsZero() {
		return false
	}
	return now.Sub(lastSeen) <= window
}
