// Package chat owns the direct-message log and its read-state transitions.
package chat

import "tuckertrips/internal/domain"

// Store is the append-only message log shared by all conversations.
//
// Append assigns each message a store-wide monotonic sequence (and a
// creation time when the caller left it zero) so that concurrent sends into
// the same conversation serialize into a single agreed order.
//
// Conversation returns every message between the unordered pair
// {callerID, otherID} ordered by (createdAt, seq) ascending, and in the
// same critical section marks the returned unread messages addressed to
// callerID as read. Messages authored by the caller are never mutated.
// The returned snapshot reflects the read flags as they were at retrieval
// time; a second retrieval observes the flipped flags.
// UnreadCounts returns, per sender, how many unread messages are waiting for
// the user. It never mutates read state; only Conversation does.
type Store interface {
	Append(msg domain.Message) (domain.Message, error)
	Conversation(callerID, otherID string) ([]domain.Message, error)
	UnreadCounts(userID string) (map[string]int, error)
}
