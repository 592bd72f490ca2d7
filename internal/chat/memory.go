package chat

import (
	"sort"
	"sync"
	"time"

	"tuckertrips/internal/domain"
)

// MemoryStore keeps the message log in-process.
type MemoryStore struct {
	mu   sync.Mutex
	seq  int64
	msgs []*domain.Message
	now  func() time.Time
}

// NewMemoryStore initializes an empty in-memory message store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: func() time.Time { return time.Now().UTC() }}
}

// Append stamps the message with the next sequence number (and the current
// time when CreatedAt is zero) and stores it.
func (s *MemoryStore) Append(msg domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg.Seq = s.seq
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	stored := msg
	s.msgs = append(s.msgs, &stored)
	return msg, nil
}

// Conversation returns the pair's messages in chronological order and marks
// the unread ones addressed to the caller as read, atomically.
func (s *MemoryStore) Conversation(callerID, otherID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]domain.Message, 0)
	for _, m := range s.msgs {
		if !betweenPair(m, callerID, otherID) {
			continue
		}
		res = append(res, *m)
		if m.RecipientID == callerID && !m.Read {
			m.Read = true
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].Seq < res[j].Seq
	})
	return res, nil
}

// UnreadCounts tallies unread messages addressed to the user, keyed by sender.
func (s *MemoryStore) UnreadCounts(userID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, m := range s.msgs {
		if m.RecipientID == userID && !m.Read {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

func betweenPair(m *domain.Message, a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) ||
		(m.SenderID == b && m.RecipientID == a)
}
