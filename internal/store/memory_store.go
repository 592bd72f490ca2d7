package store

import (
	"sync"

	"tuckertrips/internal/domain"
)

// MemoryStore keeps the registry in-process; used for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User // key: user ID
	email     map[string]string      // email -> user ID
	userOrder []string
	trips     map[string]domain.Trip
	tripOrder []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]domain.User),
		email: make(map[string]string),
		trips: make(map[string]domain.Trip),
	}
}

// SaveUser registers or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.ID]; !exists {
		m.userOrder = append(m.userOrder, u.ID)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.email[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns all users in registration order.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

// SaveTrip stores or replaces a trip record and tracks insertion order.
func (m *MemoryStore) SaveTrip(t domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.trips[t.ID]; !exists {
		m.tripOrder = append(m.tripOrder, t.ID)
	}
	m.trips[t.ID] = t
	return nil
}

// ListTripsByOwner returns the owner's trips, newest first.
func (m *MemoryStore) ListTripsByOwner(ownerID string) ([]domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Trip, 0)
	for i := len(m.tripOrder) - 1; i >= 0; i-- {
		if t, ok := m.trips[m.tripOrder[i]]; ok && t.OwnerID == ownerID {
			res = append(res, t)
		}
	}
	return res, nil
}

// GetTrip retrieves a trip by ID.
func (m *MemoryStore) GetTrip(id string) (domain.Trip, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trips[id]
	return t, ok, nil
}

// DeleteTrip removes a trip.
func (m *MemoryStore) DeleteTrip(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, id)
	filtered := m.tripOrder[:0]
	for _, item := range m.tripOrder {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.tripOrder = filtered
	return nil
}
