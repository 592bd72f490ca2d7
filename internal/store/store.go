package store

import "tuckertrips/internal/domain"

// Store defines persistence operations for the user registry and trips.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)

	// trips
	SaveTrip(domain.Trip) error
	ListTripsByOwner(ownerID string) ([]domain.Trip, error)
	GetTrip(id string) (domain.Trip, bool, error)
	DeleteTrip(id string) error
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
