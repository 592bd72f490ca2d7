package store

import (
	"testing"
	"time"

	"tuckertrips/internal/domain"
)

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()

	u := domain.User{
		ID:           "u1",
		Email:        "ann@example.com",
		PasswordHash: "hash",
		Name:         "Ann",
		CreatedAt:    time.Now(),
	}
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	ok, err := s.HasUserEmail("ann@example.com")
	if err != nil || !ok {
		t.Fatalf("HasUserEmail = %v, %v; want true, nil", ok, err)
	}
	ok, _ = s.HasUserEmail("nobody@example.com")
	if ok {
		t.Fatal("HasUserEmail should be false for unknown email")
	}

	got, found, err := s.GetUserByEmail("ann@example.com")
	if err != nil || !found {
		t.Fatalf("GetUserByEmail found=%v err=%v", found, err)
	}
	if got.ID != "u1" || got.Name != "Ann" {
		t.Fatalf("unexpected user %+v", got)
	}

	got, found, _ = s.GetUserByID("u1")
	if !found || got.Email != "ann@example.com" {
		t.Fatalf("GetUserByID found=%v user=%+v", found, got)
	}

	_, found, _ = s.GetUserByID("missing")
	if found {
		t.Fatal("GetUserByID should not find missing user")
	}
}

func TestMemoryStoreListUsersOrder(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.SaveUser(domain.User{ID: id, Email: id + "@example.com"}); err != nil {
			t.Fatalf("SaveUser(%s): %v", id, err)
		}
	}
	// Updating an existing user must not change its position.
	if err := s.SaveUser(domain.User{ID: "a", Email: "a@example.com", Bio: "updated"}); err != nil {
		t.Fatalf("SaveUser update: %v", err)
	}

	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("got %d users, want 3", len(users))
	}
	for i, want := range []string{"a", "b", "c"} {
		if users[i].ID != want {
			t.Errorf("users[%d].ID = %q, want %q", i, users[i].ID, want)
		}
	}
	if users[0].Bio != "updated" {
		t.Errorf("updated bio not persisted: %+v", users[0])
	}
}

func TestMemoryStoreTrips(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"t1", "t2", "t3"} {
		trip := domain.Trip{
			ID:        id,
			OwnerID:   "owner",
			Title:     "Trip " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveTrip(trip); err != nil {
			t.Fatalf("SaveTrip(%s): %v", id, err)
		}
	}
	if err := s.SaveTrip(domain.Trip{ID: "other", OwnerID: "someone-else"}); err != nil {
		t.Fatalf("SaveTrip(other): %v", err)
	}

	trips, err := s.ListTripsByOwner("owner")
	if err != nil {
		t.Fatalf("ListTripsByOwner: %v", err)
	}
	if len(trips) != 3 {
		t.Fatalf("got %d trips, want 3", len(trips))
	}
	// Newest first.
	for i, want := range []string{"t3", "t2", "t1"} {
		if trips[i].ID != want {
			t.Errorf("trips[%d].ID = %q, want %q", i, trips[i].ID, want)
		}
	}

	got, found, _ := s.GetTrip("t2")
	if !found || got.Title != "Trip t2" {
		t.Fatalf("GetTrip found=%v trip=%+v", found, got)
	}

	if err := s.DeleteTrip("t2"); err != nil {
		t.Fatalf("DeleteTrip: %v", err)
	}
	_, found, _ = s.GetTrip("t2")
	if found {
		t.Fatal("trip should be gone after delete")
	}
	trips, _ = s.ListTripsByOwner("owner")
	if len(trips) != 2 {
		t.Fatalf("got %d trips after delete, want 2", len(trips))
	}
}
