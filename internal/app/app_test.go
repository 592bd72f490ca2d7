package app

import (
	"errors"
	"testing"
	"time"

	"tuckertrips/internal/domain"
	"tuckertrips/internal/presence"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestApp(t *testing.T) (*App, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	a, err := New(Config{
		JWTSecret:    "test-secret",
		OnlineWindow: 5 * time.Minute,
		Presence:     presence.NewMemoryTracker(5 * time.Minute),
		Clock:        clock.Now,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, clock
}

func register(t *testing.T, a *App, email, name string) domain.User {
	t.Helper()
	user, _, err := a.Register(email, "password123", name)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	a, _ := newTestApp(t)

	user, token, err := a.Register("Ann@Example.com", "password123", "Ann")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if token == "" {
		t.Fatal("register should issue a token")
	}

	resolved, ok := a.UserFromToken(token)
	if !ok || resolved.ID != user.ID {
		t.Fatalf("UserFromToken ok=%v user=%+v", ok, resolved)
	}

	loggedIn, loginToken, err := a.Login("ann@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID || loginToken == "" {
		t.Fatalf("login user=%+v token=%q", loggedIn, loginToken)
	}
}

func TestRegisterValidation(t *testing.T) {
	a, _ := newTestApp(t)

	if _, _, err := a.Register("no-at-sign", "password123", "Ann"); !errors.Is(err, ErrEmailInvalid) {
		t.Fatalf("bad email err = %v", err)
	}
	if _, _, err := a.Register("ann@example.com", "short", "Ann"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short password err = %v", err)
	}
	if _, _, err := a.Register("ann@example.com", "password123", "  "); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("blank name err = %v", err)
	}

	register(t, a, "ann@example.com", "Ann")
	if _, _, err := a.Register("ann@example.com", "password123", "Ann Again"); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("duplicate email err = %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a, _ := newTestApp(t)
	register(t, a, "ann@example.com", "Ann")

	if _, _, err := a.Login("ann@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, _, err := a.Login("nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v", err)
	}
}

func TestLoginRecordsHeartbeat(t *testing.T) {
	a, _ := newTestApp(t)
	ann := register(t, a, "ann@example.com", "Ann")
	bob := register(t, a, "bob@example.com", "Bob")

	if _, _, err := a.Login("bob@example.com", "password123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	online, err := a.ListOnline(ann.ID)
	if err != nil {
		t.Fatalf("list online: %v", err)
	}
	if len(online) != 1 || online[0].ID != bob.ID {
		t.Fatalf("online = %+v, want just bob", online)
	}
}

func TestUpdateProfile(t *testing.T) {
	a, _ := newTestApp(t)
	user := register(t, a, "ann@example.com", "Ann")

	bio := "Collecting mountain passes."
	updated, err := a.UpdateProfile(user, nil, &bio)
	if err != nil {
		t.Fatalf("update bio: %v", err)
	}
	if updated.Bio != bio || updated.Name != "Ann" {
		t.Fatalf("updated = %+v", updated)
	}

	name := "Ann B."
	updated, err = a.UpdateProfile(updated, &name, nil)
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if updated.Name != "Ann B." || updated.Bio != bio {
		t.Fatalf("updated = %+v", updated)
	}

	tooLong := longContent(501)
	if _, err := a.UpdateProfile(updated, nil, &tooLong); !errors.Is(err, ErrBioTooLong) {
		t.Fatalf("long bio err = %v", err)
	}
	blank := " "
	if _, err := a.UpdateProfile(updated, &blank, nil); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("blank name err = %v", err)
	}
}

func TestHeartbeatUnknownUser(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.Heartbeat("ghost"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("err = %v, want ErrUnknownUser", err)
	}
}

func TestListOnlineExcludesRequesterAndStale(t *testing.T) {
	a, clock := newTestApp(t)
	ann := register(t, a, "ann@example.com", "Ann")
	bob := register(t, a, "bob@example.com", "Bob")
	cat := register(t, a, "cat@example.com", "Cat")

	if err := a.Heartbeat(ann.ID); err != nil {
		t.Fatalf("heartbeat ann: %v", err)
	}
	if err := a.Heartbeat(bob.ID); err != nil {
		t.Fatalf("heartbeat bob: %v", err)
	}

	// Cat heartbeats, then goes quiet past the window.
	if err := a.Heartbeat(cat.ID); err != nil {
		t.Fatalf("heartbeat cat: %v", err)
	}
	clock.Advance(6 * time.Minute)
	if err := a.Heartbeat(ann.ID); err != nil {
		t.Fatalf("heartbeat ann: %v", err)
	}
	if err := a.Heartbeat(bob.ID); err != nil {
		t.Fatalf("heartbeat bob: %v", err)
	}

	online, err := a.ListOnline(ann.ID)
	if err != nil {
		t.Fatalf("list online: %v", err)
	}
	if len(online) != 1 || online[0].ID != bob.ID {
		t.Fatalf("online = %+v, want just bob", online)
	}
	if online[0].Name != "Bob" || online[0].Email != "bob@example.com" {
		t.Fatalf("projection = %+v", online[0])
	}
}

func TestSendMessageValidation(t *testing.T) {
	a, _ := newTestApp(t)
	ann := register(t, a, "ann@example.com", "Ann")
	bob := register(t, a, "bob@example.com", "Bob")

	if _, err := a.SendMessage(ann.ID, ann.ID, "hi"); !errors.Is(err, ErrSelfMessage) {
		t.Fatalf("self message err = %v", err)
	}
	if _, err := a.SendMessage(ann.ID, bob.ID, "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("empty content err = %v", err)
	}
	if _, err := a.SendMessage(ann.ID, bob.ID, longContent(1001)); !errors.Is(err, ErrContentTooLong) {
		t.Fatalf("long content err = %v", err)
	}
	if _, err := a.SendMessage(ann.ID, "ghost", "hi"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("unknown recipient err = %v", err)
	}

	msg, err := a.SendMessage(ann.ID, bob.ID, longContent(1000))
	if err != nil {
		t.Fatalf("max-length message should send: %v", err)
	}
	if msg.ID == "" || msg.Read {
		t.Fatalf("stored message = %+v", msg)
	}
}

func longContent(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestConversationReadTransition(t *testing.T) {
	a, _ := newTestApp(t)
	ann := register(t, a, "ann@example.com", "Ann")
	bob := register(t, a, "bob@example.com", "Bob")

	if _, err := a.SendMessage(ann.ID, bob.ID, "hello bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := a.SendMessage(bob.ID, ann.ID, "hello ann"); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Bob retrieves: ann's message was unread at retrieval time.
	msgs, err := a.Conversation(bob.ID, ann.ID)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "hello bob" || msgs[0].Read {
		t.Fatalf("first retrieval msg = %+v", msgs[0])
	}

	// Ann retrieves: her sent message now shows read, bob's flips for her.
	msgs, err = a.Conversation(ann.ID, bob.ID)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if !msgs[0].Read {
		t.Fatal("ann's sent message should show read after bob retrieved")
	}
	if msgs[1].Read {
		t.Fatal("bob's message was unread when ann retrieved")
	}

	if _, err := a.Conversation(ann.ID, "ghost"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("unknown other err = %v", err)
	}
}

func TestTripLifecycle(t *testing.T) {
	a, clock := newTestApp(t)
	ann := register(t, a, "ann@example.com", "Ann")
	bob := register(t, a, "bob@example.com", "Bob")

	title := "Dolomites"
	dest := "Italy"
	start := "2026-07-01"
	trip, err := a.CreateTrip(ann.ID, TripInput{Title: &title, Destination: &dest, StartDate: &start})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if trip.EndDate != start {
		t.Fatalf("endDate = %q, want startDate default", trip.EndDate)
	}
	if trip.Status != domain.TripFuture || trip.Visibility != domain.TripPrivate {
		t.Fatalf("defaults = %+v", trip)
	}

	clock.Advance(time.Minute)
	title2 := "Alps"
	second, err := a.CreateTrip(ann.ID, TripInput{Title: &title2, Destination: &dest, StartDate: &start})
	if err != nil {
		t.Fatalf("create second trip: %v", err)
	}

	trips, err := a.ListTrips(ann.ID)
	if err != nil {
		t.Fatalf("list trips: %v", err)
	}
	if len(trips) != 2 || trips[0].ID != second.ID {
		t.Fatalf("trips = %+v, want newest first", trips)
	}

	// Ownership: bob cannot see, update or delete ann's trip.
	if _, err := a.GetTrip(bob.ID, trip.ID); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("cross-owner get err = %v", err)
	}
	if _, err := a.UpdateTrip(bob.ID, trip.ID, TripInput{Title: &title2}); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("cross-owner update err = %v", err)
	}
	if err := a.DeleteTrip(bob.ID, trip.ID); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("cross-owner delete err = %v", err)
	}

	status := domain.TripTaken
	comment := "Great weather."
	updated, err := a.UpdateTrip(ann.ID, trip.ID, TripInput{Status: &status, OverallComment: &comment})
	if err != nil {
		t.Fatalf("update trip: %v", err)
	}
	if updated.Status != domain.TripTaken || updated.OverallComment != comment {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.Title != "Dolomites" {
		t.Fatalf("patch should not clear title: %+v", updated)
	}

	if err := a.DeleteTrip(ann.ID, trip.ID); err != nil {
		t.Fatalf("delete trip: %v", err)
	}
	if _, err := a.GetTrip(ann.ID, trip.ID); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("deleted trip err = %v", err)
	}

	if _, err := a.CreateTrip(ann.ID, TripInput{}); !errors.Is(err, ErrTripTitleRequired) {
		t.Fatalf("missing title err = %v", err)
	}
	if _, err := a.CreateTrip(ann.ID, TripInput{Title: &title}); !errors.Is(err, ErrTripDatesRequired) {
		t.Fatalf("missing dates err = %v", err)
	}
}
