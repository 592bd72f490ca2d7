package app

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tuckertrips/internal/auth"
	"tuckertrips/internal/chat"
	"tuckertrips/internal/domain"
	"tuckertrips/internal/presence"
	"tuckertrips/internal/store"
	"tuckertrips/internal/util"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	SessionStrategy string
	JWTSecret       string
	SessionTTL      time.Duration
	OnlineWindow    time.Duration
	MaxMessageChars int
	Store           store.Store
	Sessions        store.SessionStore
	Presence        presence.Tracker
	Messages        chat.Store
	Clock           func() time.Time
}

// App is the core application service wiring together storage, presence and
// messaging logic.
type App struct {
	store           store.Store
	sessions        store.SessionStore
	presence        presence.Tracker
	messages        chat.Store
	onlineWindow    time.Duration
	maxMessageChars int
	now             func() time.Time
}

// New constructs the application. Stores not provided in cfg are wired from
// DatabaseURL and RedisAddr; with neither set, everything runs in-process.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.OnlineWindow == 0 {
		cfg.OnlineWindow = 5 * time.Minute
	}
	if cfg.MaxMessageChars == 0 {
		cfg.MaxMessageChars = 1000
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}

	dataStore := cfg.Store
	messageStore := cfg.Messages
	if (dataStore == nil || messageStore == nil) && cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if dataStore == nil {
			dataStore, err = store.NewGormStore(db)
			if err != nil {
				return nil, fmt.Errorf("init postgres store: %w", err)
			}
		}
		if messageStore == nil {
			messageStore, err = chat.NewGormStore(db)
			if err != nil {
				return nil, fmt.Errorf("init postgres message store: %w", err)
			}
		}
	}
	if dataStore == nil {
		dataStore = store.NewMemoryStore()
	}
	if messageStore == nil {
		messageStore = chat.NewMemoryStore()
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		switch strings.TrimSpace(cfg.SessionStrategy) {
		case "redis":
			if strings.TrimSpace(cfg.RedisAddr) == "" {
				return nil, fmt.Errorf("redisAddr is required for redis session strategy")
			}
			sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		default:
			if strings.TrimSpace(cfg.JWTSecret) == "" {
				return nil, fmt.Errorf("jwtSecret is required for jwt session strategy")
			}
			sessionStore = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
		}
	}

	tracker := cfg.Presence
	if tracker == nil {
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			tracker = presence.NewRedisTracker(cfg.RedisAddr, cfg.RedisPassword, cfg.OnlineWindow)
		} else {
			tracker = presence.NewMemoryTracker(cfg.OnlineWindow)
		}
	}

	return &App{
		store:           dataStore,
		sessions:        sessionStore,
		presence:        tracker,
		messages:        messageStore,
		onlineWindow:    cfg.OnlineWindow,
		maxMessageChars: cfg.MaxMessageChars,
		now:             cfg.Clock,
	}, nil
}

// Register creates a new account and issues a session token.
func (a *App) Register(email, password, name string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, "", ErrEmailInvalid
	}
	if len(password) < 6 {
		return domain.User{}, "", ErrPasswordTooShort
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, "", ErrNameRequired
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    a.now(),
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// Login validates credentials, issues a session token and records a heartbeat
// so the user shows up online immediately.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	if err := a.presence.Heartbeat(user.ID, a.now()); err != nil {
		return domain.User{}, "", fmt.Errorf("record heartbeat: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout invalidates a session token where the strategy supports it.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UpdateProfile applies a partial update to the user's name and bio.
func (a *App) UpdateProfile(user domain.User, name, bio *string) (domain.User, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return domain.User{}, ErrNameRequired
		}
		user.Name = trimmed
	}
	if bio != nil {
		if utf8.RuneCountInString(*bio) > 500 {
			return domain.User{}, ErrBioTooLong
		}
		user.Bio = *bio
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Heartbeat records a liveness signal for the user.
func (a *App) Heartbeat(userID string) error {
	_, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return ErrUnknownUser
	}
	return a.presence.Heartbeat(userID, a.now())
}

// ListOnline returns every user other than the requester whose last heartbeat
// is within the freshness window. Presence lookups fan out concurrently since
// each one may be a Redis round-trip.
func (a *App) ListOnline(requesterID string) ([]domain.OnlineUser, error) {
	users, err := a.store.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	candidates := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.ID != requesterID {
			candidates = append(candidates, u)
		}
	}

	now := a.now()
	lastSeens := make([]time.Time, len(candidates))
	seen := make([]bool, len(candidates))
	var g errgroup.Group
	g.SetLimit(8)
	for i, u := range candidates {
		i, u := i, u
		g.Go(func() error {
			ls, ok, err := a.presence.LastSeen(u.ID)
			if err != nil {
				return fmt.Errorf("last seen %s: %w", u.ID, err)
			}
			lastSeens[i], seen[i] = ls, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	online := make([]domain.OnlineUser, 0)
	for i, u := range candidates {
		if !seen[i] || !presence.Fresh(now, lastSeens[i], a.onlineWindow) {
			continue
		}
		online = append(online, domain.OnlineUser{
			ID:       u.ID,
			Name:     u.Name,
			Email:    u.Email,
			Bio:      u.Bio,
			LastSeen: lastSeens[i],
		})
	}
	return online, nil
}

// SendMessage validates and appends a direct message to the recipient.
func (a *App) SendMessage(senderID, recipientID, content string) (domain.Message, error) {
	if recipientID == senderID {
		return domain.Message{}, ErrSelfMessage
	}
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > a.maxMessageChars {
		return domain.Message{}, ErrContentTooLong
	}
	_, found, err := a.store.GetUserByID(recipientID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("fetch recipient: %w", err)
	}
	if !found {
		return domain.Message{}, ErrUnknownUser
	}
	msg := domain.Message{
		ID:          util.NewID(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   a.now(),
	}
	stored, err := a.messages.Append(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	return stored, nil
}

// Conversation returns the caller's message history with the other user and
// marks the caller's unread incoming messages as read.
func (a *App) Conversation(callerID, otherID string) ([]domain.Message, error) {
	_, found, err := a.store.GetUserByID(otherID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return nil, ErrUnknownUser
	}
	msgs, err := a.messages.Conversation(callerID, otherID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return msgs, nil
}

// UnreadCounts returns the number of unread messages waiting for the user,
// keyed by sender.
func (a *App) UnreadCounts(userID string) (map[string]int, error) {
	counts, err := a.messages.UnreadCounts(userID)
	if err != nil {
		return nil, fmt.Errorf("unread counts: %w", err)
	}
	return counts, nil
}

// TripInput carries trip fields for create and partial update. Nil pointers
// on update leave the stored value unchanged.
type TripInput struct {
	Title          *string
	Destination    *string
	StartDate      *string
	EndDate        *string
	Status         *domain.TripStatus
	Visibility     *domain.TripVisibility
	Description    *string
	CoverPhoto     *string
	Weather        *string
	OverallComment *string
	Airlines       []string
	Accommodations []string
	TripImages     []string
	SharedWith     []string
	Segments       []map[string]any
}

// CreateTrip stores a new trip owned by the user.
func (a *App) CreateTrip(ownerID string, in TripInput) (domain.Trip, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return domain.Trip{}, ErrTripTitleRequired
	}
	if in.Destination == nil || strings.TrimSpace(*in.Destination) == "" ||
		in.StartDate == nil || strings.TrimSpace(*in.StartDate) == "" {
		return domain.Trip{}, ErrTripDatesRequired
	}
	now := a.now()
	trip := domain.Trip{
		ID:          util.NewID(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(*in.Title),
		Destination: strings.TrimSpace(*in.Destination),
		StartDate:   *in.StartDate,
		EndDate:     *in.StartDate,
		Status:      domain.TripFuture,
		Visibility:  domain.TripPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyTripInput(&trip, in)
	if err := a.store.SaveTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("save trip: %w", err)
	}
	return trip, nil
}

// ListTrips returns the user's trips, newest first.
func (a *App) ListTrips(ownerID string) ([]domain.Trip, error) {
	return a.store.ListTripsByOwner(ownerID)
}

// GetTrip returns one of the user's trips. Trips owned by someone else are
// reported as not found.
func (a *App) GetTrip(ownerID, tripID string) (domain.Trip, error) {
	trip, found, err := a.store.GetTrip(tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("fetch trip: %w", err)
	}
	if !found || trip.OwnerID != ownerID {
		return domain.Trip{}, ErrTripNotFound
	}
	return trip, nil
}

// UpdateTrip applies a partial update to one of the user's trips.
func (a *App) UpdateTrip(ownerID, tripID string, in TripInput) (domain.Trip, error) {
	trip, err := a.GetTrip(ownerID, tripID)
	if err != nil {
		return domain.Trip{}, err
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return domain.Trip{}, ErrTripTitleRequired
		}
		trip.Title = strings.TrimSpace(*in.Title)
	}
	if in.Destination != nil {
		trip.Destination = strings.TrimSpace(*in.Destination)
	}
	if in.StartDate != nil {
		trip.StartDate = *in.StartDate
	}
	applyTripInput(&trip, in)
	trip.UpdatedAt = a.now()
	if err := a.store.SaveTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("save trip: %w", err)
	}
	return trip, nil
}

// DeleteTrip removes one of the user's trips.
func (a *App) DeleteTrip(ownerID, tripID string) error {
	if _, err := a.GetTrip(ownerID, tripID); err != nil {
		return err
	}
	return a.store.DeleteTrip(tripID)
}

func applyTripInput(trip *domain.Trip, in TripInput) {
	if in.EndDate != nil && strings.TrimSpace(*in.EndDate) != "" {
		trip.EndDate = *in.EndDate
	}
	if in.Status != nil {
		trip.Status = *in.Status
	}
	if in.Visibility != nil {
		trip.Visibility = *in.Visibility
	}
	if in.Description != nil {
		trip.Description = *in.Description
	}
	if in.CoverPhoto != nil {
		trip.CoverPhoto = *in.CoverPhoto
	}
	if in.Weather != nil {
		trip.Weather = *in.Weather
	}
	if in.OverallComment != nil {
		trip.OverallComment = *in.OverallComment
	}
	if in.Airlines != nil {
		trip.Airlines = in.Airlines
	}
	if in.Accommodations != nil {
		trip.Accommodations = in.Accommodations
	}
	if in.TripImages != nil {
		trip.TripImages = in.TripImages
	}
	if in.SharedWith != nil {
		trip.SharedWith = in.SharedWith
	}
	if in.Segments != nil {
		trip.Segments = in.Segments
	}
}
