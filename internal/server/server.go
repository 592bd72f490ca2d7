package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tuckertrips/internal/app"
	"tuckertrips/internal/domain"
	"tuckertrips/internal/ratelimit"
	"tuckertrips/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                        *app.App
	RedisAddr                  string
	RedisPassword              string
	RegisterRateLimitPerMinute int
	LoginRateLimitPerMinute    int
	MessageRateLimitPerMinute  int
}

// Server exposes the HTTP API.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	registerLimiter ratelimit.Limiter
	loginLimiter    ratelimit.Limiter
	messageLimiter  ratelimit.Limiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	registerLimit := cfg.RegisterRateLimitPerMinute
	if registerLimit <= 0 {
		registerLimit = 10
	}
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 20
	}
	messageLimit := cfg.MessageRateLimitPerMinute
	if messageLimit <= 0 {
		messageLimit = 60
	}
	rateWindow := time.Minute
	newLimiter := func(name string, limit int) (ratelimit.Limiter, error) {
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			limiter, err := ratelimit.NewMemoryFixedWindowLimiter(limit, rateWindow)
			if err != nil {
				return nil, fmt.Errorf("init %s limiter: %w", name, err)
			}
			return limiter, nil
		}
		prefix := "tuckertrips:ratelimit:" + name
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, rateWindow)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	registerLimiter, err := newLimiter("register", registerLimit)
	if err != nil {
		return nil, err
	}
	loginLimiter, err := newLimiter("login", loginLimit)
	if err != nil {
		return nil, err
	}
	messageLimiter, err := newLimiter("message", messageLimit)
	if err != nil {
		return nil, err
	}
	s := &Server{
		app:             cfg.App,
		mux:             http.NewServeMux(),
		registerLimiter: registerLimiter,
		loginLimiter:    loginLimiter,
		messageLimiter:  messageLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/auth/me", s.authenticated(s.handleMe))

	// users & presence
	s.mux.Handle("/api/users/profile", s.authenticated(s.handleProfile))
	s.mux.Handle("/api/users/heartbeat", s.authenticated(s.handleHeartbeat))
	s.mux.Handle("/api/users/online", s.authenticated(s.handleOnline))

	// messages
	s.mux.Handle("/api/messages", s.authenticated(s.handleMessages))
	s.mux.Handle("/api/messages/", s.authenticated(s.handleConversation))

	// trips
	s.mux.Handle("/api/trips", s.authenticated(s.handleTrips))
	s.mux.Handle("/api/trips/", s.authenticated(s.handleTripByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "api.authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.UserFromToken(token)
}

// auth handlers
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.registerLimiter, "too many registration attempts") {
		s.audit(r, "api.register", "rate_limited")
		return
	}
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Register(req.Email, req.Password, req.Name)
	if err != nil {
		s.audit(r, "api.register", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "api.register", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "api.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		s.audit(r, "api.login", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "api.login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.User{"user": user})
}

// user handlers
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req profileRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updated, err := s.app.UpdateProfile(user, req.Name, req.Bio)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.User{"user": updated})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.Heartbeat(user.ID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleOnline(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	online, err := s.app.ListOnline(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, online)
}

// message handlers
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.messageLimiter, "too many messages") {
		s.audit(r, "api.message.send", "rate_limited", "user_id", user.ID)
		return
	}
	var req messageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msg, err := s.app.SendMessage(user.ID, req.RecipientID, req.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request, user domain.User) {
	otherID := strings.TrimPrefix(r.URL.Path, "/api/messages/")
	if otherID == "" || strings.Contains(otherID, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if otherID == "unread" {
		s.handleUnreadCounts(w, user)
		return
	}
	msgs, err := s.app.Conversation(user.ID, otherID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleUnreadCounts(w http.ResponseWriter, user domain.User) {
	counts, err := s.app.UnreadCounts(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"counts": counts,
		"total":  total,
	})
}

// trip handlers
func (s *Server) handleTrips(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		trips, err := s.app.ListTrips(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, trips)
	case http.MethodPost:
		in, ok := decodeTripInput(w, r)
		if !ok {
			return
		}
		trip, err := s.app.CreateTrip(user.ID, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, trip)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTripByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/trips/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		trip, err := s.app.GetTrip(user.ID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, trip)
	case http.MethodPatch, http.MethodPut:
		in, ok := decodeTripInput(w, r)
		if !ok {
			return
		}
		trip, err := s.app.UpdateTrip(user.ID, id, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, trip)
	case http.MethodDelete:
		if err := s.app.DeleteTrip(user.ID, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		methodNotAllowed(w)
	}
}

func decodeTripInput(w http.ResponseWriter, r *http.Request) (app.TripInput, bool) {
	var req tripRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return app.TripInput{}, false
	}
	in := app.TripInput{
		Title:          req.Title,
		Destination:    req.Destination,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Description:    req.Description,
		CoverPhoto:     req.CoverPhoto,
		Weather:        req.Weather,
		OverallComment: req.OverallComment,
		Airlines:       req.Airlines,
		Accommodations: req.Accommodations,
		TripImages:     req.TripImages,
		SharedWith:     req.SharedWith,
		Segments:       req.Segments,
	}
	if req.Status != nil {
		parsed, ok := parseTripStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status")
			return app.TripInput{}, false
		}
		in.Status = &parsed
	}
	if req.Visibility != nil {
		parsed, ok := parseTripVisibility(*req.Visibility)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid visibility")
			return app.TripInput{}, false
		}
		in.Visibility = &parsed
	}
	return in, true
}

func parseTripStatus(status string) (domain.TripStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case string(domain.TripFuture):
		return domain.TripFuture, true
	case string(domain.TripTaken):
		return domain.TripTaken, true
	default:
		return "", false
	}
}

func parseTripVisibility(visibility string) (domain.TripVisibility, bool) {
	switch strings.ToLower(strings.TrimSpace(visibility)) {
	case string(domain.TripPublic):
		return domain.TripPublic, true
	case string(domain.TripPrivate):
		return domain.TripPrivate, true
	default:
		return "", false
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type profileRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

type messageRequest struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
}

type tripRequest struct {
	Title          *string          `json:"title"`
	Destination    *string          `json:"destination"`
	StartDate      *string          `json:"startDate"`
	EndDate        *string          `json:"endDate"`
	Status         *string          `json:"status"`
	Visibility     *string          `json:"visibility"`
	Description    *string          `json:"description"`
	CoverPhoto     *string          `json:"coverPhoto"`
	Weather        *string          `json:"weather"`
	OverallComment *string          `json:"overallComment"`
	Airlines       []string         `json:"airlines"`
	Accommodations []string         `json:"accommodations"`
	TripImages     []string         `json:"tripImages"`
	SharedWith     []string         `json:"sharedWith"`
	Segments       []map[string]any `json:"segments"`
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		slog.Warn("missing bearer prefix", "path", r.URL.Path)
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		slog.Warn("empty bearer token", "path", r.URL.Path)
		return "", false
	}
	return token, true
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter ratelimit.Limiter, msg string) bool {
	key := r.URL.Path + "|" + util.ClientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

// writeAppError maps application sentinel errors onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnknownUser), errors.Is(err, app.ErrTripNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailInvalid),
		errors.Is(err, app.ErrPasswordTooShort),
		errors.Is(err, app.ErrNameRequired),
		errors.Is(err, app.ErrBioTooLong),
		errors.Is(err, app.ErrSelfMessage),
		errors.Is(err, app.ErrEmptyContent),
		errors.Is(err, app.ErrContentTooLong),
		errors.Is(err, app.ErrTripTitleRequired),
		errors.Is(err, app.ErrTripDatesRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
