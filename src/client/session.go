package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"fintrack-server/src/logger"
	"fintrack-server/src/models"
)

const sessionKey = "currentUser"

type AuthState int

const (
	AuthLoading AuthState = iota
	Authenticated
	Anonymous
)

func (s AuthState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "loading"
	}
}

// FormError is a failure to show on the login or signup form.
type FormError struct {
	Message string
	Err     error
}

func (e *FormError) Error() string { return e.Message }
func (e *FormError) Unwrap() error { return e.Err }

type sessionRecord struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Session tracks who is signed in. It starts in AuthLoading until Init.
type Session struct {
	api     *REST
	storage SessionStorage
	store   *Store
	log     *logger.Logger

	mu    sync.RWMutex
	state AuthState
	user  models.User
}

func NewSession(api *REST, storage SessionStorage, st *Store, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Discard()
	}
	return &Session{api: api, storage: storage, store: st, log: log.WithComponent(logger.ComponentAuth)}
}

// Init restores a persisted session. A missing or unreadable record leaves
// the session anonymous.
func (s *Session) Init() {
	raw, ok, err := s.storage.Load(sessionKey)
	var rec sessionRecord
	if err == nil && ok {
		err = json.Unmarshal(raw, &rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || !ok || rec.User.ID == "" || rec.Token == "" {
		if err != nil {
			s.log.Warn("discarding stored session", logger.FieldError, err)
			s.storage.Remove(sessionKey)
		}
		s.state = Anonymous
		return
	}
	s.api.SetToken(rec.Token)
	s.user = rec.User
	s.state = Authenticated
}

func (s *Session) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user; ok is false unless Authenticated.
func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.state == Authenticated
}

// UserID is empty when nobody is signed in, which disables every query.
func (s *Session) UserID() string {
	u, _ := s.User()
	return u.ID
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &FormError{Message: "Email and password are required"}
	}
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return s.fail(logger.OpLogin, "Invalid email or password", err)
	}
	return s.authenticate(resp)
}

func (s *Session) Signup(ctx context.Context, creds models.Credentials) error {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return &FormError{Message: "Email and password are required"}
	}
	resp, err := s.api.Signup(ctx, creds)
	if err != nil {
		return s.fail(logger.OpSignup, "Signup failed", err)
	}
	return s.authenticate(resp)
}

// fail keeps the session anonymous and turns err into a form message. API
// rejections carry their own message; anything else gets fallback.
func (s *Session) fail(op, fallback string, err error) error {
	s.mu.Lock()
	s.state = Anonymous
	s.user = models.User{}
	s.mu.Unlock()

	s.log.Warn("authentication failed", logger.FieldOperation, op, logger.FieldError, err)
	msg := fallback
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &FormError{Message: msg, Err: err}
}

func (s *Session) authenticate(resp models.AuthResponse) error {
	raw, err := json.Marshal(sessionRecord{User: resp.User, Token: resp.Token})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.storage.Save(sessionKey, raw); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.api.SetToken(resp.Token)
	s.user = resp.User
	s.state = Authenticated
	return nil
}

// Logout always ends the local session. Server-side revocation is best effort.
// It returns the page to show next.
func (s *Session) Logout(ctx context.Context) string {
	if s.api.Token() != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.log.Warn("token revocation failed", logger.FieldOperation, logger.OpLogout, logger.FieldError, err)
		}
	}
	s.clear()
	return LoginPath
}

func (s *Session) clear() {
	if err := s.storage.Remove(sessionKey); err != nil {
		s.log.Warn("failed to remove stored session", logger.FieldError, err)
	}
	s.api.SetToken("")
	if s.store != nil {
		s.store.Reset()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = models.User{}
	s.state = Anonymous
}

// UpdateProfile saves name and email and refreshes the stored session.
func (s *Session) UpdateProfile(ctx context.Context, name, email string) (models.User, error) {
	current, ok := s.User()
	if !ok {
		return models.User{}, &FormError{Message: "Not signed in"}
	}
	updated, err := s.api.UpdateUser(ctx, models.User{ID: current.ID, Name: name, Email: email})
	if err != nil {
		return models.User{}, err
	}
	if err := s.authenticate(models.AuthResponse{User: updated, Token: s.api.Token()}); err != nil {
		return models.User{}, err
	}
	return updated, nil
}

// DeleteAccount removes the user on the server and ends the session.
func (s *Session) DeleteAccount(ctx context.Context) (string, error) {
	current, ok := s.User()
	if !ok {
		return LoginPath, nil
	}
	if err := s.api.DeleteUser(ctx, current.ID); err != nil {
		return "", err
	}
	s.clear()
	return LoginPath, nil
}
