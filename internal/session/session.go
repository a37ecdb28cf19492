// ABOUTME: Cookie-identified, store-backed browser sessions for the toolbar
// ABOUTME: Provides Login/Logout primitives and the session data bag (edit/build flags)

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/cms-toolbar/internal/store"
)

// Session data keys used by the toolbar.
const (
	KeyEdit  = "cms_edit"
	KeyBuild = "cms_build"
)

const (
	// DefaultCookieName is the name of the session cookie
	DefaultCookieName = "cms_session"

	// DefaultDuration is how long sessions last
	DefaultDuration = 14 * 24 * time.Hour
)

// Backend is the persistence a Manager needs.
type Backend interface {
	store.SessionStore
	GetUser(ctx context.Context, id string) (*store.User, error)
}

// Config holds session cookie configuration
type Config struct {
	CookieName string
	Duration   time.Duration
}

// Manager loads, creates and destroys sessions.
type Manager struct {
	backend    Backend
	cookieName string
	duration   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewManager creates a Manager. Zero config values fall back to defaults.
func NewManager(backend Backend, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	return &Manager{
		backend:    backend,
		cookieName: cfg.CookieName,
		duration:   cfg.Duration,
		logger:     slog.Default().With("component", "session"),
		now:        time.Now,
	}
}

// State is the session state of one request. Handlers further down the chain
// observe Login and Logout through the same pointer.
type State struct {
	Session *store.Session // nil until something is stored
	User    *store.User    // nil for anonymous requests

	csrfToken string
}

// IsAuthenticated reports whether a user is logged in.
func (s *State) IsAuthenticated() bool {
	return s != nil && s.User != nil
}

// IsStaff reports whether the logged-in user may use the toolbar.
func (s *State) IsStaff() bool {
	return s.IsAuthenticated() && s.User.IsStaff && s.User.IsActive
}

// Bool returns a boolean session value.
func (s *State) Bool(key string) bool {
	if s == nil {
		return false
	}
	return s.Session.Bool(key)
}

type stateKey struct{}

// FromContext returns the request's session state. It never returns nil.
func FromContext(ctx context.Context) *State {
	if st, ok := ctx.Value(stateKey{}).(*State); ok {
		return st
	}
	return &State{}
}

// WithState attaches a session state to ctx.
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// Middleware loads the session and its user before calling next.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := m.load(r)
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
	})
}

// load reads the session cookie. Missing, expired or orphaned sessions yield
// an anonymous state.
func (m *Manager) load(r *http.Request) *State {
	st := &State{}

	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return st
	}

	sess, err := m.backend.GetSession(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, store.ErrSessionNotFound) {
			m.logger.Error("failed to load session", "error", err)
		}
		return st
	}
	st.Session = sess

	if sess.UserID == "" {
		return st
	}
	user, err := m.backend.GetUser(r.Context(), sess.UserID)
	if err != nil {
		m.logger.Warn("session references missing user", "user_id", sess.UserID, "error", err)
		return st
	}
	st.User = user
	return st
}

// Set stores a value in the request's session, creating an anonymous session
// when none exists yet.
func (m *Manager) Set(w http.ResponseWriter, r *http.Request, key string, value any) error {
	st := FromContext(r.Context())

	if st.Session == nil {
		sess, err := m.create(w, r, "", map[string]any{key: value})
		if err != nil {
			return err
		}
		st.Session = sess
		return nil
	}

	if st.Session.Data == nil {
		st.Session.Data = make(map[string]any)
	}
	st.Session.Data[key] = value
	if err := m.backend.SaveSessionData(r.Context(), st.Session.ID, st.Session.Data); err != nil {
		return fmt.Errorf("saving session data: %w", err)
	}
	return nil
}

// Login binds user to a fresh session and rotates the CSRF token. Data of the
// previous anonymous session carries over; a previous session of a different
// user does not.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user *store.User) error {
	st := FromContext(r.Context())

	data := make(map[string]any)
	if st.Session != nil {
		if st.Session.UserID == "" || st.Session.UserID == user.ID {
			for k, v := range st.Session.Data {
				data[k] = v
			}
		}
		if err := m.backend.DeleteSession(r.Context(), st.Session.ID); err != nil {
			return fmt.Errorf("deleting previous session: %w", err)
		}
	}

	sess, err := m.create(w, r, user.ID, data)
	if err != nil {
		return err
	}

	st.Session = sess
	st.User = user
	m.issueCSRFToken(w, r)
	m.logger.Info("user logged in", "username", user.Username)
	return nil
}

// Logout deletes the session and clears the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	st := FromContext(r.Context())

	if st.Session != nil {
		if err := m.backend.DeleteSession(r.Context(), st.Session.ID); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
	}
	if st.User != nil {
		m.logger.Info("user logged out", "username", st.User.Username)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	st.Session = nil
	st.User = nil
	return nil
}

func (m *Manager) create(w http.ResponseWriter, r *http.Request, userID string, data map[string]any) (*store.Session, error) {
	id, err := generateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	now := m.now()
	sess := &store.Session{
		ID:        id,
		UserID:    userID,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(m.duration),
	}
	if err := m.backend.CreateSession(r.Context(), sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// generateSecureToken generates a cryptographically secure random hex token
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
