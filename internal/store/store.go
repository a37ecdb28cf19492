// ABOUTME: Store interfaces and data types for cms-toolbar persistence
// ABOUTME: Defines users, sessions, user settings, placeholders and clipboard plugins

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is returned when a user doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrUserSettingsNotFound is returned when a user has no stored toolbar settings yet.
var ErrUserSettingsNotFound = errors.New("user settings not found")

// ErrUserSettingsExists is returned when settings already exist for a user.
var ErrUserSettingsExists = errors.New("user settings already exist")

// ErrPlaceholderNotFound is returned when a placeholder doesn't exist.
var ErrPlaceholderNotFound = errors.New("placeholder not found")

// ClipboardSlot is the slot name of per-user clipboard placeholders.
const ClipboardSlot = "clipboard"

// User is an account that can sign in through the toolbar.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash
	IsStaff      bool
	IsActive     bool
	CreatedAt    time.Time
}

// Session is a browser session. UserID is empty for anonymous sessions.
type Session struct {
	ID        string
	UserID    string
	Data      map[string]any
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Bool returns the boolean value stored under key, false if absent or not a bool.
func (s *Session) Bool(key string) bool {
	if s == nil || s.Data == nil {
		return false
	}
	v, _ := s.Data[key].(bool)
	return v
}

// UserSettings holds the per-user toolbar preferences.
type UserSettings struct {
	UserID      string
	Language    string
	ClipboardID string
	CreatedAt   time.Time
}

// Placeholder is a container of plugins identified by slot.
type Placeholder struct {
	ID        string
	Slot      string
	CreatedAt time.Time
}

// Plugin is a piece of content held by a placeholder.
type Plugin struct {
	ID            string
	PlaceholderID string
	PluginType    string
	Language      string
	Position      int
	Body          string
	CreatedAt     time.Time
}

// UserStore defines user account persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CountUsers(ctx context.Context) (int, error)
}

// SessionStore defines browser session persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	SaveSessionData(ctx context.Context, id string, data map[string]any) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) error
}

// SettingsStore defines per-user toolbar settings persistence.
type SettingsStore interface {
	GetUserSettings(ctx context.Context, userID string) (*UserSettings, error)
	CreateUserSettings(ctx context.Context, settings *UserSettings) error
	UpdateUserSettingsLanguage(ctx context.Context, userID, language string) error
}

// PlaceholderStore defines placeholder and plugin persistence.
type PlaceholderStore interface {
	CreatePlaceholder(ctx context.Context, placeholder *Placeholder) error
	GetPlaceholder(ctx context.Context, id string) (*Placeholder, error)
	AddPlugin(ctx context.Context, plugin *Plugin) error
	ListPlugins(ctx context.Context, placeholderID string) ([]*Plugin, error)
	ClearPlaceholder(ctx context.Context, placeholderID string) error
}

// Store combines every persistence interface used by the toolbar.
type Store interface {
	UserStore
	SessionStore
	SettingsStore
	PlaceholderStore
	Close() error
}
