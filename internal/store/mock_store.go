// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu           sync.RWMutex
	users        map[string]*User         // keyed by user ID
	usernames    map[string]string        // username -> user ID
	sessions     map[string]*Session      // keyed by session ID
	settings     map[string]*UserSettings // keyed by user ID
	placeholders map[string]*Placeholder  // keyed by placeholder ID
	plugins      map[string][]*Plugin     // keyed by placeholder ID

	// SettingsCreated counts successful CreateUserSettings calls.
	SettingsCreated int
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:        make(map[string]*User),
		usernames:    make(map[string]string),
		sessions:     make(map[string]*Session),
		settings:     make(map[string]*UserSettings),
		placeholders: make(map[string]*Placeholder),
		plugins:      make(map[string][]*Plugin),
	}
}

// CreateUser stores a new user.
func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usernames[user.Username]; exists {
		return ErrUsernameExists
	}
	if user.ID == "" {
		user.ID = newID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	u := *user
	m.users[u.ID] = &u
	m.usernames[u.Username] = u.ID
	return nil
}

// GetUser retrieves a user by ID.
func (m *MockStore) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	result := *u
	return &result, nil
}

// GetUserByUsername retrieves a user by username.
func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usernames[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	result := *m.users[id]
	return &result, nil
}

// CountUsers returns the number of users.
func (m *MockStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// CreateSession stores a session.
func (m *MockStore) CreateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	s.Data = copyData(session.Data)
	m.sessions[s.ID] = &s
	return nil
}

// GetSession retrieves a non-expired session.
func (m *MockStore) GetSession(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, ErrSessionNotFound
	}
	result := *s
	result.Data = copyData(s.Data)
	return &result, nil
}

// SaveSessionData replaces the data bag of a session.
func (m *MockStore) SaveSessionData(ctx context.Context, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Data = copyData(data)
	return nil
}

// DeleteSession deletes a session.
func (m *MockStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// DeleteExpiredSessions removes expired sessions.
func (m *MockStore) DeleteExpiredSessions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
		}
	}
	return nil
}

// SessionCount returns the number of stored sessions, expired or not.
func (m *MockStore) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// GetUserSettings retrieves user settings.
func (m *MockStore) GetUserSettings(ctx context.Context, userID string) (*UserSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[userID]
	if !ok {
		return nil, ErrUserSettingsNotFound
	}
	result := *s
	return &result, nil
}

// CreateUserSettings stores user settings.
func (m *MockStore) CreateUserSettings(ctx context.Context, settings *UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.settings[settings.UserID]; exists {
		return ErrUserSettingsExists
	}
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = time.Now()
	}
	s := *settings
	m.settings[s.UserID] = &s
	m.SettingsCreated++
	return nil
}

// UpdateUserSettingsLanguage changes the preferred language of a user.
func (m *MockStore) UpdateUserSettingsLanguage(ctx context.Context, userID, language string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.settings[userID]
	if !ok {
		return ErrUserSettingsNotFound
	}
	s.Language = language
	return nil
}

// CreatePlaceholder stores a placeholder.
func (m *MockStore) CreatePlaceholder(ctx context.Context, placeholder *Placeholder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if placeholder.ID == "" {
		placeholder.ID = newID()
	}
	if placeholder.CreatedAt.IsZero() {
		placeholder.CreatedAt = time.Now()
	}
	p := *placeholder
	m.placeholders[p.ID] = &p
	return nil
}

// GetPlaceholder retrieves a placeholder by ID.
func (m *MockStore) GetPlaceholder(ctx context.Context, id string) (*Placeholder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.placeholders[id]
	if !ok {
		return nil, ErrPlaceholderNotFound
	}
	result := *p
	return &result, nil
}

// AddPlugin stores a plugin.
func (m *MockStore) AddPlugin(ctx context.Context, plugin *Plugin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.placeholders[plugin.PlaceholderID]; !ok {
		return ErrPlaceholderNotFound
	}
	if plugin.ID == "" {
		plugin.ID = newID()
	}
	if plugin.CreatedAt.IsZero() {
		plugin.CreatedAt = time.Now()
	}
	p := *plugin
	m.plugins[p.PlaceholderID] = append(m.plugins[p.PlaceholderID], &p)
	return nil
}

// ListPlugins returns plugins of a placeholder ordered by position.
func (m *MockStore) ListPlugins(ctx context.Context, placeholderID string) ([]*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.plugins[placeholderID]
	result := make([]*Plugin, 0, len(src))
	for _, p := range src {
		cp := *p
		result = append(result, &cp)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// ClearPlaceholder deletes every plugin of a placeholder.
func (m *MockStore) ClearPlaceholder(ctx context.Context, placeholderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plugins, placeholderID)
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

func copyData(data map[string]any) map[string]any {
	result := make(map[string]any, len(data))
	for k, v := range data {
		result[k] = v
	}
	return result
}
