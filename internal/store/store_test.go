// ABOUTME: Behavioural contract shared by SQLiteStore and MockStore
// ABOUTME: Each implementation runs the same suite so the mock never drifts

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		user := &User{Username: "editor", PasswordHash: "hash", IsStaff: true, IsActive: true}
		require.NoError(t, s.CreateUser(ctx, user))
		assert.NotEmpty(t, user.ID)

		got, err := s.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "editor", got.Username)
		assert.True(t, got.IsStaff)
		assert.True(t, got.IsActive)

		byName, err := s.GetUserByUsername(ctx, "editor")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)

		err = s.CreateUser(ctx, &User{Username: "editor", PasswordHash: "other"})
		assert.ErrorIs(t, err, ErrUsernameExists)

		_, err = s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)

		count, err := s.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("sessions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		session := &Session{
			ID:        "sess-1",
			Data:      map[string]any{"cms_edit": true},
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, s.CreateSession(ctx, session))

		got, err := s.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.Empty(t, got.UserID)
		assert.True(t, got.Bool("cms_edit"))
		assert.False(t, got.Bool("cms_build"))

		require.NoError(t, s.SaveSessionData(ctx, "sess-1", map[string]any{"cms_build": true}))
		got, err = s.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.False(t, got.Bool("cms_edit"))
		assert.True(t, got.Bool("cms_build"))

		assert.ErrorIs(t, s.SaveSessionData(ctx, "missing", nil), ErrSessionNotFound)

		require.NoError(t, s.DeleteSession(ctx, "sess-1"))
		_, err = s.GetSession(ctx, "sess-1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("expired session is not returned", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.CreateSession(ctx, &Session{
			ID:        "old",
			CreatedAt: time.Now().Add(-2 * time.Hour),
			ExpiresAt: time.Now().Add(-time.Hour),
		}))
		_, err := s.GetSession(ctx, "old")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("user settings", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		user := &User{Username: "staff", PasswordHash: "hash", IsStaff: true, IsActive: true}
		require.NoError(t, s.CreateUser(ctx, user))

		_, err := s.GetUserSettings(ctx, user.ID)
		assert.ErrorIs(t, err, ErrUserSettingsNotFound)

		clipboard := &Placeholder{Slot: ClipboardSlot}
		require.NoError(t, s.CreatePlaceholder(ctx, clipboard))

		settings := &UserSettings{UserID: user.ID, Language: "en", ClipboardID: clipboard.ID}
		require.NoError(t, s.CreateUserSettings(ctx, settings))
		assert.ErrorIs(t, s.CreateUserSettings(ctx, &UserSettings{UserID: user.ID, Language: "de"}), ErrUserSettingsExists)

		got, err := s.GetUserSettings(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "en", got.Language)
		assert.Equal(t, clipboard.ID, got.ClipboardID)

		require.NoError(t, s.UpdateUserSettingsLanguage(ctx, user.ID, "fr"))
		got, err = s.GetUserSettings(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "fr", got.Language)

		assert.ErrorIs(t, s.UpdateUserSettingsLanguage(ctx, "missing", "fr"), ErrUserSettingsNotFound)
	})

	t.Run("clipboard plugins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		clipboard := &Placeholder{Slot: ClipboardSlot}
		require.NoError(t, s.CreatePlaceholder(ctx, clipboard))

		got, err := s.GetPlaceholder(ctx, clipboard.ID)
		require.NoError(t, err)
		assert.Equal(t, ClipboardSlot, got.Slot)

		require.NoError(t, s.AddPlugin(ctx, &Plugin{PlaceholderID: clipboard.ID, PluginType: "TextPlugin", Position: 2, Body: "second"}))
		require.NoError(t, s.AddPlugin(ctx, &Plugin{PlaceholderID: clipboard.ID, PluginType: "TextPlugin", Position: 1, Body: "first"}))

		plugins, err := s.ListPlugins(ctx, clipboard.ID)
		require.NoError(t, err)
		require.Len(t, plugins, 2)
		assert.Equal(t, "first", plugins[0].Body)
		assert.Equal(t, "second", plugins[1].Body)

		require.NoError(t, s.ClearPlaceholder(ctx, clipboard.ID))
		plugins, err = s.ListPlugins(ctx, clipboard.ID)
		require.NoError(t, err)
		assert.Empty(t, plugins)

		_, err = s.GetPlaceholder(ctx, "missing")
		assert.ErrorIs(t, err, ErrPlaceholderNotFound)
	})
}
