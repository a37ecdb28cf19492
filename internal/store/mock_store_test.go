// ABOUTME: Unit tests for MockStore to ensure behavior matches SQLiteStore
// ABOUTME: Runs the shared contract plus mock-only bookkeeping checks

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMockStore()
	})
}

func TestMockStore_SessionDataIsCopied(t *testing.T) {
	s := NewMockStore()
	ctx := context.Background()

	data := map[string]any{"cms_edit": true}
	require.NoError(t, s.CreateSession(ctx, &Session{ID: "a", Data: data, ExpiresAt: time.Now().Add(time.Hour)}))

	// Mutating the caller's map must not leak into the store
	data["cms_edit"] = false

	got, err := s.GetSession(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Bool("cms_edit"))
}

func TestMockStore_AddPluginRequiresPlaceholder(t *testing.T) {
	s := NewMockStore()
	err := s.AddPlugin(context.Background(), &Plugin{PlaceholderID: "missing"})
	assert.ErrorIs(t, err, ErrPlaceholderNotFound)
}

func TestMockStore_SettingsCreatedCounter(t *testing.T) {
	s := NewMockStore()
	ctx := context.Background()

	require.NoError(t, s.CreateUserSettings(ctx, &UserSettings{UserID: "u1", Language: "en"}))
	_ = s.CreateUserSettings(ctx, &UserSettings{UserID: "u1", Language: "en"})

	assert.Equal(t, 1, s.SettingsCreated)
}
