// ABOUTME: User settings, placeholder and plugin store methods for SQLite
// ABOUTME: Backs the toolbar language preference and the per-user clipboard

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetUserSettings retrieves the toolbar settings of a user.
func (s *SQLiteStore) GetUserSettings(ctx context.Context, userID string) (*UserSettings, error) {
	query := `
		SELECT user_id, language, clipboard_id, created_at
		FROM user_settings
		WHERE user_id = ?
	`

	var settings UserSettings
	var clipboardID sql.NullString
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.Language,
		&clipboardID,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user settings: %w", err)
	}

	settings.ClipboardID = clipboardID.String
	settings.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &settings, nil
}

// CreateUserSettings stores settings for a user. Returns ErrUserSettingsExists
// when the user already has settings.
func (s *SQLiteStore) CreateUserSettings(ctx context.Context, settings *UserSettings) error {
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO user_settings (user_id, language, clipboard_id, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		settings.UserID,
		settings.Language,
		nullString(settings.ClipboardID),
		settings.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUserSettingsExists
		}
		return fmt.Errorf("inserting user settings: %w", err)
	}
	return nil
}

// UpdateUserSettingsLanguage changes the preferred toolbar language of a user.
func (s *SQLiteStore) UpdateUserSettingsLanguage(ctx context.Context, userID, language string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE user_settings SET language = ? WHERE user_id = ?", language, userID)
	if err != nil {
		return fmt.Errorf("updating user settings language: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserSettingsNotFound
	}
	return nil
}

// CreatePlaceholder stores a new placeholder. An empty ID is filled in.
func (s *SQLiteStore) CreatePlaceholder(ctx context.Context, placeholder *Placeholder) error {
	if placeholder.ID == "" {
		placeholder.ID = newID()
	}
	if placeholder.CreatedAt.IsZero() {
		placeholder.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO placeholders (id, slot, created_at) VALUES (?, ?, ?)",
		placeholder.ID,
		placeholder.Slot,
		placeholder.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting placeholder: %w", err)
	}
	return nil
}

// GetPlaceholder retrieves a placeholder by ID.
func (s *SQLiteStore) GetPlaceholder(ctx context.Context, id string) (*Placeholder, error) {
	var p Placeholder
	var createdAtStr string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, slot, created_at FROM placeholders WHERE id = ?", id,
	).Scan(&p.ID, &p.Slot, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlaceholderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying placeholder: %w", err)
	}

	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &p, nil
}

// AddPlugin stores a plugin in its placeholder.
func (s *SQLiteStore) AddPlugin(ctx context.Context, plugin *Plugin) error {
	if plugin.ID == "" {
		plugin.ID = newID()
	}
	if plugin.CreatedAt.IsZero() {
		plugin.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO plugins (id, placeholder_id, plugin_type, language, position, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		plugin.ID,
		plugin.PlaceholderID,
		plugin.PluginType,
		plugin.Language,
		plugin.Position,
		plugin.Body,
		plugin.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting plugin: %w", err)
	}
	return nil
}

// ListPlugins returns the plugins of a placeholder ordered by position.
func (s *SQLiteStore) ListPlugins(ctx context.Context, placeholderID string) ([]*Plugin, error) {
	query := `
		SELECT id, placeholder_id, plugin_type, language, position, body, created_at
		FROM plugins
		WHERE placeholder_id = ?
		ORDER BY position ASC, created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, placeholderID)
	if err != nil {
		return nil, fmt.Errorf("querying plugins: %w", err)
	}
	defer rows.Close()

	var plugins []*Plugin
	for rows.Next() {
		var p Plugin
		var createdAtStr string
		if err := rows.Scan(&p.ID, &p.PlaceholderID, &p.PluginType, &p.Language, &p.Position, &p.Body, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning plugin: %w", err)
		}
		p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		plugins = append(plugins, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plugins: %w", err)
	}
	return plugins, nil
}

// ClearPlaceholder deletes every plugin of a placeholder.
func (s *SQLiteStore) ClearPlaceholder(ctx context.Context, placeholderID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM plugins WHERE placeholder_id = ?", placeholderID); err != nil {
		return fmt.Errorf("clearing placeholder: %w", err)
	}
	return nil
}
