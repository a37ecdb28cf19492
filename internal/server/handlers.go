// ABOUTME: HTTP handlers for health, the toolbar snapshot, language preference and clipboard
// ABOUTME: Mutating endpoints require a staff session and a valid CSRF token

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2389/cms-toolbar/internal/session"
	"github.com/2389/cms-toolbar/internal/store"
	"github.com/2389/cms-toolbar/internal/toolbar"
)

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleToolbar writes the request toolbar as JSON.
func (s *Server) handleToolbar(w http.ResponseWriter, r *http.Request) {
	tb := toolbar.FromContext(r.Context())
	if tb == nil {
		s.sendJSONError(w, http.StatusServiceUnavailable, "toolbar unavailable")
		return
	}

	snap, err := tb.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("failed to populate toolbar", "path", r.URL.Path, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to populate toolbar")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(snap)
}

// requireStaff checks the session and CSRF token of a mutating request.
// It writes the error response and returns nil when the check fails.
func (s *Server) requireStaff(w http.ResponseWriter, r *http.Request) *store.User {
	st := session.FromContext(r.Context())
	if !st.IsStaff() {
		s.sendJSONError(w, http.StatusForbidden, "staff login required")
		return nil
	}
	if !session.ValidCSRF(r) {
		s.sendJSONError(w, http.StatusForbidden, "CSRF verification failed")
		return nil
	}
	return st.User
}

// handleSetLanguage stores the toolbar language preference of the user.
func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	user := s.requireStaff(w, r)
	if user == nil {
		return
	}

	code := r.FormValue("language")
	if !s.languages.Supported(code) {
		s.sendJSONError(w, http.StatusBadRequest, "unsupported language")
		return
	}

	err := s.store.UpdateUserSettingsLanguage(r.Context(), user.ID, code)
	if errors.Is(err, store.ErrUserSettingsNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "no user settings")
		return
	}
	if err != nil {
		s.logger.Error("failed to update language", "user_id", user.ID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to update language")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clipboardRequest is the body of POST /api/clipboard/plugins.
type clipboardRequest struct {
	PluginType string `json:"plugin_type"`
	Language   string `json:"language"`
	Body       string `json:"body"`
}

// handleClipboardAdd copies a plugin onto the user's clipboard.
func (s *Server) handleClipboardAdd(w http.ResponseWriter, r *http.Request) {
	user := s.requireStaff(w, r)
	if user == nil {
		return
	}

	var req clipboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PluginType == "" {
		s.sendJSONError(w, http.StatusBadRequest, "plugin_type is required")
		return
	}

	clipboardID, ok := s.clipboardOf(w, r, user)
	if !ok {
		return
	}

	plugins, err := s.store.ListPlugins(r.Context(), clipboardID)
	if err != nil {
		s.logger.Error("failed to list clipboard", "user_id", user.ID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to read clipboard")
		return
	}

	plugin := &store.Plugin{
		PlaceholderID: clipboardID,
		PluginType:    req.PluginType,
		Language:      req.Language,
		Position:      len(plugins),
		Body:          req.Body,
	}
	if err := s.store.AddPlugin(r.Context(), plugin); err != nil {
		s.logger.Error("failed to add plugin", "user_id", user.ID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to add plugin")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": plugin.ID})
}

// handleClipboardClear empties the user's own clipboard.
func (s *Server) handleClipboardClear(w http.ResponseWriter, r *http.Request) {
	user := s.requireStaff(w, r)
	if user == nil {
		return
	}

	clipboardID, ok := s.clipboardOf(w, r, user)
	if !ok {
		return
	}
	if r.PathValue("id") != clipboardID {
		s.sendJSONError(w, http.StatusForbidden, "not your clipboard")
		return
	}

	if err := s.store.ClearPlaceholder(r.Context(), clipboardID); err != nil {
		s.logger.Error("failed to clear clipboard", "user_id", user.ID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to clear clipboard")
		return
	}
	s.logger.Info("clipboard cleared", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// clipboardOf returns the clipboard placeholder ID of user.
func (s *Server) clipboardOf(w http.ResponseWriter, r *http.Request, user *store.User) (string, bool) {
	settings, err := s.store.GetUserSettings(r.Context(), user.ID)
	if errors.Is(err, store.ErrUserSettingsNotFound) || (err == nil && settings.ClipboardID == "") {
		s.sendJSONError(w, http.StatusNotFound, "no clipboard")
		return "", false
	}
	if err != nil {
		s.logger.Error("failed to load user settings", "user_id", user.ID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to load clipboard")
		return "", false
	}
	return settings.ClipboardID, true
}

// sendJSONError sends a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
