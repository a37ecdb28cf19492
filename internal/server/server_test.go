// ABOUTME: End-to-end tests of the HTTP surface: login, toolbar snapshot, settings and clipboard
// ABOUTME: Runs the full middleware chain over the mock store with httptest

package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cms-toolbar/internal/auth"
	"github.com/2389/cms-toolbar/internal/cmstoolbar"
	"github.com/2389/cms-toolbar/internal/config"
	"github.com/2389/cms-toolbar/internal/session"
	"github.com/2389/cms-toolbar/internal/store"
	"github.com/2389/cms-toolbar/internal/toolbar"
)

const csrfToken = "test-csrf-token"

type testServer struct {
	srv   *Server
	store *store.MockStore
	staff *store.User
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Database.Path = ":memory:"
	cfg.I18N.Languages = []string{"en", "de"}
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	s := store.NewMockStore()
	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)
	staff := &store.User{Username: "admin", PasswordHash: hash, IsStaff: true, IsActive: true}
	require.NoError(t, s.CreateUser(ctx, staff))

	pool := toolbar.NewPool()
	require.NoError(t, cmstoolbar.Register(pool, cmstoolbar.DefaultOptions()))

	srv, err := New(NewConfig{
		Config:   testConfig(),
		Store:    s,
		Pool:     pool,
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return &testServer{srv: srv, store: s, staff: staff}
}

func (ts *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

// login performs the toolbar login and returns the session cookie.
func (ts *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	form := url.Values{
		"cms-username":        {"admin"},
		"cms-password":        {"secret"},
		session.CSRFFieldName: {csrfToken},
	}
	req := httptest.NewRequest(http.MethodPost, "/about/?cms-toolbar-login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := ts.do(req, csrfCookie())

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/about/", rec.Header().Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	t.Fatal("no session cookie after login")
	return nil
}

func csrfCookie() *http.Cookie {
	return &http.Cookie{Name: session.CSRFCookieName, Value: csrfToken}
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) toolbar.Snapshot {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snap toolbar.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	return snap
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestToolbar_Anonymous(t *testing.T) {
	ts := newTestServer(t)
	snap := decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/api/toolbar", nil)))

	assert.False(t, snap.IsStaff)
	assert.False(t, snap.ShowToolbar)
	assert.Equal(t, "cms.api.views", snap.ViewName)
	assert.Empty(t, snap.Left)
	assert.Empty(t, snap.Right)
}

func TestToolbar_AnonymousEditShowsToolbar(t *testing.T) {
	ts := newTestServer(t)
	snap := decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/page/?edit", nil)))
	assert.True(t, snap.ShowToolbar)
	assert.Equal(t, "cms.views", snap.ViewName)
}

func TestLogin_BadPasswordKeepsFormErrors(t *testing.T) {
	ts := newTestServer(t)
	form := url.Values{
		"cms-username":        {"admin"},
		"cms-password":        {"wrong"},
		session.CSRFFieldName: {csrfToken},
	}
	req := httptest.NewRequest(http.MethodPost, "/page/?cms-toolbar-login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	snap := decodeSnapshot(t, ts.do(req, csrfCookie()))
	assert.False(t, snap.IsStaff)
	assert.Contains(t, snap.LoginErrors, auth.MsgInvalidLogin)
}

func TestLoginThenToolbarThenLogout(t *testing.T) {
	ts := newTestServer(t)
	sessionCookie := ts.login(t)

	snap := decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/api/toolbar", nil), sessionCookie))
	assert.True(t, snap.IsStaff)
	assert.True(t, snap.ShowToolbar)
	require.Len(t, snap.Left, 2)
	assert.Equal(t, "Site", snap.Left[0]["name"])
	assert.Equal(t, "Language", snap.Left[1]["name"])
	require.Len(t, snap.Right, 1)
	assert.Equal(t, "mode-switcher", snap.Right[0]["identifier"])

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/about/?cms-toolbar-logout", nil), sessionCookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/about/", rec.Header().Get("Location"))

	snap = decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/api/toolbar", nil), sessionCookie))
	assert.False(t, snap.IsStaff)
}

func TestEditAndBuildToggles(t *testing.T) {
	ts := newTestServer(t)
	sessionCookie := ts.login(t)

	snap := decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/?build", nil), sessionCookie))
	assert.True(t, snap.BuildMode)
	assert.True(t, snap.UseDraft)

	snap = decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/?edit", nil), sessionCookie))
	assert.True(t, snap.EditMode)
	assert.False(t, snap.BuildMode)

	snap = decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/?edit_off", nil), sessionCookie))
	assert.False(t, snap.EditMode)
	assert.False(t, snap.UseDraft)
}

func TestSetLanguage(t *testing.T) {
	ts := newTestServer(t)
	sessionCookie := ts.login(t)
	// First toolbar access creates the settings row
	decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/", nil), sessionCookie))

	post := func(lang string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/settings/language", strings.NewReader(url.Values{"language": {lang}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set(session.CSRFHeaderName, csrfToken)
		return ts.do(req, cookies...)
	}

	assert.Equal(t, http.StatusForbidden, post("de", csrfCookie()).Code, "anonymous")
	assert.Equal(t, http.StatusForbidden, post("de", sessionCookie).Code, "missing CSRF cookie")
	assert.Equal(t, http.StatusBadRequest, post("fr", sessionCookie, csrfCookie()).Code)
	assert.Equal(t, http.StatusNoContent, post("de", sessionCookie, csrfCookie()).Code)

	settings, err := ts.store.GetUserSettings(context.Background(), ts.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, "de", settings.Language)

	snap := decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/", nil), sessionCookie))
	assert.Equal(t, "en", snap.Language)
	assert.Equal(t, "de", snap.ToolbarLanguage)
}

func TestClipboard(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	sessionCookie := ts.login(t)
	decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/", nil), sessionCookie))

	settings, err := ts.store.GetUserSettings(ctx, ts.staff.ID)
	require.NoError(t, err)

	add := httptest.NewRequest(http.MethodPost, "/api/clipboard/plugins", strings.NewReader(`{"plugin_type":"TextPlugin","language":"en","body":"hello"}`))
	add.Header.Set("Content-Type", "application/json")
	add.Header.Set(session.CSRFHeaderName, csrfToken)
	rec := ts.do(add, sessionCookie, csrfCookie())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	snap := decodeSnapshot(t, ts.do(httptest.NewRequest(http.MethodGet, "/", nil), sessionCookie))
	require.Len(t, snap.Right, 2)
	assert.Equal(t, "Clipboard", snap.Right[1]["name"])

	clearPath := cmstoolbar.ClipboardClearURL(settings.ClipboardID)
	other := httptest.NewRequest(http.MethodPost, cmstoolbar.ClipboardClearURL("someone-else"), nil)
	other.Header.Set(session.CSRFHeaderName, csrfToken)
	assert.Equal(t, http.StatusForbidden, ts.do(other, sessionCookie, csrfCookie()).Code)

	clearReq := httptest.NewRequest(http.MethodPost, clearPath, nil)
	clearReq.Header.Set(session.CSRFHeaderName, csrfToken)
	assert.Equal(t, http.StatusNoContent, ts.do(clearReq, sessionCookie, csrfCookie()).Code)

	plugins, err := ts.store.ListPlugins(ctx, settings.ClipboardID)
	require.NoError(t, err)
	assert.Empty(t, plugins)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cms_toolbar_request_actions_total")
}

func TestNew_UnknownEnabledToolbar(t *testing.T) {
	cfg := testConfig()
	cfg.Toolbar.Enabled = []string{"missing.cms_toolbar.Missing"}

	_, err := New(NewConfig{Config: cfg, Store: store.NewMockStore(), Pool: toolbar.NewPool(), Registry: prometheus.NewRegistry()})
	assert.ErrorIs(t, err, toolbar.ErrNotRegistered)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ts := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
