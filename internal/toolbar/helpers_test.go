// ABOUTME: Shared fixtures for toolbar tests: deps, users, requests and fake sub-toolbars
// ABOUTME: Fake sub-toolbars record every hook call in a shared log

package toolbar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/2389/cms-toolbar/internal/auth"
	"github.com/2389/cms-toolbar/internal/i18n"
	"github.com/2389/cms-toolbar/internal/session"
	"github.com/2389/cms-toolbar/internal/store"
	"github.com/2389/cms-toolbar/internal/urls"
)

type fixture struct {
	deps     *Deps
	store    *store.MockStore
	sessions *session.Manager
	staff    *store.User
	editor   *store.User // logged in but not staff
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s := store.NewMockStore()
	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)

	staff := &store.User{Username: "admin", PasswordHash: hash, IsStaff: true, IsActive: true}
	require.NoError(t, s.CreateUser(ctx, staff))
	editor := &store.User{Username: "writer", PasswordHash: hash, IsActive: true}
	require.NoError(t, s.CreateUser(ctx, editor))

	views := urls.NewResolver()
	require.NoError(t, views.Register("/shop/", "shop.catalog.views"))
	require.NoError(t, views.Register("/blog/", "blog.views"))

	sessions := session.NewManager(s, session.Config{})

	return &fixture{
		deps: &Deps{
			Pool:         NewPool(),
			Store:        s,
			Sessions:     sessions,
			Languages:    i18n.NewResolver(true, "en", []string{"en", "de"}),
			Views:        views,
			EditOnParam:  "edit",
			EditOffParam: "edit_off",
			BuildParam:   "build",
		},
		store:    s,
		sessions: sessions,
		staff:    staff,
		editor:   editor,
	}
}

// request builds a request whose context carries st.
func request(method, target string, st *session.State) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(session.WithState(req.Context(), st))
}

// stateFor stores a live session for user and returns its request state.
// A nil user yields an anonymous state without a session.
func (f *fixture) stateFor(t *testing.T, user *store.User, data map[string]any) *session.State {
	t.Helper()
	if user == nil {
		return &session.State{}
	}
	sess := &store.Session{
		ID:        "session-" + user.Username,
		UserID:    user.ID,
		Data:      data,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, f.store.CreateSession(context.Background(), sess))
	return &session.State{User: user, Session: sess}
}

func (f *fixture) build(t *testing.T, r *http.Request) *Toolbar {
	t.Helper()
	tb, err := New(httptest.NewRecorder(), r, f.deps)
	require.NoError(t, err)
	return tb
}

// fakeToolbar is a sub-toolbar that logs its calls and can be told to respond
// or fail on a hook.
type fakeToolbar struct {
	Base
	key        string
	log        *[]string
	respondOn  Hook
	failOn     Hook
	onPopulate func(tb *Toolbar)
	languages  *[]string
}

func (f *fakeToolbar) hit(ctx context.Context, hook Hook) (http.Handler, error) {
	*f.log = append(*f.log, string(hook)+":"+f.key)
	if f.languages != nil {
		*f.languages = append(*f.languages, i18n.FromContext(ctx))
	}
	if f.failOn == hook {
		return nil, errBoom
	}
	if f.respondOn == hook {
		return http.RedirectHandler("/"+f.key, http.StatusFound), nil
	}
	return nil, nil
}

func (f *fakeToolbar) Populate(ctx context.Context) (http.Handler, error) {
	if f.onPopulate != nil {
		f.onPopulate(f.Toolbar)
	}
	return f.hit(ctx, HookPopulate)
}

func (f *fakeToolbar) PostTemplatePopulate(ctx context.Context) (http.Handler, error) {
	return f.hit(ctx, HookPostTemplatePopulate)
}

func (f *fakeToolbar) RequestHook(ctx context.Context) (http.Handler, error) {
	return f.hit(ctx, HookRequest)
}

var errBoom = errors.New("boom")

// register adds a fake sub-toolbar under key; configure customises each
// per-request instance.
func register(t *testing.T, pool *Pool, key string, log *[]string, configure func(*fakeToolbar)) {
	t.Helper()
	require.NoError(t, pool.Register(key, func(r *http.Request, tb *Toolbar, isCurrentApp bool, appKey string) SubToolbar {
		fake := &fakeToolbar{Base: NewBase(r, tb, isCurrentApp, appKey), key: key, log: log}
		if configure != nil {
			configure(fake)
		}
		return fake
	}))
}
