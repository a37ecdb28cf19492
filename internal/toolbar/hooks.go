// ABOUTME: The toolbar request hook: sub-toolbar responses, logout and login triggers
// ABOUTME: Logout on GET and login on POST both redirect back to the request path

package toolbar

import (
	"context"
	"fmt"
	"net/http"

	"github.com/2389/cms-toolbar/internal/auth"
	"github.com/2389/cms-toolbar/internal/session"
)

// Query parameters that trigger the request hook actions.
const (
	LogoutParam = "cms-toolbar-logout"
	LoginParam  = "cms-toolbar-login"
)

// MsgCSRFFailed is reported on the login form when the CSRF check fails.
const MsgCSRFFailed = "CSRF verification failed. Please reload the page and try again."

// RequestHook gives every sub-toolbar a chance to answer the request, then
// handles the logout and login triggers. A nil handler means the request
// continues to the view.
func (t *Toolbar) RequestHook(ctx context.Context) (http.Handler, error) {
	resp, err := t.dispatch(ctx, HookRequest)
	if err != nil || resp != nil {
		return resp, err
	}

	if t.Request.Method != http.MethodPost {
		return t.requestHookGet()
	}
	return t.requestHookPost(ctx)
}

func (t *Toolbar) requestHookGet() (http.Handler, error) {
	if !t.Request.URL.Query().Has(LogoutParam) {
		return nil, nil
	}
	if err := t.deps.Sessions.Logout(t.w, t.Request); err != nil {
		t.deps.Metrics.countAction("logout", outcomeError)
		return nil, fmt.Errorf("logging out: %w", err)
	}
	t.deps.Metrics.countAction("logout", outcomeOK)
	return http.RedirectHandler(t.Request.URL.Path, http.StatusFound), nil
}

func (t *Toolbar) requestHookPost(ctx context.Context) (http.Handler, error) {
	if !t.Request.URL.Query().Has(LoginParam) {
		return nil, nil
	}
	if err := t.Request.ParseForm(); err != nil {
		return nil, fmt.Errorf("parsing login form: %w", err)
	}

	form := auth.BindLoginForm(t.Request.PostForm)
	t.LoginForm = form

	if !session.ValidCSRF(t.Request) {
		form.Errors = append(form.Errors, MsgCSRFFailed)
		t.deps.Metrics.countAction("login", "csrf")
		t.logger.Warn("toolbar login rejected", "reason", "csrf", "path", t.Request.URL.Path)
		return nil, nil
	}

	ok, err := form.Validate(ctx, t.deps.Store)
	if err != nil {
		t.deps.Metrics.countAction("login", outcomeError)
		return nil, fmt.Errorf("validating login form: %w", err)
	}
	if !ok {
		t.deps.Metrics.countAction("login", "invalid")
		return nil, nil
	}

	if err := t.deps.Sessions.Login(t.w, t.Request, form.User()); err != nil {
		t.deps.Metrics.countAction("login", outcomeError)
		return nil, fmt.Errorf("logging in: %w", err)
	}
	t.deps.Metrics.countAction("login", outcomeOK)
	return http.RedirectHandler(t.Request.URL.Path, http.StatusFound), nil
}
