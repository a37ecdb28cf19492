// ABOUTME: HTTP middleware toggling edit/build mode and attaching the request toolbar
// ABOUTME: Runs the request hook and serves its response instead of the view when set

package toolbar

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/cms-toolbar/internal/session"
)

// Middleware builds the toolbar for each request. It must run inside the
// session middleware.
func Middleware(deps *Deps) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "toolbar.middleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range deps.ExcludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if err := applyModeToggles(w, r, deps); err != nil {
				logger.Error("failed to update toolbar mode", "error", err)
			}

			tb, err := New(w, r, deps)
			if err != nil {
				deps.Metrics.countBuildFailure()
				logger.Error("failed to build toolbar", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			r = tb.Request

			resp, err := tb.RequestHook(r.Context())
			if err != nil {
				logger.Error("toolbar request hook failed", "path", r.URL.Path, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if resp != nil {
				resp.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// applyModeToggles updates the edit/build session flags from the query
// string. Staff and anonymous users may toggle; other logged-in users have
// both flags cleared.
func applyModeToggles(w http.ResponseWriter, r *http.Request, deps *Deps) error {
	st := session.FromContext(r.Context())
	query := r.URL.Query()

	set := func(key string, value bool) error {
		if st.Bool(key) == value {
			return nil
		}
		return deps.Sessions.Set(w, r, key, value)
	}

	if !st.IsStaff() && st.IsAuthenticated() {
		if err := set(session.KeyBuild, false); err != nil {
			return err
		}
		return set(session.KeyEdit, false)
	}

	if deps.EditOnParam != "" && query.Has(deps.EditOnParam) {
		if err := set(session.KeyEdit, true); err != nil {
			return err
		}
		if err := set(session.KeyBuild, false); err != nil {
			return err
		}
	}
	if deps.EditOffParam != "" && query.Has(deps.EditOffParam) {
		if err := set(session.KeyEdit, false); err != nil {
			return err
		}
		if err := set(session.KeyBuild, false); err != nil {
			return err
		}
	}
	if deps.BuildParam != "" && query.Has(deps.BuildParam) {
		if err := set(session.KeyBuild, true); err != nil {
			return err
		}
	}
	return nil
}
