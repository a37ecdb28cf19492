// ABOUTME: Registers the core sub-toolbars in a pool under their fixed keys
// ABOUTME: Options carry the admin URLs and mode parameters the menus link to

package cmstoolbar

import (
	"fmt"
	"net/http"

	"github.com/2389/cms-toolbar/internal/toolbar"
)

// Options configures the core sub-toolbars.
type Options struct {
	SiteName        string
	AdminURL        string
	UserSettingsURL string
	EditOnParam     string
	BuildParam      string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		SiteName:        "Site",
		AdminURL:        "/admin/",
		UserSettingsURL: "/admin/cms/usersettings/",
		EditOnParam:     "edit",
		BuildParam:      "build",
	}
}

// Register adds BasicToolbar and PlaceholderToolbar to pool.
func Register(pool *toolbar.Pool, opts Options) error {
	basic := func(r *http.Request, tb *toolbar.Toolbar, isCurrentApp bool, appKey string) toolbar.SubToolbar {
		return &BasicToolbar{Base: toolbar.NewBase(r, tb, isCurrentApp, appKey), opts: opts}
	}
	placeholder := func(r *http.Request, tb *toolbar.Toolbar, isCurrentApp bool, appKey string) toolbar.SubToolbar {
		return &PlaceholderToolbar{Base: toolbar.NewBase(r, tb, isCurrentApp, appKey), opts: opts}
	}

	if err := pool.Register(toolbar.BasicToolbarKey, basic); err != nil {
		return fmt.Errorf("registering basic toolbar: %w", err)
	}
	if err := pool.Register(toolbar.PlaceholderToolbarKey, placeholder); err != nil {
		return fmt.Errorf("registering placeholder toolbar: %w", err)
	}
	return nil
}
