// ABOUTME: The SubToolbar contract and an embeddable no-op base
// ABOUTME: Hooks return a non-nil http.Handler to short-circuit dispatch

package toolbar

import (
	"context"
	"net/http"
)

// Keys of the core sub-toolbars, which always run before everything else.
const (
	BasicToolbarKey       = "cms.cms_toolbar.BasicToolbar"
	PlaceholderToolbarKey = "cms.cms_toolbar.PlaceholderToolbar"
)

// coreKeys lists the core sub-toolbars in dispatch order.
var coreKeys = []string{BasicToolbarKey, PlaceholderToolbarKey}

// SubToolbar contributes items to a Toolbar. A hook that returns a non-nil
// handler stops dispatch and that handler answers the request.
type SubToolbar interface {
	Populate(ctx context.Context) (http.Handler, error)
	PostTemplatePopulate(ctx context.Context) (http.Handler, error)
	RequestHook(ctx context.Context) (http.Handler, error)
}

// Base carries the construction arguments every sub-toolbar receives. Embed it
// and override the hooks you need.
type Base struct {
	Request      *http.Request
	Toolbar      *Toolbar
	IsCurrentApp bool
	AppKey       string
}

// NewBase bundles the factory arguments.
func NewBase(r *http.Request, tb *Toolbar, isCurrentApp bool, appKey string) Base {
	return Base{Request: r, Toolbar: tb, IsCurrentApp: isCurrentApp, AppKey: appKey}
}

// Populate implements SubToolbar.
func (Base) Populate(context.Context) (http.Handler, error) { return nil, nil }

// PostTemplatePopulate implements SubToolbar.
func (Base) PostTemplatePopulate(context.Context) (http.Handler, error) { return nil, nil }

// RequestHook implements SubToolbar.
func (Base) RequestHook(context.Context) (http.Handler, error) { return nil, nil }
