// ABOUTME: BasicToolbar adds the site administration menu and the language menu
// ABOUTME: The logout entry points at the current path with the toolbar logout trigger

package cmstoolbar

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/2389/cms-toolbar/internal/i18n"
	"github.com/2389/cms-toolbar/internal/toolbar"
)

// Menu keys used by the core sub-toolbars.
const (
	AdminMenuKey     = "cms-admin"
	LanguageMenuKey  = "language-menu"
	ClipboardMenuKey = "clipboard"
)

// BasicToolbar contributes the site menu.
type BasicToolbar struct {
	toolbar.Base
	opts Options
}

// Populate implements toolbar.SubToolbar.
func (b *BasicToolbar) Populate(ctx context.Context) (http.Handler, error) {
	b.addAdminMenu()
	b.addLanguageMenu()
	return nil, nil
}

func (b *BasicToolbar) addAdminMenu() {
	tb := b.Toolbar
	name := b.opts.SiteName
	if name == "" {
		name = "Site"
	}

	menu := tb.GetOrCreateMenu(AdminMenuKey, name)
	menu.AddSideframeItem("Administration", b.opts.AdminURL)
	menu.AddModalItem("User settings", b.opts.UserSettingsURL)
	menu.AddBreak(toolbar.Identifier("logout-break"))

	label := "Logout"
	if tb.User != nil {
		label = "Logout " + tb.User.Username
	}
	menu.AddLinkItem(label, LogoutURL(b.Request))
}

func (b *BasicToolbar) addLanguageMenu() {
	tb := b.Toolbar
	codes := tb.Languages()
	if len(codes) < 2 {
		return
	}

	menu := tb.GetOrCreateMenu(LanguageMenuKey, "Language")
	for _, code := range codes {
		var opts []toolbar.Option
		if code == tb.Language {
			opts = append(opts, toolbar.Active())
		}
		menu.AddLinkItem(languageName(code), withQuery(b.Request, i18n.LangParam, code), opts...)
	}
}

// LogoutURL returns the current path with the toolbar logout trigger.
func LogoutURL(r *http.Request) string {
	return r.URL.Path + "?" + toolbar.LogoutParam
}

// withQuery returns the current path with key set to value.
func withQuery(r *http.Request, key, value string) string {
	q := url.Values{}
	q.Set(key, value)
	return r.URL.Path + "?" + q.Encode()
}

// languageName returns the native name of code, or code itself.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}
