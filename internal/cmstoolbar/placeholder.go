// ABOUTME: PlaceholderToolbar adds the structure/content mode switcher and the clipboard menu
// ABOUTME: The clipboard menu only appears once the clipboard holds plugins

package cmstoolbar

import (
	"context"
	"fmt"
	"net/http"

	"github.com/2389/cms-toolbar/internal/toolbar"
)

// PlaceholderToolbar contributes the mode switcher and the clipboard.
type PlaceholderToolbar struct {
	toolbar.Base
	opts Options
}

// Populate implements toolbar.SubToolbar.
func (p *PlaceholderToolbar) Populate(ctx context.Context) (http.Handler, error) {
	tb := p.Toolbar
	if !tb.IsStaff {
		return nil, nil
	}

	switcher := tb.AddButtonList(
		toolbar.Identifier("mode-switcher"),
		toolbar.OnSide(toolbar.Right),
		toolbar.ExtraClasses("cms-toolbar-item-cms-mode-switcher"),
	)
	structure := []toolbar.Option{}
	content := []toolbar.Option{}
	if tb.BuildMode {
		structure = append(structure, toolbar.Active())
		content = append(content, toolbar.Disabled())
	} else {
		structure = append(structure, toolbar.Disabled())
		content = append(content, toolbar.Active())
	}
	switcher.AddButton("Structure", "?"+p.opts.BuildParam, structure...)
	switcher.AddButton("Content", "?"+p.opts.EditOnParam, content...)
	return nil, nil
}

// PostTemplatePopulate implements toolbar.SubToolbar.
func (p *PlaceholderToolbar) PostTemplatePopulate(ctx context.Context) (http.Handler, error) {
	tb := p.Toolbar
	if tb.Clipboard == nil {
		return nil, nil
	}

	plugins, err := tb.ClipboardPlugins(ctx)
	if err != nil {
		return nil, err
	}
	if len(plugins) == 0 {
		return nil, nil
	}

	menu := tb.GetOrCreateMenu(ClipboardMenuKey, "Clipboard", toolbar.OnSide(toolbar.Right))
	for _, plugin := range plugins {
		menu.AddLinkItem(plugin.PluginType, fmt.Sprintf("#plugin-%s", plugin.ID))
	}
	menu.AddBreak()
	menu.AddAjaxItem("Empty clipboard", ClipboardClearURL(tb.Clipboard.ID),
		toolbar.Question("Are you sure you want to empty your clipboard?"))
	return nil, nil
}

// ClipboardClearURL is the endpoint emptying a clipboard placeholder.
func ClipboardClearURL(placeholderID string) string {
	return "/api/clipboard/" + placeholderID + "/clear"
}
