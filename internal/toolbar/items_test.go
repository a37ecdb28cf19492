// ABOUTME: Tests for item lists and menu items: positional insert, search and snapshots
// ABOUTME: Positions follow list-insert semantics including negative indexes

package toolbar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.(*LinkItem).Name)
	}
	return out
}

func TestItemList_InsertPositions(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want []string
	}{
		{name: "append", pos: Append, want: []string{"a", "b", "c", "x"}},
		{name: "front", pos: At(0), want: []string{"x", "a", "b", "c"}},
		{name: "middle", pos: At(1), want: []string{"a", "x", "b", "c"}},
		{name: "negative", pos: At(-1), want: []string{"a", "b", "x", "c"}},
		{name: "far negative", pos: At(-10), want: []string{"x", "a", "b", "c"}},
		{name: "past end", pos: At(10), want: []string{"a", "b", "c", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l ItemList
			for _, n := range []string{"a", "b", "c"} {
				l.addLinkItem(n, "/"+n, nil)
			}
			l.addLinkItem("x", "/x", []Option{AtPosition(tt.pos)})
			assert.Equal(t, tt.want, names(l.Items()))
		})
	}
}

func TestItemList_RemoveAndPosition(t *testing.T) {
	var l ItemList
	a := l.addLinkItem("a", "/a", nil)
	b := l.addLinkItem("b", "/b", nil)

	pos, err := l.ItemPosition(b)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	require.NoError(t, l.RemoveItem(a))
	assert.ErrorIs(t, l.RemoveItem(a), ErrItemNotFound)

	_, err = l.ItemPosition(a)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, 1, l.ItemCount())
}

func TestItemList_Find(t *testing.T) {
	var l ItemList
	l.addLinkItem("Home", "/", nil)
	modal := l.addModalItem("Settings", "/settings", nil)
	l.addLinkItem("About", "/about", nil)

	found, ok := l.FindItem(Named("Settings"))
	require.True(t, ok)
	assert.Same(t, modal, found)

	_, ok = l.FindItem(Named("Missing"))
	assert.False(t, ok)

	assert.Len(t, l.FindItems(OfKind("link")), 2)
}

func TestMenu_SubMenusAndBreaks(t *testing.T) {
	menu := NewMenu("Site", "csrf-token", Left)
	menu.AddLinkItem("Admin", "/admin/")
	sub := menu.GetOrCreateMenu("lang", "Language")
	assert.Same(t, sub, menu.GetOrCreateMenu("lang", "Other"))

	br := menu.AddBreak(Identifier("logout-break"), AtPosition(At(0)))
	pos, err := menu.ItemPosition(br)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	ajax := sub.AddAjaxItem("English", "/lang/", WithData(map[string]string{"language": "en"}), Question("Switch?"))
	assert.Equal(t, "csrf-token", ajax.CSRFToken)

	snap := menu.ToMap()
	assert.Equal(t, "menu", snap["kind"])
	items := snap["items"].([]map[string]any)
	require.Len(t, items, 3)
	assert.Equal(t, "break", items[0]["kind"])
	assert.Equal(t, "submenu", items[2]["kind"])

	ajaxSnap := ajax.ToMap()
	assert.Equal(t, map[string]string{"language": "en", "csrfmiddlewaretoken": "csrf-token"}, ajaxSnap["data"])
	assert.Equal(t, "Switch?", ajaxSnap["question"])
}

func TestButtonList_ToMap(t *testing.T) {
	list := NewButtonList(Identifier("modes"), ExtraClasses("cms-toolbar-item-cms-mode-switcher"), OnSide(Right))
	list.AddButton("Structure", "/?build", Active())
	list.AddButton("Content", "/?edit", Disabled(), ExtraClasses("cms-btn-action"))

	assert.Equal(t, Right, list.Side())
	snap := list.ToMap()
	assert.Equal(t, "modes", snap["identifier"])
	buttons := snap["buttons"].([]map[string]any)
	require.Len(t, buttons, 2)
	assert.Equal(t, true, buttons[0]["active"])
	assert.Equal(t, true, buttons[1]["disabled"])
	assert.Equal(t, "cms-btn-action", buttons[1]["classes"])
}
