// ABOUTME: Toolbar item types: menus, sub-menus, button lists and menu entries
// ABOUTME: Every item knows its side and can snapshot itself for the client

package toolbar

import (
	"strings"
)

// Side is the half of the toolbar an item is placed on.
type Side int

const (
	// Left is the default side.
	Left Side = iota
	// Right is the right-hand side.
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Item is anything that can be placed in an item list.
type Item interface {
	Side() Side
	Kind() string
	ToMap() map[string]any
}

// options collects the optional arguments of item constructors.
type options struct {
	side         Side
	position     Position
	active       bool
	disabled     bool
	extraClasses []string
	onClose      string
	data         map[string]string
	question     string
	identifier   string
}

// Option customises an item being added.
type Option func(*options)

// OnSide places the item on the given side. Ignored inside menus.
func OnSide(side Side) Option {
	return func(o *options) { o.side = side }
}

// AtPosition inserts the item at pos instead of appending it.
func AtPosition(pos Position) Option {
	return func(o *options) { o.position = pos }
}

// Active marks the item as the current one.
func Active() Option {
	return func(o *options) { o.active = true }
}

// Disabled greys the item out.
func Disabled() Option {
	return func(o *options) { o.disabled = true }
}

// ExtraClasses adds CSS classes to the item.
func ExtraClasses(classes ...string) Option {
	return func(o *options) { o.extraClasses = append(o.extraClasses, classes...) }
}

// OnClose sets the URL to load when a sideframe or modal closes.
func OnClose(url string) Option {
	return func(o *options) { o.onClose = url }
}

// WithData sets the payload posted by an ajax item.
func WithData(data map[string]string) Option {
	return func(o *options) { o.data = data }
}

// Question sets the confirmation prompt of an ajax item.
func Question(q string) Option {
	return func(o *options) { o.question = q }
}

// Identifier names a break or button list so it can be found later.
func Identifier(id string) Option {
	return func(o *options) { o.identifier = id }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// baseItem holds the fields shared by clickable menu entries.
type baseItem struct {
	Name         string
	URL          string
	IsActive     bool
	IsDisabled   bool
	ExtraClasses []string
	side         Side
}

func newBaseItem(name, url string, o options) baseItem {
	return baseItem{
		Name:         name,
		URL:          url,
		IsActive:     o.active,
		IsDisabled:   o.disabled,
		ExtraClasses: o.extraClasses,
		side:         o.side,
	}
}

// Side implements Item.
func (b *baseItem) Side() Side { return b.side }

func (b *baseItem) fields(kind string) map[string]any {
	return map[string]any{
		"kind":     kind,
		"name":     b.Name,
		"url":      b.URL,
		"active":   b.IsActive,
		"disabled": b.IsDisabled,
		"classes":  strings.Join(b.ExtraClasses, " "),
	}
}

// LinkItem is a plain link.
type LinkItem struct{ baseItem }

// Kind implements Item.
func (l *LinkItem) Kind() string { return "link" }

// ToMap implements Item.
func (l *LinkItem) ToMap() map[string]any { return l.fields(l.Kind()) }

// SideframeItem opens its URL in the sideframe.
type SideframeItem struct {
	baseItem
	OnClose string
}

// Kind implements Item.
func (s *SideframeItem) Kind() string { return "sideframe" }

// ToMap implements Item.
func (s *SideframeItem) ToMap() map[string]any {
	m := s.fields(s.Kind())
	m["on_close"] = s.OnClose
	return m
}

// ModalItem opens its URL in a modal dialog.
type ModalItem struct {
	baseItem
	OnClose string
}

// Kind implements Item.
func (m *ModalItem) Kind() string { return "modal" }

// ToMap implements Item.
func (m *ModalItem) ToMap() map[string]any {
	out := m.fields(m.Kind())
	out["on_close"] = m.OnClose
	return out
}

// AjaxItem posts Data (plus the CSRF token) to Action.
type AjaxItem struct {
	baseItem
	Action    string
	Data      map[string]string
	Question  string
	CSRFToken string
}

// Kind implements Item.
func (a *AjaxItem) Kind() string { return "ajax" }

// ToMap implements Item.
func (a *AjaxItem) ToMap() map[string]any {
	m := a.fields(a.Kind())
	data := make(map[string]string, len(a.Data)+1)
	for k, v := range a.Data {
		data[k] = v
	}
	data["csrfmiddlewaretoken"] = a.CSRFToken
	m["action"] = a.Action
	m["data"] = data
	m["question"] = a.Question
	return m
}

// Break is a separator between menu entries.
type Break struct {
	Identifier string
	side       Side
}

// Side implements Item.
func (b *Break) Side() Side { return b.side }

// Kind implements Item.
func (b *Break) Kind() string { return "break" }

// ToMap implements Item.
func (b *Break) ToMap() map[string]any {
	return map[string]any{"kind": b.Kind(), "identifier": b.Identifier}
}

// Button is one entry of a ButtonList.
type Button struct {
	Name         string
	URL          string
	IsActive     bool
	IsDisabled   bool
	ExtraClasses []string
}

// ButtonList groups buttons rendered next to each other.
type ButtonList struct {
	Identifier   string
	ExtraClasses []string
	Buttons      []*Button
	side         Side
}

// NewButtonList creates an empty button list.
func NewButtonList(opts ...Option) *ButtonList {
	o := collect(opts)
	return &ButtonList{
		Identifier:   o.identifier,
		ExtraClasses: o.extraClasses,
		side:         o.side,
	}
}

// Side implements Item.
func (b *ButtonList) Side() Side { return b.side }

// Kind implements Item.
func (b *ButtonList) Kind() string { return "buttonlist" }

// AddButton appends a button. Side and position options are ignored.
func (b *ButtonList) AddButton(name, url string, opts ...Option) *Button {
	o := collect(opts)
	btn := &Button{
		Name:         name,
		URL:          url,
		IsActive:     o.active,
		IsDisabled:   o.disabled,
		ExtraClasses: o.extraClasses,
	}
	b.Buttons = append(b.Buttons, btn)
	return btn
}

// ToMap implements Item.
func (b *ButtonList) ToMap() map[string]any {
	buttons := make([]map[string]any, 0, len(b.Buttons))
	for _, btn := range b.Buttons {
		buttons = append(buttons, map[string]any{
			"name":     btn.Name,
			"url":      btn.URL,
			"active":   btn.IsActive,
			"disabled": btn.IsDisabled,
			"classes":  strings.Join(btn.ExtraClasses, " "),
		})
	}
	return map[string]any{
		"kind":       b.Kind(),
		"identifier": b.Identifier,
		"classes":    strings.Join(b.ExtraClasses, " "),
		"buttons":    buttons,
	}
}

// Menu is a dropdown on the toolbar. Its entries form an item list of their own.
type Menu struct {
	ItemList
	Name      string
	csrfToken string
	side      Side
	menus     map[string]*SubMenu
}

// NewMenu creates an empty menu.
func NewMenu(name, csrfToken string, side Side) *Menu {
	return &Menu{
		Name:      name,
		csrfToken: csrfToken,
		side:      side,
		menus:     make(map[string]*SubMenu),
	}
}

// Side implements Item.
func (m *Menu) Side() Side { return m.side }

// Kind implements Item.
func (m *Menu) Kind() string { return "menu" }

// GetOrCreateMenu returns the sub-menu registered under key, creating it
// with name when absent.
func (m *Menu) GetOrCreateMenu(key, name string, opts ...Option) *SubMenu {
	if sub, ok := m.menus[key]; ok {
		return sub
	}
	o := collect(opts)
	sub := &SubMenu{Menu: *NewMenu(name, m.csrfToken, m.side)}
	m.menus[key] = sub
	m.insert(sub, o.position)
	return sub
}

// AddBreak adds a separator.
func (m *Menu) AddBreak(opts ...Option) *Break {
	o := collect(opts)
	b := &Break{Identifier: o.identifier, side: m.side}
	m.insert(b, o.position)
	return b
}

// AddLinkItem adds a plain link.
func (m *Menu) AddLinkItem(name, url string, opts ...Option) *LinkItem {
	return m.ItemList.addLinkItem(name, url, opts)
}

// AddSideframeItem adds an entry that opens in the sideframe.
func (m *Menu) AddSideframeItem(name, url string, opts ...Option) *SideframeItem {
	return m.ItemList.addSideframeItem(name, url, opts)
}

// AddModalItem adds an entry that opens in a modal.
func (m *Menu) AddModalItem(name, url string, opts ...Option) *ModalItem {
	return m.ItemList.addModalItem(name, url, opts)
}

// AddAjaxItem adds an entry that posts data to action.
func (m *Menu) AddAjaxItem(name, action string, opts ...Option) *AjaxItem {
	return m.ItemList.addAjaxItem(name, action, m.csrfToken, opts)
}

// ToMap implements Item.
func (m *Menu) ToMap() map[string]any {
	return map[string]any{
		"kind":  m.Kind(),
		"name":  m.Name,
		"items": m.ItemList.ToMaps(),
	}
}

// SubMenu is a menu nested inside another menu.
type SubMenu struct {
	Menu
}

// Kind implements Item.
func (s *SubMenu) Kind() string { return "submenu" }

// ToMap implements Item.
func (s *SubMenu) ToMap() map[string]any {
	m := s.Menu.ToMap()
	m["kind"] = s.Kind()
	return m
}
