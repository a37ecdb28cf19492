// ABOUTME: The per-request Toolbar aggregating items contributed by sub-toolbars
// ABOUTME: Resolves mode flags, user settings, the clipboard and the current-app key

package toolbar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/2389/cms-toolbar/internal/auth"
	"github.com/2389/cms-toolbar/internal/i18n"
	"github.com/2389/cms-toolbar/internal/session"
	"github.com/2389/cms-toolbar/internal/store"
)

// Sessions is the part of the session layer the toolbar drives.
type Sessions interface {
	Login(w http.ResponseWriter, r *http.Request, user *store.User) error
	Logout(w http.ResponseWriter, r *http.Request) error
	Set(w http.ResponseWriter, r *http.Request, key string, value any) error
	CSRFToken(w http.ResponseWriter, r *http.Request) string
}

// ViewResolver maps a request to the module name of the view serving it,
// or "" when nothing matches.
type ViewResolver interface {
	ViewName(r *http.Request) string
}

// Store is the persistence the toolbar reads and lazily writes.
type Store interface {
	store.UserStore
	store.SettingsStore
	store.PlaceholderStore
}

// Deps are the collaborators shared by every request's toolbar.
type Deps struct {
	Pool      *Pool
	Store     Store
	Sessions  Sessions
	Languages *i18n.Resolver
	Views     ViewResolver
	Metrics   *Metrics     // optional
	Tracer    trace.Tracer // optional, defaults to the global provider

	// Query parameters toggling the session flags.
	EditOnParam  string
	EditOffParam string
	BuildParam   string

	// ExcludePrefixes are path prefixes the middleware passes through untouched.
	ExcludePrefixes []string
}

// Toolbar is the request-scoped aggregate of every sub-toolbar's items.
type Toolbar struct {
	Request *http.Request
	User    *store.User // nil for anonymous requests

	IsStaff     bool
	EditMode    bool
	BuildMode   bool
	UseDraft    bool
	ShowToolbar bool

	// Language is the display language resolved from the request;
	// ToolbarLanguage is the staff user's stored preference.
	Language        string
	ToolbarLanguage string

	Clipboard *store.Placeholder // nil for non-staff
	ViewName  string
	AppKey    string
	LoginForm *auth.LoginForm

	w        http.ResponseWriter
	deps     *Deps
	left     ItemList
	right    ItemList
	menus    map[string]*Menu
	toolbars map[string]SubToolbar
	order    []string

	populated             bool
	postTemplatePopulated bool

	logger *slog.Logger
}

// New builds the toolbar for r. Staff users without settings get them, and a
// clipboard placeholder, created on the spot.
func New(w http.ResponseWriter, r *http.Request, deps *Deps) (*Toolbar, error) {
	ctx := r.Context()
	st := session.FromContext(ctx)

	tb := &Toolbar{
		Request:   r,
		User:      st.User,
		IsStaff:   st.IsStaff(),
		LoginForm: auth.NewLoginForm(),
		w:         w,
		deps:      deps,
		menus:     make(map[string]*Menu),
		toolbars:  make(map[string]SubToolbar),
		logger:    slog.Default().With("component", "toolbar"),
	}
	tb.EditMode = tb.IsStaff && st.Bool(session.KeyEdit)
	tb.BuildMode = tb.IsStaff && st.Bool(session.KeyBuild)
	tb.UseDraft = (tb.IsStaff && tb.EditMode) || tb.BuildMode
	tb.ShowToolbar = tb.IsStaff || st.Bool(session.KeyEdit)

	if deps.Languages != nil {
		tb.Language = deps.Languages.Resolve(r)
	}
	tb.ToolbarLanguage = tb.Language

	if tb.IsStaff {
		if err := tb.loadUserSettings(ctx); err != nil {
			return nil, err
		}
	}

	if deps.Views != nil {
		tb.ViewName = deps.Views.ViewName(r.WithContext(i18n.WithLanguage(ctx, tb.Language)))
	}

	regs, err := deps.Pool.Toolbars()
	if err != nil {
		return nil, fmt.Errorf("listing toolbars: %w", err)
	}
	tb.AppKey = currentAppKey(regs, tb.ViewName)

	// Sub-toolbars see a request that already carries the toolbar.
	r = r.WithContext(WithToolbar(ctx, tb))
	tb.Request = r
	for _, reg := range regs {
		tb.toolbars[reg.Key] = reg.Factory(r, tb, reg.Key == tb.AppKey, tb.AppKey)
		tb.order = append(tb.order, reg.Key)
	}

	return tb, nil
}

// currentAppKey returns the longest key whose application name occurs in
// viewName, or "".
func currentAppKey(regs []Registration, viewName string) string {
	appKey := ""
	for _, reg := range regs {
		app := AppName(reg.Key)
		if app != "" && strings.Contains(viewName, app) && len(reg.Key) > len(appKey) {
			appKey = reg.Key
		}
	}
	return appKey
}

func (t *Toolbar) loadUserSettings(ctx context.Context) error {
	backend := t.deps.Store

	settings, err := backend.GetUserSettings(ctx, t.User.ID)
	if errors.Is(err, store.ErrUserSettingsNotFound) {
		settings, err = t.createUserSettings(ctx)
	}
	if err != nil {
		return fmt.Errorf("loading user settings: %w", err)
	}

	if settings.Language != "" {
		t.ToolbarLanguage = settings.Language
	}

	if settings.ClipboardID == "" {
		return nil
	}
	clipboard, err := backend.GetPlaceholder(ctx, settings.ClipboardID)
	if err != nil {
		if errors.Is(err, store.ErrPlaceholderNotFound) {
			t.logger.Warn("clipboard placeholder missing", "user_id", t.User.ID, "placeholder_id", settings.ClipboardID)
			return nil
		}
		return fmt.Errorf("loading clipboard: %w", err)
	}
	t.Clipboard = clipboard
	return nil
}

func (t *Toolbar) createUserSettings(ctx context.Context) (*store.UserSettings, error) {
	backend := t.deps.Store

	clipboard := &store.Placeholder{Slot: store.ClipboardSlot}
	if err := backend.CreatePlaceholder(ctx, clipboard); err != nil {
		return nil, fmt.Errorf("creating clipboard: %w", err)
	}

	settings := &store.UserSettings{
		UserID:      t.User.ID,
		Language:    t.Language,
		ClipboardID: clipboard.ID,
	}
	err := backend.CreateUserSettings(ctx, settings)
	if errors.Is(err, store.ErrUserSettingsExists) {
		// A concurrent request won; use its row.
		return backend.GetUserSettings(ctx, t.User.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user settings: %w", err)
	}

	t.logger.Info("created user settings", "user_id", t.User.ID, "language", settings.Language)
	return settings, nil
}

// SubToolbar returns the request instance registered under key.
func (t *Toolbar) SubToolbar(key string) (SubToolbar, bool) {
	sub, ok := t.toolbars[key]
	return sub, ok
}

// Keys returns the sub-toolbar keys in registry order.
func (t *Toolbar) Keys() []string {
	return append([]string(nil), t.order...)
}

// Languages returns the configured languages.
func (t *Toolbar) Languages() []string {
	if t.deps.Languages == nil {
		return nil
	}
	return t.deps.Languages.Languages()
}

// CSRFToken returns the request's CSRF token.
func (t *Toolbar) CSRFToken() string {
	if t.deps.Sessions == nil {
		return ""
	}
	return t.deps.Sessions.CSRFToken(t.w, t.Request)
}

// Populate dispatches the populate hook once. Non-staff toolbars are marked
// populated without dispatching.
func (t *Toolbar) Populate(ctx context.Context) error {
	if t.populated {
		return nil
	}
	t.populated = true
	if !t.IsStaff {
		return nil
	}
	_, err := t.dispatch(ctx, HookPopulate)
	return err
}

// PostTemplatePopulate populates, then dispatches post_template_populate once.
func (t *Toolbar) PostTemplatePopulate(ctx context.Context) error {
	if err := t.Populate(ctx); err != nil {
		return err
	}
	if t.postTemplatePopulated {
		return nil
	}
	t.postTemplatePopulated = true
	if !t.IsStaff {
		return nil
	}
	_, err := t.dispatch(ctx, HookPostTemplatePopulate)
	return err
}

// populate is called by the mutators, which have no error return.
func (t *Toolbar) populate() {
	if err := t.Populate(t.Request.Context()); err != nil {
		t.logger.Error("populate failed", "error", err)
	}
}

// GetOrCreateMenu returns the menu registered under key, creating it with
// name on the chosen side and position when absent.
func (t *Toolbar) GetOrCreateMenu(key, name string, opts ...Option) *Menu {
	t.populate()
	if menu, ok := t.menus[key]; ok {
		return menu
	}
	o := collect(opts)
	menu := NewMenu(name, t.CSRFToken(), o.side)
	t.menus[key] = menu
	t.insert(menu, o.position)
	return menu
}

// Menu returns the menu registered under key without populating.
func (t *Toolbar) Menu(key string) (*Menu, bool) {
	menu, ok := t.menus[key]
	return menu, ok
}

// AddButton adds a button list holding a single button.
func (t *Toolbar) AddButton(name, url string, opts ...Option) *ButtonList {
	t.populate()
	o := collect(opts)
	list := &ButtonList{side: o.side}
	list.AddButton(name, url, opts...)
	t.insert(list, o.position)
	return list
}

// AddButtonList adds an empty button list.
func (t *Toolbar) AddButtonList(opts ...Option) *ButtonList {
	t.populate()
	o := collect(opts)
	list := NewButtonList(opts...)
	t.insert(list, o.position)
	return list
}

// sideList returns the list holding items of side.
func (t *Toolbar) sideList(side Side) *ItemList {
	if side == Right {
		return &t.right
	}
	return &t.left
}

func (t *Toolbar) insert(item Item, pos Position) Item {
	return t.sideList(item.Side()).insert(item, pos)
}

// AddItem inserts an existing item on its own side.
func (t *Toolbar) AddItem(item Item, pos Position) Item {
	return t.insert(item, pos)
}

// RemoveItem removes item from whichever side holds it.
func (t *Toolbar) RemoveItem(item Item) error {
	if err := t.right.RemoveItem(item); err == nil {
		return nil
	}
	if err := t.left.RemoveItem(item); err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, item.Kind())
}

// ItemPosition returns the index of item within its side.
func (t *Toolbar) ItemPosition(item Item) (int, error) {
	return t.sideList(item.Side()).ItemPosition(item)
}

// FindItems returns matching items, left side first.
func (t *Toolbar) FindItems(match func(Item) bool) []Item {
	return append(t.left.FindItems(match), t.right.FindItems(match)...)
}

// FindItem returns the first matching item, left side first.
func (t *Toolbar) FindItem(match func(Item) bool) (Item, bool) {
	if it, ok := t.left.FindItem(match); ok {
		return it, true
	}
	return t.right.FindItem(match)
}

// ItemCount returns the number of items on both sides.
func (t *Toolbar) ItemCount() int {
	return t.left.ItemCount() + t.right.ItemCount()
}

// AddLinkItem adds a plain link directly on the toolbar.
func (t *Toolbar) AddLinkItem(name, url string, opts ...Option) *LinkItem {
	return t.sideList(collect(opts).side).addLinkItem(name, url, opts)
}

// AddSideframeItem adds a sideframe entry directly on the toolbar.
func (t *Toolbar) AddSideframeItem(name, url string, opts ...Option) *SideframeItem {
	return t.sideList(collect(opts).side).addSideframeItem(name, url, opts)
}

// AddModalItem adds a modal entry directly on the toolbar.
func (t *Toolbar) AddModalItem(name, url string, opts ...Option) *ModalItem {
	return t.sideList(collect(opts).side).addModalItem(name, url, opts)
}

// AddAjaxItem adds an ajax entry directly on the toolbar.
func (t *Toolbar) AddAjaxItem(name, action string, opts ...Option) *AjaxItem {
	return t.sideList(collect(opts).side).addAjaxItem(name, action, t.CSRFToken(), opts)
}

// AddBreak adds a separator on the left side, or the side given.
func (t *Toolbar) AddBreak(opts ...Option) *Break {
	o := collect(opts)
	b := &Break{Identifier: o.identifier, side: o.side}
	t.sideList(o.side).insert(b, o.position)
	return b
}

// LeftItems populates and returns the left-hand items.
func (t *Toolbar) LeftItems(ctx context.Context) ([]Item, error) {
	if err := t.Populate(ctx); err != nil {
		return nil, err
	}
	return t.left.Items(), nil
}

// RightItems populates and returns the right-hand items.
func (t *Toolbar) RightItems(ctx context.Context) ([]Item, error) {
	if err := t.Populate(ctx); err != nil {
		return nil, err
	}
	return t.right.Items(), nil
}

// ClipboardPlugins populates and returns the plugins on the clipboard.
func (t *Toolbar) ClipboardPlugins(ctx context.Context) ([]*store.Plugin, error) {
	if err := t.Populate(ctx); err != nil {
		return nil, err
	}
	if t.Clipboard == nil {
		return nil, nil
	}
	plugins, err := t.deps.Store.ListPlugins(ctx, t.Clipboard.ID)
	if err != nil {
		return nil, fmt.Errorf("listing clipboard plugins: %w", err)
	}
	return plugins, nil
}

// Snapshot is the JSON view of a populated toolbar.
type Snapshot struct {
	IsStaff         bool             `json:"is_staff"`
	EditMode        bool             `json:"edit_mode"`
	BuildMode       bool             `json:"build_mode"`
	UseDraft        bool             `json:"use_draft"`
	ShowToolbar     bool             `json:"show_toolbar"`
	Language        string           `json:"language"`
	ToolbarLanguage string           `json:"toolbar_language"`
	ViewName        string           `json:"view_name"`
	AppKey          string           `json:"app_key"`
	Left            []map[string]any `json:"left"`
	Right           []map[string]any `json:"right"`
	LoginErrors     []string         `json:"login_errors,omitempty"`
}

// Snapshot runs both populate phases and captures the result.
func (t *Toolbar) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := t.PostTemplatePopulate(ctx); err != nil {
		return nil, err
	}
	snap := &Snapshot{
		IsStaff:         t.IsStaff,
		EditMode:        t.EditMode,
		BuildMode:       t.BuildMode,
		UseDraft:        t.UseDraft,
		ShowToolbar:     t.ShowToolbar,
		Language:        t.Language,
		ToolbarLanguage: t.ToolbarLanguage,
		ViewName:        t.ViewName,
		AppKey:          t.AppKey,
		Left:            t.left.ToMaps(),
		Right:           t.right.ToMaps(),
	}
	if t.LoginForm != nil {
		snap.LoginErrors = append(snap.LoginErrors, t.LoginForm.Errors...)
		fields := make([]string, 0, len(t.LoginForm.FieldErrors))
		for field := range t.LoginForm.FieldErrors {
			fields = append(fields, field)
		}
		slices.Sort(fields)
		for _, field := range fields {
			snap.LoginErrors = append(snap.LoginErrors, field+": "+t.LoginForm.FieldErrors[field])
		}
	}
	return snap, nil
}

type toolbarKey struct{}

// WithToolbar attaches tb to ctx.
func WithToolbar(ctx context.Context, tb *Toolbar) context.Context {
	return context.WithValue(ctx, toolbarKey{}, tb)
}

// FromContext returns the request's toolbar, or nil when the middleware did
// not build one.
func FromContext(ctx context.Context) *Toolbar {
	tb, _ := ctx.Value(toolbarKey{}).(*Toolbar)
	return tb
}
