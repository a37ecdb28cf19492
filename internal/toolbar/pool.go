// ABOUTME: Process-wide registry of sub-toolbar factories keyed by dotted names
// ABOUTME: Preserves registration order and supports an optional allow-list

package toolbar

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// ErrAlreadyRegistered indicates a sub-toolbar with the same key exists.
var ErrAlreadyRegistered = errors.New("toolbar already registered")

// ErrNotRegistered indicates the key is not in the pool.
var ErrNotRegistered = errors.New("toolbar not registered")

// ErrInvalidKey indicates a key without at least three dot-separated segments.
var ErrInvalidKey = errors.New("invalid toolbar key")

// Factory builds the per-request instance of a sub-toolbar.
type Factory func(r *http.Request, tb *Toolbar, isCurrentApp bool, appKey string) SubToolbar

// Registration pairs a key with its factory.
type Registration struct {
	Key     string
	Factory Factory
}

// AppName returns the application part of a key: the key without its last
// two segments ("cms.cms_toolbar.BasicToolbar" -> "cms").
func AppName(key string) string {
	parts := strings.Split(key, ".")
	if len(parts) < 3 {
		return ""
	}
	return strings.Join(parts[:len(parts)-2], ".")
}

// Pool holds the registered sub-toolbars.
type Pool struct {
	mu      sync.RWMutex
	entries map[string]Factory
	order   []string
	enabled []string // nil means every registered key
	logger  *slog.Logger
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	return &Pool{
		entries: make(map[string]Factory),
		logger:  slog.Default().With("component", "toolbar.pool"),
	}
}

// DefaultPool is filled by applications at process start.
var DefaultPool = NewPool()

// Register adds a factory under key.
func (p *Pool) Register(key string, factory Factory) error {
	if AppName(key) == "" || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if factory == nil {
		return fmt.Errorf("registering %s: nil factory", key)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[key]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, key)
	}
	p.entries[key] = factory
	p.order = append(p.order, key)

	p.logger.Debug("toolbar registered", "key", key, "total", len(p.order))
	return nil
}

// Unregister removes key from the pool.
func (p *Pool) Unregister(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[key]; !exists {
		return fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	delete(p.entries, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetEnabled restricts Toolbars to keys, in that order. A nil or empty list
// enables every registered key.
func (p *Pool) SetEnabled(keys []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(keys) == 0 {
		p.enabled = nil
		return
	}
	p.enabled = append([]string(nil), keys...)
}

// Toolbars returns the active registrations. Without an allow-list they come
// in registration order; with one, in allow-list order, and a listed key that
// was never registered is an error.
func (p *Pool) Toolbars() ([]Registration, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := p.order
	if p.enabled != nil {
		keys = p.enabled
	}

	regs := make([]Registration, 0, len(keys))
	for _, key := range keys {
		factory, ok := p.entries[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotRegistered, key)
		}
		regs = append(regs, Registration{Key: key, Factory: factory})
	}
	return regs, nil
}

// Len returns the number of registered sub-toolbars.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// Clear removes every registration and the allow-list.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = make(map[string]Factory)
	p.order = nil
	p.enabled = nil
}
