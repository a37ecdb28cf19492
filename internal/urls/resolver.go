// ABOUTME: View resolver mapping request paths to the module that serves them
// ABOUTME: Backed by http.ServeMux pattern matching; unmatched paths resolve to ErrNoMatch

package urls

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// ErrNoMatch is returned when no registered route matches a path.
var ErrNoMatch = errors.New("no route matches path")

// Resolver records which view module serves which route pattern.
type Resolver struct {
	mu    sync.RWMutex
	mux   *http.ServeMux
	views map[string]string // pattern -> view module
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		mux:   http.NewServeMux(),
		views: make(map[string]string),
	}
}

// Register records that pattern is served by the view in module, e.g.
// Register("GET /blog/{slug}", "blog.views"). Patterns use http.ServeMux syntax.
func (r *Resolver) Register(pattern, module string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.views[pattern]; exists {
		return fmt.Errorf("registering %q: pattern already registered", pattern)
	}

	// ServeMux panics on invalid or conflicting patterns
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("registering %q: %v", pattern, rec)
		}
	}()
	r.mux.Handle(pattern, http.NotFoundHandler())
	r.views[pattern] = module
	return nil
}

// Resolve returns the view module serving path, or ErrNoMatch.
func (r *Resolver) Resolve(path string) (string, error) {
	return r.ResolveRequest(&http.Request{
		Method: http.MethodGet,
		URL:    &url.URL{Path: path},
	})
}

// ResolveRequest returns the view module serving the request's method and path.
func (r *Resolver) ResolveRequest(req *http.Request) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, pattern := r.mux.Handler(req)
	module, ok := r.views[pattern]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoMatch, req.URL.Path)
	}
	return module, nil
}

// ViewName resolves the request and returns "" when nothing matches.
func (r *Resolver) ViewName(req *http.Request) string {
	if r == nil {
		return ""
	}
	module, err := r.ResolveRequest(req)
	if err != nil {
		return ""
	}
	return module
}
