// ABOUTME: Request language resolution and context-scoped language forcing
// ABOUTME: Matches query, cookie and Accept-Language against the configured languages

package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "language"
	// LangCookieName stores the user's language preference.
	LangCookieName = "cms_language"
)

// Resolver picks the display language of a request.
type Resolver struct {
	enabled  bool
	fallback string
	codes    []string
	tags     []language.Tag
	matcher  language.Matcher
}

// NewResolver creates a Resolver. With useI18N off every request resolves to
// languageCode. The first entry of languages is not special: languageCode is
// the fallback.
func NewResolver(useI18N bool, languageCode string, languages []string) *Resolver {
	r := &Resolver{
		enabled:  useI18N,
		fallback: languageCode,
	}

	// The fallback goes first so the matcher prefers it on ties
	codes := append([]string{languageCode}, languages...)
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		tag, err := language.Parse(code)
		if err != nil || seen[code] {
			continue
		}
		seen[code] = true
		r.codes = append(r.codes, code)
		r.tags = append(r.tags, tag)
	}
	r.matcher = language.NewMatcher(r.tags)
	return r
}

// Languages returns the configured language codes, fallback first.
func (r *Resolver) Languages() []string {
	return append([]string(nil), r.codes...)
}

// Default returns the fallback language code.
func (r *Resolver) Default() string {
	return r.fallback
}

// Supported reports whether code is one of the configured languages.
func (r *Resolver) Supported(code string) bool {
	for _, c := range r.codes {
		if c == code {
			return true
		}
	}
	return false
}

// Resolve determines the best language code for the request: an explicit
// query parameter, then the language cookie, then Accept-Language.
func (r *Resolver) Resolve(req *http.Request) string {
	if !r.enabled || req == nil {
		return r.fallback
	}

	if value := strings.TrimSpace(req.URL.Query().Get(LangParam)); value != "" {
		if code, ok := r.parse(value); ok {
			return code
		}
	}

	if cookie, err := req.Cookie(LangCookieName); err == nil {
		if code, ok := r.parse(cookie.Value); ok {
			return code
		}
	}

	if accept := strings.TrimSpace(req.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, confidence := r.matcher.Match(tags...)
			if confidence != language.No {
				return r.codes[idx]
			}
		}
	}

	return r.fallback
}

// parse maps a raw tag onto a configured code.
func (r *Resolver) parse(value string) (string, bool) {
	tag, err := language.Parse(value)
	if err != nil {
		return "", false
	}
	_, idx, confidence := r.matcher.Match(tag)
	if confidence == language.No {
		return "", false
	}
	return r.codes[idx], true
}

type languageKey struct{}

// WithLanguage returns a context in which code is the active language.
func WithLanguage(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, languageKey{}, code)
}

// FromContext returns the active language of ctx, or "" if none was forced.
func FromContext(ctx context.Context) string {
	code, _ := ctx.Value(languageKey{}).(string)
	return code
}
