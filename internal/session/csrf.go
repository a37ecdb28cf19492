// ABOUTME: Double-submit CSRF tokens for toolbar forms and ajax items
// ABOUTME: The token lives in a cookie and must be echoed in a form field or header

package session

import (
	"crypto/subtle"
	"net/http"
)

const (
	// CSRFCookieName is the name of the CSRF token cookie
	CSRFCookieName = "cms_csrf"

	// CSRFFieldName is the form field carrying the token
	CSRFFieldName = "csrfmiddlewaretoken"

	// CSRFHeaderName is the header carrying the token for ajax requests
	CSRFHeaderName = "X-CSRFToken"
)

// CSRFToken returns the request's CSRF token, issuing a cookie when the
// client has none. Repeated calls within a request return the same token.
func (m *Manager) CSRFToken(w http.ResponseWriter, r *http.Request) string {
	st := FromContext(r.Context())
	if st.csrfToken != "" {
		return st.csrfToken
	}

	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		st.csrfToken = cookie.Value
		return st.csrfToken
	}
	return m.issueCSRFToken(w, r)
}

// issueCSRFToken sets a fresh CSRF cookie and makes it the request's token.
func (m *Manager) issueCSRFToken(w http.ResponseWriter, r *http.Request) string {
	st := FromContext(r.Context())
	st.csrfToken = ""

	token, err := generateSecureToken(32)
	if err != nil {
		m.logger.Error("failed to generate CSRF token", "error", err)
		return "" // Will fail validation, but won't crash
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	st.csrfToken = token
	return token
}

// ValidCSRF checks the token from the form or header against the cookie.
func ValidCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	token := r.FormValue(CSRFFieldName)
	if token == "" {
		token = r.Header.Get(CSRFHeaderName)
	}

	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) == 1
}
