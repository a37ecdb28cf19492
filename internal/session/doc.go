// Package session provides browser sessions, login/logout and CSRF tokens.
//
// Sessions are rows in the store identified by an opaque cookie. Manager.Middleware
// loads the session and its user into the request context as a *State; Login and
// Logout mutate that same State so later handlers in the chain see the change.
//
// The toolbar keeps two flags in the session data bag:
//
//	cms_edit   - edit mode is on (also shows the login toolbar to anonymous users)
//	cms_build  - structure/build mode is on
//
// Anonymous sessions are only created when something is stored with Set.
package session
