// Package server wires the store, sessions, language resolution and the
// toolbar middleware into an http.Server.
//
// Routes:
//
//	GET  /healthz                      liveness, no toolbar
//	GET  /metrics                      Prometheus metrics when metrics.enabled
//	GET  /api/toolbar                  JSON snapshot of the request toolbar
//	POST /api/settings/language        store the staff user's toolbar language
//	POST /api/clipboard/plugins        copy a plugin onto the clipboard
//	POST /api/clipboard/{id}/clear     empty the clipboard
//	/                                  any other page, answered with the snapshot
//
// Mutating endpoints require a staff session and the CSRF token.
package server
