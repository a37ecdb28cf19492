// Package store provides persistent storage for the toolbar using SQLite.
//
// # Architecture
//
// The store package splits persistence into small interfaces:
//
//   - UserStore: accounts that can sign in through the toolbar
//   - SessionStore: browser sessions and their data bag
//   - SettingsStore: per-user toolbar settings (preferred language, clipboard)
//   - PlaceholderStore: placeholders and the plugins they hold
//
// SQLiteStore implements all of them in a single struct; Store is the union.
//
// # Lazy settings
//
// User settings are not created with the user. The toolbar creates them on the
// first staff request together with a clipboard placeholder (slot "clipboard").
// Concurrent first requests race on the user_id primary key; the loser gets
// ErrUserSettingsExists and re-reads.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Times are stored as RFC3339 text in UTC. Session data is a JSON object.
//
// # Testing
//
// Use NewMockStore() for unit tests and NewSQLiteStore(":memory:") or a file in
// t.TempDir() for integration tests with real SQLite.
package store
