// Package store opens the crate SQLite database, creates its schema and offers
// the busy-retry wrapper shared by every repository.
//
// Repositories in the pending, catalog, delay and schedule packages borrow the
// sqlx pool through DB and wrap each statement in Retry so concurrent CLI
// invocations back off instead of failing on SQLITE_BUSY.
package store
