// Package store keeps the history of analyzed uploads in SQLite (modernc,
// pure Go) or PostgreSQL (pgx). The schema is created on open.
package store
