// Package adapters lets the journal run on pgxpool, database/sql or sqlx through one Conn.
package adapters
