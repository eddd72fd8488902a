// Package postgresjournal stores journal entries in PostgreSQL.
//
// The journal works with pgxpool, database/sql (lib/pq) and sqlx connections. SQL is built
// with goqu's postgres dialect. The expected table can be created with CreateTableSQL.
package postgresjournal
