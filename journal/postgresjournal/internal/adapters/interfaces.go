package adapters

import "context"

// Conn is a PostgreSQL connection pool as the journal sees it: plain SQL text in, rows or an
// affected-row count out. Queries are fully rendered by goqu, so no arguments are passed.
type Conn interface {
	Query(ctx context.Context, query string) (Rows, error)
	Exec(ctx context.Context, query string) (rowsAffected int64, err error)
}

// Rows is a forward-only result cursor. Close must be called once iteration stops.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}
