package adapters

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// execQuerier is the subset of *sql.DB and *sqlx.DB the journal needs.
type execQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLConn serves the journal from database/sql, directly or through sqlx.
type SQLConn struct {
	db execQuerier
}

func NewSQLConn(db *sql.DB) *SQLConn {
	return &SQLConn{db: db}
}

func NewSQLXConn(db *sqlx.DB) *SQLConn {
	return &SQLConn{db: db}
}

// Query returns *sql.Rows as is; it already satisfies Rows.
func (c *SQLConn) Query(ctx context.Context, query string) (Rows, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (c *SQLConn) Exec(ctx context.Context, query string) (int64, error) {
	result, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
