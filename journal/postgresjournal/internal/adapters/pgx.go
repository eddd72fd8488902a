package adapters

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXConn serves the journal from a pgx pool.
type PGXConn struct {
	pool *pgxpool.Pool
}

func NewPGXConn(pool *pgxpool.Pool) *PGXConn {
	return &PGXConn{pool: pool}
}

func (c *PGXConn) Query(ctx context.Context, query string) (Rows, error) {
	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgxRows{Rows: rows}, nil
}

func (c *PGXConn) Exec(ctx context.Context, query string) (int64, error) {
	tag, err := c.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// pgxRows reports the cursor error from Close, since pgx.Rows.Close returns nothing.
type pgxRows struct {
	pgx.Rows
}

func (r pgxRows) Close() error {
	r.Rows.Close()
	return r.Rows.Err()
}
