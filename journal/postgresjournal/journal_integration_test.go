package postgresjournal_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/plant-nursery-go/config"
	"github.com/AntonStoeckl/plant-nursery-go/journal"
	"github.com/AntonStoeckl/plant-nursery-go/journal/postgresjournal"
)

// The integration tests need a reachable PostgreSQL; they are skipped unless NURSERY_POSTGRES_DSN
// is set. ADAPTER_TYPE selects the connection flavour: pgxpool (default), sqldb or sqlx.
const (
	envDSN         = "NURSERY_POSTGRES_DSN"
	envAdapterType = "ADAPTER_TYPE"
)

type wrapper struct {
	journal *postgresjournal.Journal
	close   func()
}

func newWrapper(t *testing.T, tableName string) wrapper {
	t.Helper()

	dsn := os.Getenv(envDSN)
	if dsn == "" {
		t.Skipf("%s not set", envDSN)
	}

	ctx := context.Background()
	option := postgresjournal.WithTableName(tableName)

	switch adapterType := strings.ToLower(os.Getenv(envAdapterType)); adapterType {
	case "pgxpool", "":
		pool, err := config.OpenPostgresPGXPool(ctx, dsn)
		require.NoError(t, err)
		j, err := postgresjournal.NewJournalFromPGXPool(pool, option)
		require.NoError(t, err)

		return wrapper{journal: j, close: pool.Close}

	case "sqldb":
		db, err := config.OpenPostgresSQLDB(ctx, dsn)
		require.NoError(t, err)
		j, err := postgresjournal.NewJournalFromSQLDB(db, option)
		require.NoError(t, err)

		return wrapper{journal: j, close: func() { _ = db.Close() }}

	case "sqlx":
		db, err := config.OpenPostgresSQLX(ctx, dsn)
		require.NoError(t, err)
		j, err := postgresjournal.NewJournalFromSQLX(db, option)
		require.NoError(t, err)

		return wrapper{journal: j, close: func() { _ = db.Close() }}

	default:
		panic(fmt.Sprintf("unsupported adapter type from env: %s", adapterType))
	}
}

func Test_Integration_Append_Then_Recent(t *testing.T) {
	// arrange
	ctx := context.Background()
	tableName := "journal_it_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	w := newWrapper(t, tableName)
	t.Cleanup(w.close)
	require.NoError(t, w.journal.CreateTable(ctx))

	occurredAt := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	// act
	for i, action := range []string{"Restock.enqueued", "Restock.executed", "Water.failed"} {
		err := w.journal.Append(ctx, journal.Entry{
			OccurredAt:  occurredAt.Add(time.Duration(i) * time.Second),
			Category:    journal.CategoryCommand,
			Action:      action,
			Actor:       "ada",
			Subject:     "cmd-1",
			PayloadJSON: []byte(fmt.Sprintf(`{"step":%d}`, i)),
		})
		require.NoError(t, err)
	}

	entries, err := w.journal.Recent(ctx, 2)

	// assert
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Water.failed", entries[0].Action)
	assert.Equal(t, "Restock.executed", entries[1].Action)
	assert.True(t, occurredAt.Add(2*time.Second).Equal(entries[0].OccurredAt))
	assert.JSONEq(t, `{"step":2}`, string(entries[0].PayloadJSON))
}
