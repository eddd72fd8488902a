package postgresjournal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/plant-nursery-go/journal"
	"github.com/AntonStoeckl/plant-nursery-go/journal/postgresjournal/internal/adapters"
	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	*(dest[0].(*time.Time)) = row[0].(time.Time)
	for i := 1; i < len(dest); i++ {
		*(dest[i].(*string)) = row[i].(string)
	}

	return nil
}

func (r *fakeRows) Err() error   { return nil }
func (r *fakeRows) Close() error { return nil }

type fakeConn struct {
	queries  []string
	affected int64
	rows     [][]any
	err      error
}

func (f *fakeConn) Query(_ context.Context, query string) (adapters.Rows, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}

	return &fakeRows{rows: f.rows}, nil
}

func (f *fakeConn) Exec(_ context.Context, query string) (int64, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return 0, f.err
	}

	return f.affected, nil
}

func Test_Append_BuildsInsert(t *testing.T) {
	// arrange
	db := &fakeConn{affected: 1}
	j, err := newJournal(db, WithTableName("audit"))
	require.NoError(t, err)

	// act
	err = j.Append(context.Background(), journal.Entry{
		OccurredAt:  time.Unix(0, 0).UTC(),
		Category:    journal.CategoryCommand,
		Action:      "Restock",
		Actor:       "staff-1",
		Subject:     "FERN-01",
		PayloadJSON: []byte(`{"count":5}`),
	})

	// assert
	require.NoError(t, err)
	require.Len(t, db.queries, 1)
	query := db.queries[0]
	assert.Contains(t, query, `INSERT INTO "audit"`)
	assert.Contains(t, query, `'{"count":5}'::jsonb`)
	assert.Contains(t, query, `'Restock'`)
	assert.Contains(t, query, `'staff-1'`)
}

func Test_Append_EmptyPayloadBecomesEmptyObject(t *testing.T) {
	db := &fakeConn{affected: 1}
	j, _ := newJournal(db)

	require.NoError(t, j.Append(context.Background(), journal.Entry{Action: "Water"}))

	assert.Contains(t, db.queries[0], `INSERT INTO "nursery_journal"`)
	assert.Contains(t, db.queries[0], `'{}'::jsonb`)
}

func Test_Append_Failures(t *testing.T) {
	noRows, _ := newJournal(&fakeConn{affected: 0})
	assert.ErrorIs(t, noRows.Append(context.Background(), journal.Entry{}), ErrAppendFailed)

	dbErr := errors.New("connection reset")
	broken, _ := newJournal(&fakeConn{err: dbErr})
	assert.ErrorIs(t, broken.Append(context.Background(), journal.Entry{}), dbErr)
}

func Test_Recent_ScansRowsNewestFirst(t *testing.T) {
	// arrange
	occurredAt := time.Unix(60, 0).UTC()
	db := &fakeConn{rows: [][]any{
		{occurredAt, "event", "PlantDied", "", "FERN-01#1", `{"Kind":"Died"}`},
	}}
	j, _ := newJournal(db)

	// act
	entries, err := j.Recent(context.Background(), 10)

	// assert
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PlantDied", entries[0].Action)
	assert.Equal(t, occurredAt, entries[0].OccurredAt)
	assert.JSONEq(t, `{"Kind":"Died"}`, string(entries[0].PayloadJSON))
	assert.Contains(t, db.queries[0], `ORDER BY "id" DESC LIMIT 10`)
}

func Test_Constructors_RejectInvalidInput(t *testing.T) {
	_, err := NewJournalFromPGXPool(nil)
	assert.ErrorIs(t, err, nursery.ErrNilDatabaseConnection)

	_, err = NewJournalFromSQLDB(nil)
	assert.ErrorIs(t, err, nursery.ErrNilDatabaseConnection)

	_, err = NewJournalFromSQLX(nil)
	assert.ErrorIs(t, err, nursery.ErrNilDatabaseConnection)

	_, err = newJournal(&fakeConn{}, WithTableName(""))
	assert.ErrorIs(t, err, nursery.ErrEmptyTableName)
}

func Test_CreateTableSQL(t *testing.T) {
	ddl := CreateTableSQL("audit")

	assert.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "audit"`)
	assert.Contains(t, ddl, "payload JSONB")
}
