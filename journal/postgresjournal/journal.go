package postgresjournal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/plant-nursery-go/journal"
	"github.com/AntonStoeckl/plant-nursery-go/journal/postgresjournal/internal/adapters"
	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

var ErrBuildingQueryFailed = errors.New("building journal query failed")
var ErrAppendFailed = errors.New("journal append affected no rows")

const (
	defaultTableName = "nursery_journal"
	dialectPostgres  = "postgres"

	colID          = "id"
	colOccurredAt  = "occurred_at"
	colCategory    = "category"
	colAction      = "action"
	colActor       = "actor"
	colSubject     = "subject"
	colPayload     = "payload"
	castJsonb      = "?::jsonb"
	emptyJSONValue = "{}"

	logMsgQueryFailed = "journal query failed"
	logAttrQuery      = "query"
	logAttrError      = "error"
)

// Journal is a PostgreSQL backed journal.Journal and journal.Reader.
type Journal struct {
	db        adapters.Conn
	tableName string
	logger    nursery.Logger
}

// Option configures a Journal.
type Option func(*Journal) error

// WithTableName sets the table name.
func WithTableName(tableName string) Option {
	return func(j *Journal) error {
		if tableName == "" {
			return nursery.ErrEmptyTableName
		}

		j.tableName = tableName

		return nil
	}
}

// WithLogger sets the logger for failed statements.
func WithLogger(logger nursery.Logger) Option {
	return func(j *Journal) error {
		j.logger = logger
		return nil
	}
}

func NewJournalFromPGXPool(db *pgxpool.Pool, options ...Option) (*Journal, error) {
	if db == nil {
		return nil, nursery.ErrNilDatabaseConnection
	}

	return newJournal(adapters.NewPGXConn(db), options...)
}

func NewJournalFromSQLDB(db *sql.DB, options ...Option) (*Journal, error) {
	if db == nil {
		return nil, nursery.ErrNilDatabaseConnection
	}

	return newJournal(adapters.NewSQLConn(db), options...)
}

func NewJournalFromSQLX(db *sqlx.DB, options ...Option) (*Journal, error) {
	if db == nil {
		return nil, nursery.ErrNilDatabaseConnection
	}

	return newJournal(adapters.NewSQLXConn(db), options...)
}

func newJournal(db adapters.Conn, options ...Option) (*Journal, error) {
	j := &Journal{db: db, tableName: defaultTableName}

	for _, option := range options {
		if err := option(j); err != nil {
			return nil, err
		}
	}

	return j, nil
}

// CreateTableSQL returns the DDL for the journal table.
func CreateTableSQL(tableName string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	%s BIGSERIAL PRIMARY KEY,
	%s TIMESTAMPTZ NOT NULL,
	%s TEXT NOT NULL,
	%s TEXT NOT NULL,
	%s TEXT NOT NULL DEFAULT '',
	%s TEXT NOT NULL DEFAULT '',
	%s JSONB NOT NULL DEFAULT '{}'
)`, tableName, colID, colOccurredAt, colCategory, colAction, colActor, colSubject, colPayload)
}

// CreateTable creates the journal table if it does not exist.
func (j *Journal) CreateTable(ctx context.Context) error {
	_, err := j.db.Exec(ctx, CreateTableSQL(j.tableName))
	return err
}

// Append inserts one entry.
func (j *Journal) Append(ctx context.Context, entry journal.Entry) error {
	query, err := j.buildInsertQuery(entry)
	if err != nil {
		return err
	}

	rowsAffected, err := j.db.Exec(ctx, query)
	if err != nil {
		j.logQueryFailure(query, err)
		return err
	}

	if rowsAffected != 1 {
		return ErrAppendFailed
	}

	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit returns every entry.
func (j *Journal) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	query, err := j.buildRecentQuery(limit)
	if err != nil {
		return nil, err
	}

	rows, err := j.db.Query(ctx, query)
	if err != nil {
		j.logQueryFailure(query, err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []journal.Entry

	for rows.Next() {
		var (
			entry      journal.Entry
			occurredAt time.Time
			payload    string
		)

		if err := rows.Scan(&occurredAt, &entry.Category, &entry.Action, &entry.Actor, &entry.Subject, &payload); err != nil {
			return nil, err
		}

		entry.OccurredAt = occurredAt
		entry.PayloadJSON = []byte(payload)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (j *Journal) buildInsertQuery(entry journal.Entry) (string, error) {
	payload := string(entry.PayloadJSON)
	if payload == "" {
		payload = emptyJSONValue
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(j.tableName).
		Rows(goqu.Record{
			colOccurredAt: entry.OccurredAt,
			colCategory:   entry.Category,
			colAction:     entry.Action,
			colActor:      entry.Actor,
			colSubject:    entry.Subject,
			colPayload:    goqu.L(castJsonb, payload),
		})

	query, _, err := insertStmt.ToSQL()
	if err != nil {
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return query, nil
}

func (j *Journal) buildRecentQuery(limit int) (string, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(j.tableName).
		Select(
			goqu.C(colOccurredAt),
			goqu.C(colCategory),
			goqu.C(colAction),
			goqu.C(colActor),
			goqu.C(colSubject),
			goqu.L("?::text", goqu.C(colPayload)),
		).
		Order(goqu.I(colID).Desc())

	if limit > 0 {
		selectStmt = selectStmt.Limit(uint(limit))
	}

	query, _, err := selectStmt.ToSQL()
	if err != nil {
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return query, nil
}

func (j *Journal) logQueryFailure(query string, err error) {
	if j.logger != nil {
		j.logger.Error(logMsgQueryFailed, logAttrQuery, query, logAttrError, err.Error())
	}
}

var (
	_ journal.Journal = (*Journal)(nil)
	_ journal.Reader  = (*Journal)(nil)
)
