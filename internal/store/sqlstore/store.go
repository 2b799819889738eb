// Package sqlstore implements store.Store on database/sql.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, the default,
// embedded) and "postgres" (github.com/lib/pq). Queries are written once with
// "?" placeholders and rebound per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/templatedir/templatedir-server/internal/store"

	"modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// foldFunc is the SQLite function used for case-insensitive matching.
// SQLite's own LOWER only folds ASCII letters.
const foldFunc = "unicode_lower"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, unicodeLower); err != nil {
		panic(fmt.Sprintf("register %s: %v", foldFunc, err))
	}
}

// unicodeLower folds its argument with strings.ToLower, the same folding
// applied to search terms. NULL stays NULL.
func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// timeFormat is fixed-width so TEXT columns order chronologically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// containsFold returns a predicate matching col case-insensitively against
// a lowercased LIKE pattern escaped with '\'.
func (d dialect) containsFold(col string) string {
	if d == dialectPostgres {
		return col + ` ILIKE ? ESCAPE '\'`
	}
	return foldFunc + `(` + col + `) LIKE ? ESCAPE '\'`
}

// rebind rewrites "?" placeholders to "$1", "$2", ... for PostgreSQL.
// Question marks inside single-quoted literals are left alone.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Store provides SQL-backed persistence for the TemplateDir server.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger

	searchIndexer store.SearchIndexer
}

var _ store.Store = (*Store)(nil)

// Open connects to the database and applies the schema.
// For the sqlite driver dsn is a file path; for postgres it is a libpq
// connection string or URL.
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	var (
		db  *sql.DB
		d   dialect
		err error
	)

	switch driver {
	case DriverSQLite, "":
		d = dialectSQLite
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)

	case DriverPostgres, "postgresql":
		d = dialectPostgres
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(4)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db.SetConnMaxLifetime(time.Hour)

	// Run schema migration.
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("database opened", "driver", driverName(d))

	return &Store{
		db:            db,
		dialect:       d,
		logger:        logger,
		searchIndexer: store.NewNoopSearchIndexer(),
	}, nil
}

// sqliteDSN attaches pragmas to the path so that every pooled connection
// gets them, not only the first.
func sqliteDSN(path string) string {
	pragmas := []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
	}
	return "file:" + path + "?" + strings.Join(pragmas, "&")
}

func driverName(d dialect) string {
	if d == dialectPostgres {
		return DriverPostgres
	}
	return DriverSQLite
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SetSearchIndexer sets the indexer kept in step with listing writes.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	if indexer == nil {
		indexer = store.NewNoopSearchIndexer()
	}
	s.searchIndexer = indexer
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// translate maps driver errors onto store sentinels. Errors it does not
// recognise are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return store.ErrAlreadyExists.WithCause(err)
		case "foreign_key_violation", "check_violation", "not_null_violation",
			"invalid_text_representation", "string_data_right_truncation":
			return store.ErrInvalidInput.WithCause(err)
		}
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return store.ErrAlreadyExists.WithCause(err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "NOT NULL constraint failed"):
		return store.ErrInvalidInput.WithCause(err)
	}
	return err
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// formatTime formats a time.Time for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// parseTime parses a stored timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

// nullString returns a sql.NullString, NULL for the empty string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableString returns a sql.NullString from a *string.
func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
