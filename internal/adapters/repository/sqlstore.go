package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

// Dialect selects the SQL flavour and database/sql driver.
type Dialect string

// Supported SQL dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore serves the fixed queries from relational tables. The scores and
// popularity indexes become ORDER BY ... DESC LIMIT over indexed columns.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	tables  Tables
	opts    options
}

// OpenSQL opens and pings a database for dialect.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, tables Tables, opts ...Option) (*SQLStore, error) {
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sql dsn is required")
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// one connection keeps in-memory databases alive and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}
	return NewSQLStore(db, dialect, tables, opts...), nil
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, dialect Dialect, tables Tables, opts ...Option) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, tables: tables, opts: newOptions(opts)}
}

// Dialect reports the SQL flavour of the store.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureSchema creates the three tables and their ranking indexes if missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	floatType := "REAL"
	if s.dialect == DialectPostgres {
		floatType = "DOUBLE PRECISION"
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			product_id TEXT PRIMARY KEY
		)`, quoteIdent(s.tables.Contributions)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			score %s NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, role)
		)`, quoteIdent(s.tables.Scores), floatType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			product_name TEXT PRIMARY KEY,
			type TEXT NOT NULL DEFAULT '%s',
			purchase_count BIGINT NOT NULL DEFAULT 0
		)`, quoteIdent(s.tables.Popularity), productType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (role, score DESC)`,
			quoteIdent(indexName(s.tables.ScoresIndex, s.tables.Scores)), quoteIdent(s.tables.Scores)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (type, purchase_count DESC)`,
			quoteIdent(indexName(s.tables.PopularityIndex, s.tables.Popularity)), quoteIdent(s.tables.Popularity)),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Exec runs a statement outside the fixed query shapes, for seeding and
// maintenance tooling. Operation handlers never call it.
func (s *SQLStore) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("%w: exec: %w", ErrStore, err)
	}
	return nil
}

// Query runs q as a single SELECT.
func (s *SQLStore) Query(ctx context.Context, q Query) ([]Item, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	backend := string(s.dialect)
	switch q.Kind {
	case KindContributions:
		return instrumented(ctx, s.opts.tracer, backend, s.tables.Contributions, q, s.contributions)
	case KindScores:
		return instrumented(ctx, s.opts.tracer, backend, s.tables.Scores, q, func(ctx context.Context) ([]Item, error) {
			return s.scores(ctx, q.Role, q.Limit)
		})
	default:
		return instrumented(ctx, s.opts.tracer, backend, s.tables.Popularity, q, s.popularity)
	}
}

func (s *SQLStore) contributions(ctx context.Context) ([]Item, error) {
	query := fmt.Sprintf(`SELECT product_id FROM %s`, quoteIdent(s.tables.Contributions))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var productID sql.NullString
		if err := rows.Scan(&productID); err != nil {
			return nil, err
		}
		items = append(items, Item{"productId": nullable(productID.Valid, productID.String)})
	}
	return items, rows.Err()
}

func (s *SQLStore) scores(ctx context.Context, role string, limit int) ([]Item, error) {
	query := fmt.Sprintf(`SELECT user_id, score FROM %s WHERE role = %s ORDER BY score DESC LIMIT %s`,
		quoteIdent(s.tables.Scores), s.placeholder(1), s.placeholder(2))
	rows, err := s.db.QueryContext(ctx, query, role, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0, limit)
	for rows.Next() {
		var (
			userID sql.NullString
			score  sql.NullFloat64
		)
		if err := rows.Scan(&userID, &score); err != nil {
			return nil, err
		}
		items = append(items, Item{
			"userId": nullable(userID.Valid, userID.String),
			"score":  nullable(score.Valid, score.Float64),
		})
	}
	return items, rows.Err()
}

func (s *SQLStore) popularity(ctx context.Context) ([]Item, error) {
	query := fmt.Sprintf(`SELECT product_name, purchase_count FROM %s WHERE type = %s ORDER BY purchase_count DESC LIMIT %d`,
		quoteIdent(s.tables.Popularity), s.placeholder(1), PopularityLimit)
	rows, err := s.db.QueryContext(ctx, query, productType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0, PopularityLimit)
	for rows.Next() {
		var (
			name  sql.NullString
			count sql.NullInt64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		items = append(items, Item{
			"productName":   nullable(name.Valid, name.String),
			"purchaseCount": nullable(count.Valid, count.Int64),
		})
	}
	return items, rows.Err()
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// nullable maps SQL NULL to nil so the item schema, not the scanner,
// rejects incomplete rows.
func nullable[T any](valid bool, v T) any {
	if !valid {
		return nil
	}
	return v
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func indexName(index, table string) string {
	if strings.TrimSpace(index) != "" {
		return index
	}
	return table + "_rank_idx"
}
