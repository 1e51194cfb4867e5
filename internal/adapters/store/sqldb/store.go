// Package sqldb implements the quote store on a SQL database. SQLite
// (modernc.org/sqlite, pure Go) and PostgreSQL (lib/pq) are supported.
package sqldb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/jsamuelsen/quote-api/internal/domain"
)

// Dialect identifies the SQL flavour of the underlying database.
type Dialect string

const (
	// DialectSQLite uses the modernc.org/sqlite driver.
	DialectSQLite Dialect = "sqlite"

	// DialectPostgres uses the lib/pq driver.
	DialectPostgres Dialect = "postgres"
)

// ErrUnknownDialect is returned by Open for an unsupported driver name.
var ErrUnknownDialect = errors.New("unknown sql dialect")

const checkName = "database"

var (
	//go:embed schema_sqlite.sql
	schemaSQLite string

	//go:embed schema_postgres.sql
	schemaPostgres string
)

// ParseDialect validates a driver name from configuration.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(name)); d {
	case DialectSQLite, DialectPostgres:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

func (d Dialect) schema() string {
	if d == DialectPostgres {
		return schemaPostgres
	}

	return schemaSQLite
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var (
		b strings.Builder
		n int
	)

	b.Grow(len(query) + 8)

	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}

		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}

	return b.String()
}

// queries holds the dialect-specific statements.
type queries struct {
	list   string
	get    string
	random string
	insert string
	update string
	delete string
}

func newQueries(d Dialect) queries {
	return queries{
		list:   d.rebind(`SELECT id, quote, author FROM quotes ORDER BY seq`),
		get:    d.rebind(`SELECT id, quote, author FROM quotes WHERE id = ?`),
		random: d.rebind(`SELECT id, quote, author FROM quotes ORDER BY RANDOM() LIMIT 1`),
		insert: d.rebind(`INSERT INTO quotes (id, quote, author) VALUES (?, ?, ?)`),
		update: d.rebind(`UPDATE quotes SET quote = ?, author = ? WHERE id = ?`),
		delete: d.rebind(`DELETE FROM quotes WHERE id = ?`),
	}
}

// Store is a ports.QuoteStore backed by database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	q       queries
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the identifier source. Defaults to random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// Open connects to the database named by driver and dsn and prepares the
// schema. The returned Store owns the connection pool.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dialect, err)
	}

	// SQLite in-memory databases exist per connection.
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	s, err := New(ctx, db, dialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// New wraps an existing pool and creates the quotes table if needed.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	s := &Store{
		db:      db,
		dialect: dialect,
		q:       newQueries(dialect),
		newID:   uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema()); err != nil {
		return fmt.Errorf("creating quotes schema: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return checkName
}

// Check implements ports.HealthChecker by pinging the database.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List returns every quote in insertion order.
func (s *Store) List(ctx context.Context) ([]*domain.Quote, error) {
	rows, err := s.db.QueryContext(ctx, s.q.list)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]*domain.Quote, 0)

	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("listing quotes: %w", err)
		}

		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	return quotes, nil
}

// Get returns the quote with the given id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Quote, error) {
	q, err := scanQuote(s.db.QueryRowContext(ctx, s.q.get, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.QuoteNotFound(id)
	}

	if err != nil {
		return nil, fmt.Errorf("getting quote %q: %w", id, err)
	}

	return q, nil
}

// Random returns one quote picked by the database.
func (s *Store) Random(ctx context.Context) (*domain.Quote, error) {
	q, err := scanQuote(s.db.QueryRowContext(ctx, s.q.random))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.QuoteNotFound("")
	}

	if err != nil {
		return nil, fmt.Errorf("selecting random quote: %w", err)
	}

	return q, nil
}

// Create inserts a quote under a fresh identifier.
func (s *Store) Create(ctx context.Context, in domain.QuoteInput) (*domain.Quote, error) {
	q := &domain.Quote{
		ID:     s.newID(),
		Text:   in.Text,
		Author: in.Author,
	}

	if _, err := s.db.ExecContext(ctx, s.q.insert, q.ID, q.Text, q.Author); err != nil {
		return nil, fmt.Errorf("inserting quote: %w", err)
	}

	return q, nil
}

// Update replaces the text and author of an existing quote.
func (s *Store) Update(ctx context.Context, q *domain.Quote) error {
	res, err := s.db.ExecContext(ctx, s.q.update, q.Text, q.Author, q.ID)
	if err != nil {
		return fmt.Errorf("updating quote %q: %w", q.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating quote %q: %w", q.ID, err)
	}

	if n == 0 {
		return domain.QuoteNotFound(q.ID)
	}

	return nil
}

// Delete removes a quote. Deleting an absent id succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.q.delete, id); err != nil {
		return fmt.Errorf("deleting quote %q: %w", id, err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (*domain.Quote, error) {
	var q domain.Quote
	if err := row.Scan(&q.ID, &q.Text, &q.Author); err != nil {
		return nil, err
	}

	return &q, nil
}
