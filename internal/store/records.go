package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	// TableName is the only table this package touches.
	TableName      = "article_optimization_logs"
	createdAtIndex = "idx_" + TableName + "_created_at"

	// DefaultListLimit is the page size callers use when none is given.
	DefaultListLimit = 100
)

const recordColumns = `id, original_content,
	analyst_prompt, analyst_result,
	architect_prompt, architect_result,
	writer_prompt, writer_result,
	evaluation, created_at`

// Record is one persisted pipeline run.
type Record struct {
	ID              int64     `json:"id"`
	OriginalContent string    `json:"original_content"`
	AnalystPrompt   string    `json:"analyst_prompt,omitempty"`
	AnalystResult   string    `json:"analyst_result,omitempty"`
	ArchitectPrompt string    `json:"architect_prompt,omitempty"`
	ArchitectResult string    `json:"architect_result,omitempty"`
	WriterPrompt    string    `json:"writer_prompt,omitempty"`
	WriterResult    string    `json:"writer_result,omitempty"`
	Evaluation      string    `json:"evaluation,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store is the append-only log of pipeline runs. There is no update or
// delete path; retention is handled outside this program.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the insertion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New wraps db. The caller keeps ownership of the pool behind db.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromPool is New using the pool's handle and dialect.
func NewFromPool(p *Pool, opts ...Option) *Store {
	return New(p.DB(), p.Dialect(), opts...)
}

// EnsureSchema creates the table and its created_at index if absent.
// Safe to call on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.withTx(ctx, "ensure_schema", func(tx *sql.Tx) error {
		for _, stmt := range s.dialect.schema() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		s.logger.Debug("schema ensured", zap.String("table", TableName))
		return nil
	})
}

// Insert appends rec and returns the generated id. rec.ID and rec.CreatedAt
// are ignored; the timestamp is the current UTC time.
func (s *Store) Insert(ctx context.Context, rec Record) (int64, error) {
	if rec.OriginalContent == "" {
		return 0, newStorageError("insert", ErrEmptyContent)
	}

	createdAt := s.now().UTC().Truncate(time.Microsecond)
	query := s.dialect.Rebind(`INSERT INTO ` + TableName + ` (
		original_content,
		analyst_prompt, analyst_result,
		architect_prompt, architect_result,
		writer_prompt, writer_result,
		evaluation, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id`)

	var id int64
	err := s.withTx(ctx, "insert", func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query,
			rec.OriginalContent,
			nullString(rec.AnalystPrompt), nullString(rec.AnalystResult),
			nullString(rec.ArchitectPrompt), nullString(rec.ArchitectResult),
			nullString(rec.WriterPrompt), nullString(rec.WriterResult),
			nullString(rec.Evaluation), createdAt,
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("record inserted", zap.Int64("id", id))
	return id, nil
}

// FindByID returns the record with id, or nil when none exists.
func (s *Store) FindByID(ctx context.Context, id int64) (*Record, error) {
	query := s.dialect.Rebind(`SELECT ` + recordColumns + ` FROM ` + TableName + ` WHERE id = ?`)

	var rec *Record
	err := s.withTx(ctx, "find_by_id", func(tx *sql.Tx) error {
		r, err := scanRecord(tx.QueryRowContext(ctx, query, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindAll lists at most limit records, newest first. A zero limit returns
// nothing; a negative limit is an error.
func (s *Store) FindAll(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit < 0 {
		return nil, newStorageError("find_all", ErrInvalidLimit)
	}
	if offset < 0 {
		offset = 0
	}

	query := s.dialect.Rebind(`SELECT ` + recordColumns + ` FROM ` + TableName + `
	ORDER BY created_at DESC, id DESC
	LIMIT ? OFFSET ?`)

	var out []Record
	err := s.withTx(ctx, "find_all", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, *r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.withTx(ctx, "count", func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+TableName).Scan(&n)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// withTx runs fn on one pooled connection inside a transaction. It commits
// when fn succeeds and rolls back on error or panic; the connection goes back
// to the pool on every path.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newStorageError(op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("rollback failed", zap.String("op", op), zap.Error(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return newStorageError(op, err)
	}
	if err = tx.Commit(); err != nil {
		return newStorageError(op, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		r                                Record
		analystPrompt, analystResult     sql.NullString
		architectPrompt, architectResult sql.NullString
		writerPrompt, writerResult       sql.NullString
		evaluation                       sql.NullString
		createdAt                        sql.NullTime
	)
	if err := row.Scan(
		&r.ID, &r.OriginalContent,
		&analystPrompt, &analystResult,
		&architectPrompt, &architectResult,
		&writerPrompt, &writerResult,
		&evaluation, &createdAt,
	); err != nil {
		return nil, err
	}

	r.AnalystPrompt = analystPrompt.String
	r.AnalystResult = analystResult.String
	r.ArchitectPrompt = architectPrompt.String
	r.ArchitectResult = architectResult.String
	r.WriterPrompt = writerPrompt.String
	r.WriterResult = writerResult.String
	r.Evaluation = evaluation.String
	if createdAt.Valid {
		r.CreatedAt = createdAt.Time.UTC()
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
