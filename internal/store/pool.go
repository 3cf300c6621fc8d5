package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"techwriter/internal/config"
)

// Pool owns the database connections for one process. It is constructed once
// at startup and handed to New; Close releases every connection.
type Pool struct {
	db      *sql.DB
	pg      *pgxpool.Pool // nil for sqlite
	dialect Dialect
}

// OpenPool opens the pool described by cfg. For postgres the pgx pool is
// bounded by PoolMin/PoolMax and dials lazily, so an unreachable server only
// surfaces when the first operation runs.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverSQLite:
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pcfg.MinConns = int32(cfg.PoolMin)
	pcfg.MaxConns = int32(cfg.PoolMax)

	pg, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &Pool{
		db:      stdlib.OpenDBFromPool(pg),
		pg:      pg,
		dialect: Postgres,
	}, nil
}

// OpenSQLite opens a single-writer SQLite database at path (":memory:" allowed).
func OpenSQLite(path string) (*Pool, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer; an in-memory database also lives
	// exactly as long as its single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}

	return &Pool{db: db, dialect: SQLite}, nil
}

// DB returns the database/sql handle backed by the pool.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Dialect reports the SQL dialect of the pool.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Ping checks out a connection and verifies the server answers.
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return newStorageError("ping", err)
	}
	return nil
}

// Close releases every connection. Safe to call more than once.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	err := p.db.Close()
	if p.pg != nil {
		p.pg.Close()
	}
	return err
}
