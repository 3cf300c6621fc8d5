package store

import (
	"strconv"
	"strings"
)

// Dialect selects placeholder style and DDL for a backend.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Rebind rewrites '?' placeholders into the dialect's native form.
// Queries in this package never contain a literal '?'.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// schema returns the DDL statements for the optimization log table.
func (d Dialect) schema() []string {
	idColumn := "id BIGSERIAL PRIMARY KEY"
	createdAt := "created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP"
	if d == SQLite {
		idColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT"
		createdAt = "created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS ` + TableName + ` (
		` + idColumn + `,
		original_content TEXT NOT NULL,
		analyst_prompt TEXT,
		analyst_result TEXT,
		architect_prompt TEXT,
		architect_result TEXT,
		writer_prompt TEXT,
		writer_result TEXT,
		evaluation TEXT,
		` + createdAt + `
	)`,
		`CREATE INDEX IF NOT EXISTS ` + createdAtIndex + ` ON ` + TableName + ` (created_at DESC)`,
	}
}
