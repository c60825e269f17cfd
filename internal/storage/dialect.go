// internal/storage/dialect.go
package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect holds what differs between backends. Queries are written with
// "?" placeholders and rebound per dialect.
type dialect struct {
	name        string
	driver      string
	schema      string
	positional  bool
	maxOpen     int
	maxLifetime time.Duration
}

var sqliteDialect = dialect{
	name:    DriverSQLite,
	driver:  "sqlite",
	maxOpen: 1,
	schema: `
    CREATE TABLE IF NOT EXISTS requests (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        budget REAL NOT NULL CHECK (budget > 0),
        diets TEXT NOT NULL DEFAULT '[]',
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meals (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id INTEGER NOT NULL REFERENCES requests(id),
        title TEXT NOT NULL CHECK (title <> ''),
        price REAL NOT NULL DEFAULT 0 CHECK (price >= 0),
        diets TEXT NOT NULL DEFAULT '[]',
        source_url TEXT NOT NULL DEFAULT ''
    );

    CREATE TABLE IF NOT EXISTS feedback (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id INTEGER NOT NULL REFERENCES requests(id),
        satisfied INTEGER NOT NULL,
        comments TEXT NOT NULL DEFAULT ''
    );

    CREATE INDEX IF NOT EXISTS idx_meals_request_id ON meals(request_id);
    CREATE INDEX IF NOT EXISTS idx_feedback_request_id ON feedback(request_id);
    `,
}

var postgresDialect = dialect{
	name:        DriverPostgres,
	driver:      "postgres",
	positional:  true,
	maxOpen:     5,
	maxLifetime: 5 * time.Minute,
	schema: `
    CREATE TABLE IF NOT EXISTS requests (
        id BIGSERIAL PRIMARY KEY,
        budget DOUBLE PRECISION NOT NULL CHECK (budget > 0),
        diets TEXT NOT NULL DEFAULT '[]',
        created_at TIMESTAMPTZ NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meals (
        id BIGSERIAL PRIMARY KEY,
        request_id BIGINT NOT NULL REFERENCES requests(id),
        title TEXT NOT NULL CHECK (title <> ''),
        price DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (price >= 0),
        diets TEXT NOT NULL DEFAULT '[]',
        source_url TEXT NOT NULL DEFAULT ''
    );

    CREATE TABLE IF NOT EXISTS feedback (
        id BIGSERIAL PRIMARY KEY,
        request_id BIGINT NOT NULL REFERENCES requests(id),
        satisfied BOOLEAN NOT NULL,
        comments TEXT NOT NULL DEFAULT ''
    );

    CREATE INDEX IF NOT EXISTS idx_meals_request_id ON meals(request_id);
    CREATE INDEX IF NOT EXISTS idx_feedback_request_id ON feedback(request_id);
    `,
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

// rebind rewrites "?" placeholders to $1..$n for positional dialects.
func (d dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteDSN appends the pragmas every connection needs. Foreign keys are off
// by default in SQLite.
func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path + "?_pragma=foreign_keys(1)"
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
