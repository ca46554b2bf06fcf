package dbx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Dialect names a supported SQL engine.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ErrDuplicate is returned by MapError for unique-constraint violations.
var ErrDuplicate = errors.New("duplicate record")

// ParseDialect validates a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case SQLite:
		return SQLite, nil
	case Postgres:
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", s)
	}
}

// DriverName returns the database/sql driver registered for d.
// pgx's stdlib registers itself as "pgx".
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// GooseDialect returns the goose dialect name for d.
func (d Dialect) GooseDialect() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

// Rebind rewrites '?' placeholders into the form expected by d.
// Queries must not contain literal question marks.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// MapError maps unique-constraint violations to ErrDuplicate, keeping the
// original error in the chain. The check is string based so repositories
// do not import driver packages.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	le := strings.ToLower(err.Error())
	// SQLite "UNIQUE constraint failed", Postgres unique_violation (23505)
	if strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "duplicate key") {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}
