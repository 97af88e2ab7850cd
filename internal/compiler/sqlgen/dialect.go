package sqlgen

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect captures the syntax differences between physical sources.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// DateValue wraps a single placeholder so the bound string compares as
	// a date.
	DateValue string
}

var (
	Postgres = Dialect{Name: "postgres", Placeholder: sq.Dollar, DateValue: "CAST(? AS DATE)"}
	SQLite   = Dialect{Name: "sqlite3", Placeholder: sq.Question, DateValue: "DATE(?)"}
	DuckDB   = Dialect{Name: "duckdb", Placeholder: sq.Question, DateValue: "CAST(? AS DATE)"}
)

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "duckdb":
		return DuckDB, nil
	}
	return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
}

// QuoteIdent quotes a SQL identifier, escaping embedded double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteTable quotes a possibly schema-qualified table name segment by segment.
func QuoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}
