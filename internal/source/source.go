// Package source runs compiled plans against physical databases.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/atlekbai/metaquery/internal/compiler/sqlgen"
	"github.com/atlekbai/metaquery/internal/db"
)

// RawResult is a query result as the driver returned it.
type RawResult struct {
	Columns       []string
	DatabaseTypes []string
	Rows          [][]any
}

// Source is a physical database a model's connection points at.
type Source interface {
	Dialect() sqlgen.Dialect
	// Query runs stmt and returns at most limit rows. A negative limit
	// returns every row.
	Query(ctx context.Context, stmt *sqlgen.Statement, limit int) (*RawResult, error)
	Close() error
}

// Open connects to a source by driver name: postgres, sqlite3 or duckdb.
func Open(ctx context.Context, driver, dsn string) (Source, error) {
	dialect, err := sqlgen.DialectFor(driver)
	if err != nil {
		return nil, err
	}
	if dialect.Name == sqlgen.Postgres.Name {
		pool, err := db.NewPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return NewPgxSource(pool), nil
	}

	sqlDB, err := sql.Open(strings.ToLower(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return NewSQLSource(sqlDB, dialect), nil
}

// Sources maps model connection names to physical sources.
type Sources struct {
	byName   map[string]Source
	fallback Source
}

func NewSources() *Sources {
	return &Sources{byName: make(map[string]Source)}
}

// Add registers src under name. The first source added also becomes the
// default for connections that have no source of their own.
func (s *Sources) Add(name string, src Source) {
	s.byName[name] = src
	if s.fallback == nil {
		s.fallback = src
	}
}

// SetDefault replaces the source used for unknown connection names.
func (s *Sources) SetDefault(src Source) {
	s.fallback = src
}

// Lookup returns the source for a connection name.
func (s *Sources) Lookup(name string) (Source, error) {
	if src, ok := s.byName[name]; ok {
		return src, nil
	}
	if s.fallback == nil {
		return nil, fmt.Errorf("no source configured for connection %q", name)
	}
	return s.fallback, nil
}

// Len reports how many named sources are registered.
func (s *Sources) Len() int {
	return len(s.byName)
}

// Close closes every registered source.
func (s *Sources) Close() error {
	var errs *multierror.Error
	closed := make(map[Source]bool)
	for name, src := range s.byName {
		if closed[src] {
			continue
		}
		closed[src] = true
		if err := src.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	if s.fallback != nil && !closed[s.fallback] {
		if err := s.fallback.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close default source: %w", err))
		}
	}
	return errs.ErrorOrNil()
}
