package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atlekbai/metaquery/internal/compiler/sqlgen"
)

// SQLSource runs statements through database/sql. It serves the sqlite3 and
// duckdb drivers.
type SQLSource struct {
	db      *sql.DB
	dialect sqlgen.Dialect
}

func NewSQLSource(db *sql.DB, dialect sqlgen.Dialect) *SQLSource {
	return &SQLSource{db: db, dialect: dialect}
}

func (s *SQLSource) Dialect() sqlgen.Dialect { return s.dialect }

func (s *SQLSource) Query(ctx context.Context, stmt *sqlgen.Statement, limit int) (*RawResult, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &RawResult{}
	if res.Columns, err = rows.Columns(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}
	for _, ct := range colTypes {
		res.DatabaseTypes = append(res.DatabaseTypes, ct.DatabaseTypeName())
	}

	for rows.Next() {
		if limit >= 0 && len(res.Rows) >= limit {
			break
		}
		values := make([]any, len(res.Columns))
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}
