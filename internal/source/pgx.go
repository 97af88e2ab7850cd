package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlekbai/metaquery/internal/compiler/sqlgen"
)

// PgxSource runs statements on a Postgres pool. Each query holds one pooled
// connection until its rows are closed.
type PgxSource struct {
	pool *pgxpool.Pool
}

func NewPgxSource(pool *pgxpool.Pool) *PgxSource {
	return &PgxSource{pool: pool}
}

func (s *PgxSource) Dialect() sqlgen.Dialect { return sqlgen.Postgres }

func (s *PgxSource) Query(ctx context.Context, stmt *sqlgen.Statement, limit int) (*RawResult, error) {
	rows, err := s.pool.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &RawResult{}
	types := rows.Conn().TypeMap()
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
		name := fmt.Sprintf("oid:%d", fd.DataTypeOID)
		if t, ok := types.TypeForOID(fd.DataTypeOID); ok {
			name = t.Name
		}
		res.DatabaseTypes = append(res.DatabaseTypes, name)
	}

	for rows.Next() {
		if limit >= 0 && len(res.Rows) >= limit {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *PgxSource) Close() error {
	s.pool.Close()
	return nil
}
