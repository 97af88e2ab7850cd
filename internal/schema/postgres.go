package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	modelsQuery = `
SELECT d.id, d.connection, m.id, m.name, m.description, m.has_categories
FROM metadata.domains d
JOIN metadata.models m ON m.domain_id = d.id
ORDER BY d.id, m.position, m.id
`
	tablesQuery = `
SELECT domain_id, model_id, id, name
FROM metadata.physical_tables
ORDER BY domain_id, model_id, id
`
	relationshipsQuery = `
SELECT domain_id, model_id, from_table, from_column, to_table, to_column, join_type
FROM metadata.relationships
ORDER BY domain_id, model_id, position
`
	columnsQuery = `
SELECT
	c.domain_id, c.model_id, c.id, c.name,
	col.id, col.name, col.data_type, col.field_type, col.default_agg,
	col.agg_types, col.format_mask, col.alignment, col.table_id, col.expr
FROM metadata.categories c
LEFT JOIN metadata.columns col
	ON col.domain_id = c.domain_id AND col.model_id = c.model_id AND col.category_id = c.id
ORDER BY c.domain_id, c.model_id, c.position, col.position
`
)

type modelKey struct{ domain, model string }

// LoadPostgres builds a Registry from the metadata repository tables.
func LoadPostgres(ctx context.Context, pool *pgxpool.Pool) (*Registry, error) {
	domains := make(map[string]*Domain)
	var order []string
	models := make(map[modelKey]*Model)

	rows, err := pool.Query(ctx, modelsQuery)
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	for rows.Next() {
		var (
			dID, dConn, mID, mName, mDesc string
			hasCategories                 bool
		)
		if err := rows.Scan(&dID, &dConn, &mID, &mName, &mDesc, &hasCategories); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan model: %w", err)
		}
		d, ok := domains[dID]
		if !ok {
			d = &Domain{ID: dID, Connection: dConn}
			domains[dID] = d
			order = append(order, dID)
		}
		m := &Model{ID: mID, Name: mName, Description: mDesc}
		if hasCategories {
			m.Categories = Some([]*Category{})
		}
		d.Models = append(d.Models, m)
		models[modelKey{dID, mID}] = m
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("model rows: %w", err)
	}

	if err := loadTables(ctx, pool, models); err != nil {
		return nil, err
	}
	if err := loadRelationships(ctx, pool, models); err != nil {
		return nil, err
	}
	if err := loadColumns(ctx, pool, models); err != nil {
		return nil, err
	}

	list := make([]*Domain, 0, len(order))
	for _, id := range order {
		list = append(list, domains[id])
	}
	return NewRegistry(list...)
}

func loadTables(ctx context.Context, pool *pgxpool.Pool, models map[modelKey]*Model) error {
	rows, err := pool.Query(ctx, tablesQuery)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dID, mID string
		var t PhysicalTable
		if err := rows.Scan(&dID, &mID, &t.ID, &t.Name); err != nil {
			return fmt.Errorf("scan table: %w", err)
		}
		if m := models[modelKey{dID, mID}]; m != nil {
			m.Tables = append(m.Tables, &t)
		}
	}
	return rows.Err()
}

func loadRelationships(ctx context.Context, pool *pgxpool.Pool, models map[modelKey]*Model) error {
	rows, err := pool.Query(ctx, relationshipsQuery)
	if err != nil {
		return fmt.Errorf("load relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			dID, mID string
			rel      Relationship
			join     string
		)
		if err := rows.Scan(&dID, &mID, &rel.From, &rel.FromColumn, &rel.To, &rel.ToColumn, &join); err != nil {
			return fmt.Errorf("scan relationship: %w", err)
		}
		if rel.Join, err = ParseJoinType(join); err != nil {
			return err
		}
		if m := models[modelKey{dID, mID}]; m != nil {
			m.Relationships = append(m.Relationships, rel)
		}
	}
	return rows.Err()
}

func loadColumns(ctx context.Context, pool *pgxpool.Pool, models map[modelKey]*Model) error {
	rows, err := pool.Query(ctx, columnsQuery)
	if err != nil {
		return fmt.Errorf("load columns: %w", err)
	}
	defer rows.Close()

	type catKey struct {
		modelKey
		id string
	}
	cats := make(map[catKey]*Category)

	for rows.Next() {
		var (
			dID, mID, cID, cName string
			colID, colName       *string
			dataType, fieldType  *string
			defaultAgg           *string
			aggTypes             []string
			formatMask           *string
			alignment            *string
			tableID, expr        *string
		)
		err := rows.Scan(
			&dID, &mID, &cID, &cName,
			&colID, &colName, &dataType, &fieldType, &defaultAgg,
			&aggTypes, &formatMask, &alignment, &tableID, &expr,
		)
		if err != nil {
			return fmt.Errorf("scan column: %w", err)
		}

		m := models[modelKey{dID, mID}]
		if m == nil {
			continue
		}
		key := catKey{modelKey{dID, mID}, cID}
		cat, ok := cats[key]
		if !ok {
			cat = &Category{ID: cID, Name: cName}
			cats[key] = cat
			m.Categories = Some(append(m.Categories.OrZero(), cat))
		}
		if colID == nil {
			continue
		}

		col := &Column{ID: *colID, Name: deref(colName), FormatMask: formatMask, Table: deref(tableID), Expr: deref(expr)}
		if col.Type, err = ParseDataType(deref(dataType)); err != nil {
			return err
		}
		if col.FieldType, err = ParseFieldType(deref(fieldType)); err != nil {
			return err
		}
		if col.DefaultAggType, err = ParseAggregationType(deref(defaultAgg)); err != nil {
			return err
		}
		if col.Alignment, err = ParseAlignment(deref(alignment)); err != nil {
			return err
		}
		for _, a := range aggTypes {
			agg, err := ParseAggregationType(a)
			if err != nil {
				return err
			}
			col.AggTypes = append(col.AggTypes, agg)
		}
		cat.Columns = append(cat.Columns, col)
	}
	return rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
