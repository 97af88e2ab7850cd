package sqlgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/metaquery/internal/compiler"
	"github.com/atlekbai/metaquery/internal/compiler/sqlgen"
	"github.com/atlekbai/metaquery/internal/query"
	"github.com/atlekbai/metaquery/internal/sampledata"
	"github.com/atlekbai/metaquery/internal/schema"
)

func compile(t *testing.T, req *query.Request) *compiler.Plan {
	t.Helper()
	reg, err := sampledata.Registry()
	require.NoError(t, err)
	plan, err := compiler.Compile(reg, req)
	require.NoError(t, err)
	return plan
}

func translate(t *testing.T, req *query.Request, d sqlgen.Dialect, limit int) *sqlgen.Statement {
	t.Helper()
	stmt, err := sqlgen.Translate(compile(t, req), d, limit)
	require.NoError(t, err)
	return stmt
}

func TestTranslateProductSales(t *testing.T) {
	stmt := translate(t, sampledata.ProductSalesIn("Australia", true), sqlgen.SQLite, -1)

	want := `SELECT DISTINCT "PT_PRODUCTS"."PRODUCTLINE" AS "BC_PRODUCTS_PRODUCTLINE", ` +
		`"PT_PRODUCTS"."PRODUCTNAME" AS "BC_PRODUCTS_PRODUCTNAME", ` +
		`"PT_PRODUCTS"."PRODUCTCODE" AS "BC_PRODUCTS_PRODUCTCODE", ` +
		`SUM("PT_ORDERDETAILS"."QUANTITYORDERED") AS "BC_ORDERDETAILS_QUANTITYORDERED", ` +
		`SUM("PT_ORDERDETAILS"."TOTAL") AS "BC_ORDERDETAILS_TOTAL", ` +
		`"PT_CUSTOMER_W_TER"."COUNTRY" AS "BC_CUSTOMER_W_TER_COUNTRY" ` +
		`FROM "PRODUCTS" "PT_PRODUCTS" ` +
		`JOIN "ORDERDETAILS" "PT_ORDERDETAILS" ON "PT_PRODUCTS"."PRODUCTCODE" = "PT_ORDERDETAILS"."PRODUCTCODE" ` +
		`JOIN "ORDERS" "PT_ORDERS" ON "PT_ORDERDETAILS"."ORDERNUMBER" = "PT_ORDERS"."ORDERNUMBER" ` +
		`JOIN "CUSTOMER_W_TER" "PT_CUSTOMER_W_TER" ON "PT_ORDERS"."CUSTOMERNUMBER" = "PT_CUSTOMER_W_TER"."CUSTOMERNUMBER" ` +
		`WHERE "PT_CUSTOMER_W_TER"."COUNTRY" = ? ` +
		`GROUP BY "PT_PRODUCTS"."PRODUCTLINE", "PT_PRODUCTS"."PRODUCTNAME", "PT_PRODUCTS"."PRODUCTCODE", "PT_CUSTOMER_W_TER"."COUNTRY" ` +
		`ORDER BY "BC_ORDERDETAILS_QUANTITYORDERED" ASC`

	assert.Equal(t, want, stmt.SQL)
	assert.Equal(t, []any{"Australia"}, stmt.Args)
	assert.Equal(t, []string{
		"BC_PRODUCTS_PRODUCTLINE", "BC_PRODUCTS_PRODUCTNAME", "BC_PRODUCTS_PRODUCTCODE",
		"BC_ORDERDETAILS_QUANTITYORDERED", "BC_ORDERDETAILS_TOTAL", "BC_CUSTOMER_W_TER_COUNTRY",
	}, stmt.Columns)
}

func TestTranslatePostgresPlaceholdersAndLimit(t *testing.T) {
	req := sampledata.ProductSales(false)
	req.Conditions = []query.Condition{
		{Expression: `IN([BC_CUSTOMER_W_TER_.BC_CUSTOMER_W_TER_COUNTRY];"Canada";"Germany")`},
		{Expression: `[CAT_ORDERS.BC_ORDERS_ORDERDATE] >=DATEVALUE("2004-01-01")`, CombinationType: query.CombineAnd},
	}
	stmt := translate(t, req, sqlgen.Postgres, 10)

	assert.Contains(t, stmt.SQL, `WHERE ("PT_CUSTOMER_W_TER"."COUNTRY" IN ($1, $2) AND "PT_ORDERS"."ORDERDATE" >= CAST($3 AS DATE))`)
	assert.Contains(t, stmt.SQL, " LIMIT 10")
	assert.Equal(t, []any{"Canada", "Germany", "2004-01-01"}, stmt.Args)
}

func TestTranslateNoDistinctNoGrouping(t *testing.T) {
	req := &query.Request{
		DomainID:        sampledata.DomainID,
		ModelID:         sampledata.OrdersModel,
		DisableDistinct: true,
		Selections:      []query.Selection{{Category: sampledata.ProductsCat, Column: sampledata.LineColumn}},
	}
	stmt := translate(t, req, sqlgen.SQLite, -1)
	assert.Equal(t, `SELECT "PT_PRODUCTS"."PRODUCTLINE" AS "BC_PRODUCTS_PRODUCTLINE" FROM "PRODUCTS" "PT_PRODUCTS"`, stmt.SQL)
	assert.Empty(t, stmt.Args)
}

func TestTranslateHaving(t *testing.T) {
	req := sampledata.ProductSales(false)
	req.Conditions = []query.Condition{
		{Expression: `[CAT_ORDERS.BC_ORDERDETAILS_QUANTITYORDERED.SUM] > "150"`},
	}
	stmt := translate(t, req, sqlgen.SQLite, -1)
	assert.Contains(t, stmt.SQL, `HAVING SUM("PT_ORDERDETAILS"."QUANTITYORDERED") > ?`)
	assert.NotContains(t, stmt.SQL, "WHERE")
	assert.Equal(t, []any{int64(150)}, stmt.Args, "numeric column binds its literal as a number")
}

func TestTranslateStringFunctions(t *testing.T) {
	tests := []struct {
		expr     string
		wantSQL  string
		wantArgs []any
	}{
		{`CONTAINS([CAT_PRODUCTS.BC_PRODUCTS_PRODUCTLINE];"Car")`, `"PT_PRODUCTS"."PRODUCTLINE" LIKE ? ESCAPE '\'`, []any{"%Car%"}},
		{`BEGINSWITH([CAT_PRODUCTS.BC_PRODUCTS_PRODUCTLINE];"Cl")`, `"PT_PRODUCTS"."PRODUCTLINE" LIKE ? ESCAPE '\'`, []any{"Cl%"}},
		{`ENDSWITH([CAT_PRODUCTS.BC_PRODUCTS_PRODUCTLINE];"es")`, `"PT_PRODUCTS"."PRODUCTLINE" LIKE ? ESCAPE '\'`, []any{"%es"}},
		{`CONTAINS([CAT_PRODUCTS.BC_PRODUCTS_PRODUCTLINE];"50%_off")`, `"PT_PRODUCTS"."PRODUCTLINE" LIKE ? ESCAPE '\'`, []any{`%50\%\_off%`}},
		{`BEGINSWITH([CAT_PRODUCTS.BC_PRODUCTS_PRODUCTLINE];"a\b")`, `"PT_PRODUCTS"."PRODUCTLINE" LIKE ? ESCAPE '\'`, []any{`a\\b%`}},
		{`LIKE([CAT_PRODUCTS.BC_PRODUCTS_PRODUCTLINE];"Cl_ssic%")`, `"PT_PRODUCTS"."PRODUCTLINE" LIKE ?`, []any{"Cl_ssic%"}},
		{`NOT(ISNA([CAT_PRODUCTS.BC_PRODUCTS_PRODUCTLINE]))`, `NOT ("PT_PRODUCTS"."PRODUCTLINE" IS NULL)`, nil},
		{`OR([CAT_PRODUCTS.BC_PRODUCTS_PRODUCTLINE] = "Ships";TRUE())`, `("PT_PRODUCTS"."PRODUCTLINE" = ? OR 1 = 1)`, []any{"Ships"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			req := sampledata.ProductSales(false)
			req.Conditions = []query.Condition{{Expression: tt.expr}}
			stmt := translate(t, req, sqlgen.SQLite, -1)
			assert.Contains(t, stmt.SQL, "WHERE "+tt.wantSQL+" GROUP BY")
			assert.Equal(t, tt.wantArgs, stmt.Args)
		})
	}
}

func TestTranslateAggregations(t *testing.T) {
	req := &query.Request{
		DomainID: sampledata.DomainID,
		ModelID:  sampledata.OrdersModel,
		Selections: []query.Selection{
			{Category: sampledata.OrdersCat, Column: "BC_ORDERS_ORDERNUMBER", AggType: schema.AggCountDistinct},
			{Category: sampledata.OrdersCat, Column: sampledata.QuantityColumn, AggType: schema.AggAverage},
			{Category: sampledata.OrdersCat, Column: "BC_ORDERDETAILS_PRICEEACH", AggType: schema.AggMaximum},
		},
		Orders: []query.Order{{Category: sampledata.ProductsCat, Column: sampledata.LineColumn, Direction: query.Desc}},
	}
	stmt := translate(t, req, sqlgen.DuckDB, -1)
	assert.Contains(t, stmt.SQL, `COUNT(DISTINCT "PT_ORDERS"."ORDERNUMBER") AS "BC_ORDERS_ORDERNUMBER"`)
	assert.Contains(t, stmt.SQL, `AVG("PT_ORDERDETAILS"."QUANTITYORDERED")`)
	assert.Contains(t, stmt.SQL, `MAX("PT_ORDERDETAILS"."PRICEEACH")`)
	assert.Contains(t, stmt.SQL, `GROUP BY "PT_PRODUCTS"."PRODUCTLINE" ORDER BY "PT_PRODUCTS"."PRODUCTLINE" DESC`)
	assert.Contains(t, stmt.SQL, `FROM "ORDERS" "PT_ORDERS" JOIN "ORDERDETAILS" "PT_ORDERDETAILS"`)
}

func TestTranslateLeftJoin(t *testing.T) {
	req := &query.Request{
		DomainID: sampledata.DomainID,
		ModelID:  sampledata.OrdersModel,
		Selections: []query.Selection{
			{Category: sampledata.CustomerCat, Column: "BC_CUSTOMER_W_TER_CUSTOMERNAME"},
			{Category: "CAT_PAYMENTS", Column: "BC_PAYMENTS_AMOUNT", AggType: schema.AggSum},
		},
	}
	stmt := translate(t, req, sqlgen.SQLite, -1)
	assert.Contains(t, stmt.SQL, `LEFT JOIN "PAYMENTS" "PT_PAYMENTS" ON "PT_CUSTOMER_W_TER"."CUSTOMERNUMBER" = "PT_PAYMENTS"."CUSTOMERNUMBER"`)
	assert.NotContains(t, stmt.SQL, `"ORDERS"`)
}

func TestDialectFor(t *testing.T) {
	for driver, want := range map[string]sqlgen.Dialect{
		"postgres": sqlgen.Postgres,
		"pgx":      sqlgen.Postgres,
		"sqlite3":  sqlgen.SQLite,
		"duckdb":   sqlgen.DuckDB,
	} {
		got, err := sqlgen.DialectFor(driver)
		require.NoError(t, err)
		assert.Equal(t, want.Name, got.Name)
	}
	_, err := sqlgen.DialectFor("oracle")
	assert.Error(t, err)
}

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"public"."orders"`, sqlgen.QuoteTable("public.orders"))
	assert.Equal(t, `"we""ird"`, sqlgen.QuoteIdent(`we"ird`))
}
