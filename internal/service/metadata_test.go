package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/metaquery/internal/codec"
	"github.com/atlekbai/metaquery/internal/compiler/sqlgen"
	"github.com/atlekbai/metaquery/internal/query"
	"github.com/atlekbai/metaquery/internal/sampledata"
	"github.com/atlekbai/metaquery/internal/schema"
	"github.com/atlekbai/metaquery/internal/service"
	"github.com/atlekbai/metaquery/internal/source"
)

const countryJSON = `{"columns":[{"category":"BC_CUSTOMER_W_TER_","id":"BC_CUSTOMER_W_TER_COUNTRY","selectedAggType":"NONE"}],"conditions":[{"category":"BC_CUSTOMER_W_TER_","column":"BC_CUSTOMER_W_TER_COUNTRY","combinationType":"AND","operator":"EQUAL","value":["Australia"]}],"disableDistinct":false,"domainName":"steel-wheels","modelId":"BV_ORDERS","orders":[{"category":"BC_CUSTOMER_W_TER_","column":"BC_CUSTOMER_W_TER_COUNTRY","orderType":"ASC"}],"parameters":[]}`

func newService(t *testing.T, opts ...service.Option) *service.MetadataService {
	t.Helper()
	db, err := sampledata.OpenSQLite(context.Background())
	require.NoError(t, err)

	sources := source.NewSources()
	sources.Add(sampledata.Connection, source.NewSQLSource(db, sqlgen.SQLite))
	t.Cleanup(func() { sources.Close() })

	reg, err := sampledata.Registry()
	require.NoError(t, err)
	return service.New(reg, source.NewExecutor(sources), opts...)
}

func mql(t *testing.T, req *query.Request) string {
	t.Helper()
	data, err := codec.EncodeXML(req, nil)
	require.NoError(t, err)
	return string(data)
}

func TestDoQuery(t *testing.T) {
	svc := newService(t)
	tests := []struct {
		name      string
		req       *query.Request
		limit     int
		wantRows  int
		firstLine string
	}{
		{"australia", sampledata.ProductSalesIn("Australia", true), -1, 82, "Planes"},
		{"canada", sampledata.ProductSalesIn("Canada", true), -1, 48, "Ships"},
		{"germany", sampledata.ProductSalesParameterized("Canada", "Germany"), -1, 45, "Planes"},
		{"row limit", sampledata.ProductSalesIn("Australia", true), 10, 10, "Planes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, found, err := svc.DoQuery(context.Background(), tt.req, tt.limit)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, tt.wantRows, rs.RowCount())
			assert.Equal(t, tt.firstLine, rs.Rows[0][0])
			for _, row := range rs.Rows {
				assert.Len(t, row, len(rs.ColumnNames))
			}
		})
	}
}

func TestDoQueryMaxRows(t *testing.T) {
	svc := newService(t, service.WithMaxRows(3))
	rs, found, err := svc.DoQuery(context.Background(), sampledata.ProductSalesIn("Australia", true), 10)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, rs.RowCount())
}

func TestDoQueryAbsence(t *testing.T) {
	svc := newService(t)
	tests := []struct {
		name   string
		mutate func(*query.Request)
	}{
		{"unknown domain", func(r *query.Request) { r.DomainID = "bogus" }},
		{"empty model", func(r *query.Request) { r.ModelID = "" }},
		{"unknown column", func(r *query.Request) { r.Selections[0].Column = "BC_NOPE" }},
		{"unknown condition column", func(r *query.Request) { r.Conditions[0].Column = "BC_NOPE" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampledata.ProductSalesIn("Australia", false)
			tt.mutate(req)
			rs, found, err := svc.DoQuery(context.Background(), req, -1)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, rs)
		})
	}
}

func TestDoQueryMixedDisjunction(t *testing.T) {
	svc := newService(t)
	tests := []struct {
		name     string
		quantity string
		wantRows int
	}{
		{"every group matches the aggregate", "0", 285},
		{"no group matches the aggregate", "1000000", 82},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampledata.ProductSalesIn("Australia", true)
			req.Conditions = append(req.Conditions, query.Condition{
				Expression:      "[CAT_ORDERS.BC_ORDERDETAILS_QUANTITYORDERED.SUM] > " + tt.quantity,
				CombinationType: query.CombineOr,
			})
			rs, found, err := svc.DoQuery(context.Background(), req, -1)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.wantRows, rs.RowCount())
		})
	}

	req := sampledata.ProductSalesIn("Australia", false)
	req.Conditions = append(req.Conditions, query.Condition{
		Expression:      "[CAT_ORDERS.BC_ORDERDETAILS_QUANTITYORDERED.SUM] > 0",
		CombinationType: query.CombineOr,
	})
	_, found, err := svc.DoQuery(context.Background(), req, -1)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestDoQueryNumericSpellings(t *testing.T) {
	svc := newService(t)
	for _, v := range []string{"1000", "1e3", "+1000", ".5"} {
		t.Run(v, func(t *testing.T) {
			req := sampledata.ProductSalesIn("Australia", true)
			req.Conditions = append(req.Conditions, query.Condition{
				Category:        sampledata.OrdersCat,
				Column:          sampledata.QuantityColumn,
				Operator:        query.OpGreaterThan,
				Value:           []string{v},
				CombinationType: query.CombineAnd,
			})
			_, found, err := svc.DoQuery(context.Background(), req, -1)
			require.NoError(t, err)
			assert.True(t, found)
		})
	}
}

func TestDoQueryContainsMatchesLiterally(t *testing.T) {
	svc := newService(t)
	tests := []struct {
		value    string
		wantRows int
	}{
		{"Cars", 2},
		{"_", 0},
		{"%", 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			req := &query.Request{
				DomainID:   sampledata.DomainID,
				ModelID:    sampledata.OrdersModel,
				Selections: []query.Selection{{Category: sampledata.ProductsCat, Column: sampledata.LineColumn}},
				Conditions: []query.Condition{{
					Category: sampledata.ProductsCat,
					Column:   sampledata.LineColumn,
					Operator: query.OpContains,
					Value:    []string{tt.value},
				}},
			}
			rs, found, err := svc.DoQuery(context.Background(), req, -1)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.wantRows, rs.RowCount())
		})
	}
}

func TestDoQueryDistinct(t *testing.T) {
	svc := newService(t)
	req := &query.Request{
		DomainID:   sampledata.DomainID,
		ModelID:    sampledata.OrdersModel,
		Selections: []query.Selection{{Category: sampledata.ProductsCat, Column: sampledata.LineColumn}},
		Conditions: sampledata.ProductSalesIn("Australia", false).Conditions,
	}
	rs, _, err := svc.DoQuery(context.Background(), req, -1)
	require.NoError(t, err)
	assert.Equal(t, 7, rs.RowCount())

	req.DisableDistinct = true
	rs, _, err = svc.DoQuery(context.Background(), req, -1)
	require.NoError(t, err)
	assert.Equal(t, 82, rs.RowCount())
}

func TestDoXMLQuery(t *testing.T) {
	svc := newService(t)
	rs, found, err := svc.DoXMLQuery(context.Background(), mql(t, sampledata.ProductSalesIn("Canada", true)), -1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 48, rs.RowCount())
	assert.Equal(t, "Ships", rs.Rows[0][0])
}

func TestDoXMLQueryMalformed(t *testing.T) {
	svc := newService(t)
	_, found, err := svc.DoXMLQuery(context.Background(), "<mql><domain_id>", -1)
	var de *codec.DecodeError
	require.ErrorAs(t, err, &de)
	assert.False(t, found)
}

func TestDoXMLQueryToCDAJSON(t *testing.T) {
	svc := newService(t)
	data, found, err := svc.DoXMLQueryToCDAJSON(context.Background(), mql(t, sampledata.ProductSales(false)), -1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(data), `"STRING"`)
	assert.Contains(t, string(data), "Classic Cars")

	var doc struct {
		QueryInfo struct {
			TotalRows int `json:"totalRows"`
		} `json:"queryInfo"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, sampledata.ProductCount, doc.QueryInfo.TotalRows)
}

func TestDoJSONQueryToJSON(t *testing.T) {
	svc := newService(t)
	data, found, err := svc.DoJSONQueryToJSON(context.Background(), countryJSON, -1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(data), `"string"`)
	assert.Contains(t, string(data), "Australia")
}

func TestDoJSONQueryEmptyParameterValue(t *testing.T) {
	svc := newService(t)
	data, err := codec.EncodeJSON(sampledata.ProductSalesParameterized("Canada", ""))
	require.NoError(t, err)
	doc := strings.Replace(string(data), `"defaultValue":["Canada"]`, `"defaultValue":["Canada"],"value":[]`, 1)
	require.Contains(t, doc, `"value":[]`)

	rs, found, err := svc.DoJSONQuery(context.Background(), doc, -1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 48, rs.RowCount())
}

func TestDoJSONQueryToCDAJSONAbsent(t *testing.T) {
	svc := newService(t)
	doc := strings.Replace(countryJSON, `"steel-wheels"`, `"bogus"`, 1)
	data, found, err := svc.DoJSONQueryToCDAJSON(context.Background(), doc, -1)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestDoXMLQueryToJSON(t *testing.T) {
	svc := newService(t)
	data, found, err := svc.DoXMLQueryToJSON(context.Background(), mql(t, sampledata.ProductSalesIn("Germany", true)), 5)
	require.NoError(t, err)
	require.True(t, found)

	var rows struct {
		Rows [][]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Len(t, rows.Rows, 5)
}

func TestQueryToXML(t *testing.T) {
	svc := newService(t)
	data, found, err := svc.QueryToXML(sampledata.ProductSalesIn("Australia", false))
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(data), `<domain_id>steel-wheels</domain_id>`)
	assert.Contains(t, string(data), `"Australia"`)

	req := sampledata.ProductSales(false)
	req.ModelID = "BV_NOPE"
	_, found, err = svc.QueryToXML(req)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJSONQueryToXML(t *testing.T) {
	svc := newService(t)
	data, found, err := svc.JSONQueryToXML(countryJSON)
	require.NoError(t, err)
	require.True(t, found)

	rs, found, err := svc.DoXMLQuery(context.Background(), string(data), -1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, [][]any{{"Australia"}}, rs.Rows)
}

func TestListBusinessModels(t *testing.T) {
	svc := newService(t)

	assert.Len(t, svc.ListBusinessModels("", ""), 3)
	assert.Len(t, svc.ListBusinessModels(sampledata.DomainID, ""), 3)
	assert.Empty(t, svc.ListBusinessModels("bogus", ""))

	hr := svc.ListBusinessModels(sampledata.DomainID, "BV_HUMAN_RESOURCES")
	require.Len(t, hr, 1)
	assert.Equal(t, schema.ModelSummary{
		DomainID:    sampledata.DomainID,
		ModelID:     "BV_HUMAN_RESOURCES",
		Name:        "Human Resources",
		Description: "This model contains information about Employees.",
	}, hr[0])

	data, err := svc.ListBusinessModelsJSON("bogus", "")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestLoadModel(t *testing.T) {
	svc := newService(t)

	m, ok := svc.LoadModel(sampledata.DomainID, sampledata.OrdersModel)
	require.True(t, ok)
	assert.Equal(t, "Orders", m.Name)

	_, ok = svc.LoadModel(sampledata.DomainID, "")
	assert.False(t, ok)
	_, ok = svc.LoadModel("bogus", sampledata.OrdersModel)
	assert.False(t, ok)
}

func TestModelEquality(t *testing.T) {
	a, b := &schema.Model{}, &schema.Model{}
	assert.True(t, a.Equal(b))

	a.Categories = schema.Some([]*schema.Category{})
	assert.False(t, a.Equal(b), "set categories differ from unset ones")
	b.Categories = schema.Some([]*schema.Category{})
	assert.True(t, a.Equal(b))

	a.ID = "BV_ORDERS"
	assert.False(t, a.Equal(b))
	b.ID = "BV_ORDERS"
	assert.True(t, a.Equal(b))

	a.Name = "Orders"
	assert.False(t, a.Equal(b))
	b.Name = "Orders"
	assert.True(t, a.Equal(b))

	assert.False(t, a.Equal(nil))
	assert.True(t, a.Equal(a))
}
