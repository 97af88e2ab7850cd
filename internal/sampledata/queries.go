package sampledata

import (
	"github.com/atlekbai/metaquery/internal/query"
	"github.com/atlekbai/metaquery/internal/schema"
)

const (
	OrdersModel    = "BV_ORDERS"
	CustomerCat    = "BC_CUSTOMER_W_TER_"
	OrdersCat      = "CAT_ORDERS"
	ProductsCat    = "CAT_PRODUCTS"
	CountryColumn  = "BC_CUSTOMER_W_TER_COUNTRY"
	QuantityColumn = "BC_ORDERDETAILS_QUANTITYORDERED"
	LineColumn     = "BC_PRODUCTS_PRODUCTLINE"
)

// ProductSales selects product line, name and code with summed quantity and
// total from BV_ORDERS, sorted by quantity. With withCountry the customer
// country is selected too.
func ProductSales(withCountry bool) *query.Request {
	req := &query.Request{
		DomainID: DomainID,
		ModelID:  OrdersModel,
		Selections: []query.Selection{
			{Category: ProductsCat, Column: LineColumn, AggType: schema.AggNone},
			{Category: ProductsCat, Column: "BC_PRODUCTS_PRODUCTNAME", AggType: schema.AggNone},
			{Category: ProductsCat, Column: "BC_PRODUCTS_PRODUCTCODE", AggType: schema.AggNone},
			{Category: OrdersCat, Column: QuantityColumn, AggType: schema.AggSum},
			{Category: OrdersCat, Column: "BC_ORDERDETAILS_TOTAL", AggType: schema.AggSum},
		},
		Orders: []query.Order{
			{Category: OrdersCat, Column: QuantityColumn, Direction: query.Asc},
		},
	}
	if withCountry {
		req.Selections = append(req.Selections, query.Selection{Category: CustomerCat, Column: CountryColumn, AggType: schema.AggNone})
	}
	return req
}

// ProductSalesIn is ProductSales filtered to one customer country.
func ProductSalesIn(country string, withCountry bool) *query.Request {
	req := ProductSales(withCountry)
	req.Conditions = []query.Condition{{
		Category:        CustomerCat,
		Column:          CountryColumn,
		Operator:        query.OpEqual,
		Value:           []string{country},
		CombinationType: query.CombineAnd,
		SelectedAggType: schema.AggNone,
	}}
	return req
}

// ProductSalesParameterized filters on a country parameter bound to the
// country column, with the given default and value. An empty value leaves
// the parameter on its default.
func ProductSalesParameterized(defaultCountry, country string) *query.Request {
	req := ProductSales(true)
	req.Conditions = []query.Condition{{
		Category:        CustomerCat,
		Column:          CountryColumn,
		Operator:        query.OpEqual,
		Value:           []string{CountryColumn},
		CombinationType: query.CombineAnd,
		Parameterized:   true,
	}}
	param := query.Parameter{Column: CountryColumn, Type: schema.DataTypeString, DefaultValue: []string{defaultCountry}}
	if country != "" {
		param.Value = []string{country}
	}
	req.Parameters = []query.Parameter{param}
	return req
}
