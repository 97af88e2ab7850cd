package codec_test

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/metaquery/internal/codec"
	"github.com/atlekbai/metaquery/internal/compiler"
	"github.com/atlekbai/metaquery/internal/query"
	"github.com/atlekbai/metaquery/internal/sampledata"
	"github.com/atlekbai/metaquery/internal/schema"
)

const australiaMQL = `<?xml version="1.0" encoding="UTF-8"?><mql><domain_id>steel-wheels</domain_id><model_id>BV_ORDERS</model_id><options><disable_distinct>false</disable_distinct></options><selections><selection><view>CAT_PRODUCTS</view><column>BC_PRODUCTS_PRODUCTLINE</column><aggregation>NONE</aggregation></selection><selection><view>CAT_PRODUCTS</view><column>BC_PRODUCTS_PRODUCTNAME</column><aggregation>NONE</aggregation></selection><selection><view>CAT_PRODUCTS</view><column>BC_PRODUCTS_PRODUCTCODE</column><aggregation>NONE</aggregation></selection><selection><view>CAT_ORDERS</view><column>BC_ORDERDETAILS_QUANTITYORDERED</column><aggregation>SUM</aggregation></selection><selection><view>CAT_ORDERS</view><column>BC_ORDERDETAILS_TOTAL</column><aggregation>SUM</aggregation></selection></selections><constraints><constraint><operator>AND</operator><condition><![CDATA[[BC_CUSTOMER_W_TER_.BC_CUSTOMER_W_TER_COUNTRY] = "Australia"]]></condition></constraint></constraints><orders><order><direction>ASC</direction><view_id>CAT_ORDERS</view_id><column_id>BC_ORDERDETAILS_QUANTITYORDERED</column_id></order></orders></mql>`

const countryJSON = `{"class":"org.pentaho.common.ui.metadata.model.impl.Query","columns":[{"aggTypes":[],"category":"BC_CUSTOMER_W_TER_","class":"org.pentaho.common.ui.metadata.model.impl.Column","defaultAggType":null,"fieldType":null,"id":"BC_CUSTOMER_W_TER_COUNTRY","name":null,"selectedAggType":"NONE","type":null}],"conditions":[{"category":"BC_CUSTOMER_W_TER_","class":"org.pentaho.common.ui.metadata.model.impl.Condition","column":"BC_CUSTOMER_W_TER_COUNTRY","combinationType":"AND","operator":"EQUAL","value":["Australia"]}],"defaultParameterMap":null,"disableDistinct":false,"domainName":"steel-wheels","modelId":"BV_ORDERS","orders":[{"category":"BC_CUSTOMER_W_TER_","class":"org.pentaho.common.ui.metadata.model.impl.Order","column":"BC_CUSTOMER_W_TER_COUNTRY","orderType":"ASC"}],"parameters":[]}`

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func ordersModel(t *testing.T) *schema.Model {
	t.Helper()
	reg, err := sampledata.Registry()
	require.NoError(t, err)
	m, ok := reg.Get(sampledata.DomainID, sampledata.OrdersModel)
	require.True(t, ok)
	return m
}

func TestDecodeXML(t *testing.T) {
	req, err := codec.DecodeXML(strings.NewReader(australiaMQL))
	require.NoError(t, err)

	assert.Equal(t, "steel-wheels", req.DomainID)
	assert.Equal(t, "BV_ORDERS", req.ModelID)
	assert.False(t, req.DisableDistinct)
	assert.Nil(t, req.Limit)
	require.Len(t, req.Selections, 5)
	assert.Equal(t, query.Selection{Category: "CAT_ORDERS", Column: "BC_ORDERDETAILS_QUANTITYORDERED", AggType: schema.AggSum}, req.Selections[3])
	require.Len(t, req.Conditions, 1)
	assert.Equal(t, `[BC_CUSTOMER_W_TER_.BC_CUSTOMER_W_TER_COUNTRY] = "Australia"`, req.Conditions[0].Expression)
	assert.Equal(t, query.CombineAnd, req.Conditions[0].CombinationType)
	assert.Equal(t, []query.Order{{Category: "CAT_ORDERS", Column: "BC_ORDERDETAILS_QUANTITYORDERED", Direction: query.Asc}}, req.Orders)
}

func TestDecodeXMLMatchesStructuredQuery(t *testing.T) {
	reg, err := sampledata.Registry()
	require.NoError(t, err)

	fromXML, err := codec.DecodeXML(strings.NewReader(australiaMQL))
	require.NoError(t, err)
	xmlPlan, err := compiler.Compile(reg, fromXML)
	require.NoError(t, err)

	structPlan, err := compiler.Compile(reg, sampledata.ProductSalesIn("Australia", false))
	require.NoError(t, err)

	assert.Equal(t, structPlan.Constraints, xmlPlan.Constraints)
	assert.Equal(t, structPlan.Selections, xmlPlan.Selections)
	assert.Equal(t, structPlan.Orders, xmlPlan.Orders)
}

func TestDecodeXMLOptionsAndParameters(t *testing.T) {
	doc := `<mql>
  <domain_id>steel-wheels</domain_id>
  <model_id>BV_ORDERS</model_id>
  <options><disable_distinct>true</disable_distinct><limit>25</limit></options>
  <parameters><parameter name="country" type="STRING" defaultValue="Canada|Germany"/></parameters>
  <selections><selection><view>CAT_PRODUCTS</view><column>BC_PRODUCTS_PRODUCTLINE</column><aggregation/></selection></selections>
  <constraints><constraint><operator>OR NOT</operator><condition><![CDATA[[BC_CUSTOMER_W_TER_.BC_CUSTOMER_W_TER_COUNTRY] = [param:country]]]></condition></constraint></constraints>
  <orders/>
</mql>`
	req, err := codec.DecodeXML(strings.NewReader(doc))
	require.NoError(t, err)

	assert.True(t, req.DisableDistinct)
	require.NotNil(t, req.Limit)
	assert.Equal(t, 25, *req.Limit)
	assert.Equal(t, []query.Parameter{{Name: "country", Type: schema.DataTypeString, DefaultValue: []string{"Canada", "Germany"}}}, req.Parameters)
	assert.Equal(t, schema.AggregationType(""), req.Selections[0].AggType)
	assert.Equal(t, query.CombineOrNot, req.Conditions[0].CombinationType)
	assert.Empty(t, req.Orders)
}

func TestDecodeXMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "select * from orders"},
		{"wrong root", "<query><domain_id>x</domain_id></query>"},
		{"bad aggregation", "<mql><selections><selection><view>a</view><column>b</column><aggregation>MEDIAN</aggregation></selection></selections></mql>"},
		{"bad combination", "<mql><constraints><constraint><operator>XOR</operator><condition>[a.b] = 1</condition></constraint></constraints></mql>"},
		{"bad direction", "<mql><orders><order><direction>UP</direction><view_id>a</view_id><column_id>b</column_id></order></orders></mql>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.DecodeXML(strings.NewReader(tt.doc))
			var de *codec.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "xml", de.Format)
		})
	}
}

func TestEncodeXML(t *testing.T) {
	data, err := codec.EncodeXML(sampledata.ProductSalesIn("Australia", false), ordersModel(t))
	require.NoError(t, err)
	golden(t).Assert(t, "product_sales_australia.xml", data)
}

func TestEncodeXMLRoundTrip(t *testing.T) {
	req := sampledata.ProductSalesParameterized("Canada", "Germany")
	req.Conditions[0].CombinationType = query.CombineAndNot
	limit := 10
	req.Limit = &limit

	data, err := codec.EncodeXML(req, ordersModel(t))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<parameter name="BC_CUSTOMER_W_TER_COUNTRY" type="STRING" defaultValue="Germany"></parameter>`)
	assert.Contains(t, string(data), `<operator>AND NOT</operator>`)
	assert.Contains(t, string(data), `= [param:BC_CUSTOMER_W_TER_COUNTRY]]]>`)

	back, err := codec.DecodeXML(strings.NewReader(string(data)))
	require.NoError(t, err)

	reg, err := sampledata.Registry()
	require.NoError(t, err)
	want, err := compiler.Compile(reg, req)
	require.NoError(t, err)
	got, err := compiler.Compile(reg, back)
	require.NoError(t, err)
	assert.Equal(t, want.Constraints, got.Constraints)
	assert.Equal(t, 10, got.Limit)
}

func TestDecodeJSON(t *testing.T) {
	req, err := codec.DecodeJSON(strings.NewReader(countryJSON))
	require.NoError(t, err)

	assert.Equal(t, "steel-wheels", req.DomainID)
	assert.Equal(t, "BV_ORDERS", req.ModelID)
	assert.Equal(t, []query.Selection{{Category: "BC_CUSTOMER_W_TER_", Column: "BC_CUSTOMER_W_TER_COUNTRY", AggType: schema.AggNone}}, req.Selections)
	assert.Equal(t, []query.Condition{{
		Category:        "BC_CUSTOMER_W_TER_",
		Column:          "BC_CUSTOMER_W_TER_COUNTRY",
		Operator:        query.OpEqual,
		Value:           []string{"Australia"},
		CombinationType: query.CombineAnd,
	}}, req.Conditions)
	assert.Equal(t, query.Asc, req.Orders[0].Direction)
	assert.Empty(t, req.Parameters)
}

func TestDecodeJSONEmptyParameterValue(t *testing.T) {
	doc := strings.Replace(countryJSON, `"parameters":[]`,
		`"parameters":[{"column":"BC_CUSTOMER_W_TER_COUNTRY","defaultValue":["Canada"],"value":[]}]`, 1)
	req, err := codec.DecodeJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, req.Parameters, 1)
	assert.Equal(t, []string{"Canada"}, req.Parameters[0].Effective())
}

func TestDecodeJSONErrors(t *testing.T) {
	for _, doc := range []string{
		`{"domainName": `,
		`{"columns":[{"category":"a","id":"b","selectedAggType":"MEDIAN"}]}`,
		`{"conditions":[{"operator":"LIKE"}]}`,
		`{"orders":[{"orderType":"SIDEWAYS"}]}`,
	} {
		_, err := codec.DecodeJSON(strings.NewReader(doc))
		var de *codec.DecodeError
		require.ErrorAs(t, err, &de, doc)
		assert.Equal(t, "json", de.Format)
	}
}

func TestEncodeJSON(t *testing.T) {
	data, err := codec.EncodeJSON(sampledata.ProductSalesIn("Australia", false))
	require.NoError(t, err)
	golden(t).Assert(t, "product_sales_australia.json", data)

	back, err := codec.DecodeJSON(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, sampledata.ProductSalesIn("Australia", false), back)
}

func TestEncodeJSONRejectsFreeFormConditions(t *testing.T) {
	req := sampledata.ProductSales(false)
	req.Conditions = []query.Condition{{Expression: `TRUE()`}}
	_, err := codec.EncodeJSON(req)
	assert.Error(t, err)
}
