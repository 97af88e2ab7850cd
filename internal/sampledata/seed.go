package sampledata

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// ProductLines in the order products cycle through them.
var ProductLines = []string{
	"Classic Cars", "Motorcycles", "Planes", "Ships", "Trains", "Trucks and Buses", "Vintage Cars",
}

// ProductCount is the number of seeded products.
const ProductCount = 110

// Market is one customer with one order. The order holds one line per
// product in [First, Last]; every line orders 100+i units except the line
// for product Small, which orders 10.
type Market struct {
	Country   string
	Territory string
	City      string
	First     int
	Last      int
	Small     int
}

var Markets = []Market{
	{Country: "Australia", Territory: "APAC", City: "Melbourne", First: 0, Last: 81, Small: 2},
	{Country: "Canada", Territory: "NA", City: "Vancouver", First: 20, Last: 67, Small: 24},
	{Country: "Germany", Territory: "EMEA", City: "Frankfurt", First: 50, Last: 94, Small: 51},
	{Country: "USA", Territory: "NA", City: "San Francisco", First: 0, Last: ProductCount - 1, Small: -1},
}

var ddl = []string{
	`CREATE TABLE "CUSTOMER_W_TER" (
		"CUSTOMERNUMBER" INTEGER PRIMARY KEY,
		"CUSTOMERNAME" TEXT NOT NULL,
		"CONTACTLASTNAME" TEXT,
		"CONTACTFIRSTNAME" TEXT,
		"PHONE" TEXT,
		"ADDRESSLINE1" TEXT,
		"ADDRESSLINE2" TEXT,
		"CITY" TEXT,
		"STATE" TEXT,
		"POSTALCODE" TEXT,
		"COUNTRY" TEXT,
		"SALESREPEMPLOYEENUMBER" INTEGER,
		"CREDITLIMIT" FLOAT8,
		"TERRITORY" TEXT
	)`,
	`CREATE TABLE "ORDERS" (
		"ORDERNUMBER" INTEGER PRIMARY KEY,
		"ORDERDATE" DATE,
		"REQUIREDDATE" DATE,
		"SHIPPEDDATE" DATE,
		"STATUS" TEXT,
		"COMMENTS" TEXT,
		"CUSTOMERNUMBER" INTEGER NOT NULL
	)`,
	`CREATE TABLE "PRODUCTS" (
		"PRODUCTCODE" TEXT PRIMARY KEY,
		"PRODUCTNAME" TEXT NOT NULL,
		"PRODUCTLINE" TEXT NOT NULL,
		"PRODUCTSCALE" TEXT,
		"PRODUCTVENDOR" TEXT,
		"PRODUCTDESCRIPTION" TEXT,
		"QUANTITYINSTOCK" INTEGER,
		"BUYPRICE" FLOAT8,
		"MSRP" FLOAT8
	)`,
	`CREATE TABLE "ORDERDETAILS" (
		"ORDERNUMBER" INTEGER NOT NULL,
		"PRODUCTCODE" TEXT NOT NULL,
		"QUANTITYORDERED" INTEGER NOT NULL,
		"PRICEEACH" FLOAT8 NOT NULL,
		"ORDERLINENUMBER" INTEGER NOT NULL,
		"TOTAL" FLOAT8 NOT NULL
	)`,
	`CREATE TABLE "PAYMENTS" (
		"CUSTOMERNUMBER" INTEGER NOT NULL,
		"CHECKNUMBER" TEXT NOT NULL,
		"PAYMENTDATE" DATE,
		"AMOUNT" FLOAT8
	)`,
	`CREATE TABLE "OFFICES" (
		"OFFICECODE" TEXT PRIMARY KEY,
		"CITY" TEXT,
		"COUNTRY" TEXT,
		"TERRITORY" TEXT
	)`,
	`CREATE TABLE "EMPLOYEES" (
		"EMPLOYEENUMBER" INTEGER PRIMARY KEY,
		"LASTNAME" TEXT,
		"FIRSTNAME" TEXT,
		"EXTENSION" TEXT,
		"EMAIL" TEXT,
		"OFFICECODE" TEXT,
		"REPORTSTO" INTEGER,
		"JOBTITLE" TEXT
	)`,
}

// ProductCode returns the code of the i-th product.
func ProductCode(i int) string {
	return fmt.Sprintf("S10_%04d", i)
}

// ProductLine returns the line of the i-th product.
func ProductLine(i int) string {
	return ProductLines[i%len(ProductLines)]
}

// Quantity returns the units of product i ordered in market m.
func (m Market) Quantity(i int) int {
	if i == m.Small {
		return 10
	}
	return 100 + i
}

// Rows is the number of order lines in the market.
func (m Market) Rows() int {
	return m.Last - m.First + 1
}

// Seed creates the steel-wheels tables in db and fills them. ph must match
// the driver's placeholder syntax.
func Seed(ctx context.Context, db *sql.DB, ph sq.PlaceholderFormat) error {
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	inserts := []sq.InsertBuilder{
		offices(), employees(), products(), customers(), orders(), orderDetails(), payments(),
	}
	for _, ins := range inserts {
		if _, err := ins.PlaceholderFormat(ph).RunWith(db).ExecContext(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

func offices() sq.InsertBuilder {
	return sq.Insert(`"OFFICES"`).
		Columns(`"OFFICECODE"`, `"CITY"`, `"COUNTRY"`, `"TERRITORY"`).
		Values("1", "San Francisco", "USA", "NA").
		Values("4", "Paris", "France", "EMEA").
		Values("6", "Sydney", "Australia", "APAC")
}

func employees() sq.InsertBuilder {
	return sq.Insert(`"EMPLOYEES"`).
		Columns(`"EMPLOYEENUMBER"`, `"LASTNAME"`, `"FIRSTNAME"`, `"EXTENSION"`, `"EMAIL"`, `"OFFICECODE"`, `"REPORTSTO"`, `"JOBTITLE"`).
		Values(1002, "Murphy", "Diane", "x5800", "dmurphy@classicmodelcars.com", "1", nil, "President").
		Values(1056, "Patterson", "Mary", "x4611", "mpatterso@classicmodelcars.com", "1", 1002, "VP Sales").
		Values(1102, "Bondur", "Gerard", "x5408", "gbondur@classicmodelcars.com", "4", 1056, "Sale Manager (EMEA)").
		Values(1611, "Fixter", "Andy", "x101", "afixter@classicmodelcars.com", "6", 1056, "Sales Rep")
}

func products() sq.InsertBuilder {
	ins := sq.Insert(`"PRODUCTS"`).
		Columns(`"PRODUCTCODE"`, `"PRODUCTNAME"`, `"PRODUCTLINE"`, `"PRODUCTSCALE"`, `"PRODUCTVENDOR"`,
			`"PRODUCTDESCRIPTION"`, `"QUANTITYINSTOCK"`, `"BUYPRICE"`, `"MSRP"`)
	for i := range ProductCount {
		line := ProductLine(i)
		ins = ins.Values(
			ProductCode(i), fmt.Sprintf("%s Model %03d", line, i), line, "1:18", "Classic Metal Creations",
			fmt.Sprintf("Replica number %d from the %s line", i, line), 1000+i*7, 25.0+float64(i), 80.0+float64(i),
		)
	}
	return ins
}

func customers() sq.InsertBuilder {
	ins := sq.Insert(`"CUSTOMER_W_TER"`).
		Columns(`"CUSTOMERNUMBER"`, `"CUSTOMERNAME"`, `"CONTACTLASTNAME"`, `"CONTACTFIRSTNAME"`, `"PHONE"`,
			`"ADDRESSLINE1"`, `"ADDRESSLINE2"`, `"CITY"`, `"STATE"`, `"POSTALCODE"`, `"COUNTRY"`,
			`"SALESREPEMPLOYEENUMBER"`, `"CREDITLIMIT"`, `"TERRITORY"`)
	for k, m := range Markets {
		ins = ins.Values(
			customerNumber(k), m.Country+" Collectables", "Smith", "Jean", fmt.Sprintf("555-%04d", k),
			fmt.Sprintf("%d Harbour Street", 10+k), nil, m.City, nil, fmt.Sprintf("%05d", 3000+k), m.Country,
			1611, 50000.0+float64(k)*1000, m.Territory,
		)
	}
	return ins
}

func orders() sq.InsertBuilder {
	ins := sq.Insert(`"ORDERS"`).
		Columns(`"ORDERNUMBER"`, `"ORDERDATE"`, `"REQUIREDDATE"`, `"SHIPPEDDATE"`, `"STATUS"`, `"COMMENTS"`, `"CUSTOMERNUMBER"`)
	for k := range Markets {
		ins = ins.Values(
			orderNumber(k), fmt.Sprintf("2004-%02d-15", k+1), fmt.Sprintf("2004-%02d-25", k+1),
			fmt.Sprintf("2004-%02d-20", k+1), "Shipped", nil, customerNumber(k),
		)
	}
	return ins
}

func orderDetails() sq.InsertBuilder {
	ins := sq.Insert(`"ORDERDETAILS"`).
		Columns(`"ORDERNUMBER"`, `"PRODUCTCODE"`, `"QUANTITYORDERED"`, `"PRICEEACH"`, `"ORDERLINENUMBER"`, `"TOTAL"`)
	for k, m := range Markets {
		for i := m.First; i <= m.Last; i++ {
			qty := m.Quantity(i)
			price := 50.0 + float64(i)
			ins = ins.Values(orderNumber(k), ProductCode(i), qty, price, i-m.First+1, float64(qty)*price)
		}
	}
	return ins
}

func payments() sq.InsertBuilder {
	ins := sq.Insert(`"PAYMENTS"`).
		Columns(`"CUSTOMERNUMBER"`, `"CHECKNUMBER"`, `"PAYMENTDATE"`, `"AMOUNT"`)
	for k := range Markets {
		ins = ins.Values(customerNumber(k), fmt.Sprintf("HQ%05d", 33600+k), fmt.Sprintf("2004-%02d-28", k+1), 1000.0*float64(k+1))
	}
	return ins
}

func customerNumber(k int) int { return 103 + k }

func orderNumber(k int) int { return 10100 + k }
