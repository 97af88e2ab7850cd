package result

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type cdaColumn struct {
	Index int    `json:"colIndex"`
	Type  string `json:"colType"`
	Name  string `json:"colName"`
}

type cdaQueryInfo struct {
	TotalRows int `json:"totalRows"`
}

type cdaDocument struct {
	Metadata  []cdaColumn  `json:"metadata"`
	ResultSet [][]any      `json:"resultset"`
	QueryInfo cdaQueryInfo `json:"queryInfo"`
}

// CDAJSON encodes rs in the dashboard data access layout: column metadata,
// bare rows and a row count.
func CDAJSON(rs *ResultSet) ([]byte, error) {
	doc := cdaDocument{
		Metadata:  make([]cdaColumn, len(rs.ColumnNames)),
		ResultSet: make([][]any, len(rs.Rows)),
		QueryInfo: cdaQueryInfo{TotalRows: len(rs.Rows)},
	}
	for i, name := range rs.ColumnNames {
		doc.Metadata[i] = cdaColumn{Index: i, Type: strings.ToUpper(rs.ColumnTypes[i]), Name: name}
	}
	for i, row := range rs.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cell, err := jsonCell(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			cells[j] = cell
		}
		doc.ResultSet[i] = cells
	}
	return json.Marshal(doc)
}

const sheetName = "Result"

// WriteXLSX writes rs as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, rs *ResultSet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(rs.ColumnNames))
	for i, name := range rs.ColumnNames {
		header[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if len(rs.ColumnNames) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("create header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(rs.ColumnNames), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for i, row := range rs.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		copy(values, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
