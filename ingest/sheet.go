package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"smartslide/deck"
)

// ingestXLSX reads the first worksheet of an xlsx workbook.
func ingestXLSX(data []byte) (deck.Outline, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %v", sheet, err)
	}
	return columnsToSlides(rows)
}

// ingestXLS reads the first worksheet of a legacy xls workbook.
func ingestXLS(data []byte) (deck.Outline, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening xls: %v", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	records := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		records = append(records, cells)
	}
	return columnsToSlides(records)
}

// ingestCSV reads a delimited text file. Ragged rows are tolerated; short
// rows simply contribute nothing to the trailing columns.
func ingestCSV(data []byte) (deck.Outline, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %v", err)
	}
	return columnsToSlides(records)
}
