package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gradegraph/internal/assessment"
)

// Sheet is one worksheet of an exported workbook.
type Sheet struct {
	Name  string
	Table *assessment.Table
}

// WriteWorkbook writes the sheets, in order, to an .xlsx stream. Cells that
// parse as numbers are stored as numbers so spreadsheet formulas work on
// them.
func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	columns := sheet.Table.Columns()
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return fmt.Errorf("failed to open sheet %s: %w", sheet.Name, err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet.Name, err)
	}

	for r := 0; r < sheet.Table.Len(); r++ {
		record := sheet.Table.Row(r)
		row := make([]interface{}, len(record))
		for i, v := range record {
			if n, ok := assessment.ParseNumber(v); ok {
				row[i] = n
			} else {
				row[i] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+2, sheet.Name, err)
		}
	}

	return sw.Flush()
}
