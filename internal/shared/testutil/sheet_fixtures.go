package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ScenarioHeaders is the canonical small class sheet used across packages.
var ScenarioHeaders = []string{"SR.No", "Name", "MATHS MSE", "MATHS ESE", "DBMS PRACTICAL"}

// ScenarioRows pairs with ScenarioHeaders. Row one scores 85 of 110 and row
// two 55 of 110; their Maths totals are 65 and 40.
var ScenarioRows = [][]interface{}{
	{1, "Asha", 20, 45, 20},
	{2, "Ravi", 10, 30, 15},
}

// ClassHeaders describes a fuller sheet with roll numbers, coding levels and
// several assessment types.
var ClassHeaders = []string{
	"SR.No", "Roll No", "Name", "MATHS MSE", "MATHS ESE", "DBMS MSE", "DBMS ESE",
	"DBMS PRACTICAL", "OS TW", "Coding_Expertise",
}

// ClassRows pairs with ClassHeaders.
var ClassRows = [][]interface{}{
	{1, "R01", "Asha Patil", 24, 58, 22, 55, 24, 48, "A"},
	{2, "R02", "Ravi Kumar", 15, 30, 12, 28, 15, 30, "I"},
	{3, "R03", "Meera Nair", 8, 12, 6, 10, 9, 20, "B"},
	{4, "R04", "John Dsouza", 20, 45, 19, 41, 20, 40, "I"},
	{5, "R05", "Sara Khan", "AB", "", 10, 22, "", 25, ""},
}

// NewWorkbook builds an in-memory workbook with a single sheet holding the
// header in row 1 and rows below it.
func NewWorkbook(t *testing.T, sheet string, headers []string, rows [][]interface{}) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	if sheet != "" && sheet != f.GetSheetName(0) {
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	name := f.GetSheetName(0)

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(name, cell, &r); err != nil {
			t.Fatalf("write row %d: %v", i+2, err)
		}
	}
	return f
}

// WriteWorkbook saves a workbook built by NewWorkbook into dir and returns
// its path.
func WriteWorkbook(t *testing.T, dir, filename string, headers []string, rows [][]interface{}) string {
	t.Helper()

	f := NewWorkbook(t, "Sheet1", headers, rows)
	defer f.Close()

	path := filepath.Join(dir, filename)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// WorkbookBytes renders a workbook built by NewWorkbook to xlsx bytes, for
// multipart upload tests.
func WorkbookBytes(t *testing.T, headers []string, rows [][]interface{}) []byte {
	t.Helper()

	f := NewWorkbook(t, "Sheet1", headers, rows)
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("render workbook: %v", err)
	}
	return buf.Bytes()
}
