package testsupport

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// WorkbookSheet describes one sheet of a generated test workbook as a
// raw cell grid.
type WorkbookSheet struct {
	Name string
	Rows [][]string
}

// CollectionRows builds the primary sheet grid in the submission
// template layout: a banner row, then one label/value row per field,
// then the required-marker legend row.
func CollectionRows(fields [][2]string) [][]string {
	rows := [][]string{{"ARCHIVES AFRICA: COLLECTION DATA"}}
	for _, field := range fields {
		rows = append(rows, []string{field[0], field[1]})
	}
	rows = append(rows, []string{"* Required"})
	return rows
}

// WriteWorkbook authors an xlsx file at path with the given sheets in
// order. The first sheet name replaces the default sheet.
func WriteWorkbook(t testing.TB, path string, sheets ...WorkbookSheet) {
	t.Helper()

	if len(sheets) == 0 {
		t.Fatal("WriteWorkbook requires at least one sheet")
	}

	file := excelize.NewFile()
	defer func() {
		if err := file.Close(); err != nil {
			t.Fatalf("close workbook: %v", err)
		}
	}()

	for i, sheet := range sheets {
		if i == 0 {
			if err := file.SetSheetName("Sheet1", sheet.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else {
			if _, err := file.NewSheet(sheet.Name); err != nil {
				t.Fatalf("new sheet %s: %v", sheet.Name, err)
			}
		}
		for r, row := range sheet.Rows {
			for c, cell := range row {
				if cell == "" {
					continue
				}
				axis, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("cell name: %v", err)
				}
				if err := file.SetCellValue(sheet.Name, axis, cell); err != nil {
					t.Fatalf("set cell %s: %v", axis, err)
				}
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save workbook %s: %v", path, err)
	}
}
