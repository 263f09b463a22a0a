package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kingsdigitallab/finding-africa/internal/services"
)

// PrimarySheet is the sheet holding the collection data. Every other
// sheet is treated as an auxiliary controlled-vocabulary sheet.
const PrimarySheet = "collection"

// requiredLegend is the legend row explaining the "*" marker in the
// source template. It carries no data and is stripped during extraction.
const requiredLegend = "* Required"

// dateLayouts are tried in order against textual cell values. Excelize
// renders date cells through their number format, so the common Excel
// date formats are covered alongside ISO.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06 15:04",
	"1/2/06",
	"01/02/2006",
	"2-Jan-06",
}

// Load parses a staged spreadsheet into a workbook: the primary sheet
// becomes the normalized record, the remaining sheets are returned raw
// for the auxiliary document builder. A missing primary sheet or an
// unparsable label layout yields a malformed-spreadsheet error.
func Load(path string) (*Workbook, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedSpreadsheet, "record", "load", "open workbook", err)
	}
	defer file.Close()

	rec, err := extractRecord(file)
	if err != nil {
		return nil, err
	}

	var secondary []Sheet
	for _, name := range file.GetSheetList() {
		if name == PrimarySheet {
			continue
		}
		rows, err := file.GetRows(name)
		if err != nil {
			return nil, services.Wrap(services.ErrMalformedSpreadsheet, "record", "load",
				fmt.Sprintf("read sheet %q", name), err)
		}
		secondary = append(secondary, Sheet{Name: name, Rows: rows})
	}

	return &Workbook{Record: *rec, Secondary: secondary}, nil
}

func extractRecord(file *excelize.File) (*Record, error) {
	rows, err := file.GetRows(PrimarySheet)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedSpreadsheet, "record", "extract",
			fmt.Sprintf("sheet %q missing", PrimarySheet), err)
	}
	if len(rows) < 2 {
		return nil, services.Wrap(services.ErrMalformedSpreadsheet, "record", "extract",
			fmt.Sprintf("sheet %q has no label rows", PrimarySheet), nil)
	}

	rec := &Record{}
	seen := map[string]struct{}{}

	// rows[0] is the template banner. Each following row carries the
	// field label in the first cell and the submitted value in the
	// second; the original template is a transposed form.
	for i, row := range rows[1:] {
		label := ""
		if len(row) > 0 {
			label = strings.TrimSpace(row[0])
		}
		value := ""
		if len(row) > 1 {
			value = row[1]
		}

		if label == "" && strings.TrimSpace(value) == "" {
			continue
		}
		if label == requiredLegend {
			continue
		}
		if label == "" {
			return nil, services.Wrap(services.ErrMalformedSpreadsheet, "record", "extract",
				fmt.Sprintf("row %d has a value but no label", i+2), nil)
		}
		if _, dup := seen[label]; dup {
			return nil, services.Wrap(services.ErrMalformedSpreadsheet, "record", "extract",
				fmt.Sprintf("duplicate label %q", label), nil)
		}
		seen[label] = struct{}{}

		rec.Fields = append(rec.Fields, Field{
			Label:    label,
			Required: strings.Contains(label, "*"),
			Value:    normalizeValue(value),
		})
	}

	if len(rec.Fields) == 0 {
		return nil, services.Wrap(services.ErrMalformedSpreadsheet, "record", "extract",
			fmt.Sprintf("sheet %q has no labeled fields", PrimarySheet), nil)
	}

	return rec, nil
}

func normalizeValue(raw string) Value {
	if strings.TrimSpace(raw) == "" {
		return Absent()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return Date(t)
		}
	}
	return Text(raw)
}
