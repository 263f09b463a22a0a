// Package document serializes normalized records and auxiliary sheets
// into the XML documents consumed downstream.
package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/kingsdigitallab/finding-africa/internal/record"
)

// RootElement is the root of every primary document.
const RootElement = "collection"

var nonWord = regexp.MustCompile(`\W`)

// BuildPrimary converts a record into its primary document: one element
// per present field, named from the sanitized label. Multi-line text
// becomes one paragraph child per non-empty line; lines containing
// literal angle brackets are kept verbatim inside CDATA rather than
// escaped. Dates render as ISO calendar dates.
func BuildPrimary(rec record.Record) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(RootElement)

	for _, field := range rec.Fields {
		if field.Value.IsAbsent() {
			continue
		}
		name := nonWord.ReplaceAllString(field.Label, "")
		if name == "" {
			return nil, fmt.Errorf("field label %q yields an empty element name", field.Label)
		}
		el := root.CreateElement(name)

		switch field.Value.Kind() {
		case record.KindDate:
			el.SetText(field.Value.DateValue().Format("2006-01-02"))
		case record.KindText:
			text := field.Value.TextValue()
			if strings.Contains(text, "\n") {
				for _, line := range strings.Split(text, "\n") {
					line = strings.TrimSpace(line)
					if line == "" {
						continue
					}
					para := el.CreateElement("p")
					setText(para, line)
				}
			} else {
				setText(el, text)
			}
		}
	}

	return doc, nil
}

// BuildAuxiliary converts a secondary sheet into a controlled-vocabulary
// document. The sheet carries three row roles: the first row supplies
// only the root name, the second row carries the per-column labels the
// child elements are named from, and every later row becomes one group
// element populated from its non-empty cells. A sheet with no rows past
// the label row yields an empty document. The derived root name is
// returned for use in the output filename.
func BuildAuxiliary(sheet record.Sheet) (string, *etree.Document, error) {
	if len(sheet.Rows) == 0 || len(sheet.Rows[0]) == 0 {
		return "", nil, fmt.Errorf("sheet %q has no header row", sheet.Name)
	}

	rootName := deriveRootName(sheet.Rows[0][0])
	if rootName == "" {
		return "", nil, fmt.Errorf("sheet %q header %q yields an empty root name", sheet.Name, sheet.Rows[0][0])
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootName)

	if len(sheet.Rows) < 3 {
		return rootName, doc, nil
	}
	labels := sheet.Rows[1]

	for _, row := range sheet.Rows[2:] {
		if emptyRow(row) {
			continue
		}
		group := root.CreateElement("p")
		for pos, cell := range row {
			if pos >= len(labels) || strings.TrimSpace(cell) == "" {
				continue
			}
			name := deriveTermName(labels[pos])
			if name == "" {
				return "", nil, fmt.Errorf("sheet %q label %q yields an empty element name", sheet.Name, labels[pos])
			}
			group.CreateElement(name).SetText(cell)
		}
	}

	return rootName, doc, nil
}

// WriteFile serializes the document to path with two-space indentation.
// Element order follows build order; nothing is reordered.
func WriteFile(doc *etree.Document, path string) error {
	doc.Indent(2)
	if err := doc.WriteToFile(path); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	return nil
}

func setText(el *etree.Element, text string) {
	if strings.ContainsAny(text, "<>") {
		el.CreateCData(text)
		return
	}
	el.SetText(text)
}

// deriveRootName keeps the header text before the separator token,
// lowercased with spaces as underscores.
func deriveRootName(header string) string {
	name, _, _ := strings.Cut(header, ":")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}

// deriveTermName matches deriveRootName but additionally strips the
// trailing bracket marker and any remaining non-word characters.
func deriveTermName(header string) string {
	name, _, _ := strings.Cut(header, ":")
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, ">", "")
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	return nonWord.ReplaceAllString(name, "")
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
