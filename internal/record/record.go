// Package record turns a staged spreadsheet into a normalized record: an
// ordered list of labeled, typed fields parsed once, so nothing downstream
// re-interprets raw tabular structure.
package record

import "time"

// Kind discriminates the value types a spreadsheet cell normalizes to.
type Kind int

const (
	KindAbsent Kind = iota
	KindText
	KindDate
)

// Value is a single normalized cell value.
type Value struct {
	kind Kind
	text string
	date time.Time
}

// Absent returns the absent value.
func Absent() Value {
	return Value{kind: KindAbsent}
}

// Text returns a textual value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Date returns a calendar date value.
func Date(t time.Time) Value {
	return Value{kind: KindDate, date: t}
}

// Kind reports the value's type.
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether the value is empty.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// TextValue returns the textual content. Empty for non-text kinds.
func (v Value) TextValue() string {
	return v.text
}

// DateValue returns the date content. Zero for non-date kinds.
func (v Value) DateValue() time.Time {
	return v.date
}

// Field is one labeled entry of a record. Required fields carry a "*"
// marker in their label.
type Field struct {
	Label    string
	Required bool
	Value    Value
}

// Record is the ordered field list for one logical entity, in source
// row order.
type Record struct {
	Fields []Field
}

// Lookup returns the field carrying label, if present.
func (r Record) Lookup(label string) (Field, bool) {
	for _, field := range r.Fields {
		if field.Label == label {
			return field, true
		}
	}
	return Field{}, false
}

// MissingRequired returns the labels of required fields whose value is
// absent, in record order. An empty result means the record validates.
func (r Record) MissingRequired() []string {
	var missing []string
	for _, field := range r.Fields {
		if field.Required && field.Value.IsAbsent() {
			missing = append(missing, field.Label)
		}
	}
	return missing
}

// Sheet is the raw cell grid of a secondary sheet. The first row holds
// the per-column headers.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is the parsed content of one staged spreadsheet: the primary
// record plus every secondary sheet.
type Workbook struct {
	Record    Record
	Secondary []Sheet
}
