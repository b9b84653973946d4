package attendance

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Field names, shared by the extractor and MalformedRowError.
const (
	FieldRollNo            = "rollNo"
	FieldAdmissionNo       = "admissionNo"
	FieldName              = "name"
	FieldDecToMar          = "decToMar"
	FieldApril             = "april"
	FieldTotal             = "total"
	FieldAttendancePercent = "attendancePercent"
)

// fieldSeparator joins consecutive fields. Text extracted from PDFs may break
// a row anywhere, so any whitespace run (newlines included) separates fields.
const fieldSeparator = `\s+`

// RawRow holds the unconverted text of one matched attendance row
type RawRow struct {
	RollNo            string
	AdmissionNo       string
	Name              string
	DecToMar          string
	April             string
	Total             string
	AttendancePercent string
}

// FieldMatcher matches a single field of a row
type FieldMatcher struct {
	Name    string
	Pattern string // Field content; must not contain capturing groups
	Trail   string // Optional text matched after the field and dropped, e.g. `\.?`
	Assign  func(row *RawRow, value string)
}

// Match reports whether s is exactly one instance of the field, trail
// included. It compiles the field on every call; RowPattern.MatchField does not.
func (f FieldMatcher) Match(s string) bool {
	re, err := f.compile()
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func (f FieldMatcher) compile() (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + f.Pattern + `)(?:` + f.Trail + `)$`)
}

// RowPattern scans text for rows made of fields laid out left to right
type RowPattern struct {
	fields  []FieldMatcher
	matchRe map[string]*regexp.Regexp
	re      *regexp.Regexp
}

// NewRowPattern composes fields, in order, into a row scanner.
func NewRowPattern(fields ...FieldMatcher) (*RowPattern, error) {
	if len(fields) == 0 {
		return nil, errors.New("row pattern needs at least one field")
	}

	var expr strings.Builder
	matchRe := make(map[string]*regexp.Regexp, len(fields))
	for i, f := range fields {
		if f.Name == "" || f.Assign == nil {
			return nil, fmt.Errorf("field %d: name and assign func are required", i)
		}
		if _, ok := matchRe[f.Name]; ok {
			return nil, fmt.Errorf("field %q declared twice", f.Name)
		}

		for _, part := range []string{f.Pattern, f.Trail} {
			re, err := regexp.Compile(part)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			if re.NumSubexp() > 0 {
				return nil, fmt.Errorf("field %q: capturing groups are not allowed", f.Name)
			}
		}
		if f.Pattern == "" {
			return nil, fmt.Errorf("field %q: empty pattern", f.Name)
		}
		fieldRe, err := f.compile()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		matchRe[f.Name] = fieldRe

		if i > 0 {
			expr.WriteString(fieldSeparator)
		}
		expr.WriteString("(" + f.Pattern + ")")
		expr.WriteString(f.Trail)
	}

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("compile row pattern: %w", err)
	}
	return &RowPattern{fields: fields, matchRe: matchRe, re: re}, nil
}

// MustRowPattern is like NewRowPattern but panics on error.
func MustRowPattern(fields ...FieldMatcher) *RowPattern {
	p, err := NewRowPattern(fields...)
	if err != nil {
		panic(err)
	}
	return p
}

// Fields returns the field names in match order
func (p *RowPattern) Fields() []string {
	names := make([]string, len(p.fields))
	for i, f := range p.fields {
		names[i] = f.Name
	}
	return names
}

// MatchField reports whether s is exactly one instance of the named field,
// trail included. Unknown fields never match.
func (p *RowPattern) MatchField(name, s string) bool {
	re, ok := p.matchRe[name]
	return ok && re.MatchString(s)
}

// Extract returns every non-overlapping row in text, leftmost first.
// Text that does not fit the row shape is skipped. The result is empty, not nil,
// when nothing matches.
func (p *RowPattern) Extract(text string) []RawRow {
	matches := p.re.FindAllStringSubmatch(text, -1)
	rows := make([]RawRow, 0, len(matches))
	for _, m := range matches {
		var row RawRow
		for i, f := range p.fields {
			f.Assign(&row, m[i+1])
		}
		rows = append(rows, row)
	}
	return rows
}

// DefaultFields describes one row of the attendance report:
//
//	1. 1001 JOHN DOE 10 5 15 83.3
//
// roll number (with an optional trailing dot), admission number, upper-case name,
// December-March days, April days, total days, attendance percent.
func DefaultFields() []FieldMatcher {
	return []FieldMatcher{
		{Name: FieldRollNo, Pattern: `\d+`, Trail: `\.?`, Assign: func(r *RawRow, v string) { r.RollNo = v }},
		{Name: FieldAdmissionNo, Pattern: `\d+`, Assign: func(r *RawRow, v string) { r.AdmissionNo = v }},
		{Name: FieldName, Pattern: `[A-Z.\s]+`, Assign: func(r *RawRow, v string) { r.Name = v }},
		{Name: FieldDecToMar, Pattern: `\d+`, Assign: func(r *RawRow, v string) { r.DecToMar = v }},
		{Name: FieldApril, Pattern: `\d+`, Assign: func(r *RawRow, v string) { r.April = v }},
		{Name: FieldTotal, Pattern: `\d+`, Assign: func(r *RawRow, v string) { r.Total = v }},
		{Name: FieldAttendancePercent, Pattern: `\d+\.\d`, Assign: func(r *RawRow, v string) { r.AttendancePercent = v }},
	}
}

var defaultPattern = MustRowPattern(DefaultFields()...)

// ExtractRows scans text with the default attendance row shape.
func ExtractRows(text string) []RawRow {
	return defaultPattern.Extract(text)
}
