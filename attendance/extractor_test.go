package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoRows = "1 1001 JOHN DOE 10 5 15 83.3\n2 1002 JANE ROE 9 6 15 75.0\n"

func TestExtractRows(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []RawRow
	}{
		{
			name: "empty text",
			text: "",
			want: []RawRow{},
		},
		{
			name: "no table",
			text: "Attendance Register\nClass X Section B\nPage 1 of 1",
			want: []RawRow{},
		},
		{
			name: "one row per line",
			text: twoRows,
			want: []RawRow{
				{RollNo: "1", AdmissionNo: "1001", Name: "JOHN DOE", DecToMar: "10", April: "5", Total: "15", AttendancePercent: "83.3"},
				{RollNo: "2", AdmissionNo: "1002", Name: "JANE ROE", DecToMar: "9", April: "6", Total: "15", AttendancePercent: "75.0"},
			},
		},
		{
			name: "roll number with dot",
			text: "1. 2231 A.K. SHARMA 60 7 67 91.8",
			want: []RawRow{
				{RollNo: "1", AdmissionNo: "2231", Name: "A.K. SHARMA", DecToMar: "60", April: "7", Total: "67", AttendancePercent: "91.8"},
			},
		},
		{
			name: "rows merged onto one line",
			text: "1 1001 JOHN DOE 10 5 15 83.3 2 1002 JANE ROE 9 6 15 75.0",
			want: []RawRow{
				{RollNo: "1", AdmissionNo: "1001", Name: "JOHN DOE", DecToMar: "10", April: "5", Total: "15", AttendancePercent: "83.3"},
				{RollNo: "2", AdmissionNo: "1002", Name: "JANE ROE", DecToMar: "9", April: "6", Total: "15", AttendancePercent: "75.0"},
			},
		},
		{
			name: "row split across lines",
			text: "3 1003\nRAVI\nKUMAR\n12 8\n20 100.0",
			want: []RawRow{
				{RollNo: "3", AdmissionNo: "1003", Name: "RAVI\nKUMAR", DecToMar: "12", April: "8", Total: "20", AttendancePercent: "100.0"},
			},
		},
		{
			name: "footer between rows is skipped",
			text: "1 1001 JOHN DOE 10 5 15 83.3\nGenerated by School ERP - page 1\n2 1002 JANE ROE 9 6 15 75.0\n",
			want: []RawRow{
				{RollNo: "1", AdmissionNo: "1001", Name: "JOHN DOE", DecToMar: "10", April: "5", Total: "15", AttendancePercent: "83.3"},
				{RollNo: "2", AdmissionNo: "1002", Name: "JANE ROE", DecToMar: "9", April: "6", Total: "15", AttendancePercent: "75.0"},
			},
		},
		{
			name: "lower case name does not match",
			text: "1 1001 John Doe 10 5 15 83.3",
			want: []RawRow{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRows(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultFields_Match(t *testing.T) {
	fields := make(map[string]FieldMatcher)
	for _, f := range DefaultFields() {
		fields[f.Name] = f
	}

	tests := []struct {
		field string
		value string
		want  bool
	}{
		{FieldRollNo, "12", true},
		{FieldRollNo, "12.", true},
		{FieldRollNo, "12..", false},
		{FieldRollNo, "12a", false},
		{FieldAdmissionNo, "20931", true},
		{FieldName, "JOHN DOE", true},
		{FieldName, "A.K. SHARMA", true},
		{FieldName, "John", false},
		{FieldName, "", false},
		{FieldDecToMar, "0", true},
		{FieldApril, "-1", false},
		{FieldTotal, "15", true},
		{FieldAttendancePercent, "83.3", true},
		{FieldAttendancePercent, "83", false},
		{FieldAttendancePercent, "83.33", false},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.value, func(t *testing.T) {
			f, ok := fields[tt.field]
			require.True(t, ok)
			assert.Equal(t, tt.want, f.Match(tt.value))
			assert.Equal(t, tt.want, defaultPattern.MatchField(tt.field, tt.value))
		})
	}
}

func TestRowPattern_MatchFieldUnknown(t *testing.T) {
	assert.False(t, defaultPattern.MatchField("grade", "A"))
}

func TestNewRowPattern(t *testing.T) {
	assign := func(*RawRow, string) {}

	t.Run("no fields", func(t *testing.T) {
		_, err := NewRowPattern()
		assert.Error(t, err)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := NewRowPattern(
			FieldMatcher{Name: "a", Pattern: `\d+`, Assign: assign},
			FieldMatcher{Name: "a", Pattern: `\d+`, Assign: assign},
		)
		assert.Error(t, err)
	})

	t.Run("capturing group", func(t *testing.T) {
		_, err := NewRowPattern(FieldMatcher{Name: "a", Pattern: `(\d+)`, Assign: assign})
		assert.Error(t, err)
	})

	t.Run("bad regexp", func(t *testing.T) {
		_, err := NewRowPattern(FieldMatcher{Name: "a", Pattern: `[`, Assign: assign})
		assert.Error(t, err)
	})

	t.Run("missing assign", func(t *testing.T) {
		_, err := NewRowPattern(FieldMatcher{Name: "a", Pattern: `\d+`})
		assert.Error(t, err)
	})

	t.Run("extended shape", func(t *testing.T) {
		var may []string
		fields := append(DefaultFields()[:6:6], FieldMatcher{
			Name:    "may",
			Pattern: `\d+`,
			Assign:  func(_ *RawRow, v string) { may = append(may, v) },
		}, DefaultFields()[6])

		p, err := NewRowPattern(fields...)
		require.NoError(t, err)
		assert.Equal(t, []string{FieldRollNo, FieldAdmissionNo, FieldName, FieldDecToMar, FieldApril, FieldTotal, "may", FieldAttendancePercent}, p.Fields())

		rows := p.Extract("1 1001 JOHN DOE 10 5 15 4 83.3")
		require.Len(t, rows, 1)
		assert.Equal(t, "83.3", rows[0].AttendancePercent)
		assert.Equal(t, []string{"4"}, may)
	})
}
