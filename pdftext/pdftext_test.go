package pdftext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-analyzer-go/attendance"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return content
}

// assertInOrder checks that every part occurs in text, each after the previous one.
func assertInOrder(t *testing.T, text string, parts ...string) {
	t.Helper()
	rest := text
	for _, part := range parts {
		i := strings.Index(rest, part)
		if !assert.GreaterOrEqual(t, i, 0, "%q missing or out of order in %q", part, text) {
			return
		}
		rest = rest[i+len(part):]
	}
}

func TestIsPDFFileName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"REPORT.PDF", true},
		{"april.attendance.Pdf", true},
		{"report.pdf.exe", false},
		{"report.xlsx", false},
		{"pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPDFFileName(tt.name))
		})
	}
}

func TestExtractBytes_Invalid(t *testing.T) {
	_, err := ExtractBytes(nil)
	assert.ErrorIs(t, err, ErrUnreadablePDF)

	_, err = ExtractBytes([]byte("1 1001 JOHN DOE 10 5 15 83.3"))
	assert.ErrorIs(t, err, ErrUnreadablePDF)
}

func TestExtractBytes_PageOrder(t *testing.T) {
	text, err := ExtractBytes(readFixture(t, "two_pages.pdf"))
	require.NoError(t, err)

	assertInOrder(t, text,
		"Attendance Register April",
		"1. 1001 JOHN DOE 10 5 15 83.3",
		"2. 1002 JANE ROE 9 6",
		"\n",
		"15 75.0",
		"Page 2 of 2",
	)
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestExtractBytes_RowAcrossPages(t *testing.T) {
	text, err := ExtractBytes(readFixture(t, "two_pages.pdf"))
	require.NoError(t, err)

	summary, err := attendance.Analyze(text)
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalStudents)

	jane, err := attendance.FindStudent(summary, 2)
	require.NoError(t, err)
	assert.Equal(t, "JANE ROE", jane.Name)
	assert.Equal(t, 6, jane.April)
	assert.Equal(t, 15, jane.Total)
	assert.Equal(t, 75.0, jane.AttendancePercent)
	assert.Equal(t, 79.2, summary.AverageAttendance)
}

func TestExtractBytes_SkipsMissingPage(t *testing.T) {
	// The page tree claims three pages but holds two.
	want, err := ExtractBytes(readFixture(t, "two_pages.pdf"))
	require.NoError(t, err)

	got, err := ExtractBytes(readFixture(t, "missing_page.pdf"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
