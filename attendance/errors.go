package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractionFailed means no attendance row could be found in the text
	ErrExtractionFailed = errors.New("could not extract attendance data from the PDF")
	// ErrEmptyInput means Aggregate was called without rows
	ErrEmptyInput = errors.New("no attendance rows to aggregate")
	// ErrMalformedRow is matched by every *MalformedRowError
	ErrMalformedRow = errors.New("malformed attendance row")
	// ErrStudentNotFound is returned by FindStudent
	ErrStudentNotFound = errors.New("student not found")
)

// MalformedRowError reports a matched row whose field failed conversion
type MalformedRowError struct {
	Row   int // zero-based position in the input
	Field string
	Value string
	Err   error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %v", e.Row+1, e.Field, e.Value, e.Err)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMalformedRow) match any MalformedRowError.
func (e *MalformedRowError) Is(target error) bool {
	return target == ErrMalformedRow
}

// IsNoData reports whether err means the document held no attendance table.
// Both the extraction and the aggregation form map to the same user-facing condition.
func IsNoData(err error) bool {
	return errors.Is(err, ErrExtractionFailed) || errors.Is(err, ErrEmptyInput)
}
