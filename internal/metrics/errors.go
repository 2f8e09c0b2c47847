package metrics

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is matched by every MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError describes a row or column that cannot produce a metric.
type MalformedRecordError struct {
	Sheet  string
	Row    int // 1-based spreadsheet row; 0 when the problem is sheet-wide
	Column string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("malformed record in sheet %q row %d column %q: %s", e.Sheet, e.Row, e.Column, e.Reason)
	case e.Row > 0:
		return fmt.Sprintf("malformed record in sheet %q row %d: %s", e.Sheet, e.Row, e.Reason)
	default:
		return fmt.Sprintf("malformed sheet %q: %s", e.Sheet, e.Reason)
	}
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

func malformed(sheet string, row int, column, format string, args ...any) *MalformedRecordError {
	return &MalformedRecordError{Sheet: sheet, Row: row, Column: column, Reason: fmt.Sprintf(format, args...)}
}
