package workbook

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInputNotFound indicates the workbook path does not reference a readable file.
var ErrInputNotFound = errors.New("input file not found")

// ErrEmptyInput indicates the workbook file exists but has no content.
var ErrEmptyInput = errors.New("input file is empty")

// ErrInvalidFormat indicates the file could not be parsed as an xlsx workbook.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrMissingSheet is matched by every MissingSheetError.
var ErrMissingSheet = errors.New("missing required sheet")

// MissingSheetError reports required sheets absent from a workbook.
type MissingSheetError struct {
	Missing  []string
	Required []string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("workbook is missing sheet(s) %s; required sheets: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Required, ", "))
}

func (e *MissingSheetError) Unwrap() error { return ErrMissingSheet }
