package cmd

import (
	"errors"

	"github.com/KaramelBytes/pdclinical/internal/report"
	"github.com/KaramelBytes/pdclinical/internal/workbook"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitInvalidData = 1
	ExitIO          = 2
)

// ExitCode maps a command error to the process exit status. Missing input and
// artifact write failures are I/O errors; everything else, including malformed
// data and bad flags, is invalid data.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, workbook.ErrInputNotFound), errors.Is(err, report.ErrIOFailure):
		return ExitIO
	default:
		return ExitInvalidData
	}
}
