// Package report writes the artifacts of an analysis run: the rank-sum report,
// the diagnostic summary and the activation/improvement scatter plot.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/pdclinical/internal/analysis"
	"github.com/KaramelBytes/pdclinical/internal/utils"
)

// ErrIOFailure indicates an artifact could not be written.
var ErrIOFailure = errors.New("artifact i/o failure")

// ReportHeader is the first line of the rank-sum report.
const ReportHeader = "Wilcoxon_p-values:"

// WriteReport replaces the file at path with the rank-sum result.
func WriteReport(result analysis.RankSumResult, path string) error {
	body := ReportHeader + "\n" + result.String()
	return writeArtifact(path, []byte(body))
}

// WriteSummary saves the rendered summary to path.
func WriteSummary(summary *analysis.Summary, path string) error {
	if summary == nil {
		return fmt.Errorf("write summary: nil summary")
	}
	return writeArtifact(path, []byte(summary.Markdown()))
}

func writeArtifact(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("%w: empty artifact path", ErrIOFailure)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIOFailure, path, err)
	}
	return nil
}

// removeQuietly is used to drop partially written images.
func removeQuietly(path string) {
	_ = os.Remove(path)
}
