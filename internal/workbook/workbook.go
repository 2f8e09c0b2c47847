// Package workbook loads xlsx workbooks into named tabular sheets.
package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Default sheet names expected in a clinical outcome workbook.
const (
	SheetLeftMotor  = "LSTN_activation"
	SheetVolume     = "dvSTN_activation"
	SheetRightMotor = "RSTN_activation"
)

// DefaultRequiredSheets returns the sheet names a workbook must contain.
func DefaultRequiredSheets() []string {
	return []string{SheetLeftMotor, SheetVolume, SheetRightMotor}
}

// Options configures workbook loading.
type Options struct {
	// Validate enables the up-front empty-file and required-sheet checks.
	Validate bool
	// Required lists sheet names that must be present when Validate is set.
	Required []string
	// Logger receives diagnostics; nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions validates input against the default sheet names.
func DefaultOptions() Options {
	return Options{Validate: true, Required: DefaultRequiredSheets()}
}

// Workbook maps sheet names to their tabular content.
type Workbook struct {
	// Name is the workbook file name (no directory).
	Name string
	// Sheets maps sheet name to its dataset.
	Sheets map[string]*Sheet
	// Order keeps the sheet order of the file.
	Order []string
}

// Sheet is a header row plus the data rows beneath it.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
	// RowNumbers holds the 1-based spreadsheet row of each entry in Rows.
	RowNumbers []int
}

// Load opens path as an xlsx workbook and returns every sheet it contains.
func Load(path string, opt Options) (*Workbook, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInputNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInputNotFound, path)
	}
	if opt.Validate && info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputNotFound, path, err)
	}
	defer fh.Close()
	f, err := excelize.OpenReader(fh)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}
	defer f.Close()

	wb := &Workbook{Name: filepath.Base(path), Sheets: make(map[string]*Sheet)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sh := newSheet(name, rows)
		wb.Sheets[name] = sh
		wb.Order = append(wb.Order, name)
		log.Debug("loaded sheet",
			zap.String("sheet", name),
			zap.Int("columns", len(sh.Header)),
			zap.Int("rows", len(sh.Rows)))
	}

	if opt.Validate {
		if err := wb.Require(opt.Required...); err != nil {
			return nil, err
		}
	}
	return wb, nil
}

// Require fails with a MissingSheetError if any name is absent.
func (w *Workbook) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := w.Sheets[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &MissingSheetError{Missing: missing, Required: append([]string(nil), names...)}
	}
	return nil
}

// Sheet returns the named sheet or a MissingSheetError.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	if sh, ok := w.Sheets[name]; ok {
		return sh, nil
	}
	return nil, &MissingSheetError{Missing: []string{name}, Required: []string{name}}
}

func newSheet(name string, rows [][]string) *Sheet {
	sh := &Sheet{Name: name}
	headerSeen := false
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		if !headerSeen {
			sh.Header = make([]string, len(row))
			for j, h := range row {
				sh.Header[j] = strings.TrimSpace(h)
			}
			headerSeen = true
			continue
		}
		sh.Rows = append(sh.Rows, row)
		sh.RowNumbers = append(sh.RowNumbers, i+1)
	}
	return sh
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Column returns the index of the named column. An exact header match wins;
// otherwise headers are compared case-insensitively with whitespace collapsed.
func (s *Sheet) Column(name string) (int, bool) {
	for i, h := range s.Header {
		if h == name {
			return i, true
		}
	}
	want := normalizeHeader(name)
	for i, h := range s.Header {
		if normalizeHeader(h) == want {
			return i, true
		}
	}
	return -1, false
}

// HasColumns reports whether every name resolves to a column.
func (s *Sheet) HasColumns(names ...string) bool {
	for _, n := range names {
		if _, ok := s.Column(n); !ok {
			return false
		}
	}
	return true
}

// Cell returns the trimmed value at row/col, or "" when the row is short.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 {
		return ""
	}
	r := s.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// RowNumber returns the 1-based spreadsheet row for a data row index.
func (s *Sheet) RowNumber(row int) int {
	if row < 0 || row >= len(s.RowNumbers) {
		return 0
	}
	return s.RowNumbers[row]
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
