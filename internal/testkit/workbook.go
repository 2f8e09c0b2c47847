// Package testkit builds clinical outcome workbooks for tests.
package testkit

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// MotorHeader is the header row of a motor-score sheet.
var MotorHeader = []any{"Patient", "Side", "Motor score (on stim)", "Motor score (off stim)", "Voltage [V]"}

// SingleVolumeHeader is the header row of a volume sheet with one STN column per side.
var SingleVolumeHeader = []any{
	"Patient",
	"STN vol (L) [mm3]", "VTA inside STN (L) [mm3]",
	"STN vol (R) [mm3]", "VTA inside STN (R) [mm3]",
}

// SummedVolumeHeader is the header row of a volume sheet split into dorsal and ventral STN.
var SummedVolumeHeader = []any{
	"Patient",
	"dSTN vol (L) [mm3]", "vSTN vol (L) [mm3]", "VTA inside dSTN (L) [mm3]", "VTA inside vSTN (L) [mm3]",
	"dSTN vol (R) [mm3]", "vSTN vol (R) [mm3]", "VTA inside dSTN (R) [mm3]", "VTA inside vSTN (R) [mm3]",
}

// Sheet is a named sheet of rows; the first row is the header.
type Sheet struct {
	Name string
	Rows [][]any
}

// WriteWorkbook saves the sheets as an xlsx file inside t.TempDir and returns its path.
func WriteWorkbook(t *testing.T, name string, sheets ...Sheet) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sh.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			t.Fatalf("new sheet %s: %v", sh.Name, err)
		}
		for r, row := range sh.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(sh.Name, cell, &row); err != nil {
				t.Fatalf("write row %d of %s: %v", r+1, sh.Name, err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// MotorSheet builds a motor-score sheet from (patient, on, off, voltage) rows.
func MotorSheet(name, side string, rows ...[4]float64) Sheet {
	out := [][]any{MotorHeader}
	for _, r := range rows {
		out = append(out, []any{r[0], side, r[1], r[2], r[3]})
	}
	return Sheet{Name: name, Rows: out}
}

// SingleVolumeSheet builds a volume sheet from
// (patient, STN L, VTA L, STN R, VTA R) rows.
func SingleVolumeSheet(name string, rows ...[5]float64) Sheet {
	out := [][]any{SingleVolumeHeader}
	for _, r := range rows {
		out = append(out, []any{r[0], r[1], r[2], r[3], r[4]})
	}
	return Sheet{Name: name, Rows: out}
}

// ScenarioSheets returns the three-patient workbook used across packages:
// identical left and right motor sheets yielding scores [1.0, 3.0, 0.25].
func ScenarioSheets() []Sheet {
	motor := [][4]float64{
		{1, 10, 20, 2},
		{2, 5, 15, 1},
		{3, 8, 8, 4},
	}
	return []Sheet{
		MotorSheet("LSTN_activation", "L", motor...),
		SingleVolumeSheet("dvSTN_activation",
			[5]float64{1, 100, 40, 120, 30},
			[5]float64{2, 90, 45, 80, 60},
			[5]float64{3, 110, 11, 100, 25},
		),
		MotorSheet("RSTN_activation", "R", motor...),
	}
}
