package metrics

import (
	"github.com/KaramelBytes/pdclinical/internal/workbook"
)

// MotorColumns names the columns of a motor-score sheet.
type MotorColumns struct {
	Patient string `mapstructure:"patient" yaml:"patient"`
	Side    string `mapstructure:"side" yaml:"side"`
	OnStim  string `mapstructure:"on_stim" yaml:"on_stim"`
	OffStim string `mapstructure:"off_stim" yaml:"off_stim"`
	Voltage string `mapstructure:"voltage" yaml:"voltage"`
}

// DefaultMotorColumns returns the column names used by the clinical workbooks.
func DefaultMotorColumns() MotorColumns {
	return MotorColumns{
		Patient: "Patient",
		Side:    "Side",
		OnStim:  "Motor score (on stim)",
		OffStim: "Motor score (off stim)",
		Voltage: "Voltage [V]",
	}
}

// MotorRecord is one patient's motor scores for one side.
type MotorRecord struct {
	Sheet   string
	Row     int
	Patient string
	Side    string
	OnStim  float64
	OffStim float64
	Voltage float64
}

// ReadMotorRecords parses every data row of a motor-score sheet.
func ReadMotorRecords(sh *workbook.Sheet, cols MotorColumns) ([]MotorRecord, error) {
	idx, err := resolveColumns(sh, cols.Patient, cols.Side, cols.OnStim, cols.OffStim, cols.Voltage)
	if err != nil {
		return nil, err
	}
	iPatient, iSide, iOn, iOff, iVolt := idx[0], idx[1], idx[2], idx[3], idx[4]

	out := make([]MotorRecord, 0, len(sh.Rows))
	for r := range sh.Rows {
		row := sh.RowNumber(r)
		patient := sh.Cell(r, iPatient)
		if patient == "" {
			return nil, malformed(sh.Name, row, cols.Patient, "patient identifier is empty")
		}
		rec := MotorRecord{Sheet: sh.Name, Row: row, Patient: patient, Side: sh.Cell(r, iSide)}
		if rec.OnStim, err = numericCell(sh, r, iOn, cols.OnStim); err != nil {
			return nil, err
		}
		if rec.OffStim, err = numericCell(sh, r, iOff, cols.OffStim); err != nil {
			return nil, err
		}
		if rec.Voltage, err = numericCell(sh, r, iVolt, cols.Voltage); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ImprovementScores computes (off-stim / on-stim) / voltage for every record,
// returned in patient order. A zero on-stim score or voltage leaves the ratio
// undefined and fails the whole sheet.
func ImprovementScores(records []MotorRecord) ([]Score, error) {
	seen := make(map[string]int, len(records))
	out := make([]Score, 0, len(records))
	for _, rec := range records {
		if prev, dup := seen[rec.Patient]; dup {
			return nil, malformed(rec.Sheet, rec.Row, "", "patient %s already listed on row %d", rec.Patient, prev)
		}
		seen[rec.Patient] = rec.Row
		if rec.OnStim == 0 {
			return nil, malformed(rec.Sheet, rec.Row, "", "on-stim motor score is zero for patient %s", rec.Patient)
		}
		if rec.Voltage == 0 {
			return nil, malformed(rec.Sheet, rec.Row, "", "voltage is zero for patient %s", rec.Patient)
		}
		out = append(out, Score{Patient: rec.Patient, Value: (rec.OffStim / rec.OnStim) / rec.Voltage})
	}
	SortScores(out)
	return out, nil
}

// ImprovementScore reads a motor-score sheet and derives its improvement scores.
func ImprovementScore(sh *workbook.Sheet, cols MotorColumns) ([]Score, error) {
	recs, err := ReadMotorRecords(sh, cols)
	if err != nil {
		return nil, err
	}
	return ImprovementScores(recs)
}

func resolveColumns(sh *workbook.Sheet, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	var missing []string
	for i, n := range names {
		c, ok := sh.Column(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		idx[i] = c
	}
	if len(missing) > 0 {
		return nil, malformed(sh.Name, 0, "", "missing column(s) %q", missing)
	}
	return idx, nil
}

func numericCell(sh *workbook.Sheet, r, col int, name string) (float64, error) {
	raw := sh.Cell(r, col)
	if raw == "" {
		return 0, malformed(sh.Name, sh.RowNumber(r), name, "value is empty")
	}
	v, ok := workbook.ParseNumeric(raw)
	if !ok {
		return 0, malformed(sh.Name, sh.RowNumber(r), name, "%q is not a finite number", raw)
	}
	return v, nil
}
