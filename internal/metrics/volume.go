package metrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/pdclinical/internal/workbook"
)

// sidePlaceholder is replaced by "L" or "R" in VolumeSchema column templates.
const sidePlaceholder = "{side}"

// VolumeSchema describes where the STN volume and the activated volume of one
// side live on the volume sheet. When a field lists several templates their
// values are summed per patient.
type VolumeSchema struct {
	Name      string   `mapstructure:"name" yaml:"name"`
	Structure []string `mapstructure:"structure" yaml:"structure"`
	Activated []string `mapstructure:"activated" yaml:"activated"`
}

// SingleSchema reads one reported STN volume column per side.
var SingleSchema = VolumeSchema{
	Name:      "single",
	Structure: []string{"STN vol ({side}) [mm3]"},
	Activated: []string{"VTA inside STN ({side}) [mm3]"},
}

// SummedSchema adds the dorsal and ventral STN sub-volumes.
var SummedSchema = VolumeSchema{
	Name:      "summed",
	Structure: []string{"dSTN vol ({side}) [mm3]", "vSTN vol ({side}) [mm3]"},
	Activated: []string{"VTA inside dSTN ({side}) [mm3]", "VTA inside vSTN ({side}) [mm3]"},
}

// SchemaByName returns a built-in schema.
func SchemaByName(name string) (VolumeSchema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SingleSchema.Name:
		return SingleSchema, nil
	case SummedSchema.Name:
		return SummedSchema, nil
	}
	return VolumeSchema{}, fmt.Errorf("unknown volume schema %q (use single or summed)", name)
}

// Columns expands the templates for one side.
func (s VolumeSchema) Columns(side Side) (structure, activated []string) {
	expand := func(tpl []string) []string {
		out := make([]string, len(tpl))
		for i, t := range tpl {
			out[i] = strings.ReplaceAll(t, sidePlaceholder, string(side))
		}
		return out
	}
	return expand(s.Structure), expand(s.Activated)
}

// VolumeRecord is one patient's STN and activated volumes for one side.
type VolumeRecord struct {
	Sheet     string
	Row       int
	Patient   string
	Structure float64
	Activated float64
}

// ReadVolumeRecords reads the side's volumes from the volume sheet.
func ReadVolumeRecords(sh *workbook.Sheet, patientCol string, side Side, schema VolumeSchema) ([]VolumeRecord, error) {
	if _, ok := ParseSide(string(side)); !ok {
		return nil, fmt.Errorf("%w: side must be L or R, got %q", ErrMalformedRecord, side)
	}
	if len(schema.Structure) == 0 || len(schema.Activated) == 0 {
		return nil, fmt.Errorf("volume schema %q defines no columns", schema.Name)
	}
	structCols, actCols := schema.Columns(side)
	names := append([]string{patientCol}, structCols...)
	names = append(names, actCols...)
	idx, err := resolveColumns(sh, names...)
	if err != nil {
		if alt := otherSchema(schema); alt.Name != "" {
			as, aa := alt.Columns(side)
			if sh.HasColumns(append(as, aa...)...) {
				var me *MalformedRecordError
				if errors.As(err, &me) {
					me.Reason += fmt.Sprintf("; the sheet matches the %q volume schema instead", alt.Name)
				}
			}
		}
		return nil, err
	}
	iPatient := idx[0]
	iStruct := idx[1 : 1+len(structCols)]
	iAct := idx[1+len(structCols):]

	out := make([]VolumeRecord, 0, len(sh.Rows))
	for r := range sh.Rows {
		patient := sh.Cell(r, iPatient)
		if patient == "" {
			return nil, malformed(sh.Name, sh.RowNumber(r), patientCol, "patient identifier is empty")
		}
		rec := VolumeRecord{Sheet: sh.Name, Row: sh.RowNumber(r), Patient: patient}
		for i, c := range iStruct {
			v, err := numericCell(sh, r, c, structCols[i])
			if err != nil {
				return nil, err
			}
			rec.Structure += v
		}
		for i, c := range iAct {
			v, err := numericCell(sh, r, c, actCols[i])
			if err != nil {
				return nil, err
			}
			rec.Activated += v
		}
		out = append(out, rec)
	}
	return out, nil
}

// PercentActivation computes (activated / structure) * 100 per patient for one
// side, in patient order. The result is not clamped: an activated volume
// larger than the reported STN volume yields more than 100.
func PercentActivation(sh *workbook.Sheet, patientCol string, side Side, schema VolumeSchema) ([]Score, error) {
	recs, err := ReadVolumeRecords(sh, patientCol, side, schema)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]int, len(recs))
	out := make([]Score, 0, len(recs))
	for _, rec := range recs {
		if prev, dup := seen[rec.Patient]; dup {
			return nil, malformed(rec.Sheet, rec.Row, "", "patient %s already listed on row %d", rec.Patient, prev)
		}
		seen[rec.Patient] = rec.Row
		if rec.Structure == 0 {
			return nil, malformed(rec.Sheet, rec.Row, "", "STN volume (%s) is zero for patient %s", side, rec.Patient)
		}
		out = append(out, Score{Patient: rec.Patient, Value: rec.Activated / rec.Structure * 100})
	}
	SortScores(out)
	return out, nil
}

func otherSchema(s VolumeSchema) VolumeSchema {
	switch s.Name {
	case SingleSchema.Name:
		return SummedSchema
	case SummedSchema.Name:
		return SingleSchema
	}
	return VolumeSchema{}
}
