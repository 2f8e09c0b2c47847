// Package metrics derives per-patient outcome metrics from workbook sheets.
package metrics

import (
	"sort"
	"strconv"
)

// Side identifies a brain hemisphere.
type Side string

const (
	Left  Side = "L"
	Right Side = "R"
)

// ParseSide accepts "L" or "R".
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case Left, Right:
		return Side(s), true
	}
	return "", false
}

// Label is the legend text for the side.
func (s Side) Label() string {
	if s == Left {
		return "Left Side"
	}
	return "Right Side"
}

// Score is one derived metric value for one patient.
type Score struct {
	Patient string
	Value   float64
}

// Values returns the score values in order.
func Values(scores []Score) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = s.Value
	}
	return out
}

// Patients returns the patient ids in order.
func Patients(scores []Score) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Patient
	}
	return out
}

// SortScores orders scores by patient id.
func SortScores(scores []Score) {
	ids := Patients(scores)
	numeric := allNumeric(ids)
	sort.SliceStable(scores, func(i, j int) bool {
		return lessPatient(scores[i].Patient, scores[j].Patient, numeric)
	})
}

// SortPatientIDs orders ids numerically when every id is a number and
// lexically otherwise.
func SortPatientIDs(ids []string) {
	numeric := allNumeric(ids)
	sort.SliceStable(ids, func(i, j int) bool { return lessPatient(ids[i], ids[j], numeric) })
}

func allNumeric(ids []string) bool {
	for _, id := range ids {
		if _, err := strconv.ParseFloat(id, 64); err != nil {
			return false
		}
	}
	return true
}

func lessPatient(a, b string, numeric bool) bool {
	if numeric {
		fa, _ := strconv.ParseFloat(a, 64)
		fb, _ := strconv.ParseFloat(b, 64)
		if fa != fb {
			return fa < fb
		}
	}
	return a < b
}

// Point pairs a patient's percent activation (X) with its improvement score (Y).
type Point struct {
	Patient     string
	Activation  float64
	Improvement float64
}
