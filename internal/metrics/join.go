package metrics

// Pair holds two scores of the same patient.
type Pair struct {
	Patient string
	A, B    float64
}

// Join is the result of matching two score sets on patient id.
type Join struct {
	Pairs []Pair
	// OnlyA and OnlyB list patients present in one input only.
	OnlyA []string
	OnlyB []string
}

// JoinScores matches a and b on patient id. Pairs come out in patient order.
func JoinScores(a, b []Score) Join {
	bIdx := make(map[string]float64, len(b))
	for _, s := range b {
		bIdx[s.Patient] = s.Value
	}
	var j Join
	matched := make(map[string]bool, len(a))
	for _, s := range a {
		v, ok := bIdx[s.Patient]
		if !ok {
			j.OnlyA = append(j.OnlyA, s.Patient)
			continue
		}
		matched[s.Patient] = true
		j.Pairs = append(j.Pairs, Pair{Patient: s.Patient, A: s.Value, B: v})
	}
	for _, s := range b {
		if !matched[s.Patient] {
			j.OnlyB = append(j.OnlyB, s.Patient)
		}
	}

	ids := make([]string, len(j.Pairs))
	byID := make(map[string]Pair, len(j.Pairs))
	for i, p := range j.Pairs {
		ids[i] = p.Patient
		byID[p.Patient] = p
	}
	SortPatientIDs(ids)
	for i, id := range ids {
		j.Pairs[i] = byID[id]
	}
	SortPatientIDs(j.OnlyA)
	SortPatientIDs(j.OnlyB)
	return j
}

// Unmatched is the number of patients present on one side only.
func (j Join) Unmatched() int { return len(j.OnlyA) + len(j.OnlyB) }

// AValues returns the first score of every pair.
func (j Join) AValues() []float64 {
	out := make([]float64, len(j.Pairs))
	for i, p := range j.Pairs {
		out[i] = p.A
	}
	return out
}

// BValues returns the second score of every pair.
func (j Join) BValues() []float64 {
	out := make([]float64, len(j.Pairs))
	for i, p := range j.Pairs {
		out[i] = p.B
	}
	return out
}

// Points joins percent activation with improvement scores into plot points.
func Points(activation, improvement []Score) ([]Point, Join) {
	j := JoinScores(activation, improvement)
	pts := make([]Point, len(j.Pairs))
	for i, p := range j.Pairs {
		pts[i] = Point{Patient: p.Patient, Activation: p.A, Improvement: p.B}
	}
	return pts, j
}
