package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/pdclinical/internal/metrics"
)

// SideSummary collects the per-side diagnostics of a run.
type SideSummary struct {
	Side        metrics.Side
	Improvement Descriptive
	Activation  Descriptive
	// Correlation is Pearson r between activation and improvement over plotted points.
	Correlation float64
	Points      int
	// Unplotted lists patients with an improvement score but no activation, or the reverse.
	Unplotted []string
	Outliers  []Outlier
}

// SideInput is what Summarize needs from one side.
type SideInput struct {
	Side        metrics.Side
	Improvement []metrics.Score
	Activation  []metrics.Score
	Points      []metrics.Point
	Unplotted   []string
}

// Summary is the human-readable diagnostic view of a run.
type Summary struct {
	Workbook     string
	VolumeSchema string
	JoinPolicy   string
	Left         SideSummary
	Right        SideSummary
	Paired       int
	LeftOnly     []string
	RightOnly    []string
	RankSum      RankSumResult
	MannWhitney  *MannWhitneyResult
	Warnings     []string
}

// SummarizeSide computes descriptive statistics, correlation and outliers for a side.
func SummarizeSide(in SideInput) SideSummary {
	s := SideSummary{
		Side:        in.Side,
		Improvement: Describe(metrics.Values(in.Improvement)),
		Activation:  Describe(metrics.Values(in.Activation)),
		Points:      len(in.Points),
		Unplotted:   in.Unplotted,
		Correlation: math.NaN(),
	}
	if len(in.Points) > 0 {
		xs := make([]float64, len(in.Points))
		ys := make([]float64, len(in.Points))
		for i, p := range in.Points {
			xs[i], ys[i] = p.Activation, p.Improvement
		}
		s.Correlation = Pearson(xs, ys)
	}
	s.Outliers = RobustOutliers(metrics.Patients(in.Improvement), metrics.Values(in.Improvement), DefaultOutlierThreshold)
	return s
}

// SummaryInput gathers what Summarize reports on.
type SummaryInput struct {
	Workbook     string
	VolumeSchema string
	JoinPolicy   string
	Left, Right  SideInput
	// Sides is the left/right join of improvement scores.
	Sides       metrics.Join
	RankSum     RankSumResult
	MannWhitney *MannWhitneyResult
}

// Summarize builds the diagnostic summary of a run.
func Summarize(in SummaryInput) *Summary {
	s := &Summary{
		Workbook:     in.Workbook,
		VolumeSchema: in.VolumeSchema,
		JoinPolicy:   in.JoinPolicy,
		Left:         SummarizeSide(in.Left),
		Right:        SummarizeSide(in.Right),
		Paired:       len(in.Sides.Pairs),
		LeftOnly:     in.Sides.OnlyA,
		RightOnly:    in.Sides.OnlyB,
		RankSum:      in.RankSum,
		MannWhitney:  in.MannWhitney,
	}
	if n := in.Sides.Unmatched(); n > 0 {
		verb := "excluded from"
		if in.JoinPolicy == "keep" {
			verb = "kept in"
		}
		s.Warnings = append(s.Warnings, fmt.Sprintf("%d patient(s) present on one side only, %s the rank-sum test", n, verb))
	}
	s.Warnings = append(s.Warnings, fmt.Sprintf("percent activation uses the %q volume schema; earlier analyses used the other STN volume definition", in.VolumeSchema))
	for _, side := range []SideInput{in.Left, in.Right} {
		var over []string
		for _, a := range side.Activation {
			if a.Value > 100 {
				over = append(over, a.Patient)
			}
		}
		if len(over) > 0 {
			s.Warnings = append(s.Warnings, fmt.Sprintf("%s: activated volume exceeds the structure volume for patient(s) %s", side.Side.Label(), strings.Join(over, ", ")))
		}
	}
	return s
}

// Markdown renders the summary as sectioned plain text.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[ANALYSIS SUMMARY]\n")
	if s.Workbook != "" {
		b.WriteString(fmt.Sprintf("Workbook: %s\n", s.Workbook))
	}
	b.WriteString(fmt.Sprintf("Volume schema: %s\n", s.VolumeSchema))
	b.WriteString(fmt.Sprintf("Join policy: %s\n\n", s.JoinPolicy))

	b.WriteString("[RANK-SUM TEST]\n")
	b.WriteString(fmt.Sprintf("- %s\n", s.RankSum))
	b.WriteString(fmt.Sprintf("- n left %d, n right %d, rank sum (left) %.4g", s.RankSum.N1, s.RankSum.N2, s.RankSum.RankSum))
	if s.RankSum.TieCorrected {
		b.WriteString(", tie-corrected")
	}
	b.WriteString("\n")
	if s.MannWhitney != nil {
		b.WriteString(fmt.Sprintf("- Mann-Whitney U %.4g, p %.4g\n", s.MannWhitney.U, s.MannWhitney.PValue))
	}
	b.WriteString("\n[PATIENT MATCHING]\n")
	b.WriteString(fmt.Sprintf("- paired on both sides: %d\n", s.Paired))
	if len(s.LeftOnly) > 0 {
		b.WriteString(fmt.Sprintf("- left only (%d): %s\n", len(s.LeftOnly), strings.Join(s.LeftOnly, ", ")))
	}
	if len(s.RightOnly) > 0 {
		b.WriteString(fmt.Sprintf("- right only (%d): %s\n", len(s.RightOnly), strings.Join(s.RightOnly, ", ")))
	}

	for _, side := range []SideSummary{s.Left, s.Right} {
		b.WriteString(fmt.Sprintf("\n[%s]\n", strings.ToUpper(side.Side.Label())))
		writeDescriptive(&b, "improvement score", side.Improvement)
		writeDescriptive(&b, "STN activation %", side.Activation)
		if math.IsNaN(side.Correlation) {
			b.WriteString(fmt.Sprintf("- correlation (activation vs improvement): n/a over %d point(s)\n", side.Points))
		} else {
			b.WriteString(fmt.Sprintf("- correlation (activation vs improvement): r=%.3f over %d point(s)\n", side.Correlation, side.Points))
		}
		if len(side.Unplotted) > 0 {
			b.WriteString(fmt.Sprintf("- not plotted (missing a metric): %s\n", strings.Join(side.Unplotted, ", ")))
		}
		if len(side.Outliers) > 0 {
			b.WriteString(fmt.Sprintf("- outliers (|z|>%.1f):", DefaultOutlierThreshold))
			for _, o := range side.Outliers {
				b.WriteString(fmt.Sprintf(" %s=%.4g (z≈%.2f)", o.Label, o.Value, o.Z))
			}
			b.WriteString("\n")
		}
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeDescriptive(b *strings.Builder, name string, d Descriptive) {
	if d.Count == 0 {
		b.WriteString(fmt.Sprintf("- %s: no values\n", name))
		return
	}
	b.WriteString(fmt.Sprintf("- %s: n %d, mean %.4g, median %.4g, std %.4g, min %.4g, max %.4g\n",
		name, d.Count, d.Mean, d.Median, d.Std, d.Min, d.Max))
}
