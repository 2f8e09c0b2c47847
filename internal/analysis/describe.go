package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Descriptive summarizes one numeric sample.
type Descriptive struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes count, mean, median, sample standard deviation, min and max.
func Describe(vals []float64) Descriptive {
	d := Descriptive{Count: len(vals)}
	if len(vals) == 0 {
		return d
	}
	d.Mean, _ = stats.Mean(vals)
	d.Median, _ = stats.Median(vals)
	d.Min, _ = stats.Min(vals)
	d.Max, _ = stats.Max(vals)
	if len(vals) > 1 {
		d.Std, _ = stats.StandardDeviationSample(vals)
	}
	return d
}

// Pearson returns the correlation of x and y, or NaN when it is undefined
// (fewer than two points or a constant sample).
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	return r
}

// Outlier is a value whose robust z-score exceeds the threshold.
type Outlier struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Z     float64 `json:"z"`
}

// DefaultOutlierThreshold is the robust |z| cut-off.
const DefaultOutlierThreshold = 3.5

// RobustOutliers flags values with |0.6745 (v - median) / MAD| above thr.
// labels[i] names vals[i]. Nothing is flagged when the MAD is zero.
func RobustOutliers(labels []string, vals []float64, thr float64) []Outlier {
	if thr <= 0 {
		thr = DefaultOutlierThreshold
	}
	median, err := stats.Median(vals)
	if err != nil {
		return nil
	}
	mad, err := stats.MedianAbsoluteDeviationPopulation(vals)
	if err != nil || mad == 0 {
		return nil
	}
	var out []Outlier
	for i, v := range vals {
		z := 0.6745 * (v - median) / mad
		if math.Abs(z) > thr {
			out = append(out, Outlier{Label: labels[i], Value: v, Z: z})
		}
	}
	return out
}
