package analysis

import (
	"errors"
	"fmt"

	mstats "github.com/aclements/go-moremath/stats"
)

// MannWhitneyResult is the U-test view of the same left/right comparison.
// For small tie-free samples the p-value is exact rather than approximated.
type MannWhitneyResult struct {
	U      float64 `json:"u"`
	PValue float64 `json:"pvalue"`
	N1     int     `json:"n1"`
	N2     int     `json:"n2"`
}

// MannWhitney runs a two-sided Mann-Whitney U test on x and y.
func MannWhitney(x, y []float64) (MannWhitneyResult, error) {
	res, err := mstats.MannWhitneyUTest(x, y, mstats.LocationDiffers)
	if err != nil {
		switch {
		case errors.Is(err, mstats.ErrSampleSize):
			return MannWhitneyResult{}, fmt.Errorf("%w: %v", ErrInsufficientData, err)
		case errors.Is(err, mstats.ErrSamplesEqual):
			// every value identical: no evidence of a location shift
			return MannWhitneyResult{U: float64(len(x)*len(y)) / 2, PValue: 1, N1: len(x), N2: len(y)}, nil
		}
		return MannWhitneyResult{}, fmt.Errorf("mann-whitney: %w", err)
	}
	return MannWhitneyResult{U: res.U, PValue: res.P, N1: res.N1, N2: res.N2}, nil
}
