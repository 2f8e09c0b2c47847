// Package analysis holds the statistics run over derived patient metrics.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientData indicates a sample is empty or contains no usable values.
var ErrInsufficientData = errors.New("insufficient data")

// RankSumOptions controls the rank-sum test.
type RankSumOptions struct {
	// TieCorrection subtracts the tie term from the rank-sum variance.
	TieCorrection bool
}

// DefaultRankSumOptions enables tie correction.
func DefaultRankSumOptions() RankSumOptions {
	return RankSumOptions{TieCorrection: true}
}

// RankSumResult is the outcome of a two-sample rank-sum test.
type RankSumResult struct {
	// Statistic is the standardized rank sum of the first sample (z).
	Statistic float64 `json:"statistic"`
	// PValue is the two-sided p-value under the normal approximation.
	PValue float64 `json:"pvalue"`
	// RankSum is the sum of the first sample's pooled ranks.
	RankSum      float64 `json:"rank_sum"`
	N1           int     `json:"n1"`
	N2           int     `json:"n2"`
	TieCorrected bool    `json:"tie_corrected"`
}

// String mirrors the conventional textual form of a rank-sum result.
func (r RankSumResult) String() string {
	return fmt.Sprintf("RanksumsResult(statistic=%s, pvalue=%s)", formatFloat(r.Statistic), formatFloat(r.PValue))
}

// RankSum compares x and y with the Wilcoxon rank-sum test. Both samples are
// ranked together (ties share their average rank), and the rank sum of x is
// standardized against its expectation n1(N+1)/2 under the null hypothesis of
// identical distributions. The samples may differ in length.
func RankSum(x, y []float64, opt RankSumOptions) (RankSumResult, error) {
	n1, n2 := len(x), len(y)
	if n1 == 0 || n2 == 0 {
		return RankSumResult{}, fmt.Errorf("%w: rank-sum test needs two non-empty samples (got %d and %d)", ErrInsufficientData, n1, n2)
	}
	pooled := make([]float64, 0, n1+n2)
	pooled = append(pooled, x...)
	pooled = append(pooled, y...)
	for _, v := range pooled {
		if math.IsNaN(v) {
			return RankSumResult{}, fmt.Errorf("%w: sample contains NaN", ErrInsufficientData)
		}
	}

	ranks, ties := rankWithTies(pooled)
	var r1 float64
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}

	fn1, fn2 := float64(n1), float64(n2)
	n := fn1 + fn2
	expected := fn1 * (n + 1) / 2
	variance := fn1 * fn2 * (n + 1) / 12
	if opt.TieCorrection && n > 1 {
		variance -= fn1 * fn2 * ties / (12 * n * (n - 1))
	}

	res := RankSumResult{RankSum: r1, N1: n1, N2: n2, TieCorrected: opt.TieCorrection}
	if variance <= 0 {
		res.Statistic = 0
		res.PValue = 1
		return res, nil
	}
	res.Statistic = (r1 - expected) / math.Sqrt(variance)
	res.PValue = twoSidedP(res.Statistic)
	return res, nil
}

func twoSidedP(z float64) float64 {
	p := 2 * distuv.UnitNormal.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}
	return p
}

// rankWithTies assigns 1-based ranks, averaging over tied values. It also
// returns the tie term sum(t^3 - t) over every group of t tied values.
func rankWithTies(data []float64) ([]float64, float64) {
	type pair struct {
		value float64
		index int
	}
	n := len(data)
	pairs := make([]pair, n)
	for i, v := range data {
		pairs[i] = pair{value: v, index: i}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

	ranks := make([]float64, n)
	var ties float64
	for i := 0; i < n; {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		size := j - i
		avg := float64(i+1) + float64(size-1)/2
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avg
		}
		if size > 1 {
			t := float64(size)
			ties += t*t*t - t
		}
		i = j
	}
	return ranks, ties
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
