package cleaning

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Skewness returns the adjusted Fisher-Pearson sample skewness (G1) of vals.
// Fewer than three values, or zero spread, yield 0 and ok == false: the
// statistic is undefined there and the column is treated as not skewed.
func Skewness(vals []float64) (skew float64, ok bool) {
	if len(vals) < 3 {
		return 0, false
	}
	if stat.StdDev(vals, nil) == 0 {
		return 0, false
	}
	s := stat.Skew(vals, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, false
	}
	return s, true
}

// Mean returns the arithmetic mean of vals; vals must be non-empty.
func Mean(vals []float64) float64 {
	return stat.Mean(vals, nil)
}

// Median returns the middle value of vals, averaging the two central values
// for even lengths; vals must be non-empty.
func Median(vals []float64) float64 {
	return Quantile(sortedCopy(vals), 0.5)
}

// Quantile interpolates linearly between the closest ranks of an ascending
// slice, at position q*(n-1). This is Hyndman-Fan type 7, the numpy/pandas default.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// allFinite reports whether vals holds no infinities or NaNs.
func allFinite(vals []float64) bool {
	for _, v := range vals {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}
