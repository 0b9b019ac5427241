package utils

import (
	"math"
	"sort"
)

// Distribution summarizes a sample of integer sizes.
type Distribution struct {
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
}

// Describe returns the distribution of values. An empty sample yields the zero Distribution.
func Describe(values []int) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	sum := 0
	for _, v := range sorted {
		sum += v
	}
	return Distribution{
		Count:  len(sorted),
		Min:    sorted[0],
		Q1:     Percentile(sorted, 0.25),
		Median: Percentile(sorted, 0.5),
		Q3:     Percentile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Mean:   float64(sum) / float64(len(sorted)),
	}
}

// Percentile returns the p-quantile (0..1) of an ascending sample using linear
// interpolation between closest ranks.
func Percentile(sorted []int, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return float64(sorted[0])
	}
	if p >= 1 {
		return float64(sorted[len(sorted)-1])
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo])
}

// ClampInt bounds v to [lo, hi]. When lo > hi, hi wins.
func ClampInt(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
