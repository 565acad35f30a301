package backtest

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds pairwise Pearson correlations of equity curves
// taken over the timestamps every curve shares.
type CorrelationMatrix struct {
	Names  []string
	Values [][]float64
	// Periods is the number of common timestamps used
	Periods int
}

// Get returns the correlation between two named curves, or NaN if either is
// unknown.
func (m CorrelationMatrix) Get(a, b string) float64 {
	i, j := indexOf(m.Names, a), indexOf(m.Names, b)
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return m.Values[i][j]
}

// Correlate aligns the named curves on their common timestamps and computes
// the correlation matrix. Names are sorted for a stable layout. A pair with
// fewer than two common points or a flat curve correlates as NaN, except a
// curve with itself which is always 1.
func Correlate(curves map[string]EquityCurve) CorrelationMatrix {
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)

	common := commonTimes(curves, names)
	aligned := make([][]float64, len(names))
	for i, name := range names {
		byTime := make(map[time.Time]float64, len(curves[name]))
		for _, p := range curves[name] {
			byTime[p.Time] = p.Value
		}
		col := make([]float64, len(common))
		for k, t := range common {
			col[k] = byTime[t]
		}
		aligned[i] = col
	}

	values := make([][]float64, len(names))
	for i := range names {
		values[i] = make([]float64, len(names))
		for j := range names {
			if i == j {
				values[i][j] = 1
				continue
			}
			values[i][j] = pearson(aligned[i], aligned[j])
		}
	}
	return CorrelationMatrix{Names: names, Values: values, Periods: len(common)}
}

func commonTimes(curves map[string]EquityCurve, names []string) []time.Time {
	if len(names) == 0 {
		return nil
	}
	counts := make(map[time.Time]int)
	for _, name := range names {
		seen := make(map[time.Time]bool, len(curves[name]))
		for _, p := range curves[name] {
			if !seen[p.Time] {
				seen[p.Time] = true
				counts[p.Time]++
			}
		}
	}
	var common []time.Time
	for t, c := range counts {
		if c == len(names) {
			common = append(common, t)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })
	return common
}

// pearson is undefined for fewer than two points or a flat series.
func pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
