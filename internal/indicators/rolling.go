package indicators

import "math"

// SMA over the last w points; returns a slice aligned to input length with NaNs
// for warmup. A window containing a NaN is itself NaN.
func SMA(x []float64, w int) []float64 {
	out := nanSlice(len(x))
	if w <= 0 {
		return out
	}
	for i := w - 1; i < len(x); i++ {
		sum := 0.0
		for _, v := range x[i-w+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(w)
	}
	return out
}

// RollingStd is the sample (n-1) standard deviation over the last w points.
// The mean is taken per window so a flat window yields exactly zero.
func RollingStd(x []float64, w int) []float64 {
	out := nanSlice(len(x))
	if w < 2 {
		return out
	}
	for i := w - 1; i < len(x); i++ {
		window := x[i-w+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(w)
		variance := 0.0
		for _, v := range window {
			diff := v - mean
			variance += diff * diff
		}
		out[i] = math.Sqrt(variance / float64(w-1))
	}
	return out
}

// EMA with smoothing 2/(span+1), seeded with the first value and no
// bias correction.
func EMA(x []float64, span int) []float64 {
	out := nanSlice(len(x))
	if span <= 0 || len(x) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = alpha*x[i] + (1-alpha)*out[i-1]
	}
	return out
}

// PctChange is x[i]/x[i-lag] - 1; NaN for the first lag points.
func PctChange(x []float64, lag int) []float64 {
	out := nanSlice(len(x))
	if lag <= 0 {
		return out
	}
	for i := lag; i < len(x); i++ {
		out[i] = x[i]/x[i-lag] - 1
	}
	return out
}

// Diff is x[i] - x[i-1]; the first value is NaN.
func Diff(x []float64) []float64 {
	out := nanSlice(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

// Ratio divides element-wise; a zero or NaN denominator gives NaN, never Inf.
func Ratio(num, den []float64) []float64 {
	out := nanSlice(len(num))
	for i := range num {
		if den[i] == 0 || math.IsNaN(den[i]) || math.IsNaN(num[i]) {
			continue
		}
		out[i] = num[i] / den[i]
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
