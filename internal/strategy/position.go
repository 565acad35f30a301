package strategy

import "math"

// TrackPositions carries the last nonzero signal forward in a single pass.
// A zero signal keeps the current position; the carry starts flat.
func TrackPositions(signals []Signal) []Position {
	positions := make([]Position, len(signals))
	carried := Position(0)
	for i, s := range signals {
		if s != SignalNone {
			carried = Position(s)
		}
		positions[i] = carried
	}
	return positions
}

// CombinePositions rounds the per-period mean of two tracked positions, half
// to even, so only agreeing nonzero positions survive. It is recomputed every
// period rather than carried.
func CombinePositions(a, b []Position) []Position {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	combined := make([]Position, n)
	for i := 0; i < n; i++ {
		mean := (float64(a[i]) + float64(b[i])) / 2
		combined[i] = Position(math.RoundToEven(mean))
	}
	return combined
}

// Float converts positions for return arithmetic
func Float(positions []Position) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = float64(p)
	}
	return out
}
