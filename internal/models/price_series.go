package models

import (
	"fmt"
	"math"
	"time"
)

// PricePoint is one daily observation for an instrument. Volume is NaN when
// the provider did not supply one.
type PricePoint struct {
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered, timestamp-indexed history for one instrument.
// Missing trading days are simply absent.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Prices returns the price column
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// Volumes returns the volume column, or nil when the series carries no volume.
func (s PriceSeries) Volumes() []float64 {
	if !s.HasVolume() {
		return nil
	}
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Volume
	}
	return out
}

// Times returns the timestamp column
func (s PriceSeries) Times() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Time
	}
	return out
}

// HasVolume reports whether every point carries a volume
func (s PriceSeries) HasVolume() bool {
	if len(s.Points) == 0 {
		return false
	}
	for _, p := range s.Points {
		if math.IsNaN(p.Volume) {
			return false
		}
	}
	return true
}

// Validate checks ordering, uniqueness and price sanity
func (s PriceSeries) Validate() error {
	if s.Symbol == "" {
		return ErrSymbolRequired
	}
	if len(s.Points) == 0 {
		return fmt.Errorf("%s: %w", s.Symbol, ErrEmptySeries)
	}
	withVolume := 0
	for i, p := range s.Points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
			return fmt.Errorf("%s at %s: %w", s.Symbol, p.Time.Format("2006-01-02"), ErrInvalidPrice)
		}
		if i > 0 && !p.Time.After(s.Points[i-1].Time) {
			return fmt.Errorf("%s at %s: %w", s.Symbol, p.Time.Format("2006-01-02"), ErrUnorderedSeries)
		}
		if !math.IsNaN(p.Volume) {
			withVolume++
		}
	}
	if withVolume != 0 && withVolume != len(s.Points) {
		return fmt.Errorf("%s: %w", s.Symbol, ErrVolumeMismatch)
	}
	return nil
}

// DropMissing removes points with no usable price anywhere in the series.
// Providers report days an instrument did not trade (or a blank close) this
// way; the remaining points keep their timestamps, so the gap stays a gap.
func (s PriceSeries) DropMissing() PriceSeries {
	kept := make([]PricePoint, 0, len(s.Points))
	for _, p := range s.Points {
		if math.IsNaN(p.Price) || p.Price <= 0 {
			continue
		}
		kept = append(kept, p)
	}
	return PriceSeries{Symbol: s.Symbol, Points: kept}
}
