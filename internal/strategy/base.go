package strategy

import (
	"github.com/yourusername/strategy-lab/internal/indicators"
)

// Default RSI extremes
const (
	DefaultRSIOversold   = 30.0
	DefaultRSIOverbought = 70.0
	rsiMidline           = 50.0
)

// BaseStrategy provides the confirmation rules shared by strategy families.
// Every check is written as a positive comparison so that a NaN indicator
// makes it fail.
type BaseStrategy struct {
	Filters       Filters
	RSIOversold   float64
	RSIOverbought float64
}

func (b *BaseStrategy) generate(frame *indicators.Frame, at func(*indicators.Frame, int) Signal) []Signal {
	signals := make([]Signal, frame.Len())
	for i := range signals {
		signals[i] = at(frame, i)
	}
	return signals
}

// volumeConfirms requires volume strictly above its rolling mean
func (b *BaseStrategy) volumeConfirms(frame *indicators.Frame, i int) bool {
	return !b.Filters.Volume || frame.VolumeOK[i]
}

// quietMarket holds when ATR is below its own rolling mean
func (b *BaseStrategy) quietMarket(frame *indicators.Frame, i int) bool {
	return !b.Filters.Volatility || frame.ATR[i] < frame.ATRMean[i]
}

// activeMarket holds when ATR is above its own rolling mean
func (b *BaseStrategy) activeMarket(frame *indicators.Frame, i int) bool {
	return !b.Filters.Volatility || frame.ATR[i] > frame.ATRMean[i]
}

func (b *BaseStrategy) rsiBounds() (float64, float64) {
	low, high := b.RSIOversold, b.RSIOverbought
	if low <= 0 {
		low = DefaultRSIOversold
	}
	if high <= 0 {
		high = DefaultRSIOverbought
	}
	return low, high
}

func (b *BaseStrategy) parameters() map[string]interface{} {
	low, high := b.rsiBounds()
	return map[string]interface{}{
		"trend_filter":      b.Filters.Trend,
		"volatility_filter": b.Filters.Volatility,
		"rsi_filter":        b.Filters.RSI,
		"volume_filter":     b.Filters.Volume,
		"macd_filter":       b.Filters.MACD,
		"rsi_oversold":      low,
		"rsi_overbought":    high,
	}
}
