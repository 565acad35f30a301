// Package indicators derives rolling statistics and technical indicators from a
// daily price/volume series. Every column is aligned 1:1 with the input and is
// NaN where its lookback window is not yet full or its value is undefined.
package indicators

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/strategy-lab/internal/models"
)

// Windows holds the lookback lengths used by Compute
type Windows struct {
	Short       int `json:"short" mapstructure:"short"`
	Long        int `json:"long" mapstructure:"long"`
	MomentumLag int `json:"momentum_lag" mapstructure:"momentum_lag"`
	ATR         int `json:"atr" mapstructure:"atr"`
	ATRMean     int `json:"atr_mean" mapstructure:"atr_mean"`
	RSI         int `json:"rsi" mapstructure:"rsi"`
	MACDFast    int `json:"macd_fast" mapstructure:"macd_fast"`
	MACDSlow    int `json:"macd_slow" mapstructure:"macd_slow"`
	MACDSignal  int `json:"macd_signal" mapstructure:"macd_signal"`
	Volume      int `json:"volume" mapstructure:"volume"`
}

// DefaultWindows returns the standard daily lookbacks
func DefaultWindows() Windows {
	return Windows{
		Short:       10,
		Long:        200,
		MomentumLag: 5,
		ATR:         14,
		ATRMean:     50,
		RSI:         14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		Volume:      20,
	}
}

// Validate checks window sanity
func (w Windows) Validate() error {
	named := map[string]int{
		"short": w.Short, "long": w.Long, "momentum_lag": w.MomentumLag,
		"atr": w.ATR, "atr_mean": w.ATRMean, "rsi": w.RSI,
		"macd_fast": w.MACDFast, "macd_slow": w.MACDSlow, "macd_signal": w.MACDSignal,
		"volume": w.Volume,
	}
	for name, v := range named {
		if v <= 0 {
			return fmt.Errorf("window %s must be positive, got %d", name, v)
		}
	}
	if w.Short < 2 {
		return fmt.Errorf("short window must be at least 2 for a standard deviation")
	}
	if w.MACDFast >= w.MACDSlow {
		return fmt.Errorf("macd fast span must be shorter than slow span")
	}
	return nil
}

// Largest returns the number of observations needed before every indicator
// is defined.
func (w Windows) Largest() int {
	largest := w.Short
	for _, v := range []int{w.Long, w.MomentumLag + 1, w.ATR + w.ATRMean, w.RSI + 1, w.Volume} {
		if v > largest {
			largest = v
		}
	}
	return largest
}

// Frame is the typed indicator table for one series
type Frame struct {
	Times      []time.Time
	Price      []float64
	SMAShort   []float64
	STDShort   []float64
	ZScore     []float64
	Momentum   []float64
	SMALong    []float64
	ATR        []float64
	ATRMean    []float64
	RSI        []float64
	MACD       []float64
	MACDSignal []float64
	Volume     []float64
	VolumeMean []float64
	VolumeOK   []bool
}

// Len returns the number of periods in the frame
func (f *Frame) Len() int {
	return len(f.Price)
}

// Compute derives the indicator frame. It has no side effects.
func Compute(series models.PriceSeries, w Windows) (*Frame, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, models.ErrEmptySeries
	}

	prices := series.Prices()
	f := &Frame{
		Times:    series.Times(),
		Price:    prices,
		SMAShort: SMA(prices, w.Short),
		STDShort: RollingStd(prices, w.Short),
		Momentum: PctChange(prices, w.MomentumLag),
		SMALong:  SMA(prices, w.Long),
	}

	deviation := make([]float64, len(prices))
	for i := range prices {
		deviation[i] = prices[i] - f.SMAShort[i]
	}
	f.ZScore = Ratio(deviation, f.STDShort)

	f.ATR, f.ATRMean = averageTrueRange(prices, w.ATR, w.ATRMean)
	f.RSI = relativeStrength(prices, w.RSI)
	f.MACD, f.MACDSignal = macd(prices, w.MACDFast, w.MACDSlow, w.MACDSignal)
	f.Volume, f.VolumeMean, f.VolumeOK = volumeFilter(series.Volumes(), len(prices), w.Volume)

	return f, nil
}

// averageTrueRange is simplified to the mean absolute close-to-close change.
func averageTrueRange(prices []float64, window, meanWindow int) ([]float64, []float64) {
	moves := Diff(prices)
	for i, v := range moves {
		moves[i] = math.Abs(v)
	}
	atr := SMA(moves, window)
	return atr, SMA(atr, meanWindow)
}

func relativeStrength(prices []float64, window int) []float64 {
	changes := Diff(prices)
	gains := make([]float64, len(changes))
	losses := make([]float64, len(changes))
	for i, c := range changes {
		if math.IsNaN(c) {
			gains[i], losses[i] = math.NaN(), math.NaN()
			continue
		}
		gains[i] = math.Max(c, 0)
		losses[i] = math.Max(-c, 0)
	}
	strength := Ratio(SMA(gains, window), SMA(losses, window))
	out := nanSlice(len(prices))
	for i, rs := range strength {
		if math.IsNaN(rs) {
			continue
		}
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func macd(prices []float64, fast, slow, signal int) ([]float64, []float64) {
	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)
	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	return line, EMA(line, signal)
}

func volumeFilter(volumes []float64, n, window int) ([]float64, []float64, []bool) {
	ok := make([]bool, n)
	if volumes == nil {
		empty := nanSlice(n)
		return empty, nanSlice(n), ok
	}
	mean := SMA(volumes, window)
	for i := range volumes {
		ok[i] = volumes[i] > mean[i]
	}
	return volumes, mean, ok
}
