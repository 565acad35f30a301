package strategy

import (
	"github.com/yourusername/strategy-lab/internal/indicators"
	"github.com/yourusername/strategy-lab/internal/models"
)

// MeanReversion buys statistically oversold prices and sells overbought ones.
// Strategy logic: long when z < -threshold, short when z > threshold, each
// subject to the enabled confirmations in the same direction.
type MeanReversion struct {
	BaseStrategy
	ZThreshold float64
}

// NewMeanReversion creates a mean-reversion strategy with the trend filter on,
// which keeps longs below and shorts above the long moving average.
func NewMeanReversion(zThreshold float64) *MeanReversion {
	return &MeanReversion{
		BaseStrategy: BaseStrategy{
			Filters:       Filters{Trend: true},
			RSIOversold:   DefaultRSIOversold,
			RSIOverbought: DefaultRSIOverbought,
		},
		ZThreshold: zThreshold,
	}
}

// Name returns strategy name
func (s *MeanReversion) Name() models.StrategyKind {
	return models.StrategyMeanReversion
}

// Generate evaluates each period independently
func (s *MeanReversion) Generate(frame *indicators.Frame) []Signal {
	return s.generate(frame, s.SignalAt)
}

// SignalAt evaluates period i only
func (s *MeanReversion) SignalAt(frame *indicators.Frame, i int) Signal {
	z := frame.ZScore[i]
	price := frame.Price[i]
	low, high := s.rsiBounds()

	if z < -s.ZThreshold &&
		(!s.Filters.Trend || price < frame.SMALong[i]) &&
		(!s.Filters.RSI || frame.RSI[i] < low) &&
		s.quietMarket(frame, i) &&
		s.volumeConfirms(frame, i) {
		return SignalLong
	}
	if z > s.ZThreshold &&
		(!s.Filters.Trend || price > frame.SMALong[i]) &&
		(!s.Filters.RSI || frame.RSI[i] > high) &&
		s.quietMarket(frame, i) &&
		s.volumeConfirms(frame, i) {
		return SignalShort
	}
	return SignalNone
}

// GetParameters returns strategy parameters for reports
func (s *MeanReversion) GetParameters() map[string]interface{} {
	params := s.parameters()
	params["z_threshold"] = s.ZThreshold
	return params
}
