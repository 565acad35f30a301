package strategy

import (
	"github.com/yourusername/strategy-lab/internal/indicators"
	"github.com/yourusername/strategy-lab/internal/models"
)

// Momentum follows the lagged percentage change: long above +threshold,
// short below -threshold.
type Momentum struct {
	BaseStrategy
	Threshold float64
}

// NewMomentum creates a momentum strategy with no confirmations enabled
func NewMomentum(threshold float64) *Momentum {
	return &Momentum{
		BaseStrategy: BaseStrategy{
			RSIOversold:   DefaultRSIOversold,
			RSIOverbought: DefaultRSIOverbought,
		},
		Threshold: threshold,
	}
}

// Name returns strategy name
func (s *Momentum) Name() models.StrategyKind {
	return models.StrategyMomentum
}

// Generate evaluates each period independently
func (s *Momentum) Generate(frame *indicators.Frame) []Signal {
	return s.generate(frame, s.SignalAt)
}

// SignalAt evaluates period i only
func (s *Momentum) SignalAt(frame *indicators.Frame, i int) Signal {
	mom := frame.Momentum[i]
	price := frame.Price[i]

	if mom > s.Threshold &&
		(!s.Filters.Trend || price > frame.SMALong[i]) &&
		(!s.Filters.RSI || frame.RSI[i] > rsiMidline) &&
		(!s.Filters.MACD || frame.MACD[i] > frame.MACDSignal[i]) &&
		s.activeMarket(frame, i) &&
		s.volumeConfirms(frame, i) {
		return SignalLong
	}
	if mom < -s.Threshold &&
		(!s.Filters.Trend || price < frame.SMALong[i]) &&
		(!s.Filters.RSI || frame.RSI[i] < rsiMidline) &&
		(!s.Filters.MACD || frame.MACD[i] < frame.MACDSignal[i]) &&
		s.activeMarket(frame, i) &&
		s.volumeConfirms(frame, i) {
		return SignalShort
	}
	return SignalNone
}

// GetParameters returns strategy parameters for reports
func (s *Momentum) GetParameters() map[string]interface{} {
	params := s.parameters()
	params["momentum_threshold"] = s.Threshold
	return params
}
