// Package strategy converts indicator frames into discrete trading signals and
// carries those signals forward into held positions.
package strategy

import (
	"github.com/yourusername/strategy-lab/internal/indicators"
	"github.com/yourusername/strategy-lab/internal/models"
)

// Signal is a per-period instruction: +1 go long, -1 go short, 0 no new instruction.
type Signal int8

// Signal values
const (
	SignalShort Signal = -1
	SignalNone  Signal = 0
	SignalLong  Signal = 1
)

// Position is the exposure held during a period, in {-1, 0, +1}.
type Position int8

// Strategy defines the interface for signal-generating strategy families
type Strategy interface {
	Name() models.StrategyKind
	// Generate evaluates every period independently from that period's
	// indicator values; it never reads other periods.
	Generate(frame *indicators.Frame) []Signal
	GetParameters() map[string]interface{}
}

// Filters switches optional confirmation rules on or off
type Filters struct {
	Trend      bool `json:"trend" mapstructure:"trend"`
	Volatility bool `json:"volatility" mapstructure:"volatility"`
	RSI        bool `json:"rsi" mapstructure:"rsi"`
	Volume     bool `json:"volume" mapstructure:"volume"`
	MACD       bool `json:"macd" mapstructure:"macd"`
}
