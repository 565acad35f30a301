package backtest

import (
	"fmt"

	"github.com/yourusername/strategy-lab/internal/config"
	"github.com/yourusername/strategy-lab/internal/indicators"
	"github.com/yourusername/strategy-lab/internal/models"
	"github.com/yourusername/strategy-lab/internal/strategy"
)

// Config is the explicit, by-value configuration of one backtest
type Config struct {
	Windows              indicators.Windows
	ZThreshold           float64
	MomentumThreshold    float64
	CostRate             float64
	MeanReversionFilters strategy.Filters
	MomentumFilters      strategy.Filters
	RSIOversold          float64
	RSIOverbought        float64
}

// DefaultConfig mirrors the classic daily setup: z=1.0, momentum=2%, no costs
func DefaultConfig() Config {
	return Config{
		Windows:              indicators.DefaultWindows(),
		ZThreshold:           1.0,
		MomentumThreshold:    0.02,
		CostRate:             0,
		MeanReversionFilters: strategy.Filters{Trend: true},
		RSIOversold:          strategy.DefaultRSIOversold,
		RSIOverbought:        strategy.DefaultRSIOverbought,
	}
}

// FromConfig converts app config to backtest config
func FromConfig(ind *config.IndicatorConfig, strat *config.StrategyConfig) (Config, error) {
	if ind == nil || strat == nil {
		return Config{}, fmt.Errorf("indicator and strategy config are required")
	}
	bt := Config{
		Windows:              ind.Windows(),
		ZThreshold:           strat.ZThreshold,
		MomentumThreshold:    strat.MomentumThreshold,
		CostRate:             strat.CostRate,
		MeanReversionFilters: filtersFrom(strat.MeanReversionFilters),
		MomentumFilters:      filtersFrom(strat.MomentumFilters),
		RSIOversold:          strat.RSIOversold,
		RSIOverbought:        strat.RSIOverbought,
	}
	return bt, bt.Validate()
}

func filtersFrom(f config.FilterConfig) strategy.Filters {
	return strategy.Filters{
		Trend:      f.Trend,
		Volatility: f.Volatility,
		RSI:        f.RSI,
		Volume:     f.Volume,
		MACD:       f.MACD,
	}
}

// Validate validates backtest config parameters
func (c Config) Validate() error {
	if err := c.Windows.Validate(); err != nil {
		return err
	}
	if c.ZThreshold < 0 {
		return fmt.Errorf("z threshold cannot be negative")
	}
	if c.MomentumThreshold < 0 {
		return fmt.Errorf("momentum threshold cannot be negative")
	}
	if c.CostRate < 0 || c.CostRate > 0.1 {
		return fmt.Errorf("cost rate must be between 0 and 0.1")
	}
	if c.RSIOversold >= c.RSIOverbought && c.RSIOverbought > 0 {
		return fmt.Errorf("rsi oversold bound must be below overbought bound")
	}
	return nil
}

// Params returns the sweepable part of the configuration
func (c Config) Params() models.SweepParams {
	return models.SweepParams{
		ZThreshold:        c.ZThreshold,
		MomentumThreshold: c.MomentumThreshold,
		CostRate:          c.CostRate,
	}
}

// WithParams returns a copy with the sweepable fields replaced
func (c Config) WithParams(p models.SweepParams) Config {
	c.ZThreshold = p.ZThreshold
	c.MomentumThreshold = p.MomentumThreshold
	c.CostRate = p.CostRate
	return c
}

// strategies builds the two signal families in report order
func (c Config) strategies() []strategy.Strategy {
	mr := strategy.NewMeanReversion(c.ZThreshold)
	mr.Filters = c.MeanReversionFilters
	mr.RSIOversold, mr.RSIOverbought = c.RSIOversold, c.RSIOverbought

	mom := strategy.NewMomentum(c.MomentumThreshold)
	mom.Filters = c.MomentumFilters
	mom.RSIOversold, mom.RSIOverbought = c.RSIOversold, c.RSIOverbought
	return []strategy.Strategy{mr, mom}
}
