// Package gridsearch sweeps backtests over a parameter grid and a universe of
// instruments on a bounded worker pool.
package gridsearch

import (
	"fmt"

	"github.com/yourusername/strategy-lab/internal/config"
	"github.com/yourusername/strategy-lab/internal/models"
)

// ParamGrid is the cartesian product of the sweepable parameters
type ParamGrid struct {
	ZThresholds        []float64
	MomentumThresholds []float64
	CostRates          []float64
}

// GridFromConfig converts the grid section of the app config
func GridFromConfig(cfg *config.GridConfig) (ParamGrid, error) {
	if cfg == nil {
		return ParamGrid{}, fmt.Errorf("grid config is required")
	}
	grid := ParamGrid{
		ZThresholds:        append([]float64(nil), cfg.ZThresholds...),
		MomentumThresholds: append([]float64(nil), cfg.MomentumThresholds...),
		CostRates:          append([]float64(nil), cfg.CostRates...),
	}
	return grid, grid.Validate()
}

// Validate rejects an empty axis
func (g ParamGrid) Validate() error {
	if len(g.ZThresholds) == 0 || len(g.MomentumThresholds) == 0 || len(g.CostRates) == 0 {
		return fmt.Errorf("every grid axis needs at least one value")
	}
	return nil
}

// Size returns the number of parameter tuples
func (g ParamGrid) Size() int {
	return len(g.ZThresholds) * len(g.MomentumThresholds) * len(g.CostRates)
}

// Cells yields every tuple, z threshold outermost and cost rate innermost
func (g ParamGrid) Cells() []models.SweepParams {
	cells := make([]models.SweepParams, 0, g.Size())
	for _, z := range g.ZThresholds {
		for _, mom := range g.MomentumThresholds {
			for _, cost := range g.CostRates {
				cells = append(cells, models.SweepParams{
					ZThreshold:        z,
					MomentumThreshold: mom,
					CostRate:          cost,
				})
			}
		}
	}
	return cells
}
