package gridsearch

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/strategy-lab/internal/backtest"
	"github.com/yourusername/strategy-lab/internal/models"
)

// CellStatus is the outcome kind of one (params, instrument) cell
type CellStatus string

// Cell statuses
const (
	CellCompleted CellStatus = "completed"
	CellSkipped   CellStatus = "skipped"
	CellFailed    CellStatus = "failed"
)

// CellOutcome records what happened to one cell. Err is set for skipped and
// failed cells; Rows only for completed ones.
type CellOutcome struct {
	Instrument string
	Params     models.SweepParams
	Status     CellStatus
	Err        error
	Rows       []models.MetricsReport
	Duration   time.Duration
}

// Result is the output of one sweep
type Result struct {
	SweepID  uuid.UUID
	Rows     []models.MetricsReport
	Outcomes []CellOutcome
	// Dropped lists instruments whose data was unavailable
	Dropped []string
	// Curves holds the combined-strategy equity curve per instrument for the
	// first grid cell
	Curves   map[string]backtest.EquityCurve
	Duration time.Duration
}

// Counts returns the number of cells per status
func (r *Result) Counts() (completed, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case CellCompleted:
			completed++
		case CellSkipped:
			skipped++
		case CellFailed:
			failed++
		}
	}
	return completed, skipped, failed
}

// Failures returns the failed cells
func (r *Result) Failures() []CellOutcome {
	var failures []CellOutcome
	for _, o := range r.Outcomes {
		if o.Status == CellFailed {
			failures = append(failures, o)
		}
	}
	return failures
}

// BestByInstrument returns, per instrument, the row with the highest Sharpe
// across strategies and params. NaN never wins; ties keep the first row in
// strategy then params order, and an instrument without any defined Sharpe
// yields its first row in that order. Rows are sorted by instrument.
func (r *Result) BestByInstrument() []models.MetricsReport {
	return BestByInstrument(r.Rows)
}

// BestByInstrument selects the best row per instrument from rows
func BestByInstrument(rows []models.MetricsReport) []models.MetricsReport {
	ordered := append([]models.MetricsReport(nil), rows...)
	sortRows(ordered)

	var best []models.MetricsReport
	for i := 0; i < len(ordered); {
		j := i
		for j < len(ordered) && ordered[j].Instrument == ordered[i].Instrument {
			j++
		}
		group := ordered[i:j]
		sort.SliceStable(group, func(a, b int) bool {
			ka, kb := strategyIndex(group[a].Strategy), strategyIndex(group[b].Strategy)
			if ka != kb {
				return ka < kb
			}
			return paramsLess(group[a].Params, group[b].Params)
		})

		winner := group[0]
		for _, row := range group[1:] {
			if math.IsNaN(row.Sharpe) {
				continue
			}
			if math.IsNaN(winner.Sharpe) || row.Sharpe > winner.Sharpe {
				winner = row
			}
		}
		best = append(best, winner)
		i = j
	}
	return best
}

// Correlation correlates the combined-strategy equity curves across
// instruments
func (r *Result) Correlation() backtest.CorrelationMatrix {
	return backtest.Correlate(r.Curves)
}

// sortRows orders rows by instrument, params, then report order
func sortRows(rows []models.MetricsReport) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Instrument != b.Instrument {
			return a.Instrument < b.Instrument
		}
		if a.Params != b.Params {
			return paramsLess(a.Params, b.Params)
		}
		return strategyIndex(a.Strategy) < strategyIndex(b.Strategy)
	})
}

func sortOutcomes(outcomes []CellOutcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if a.Instrument != b.Instrument {
			return a.Instrument < b.Instrument
		}
		return paramsLess(a.Params, b.Params)
	})
}

func paramsLess(a, b models.SweepParams) bool {
	if a.ZThreshold != b.ZThreshold {
		return a.ZThreshold < b.ZThreshold
	}
	if a.MomentumThreshold != b.MomentumThreshold {
		return a.MomentumThreshold < b.MomentumThreshold
	}
	return a.CostRate < b.CostRate
}

func strategyIndex(kind models.StrategyKind) int {
	for i, k := range models.AllStrategies {
		if k == kind {
			return i
		}
	}
	return len(models.AllStrategies)
}
