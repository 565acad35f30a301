package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
)

// Cell status label values
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

var (
	SweepCellsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_cells_total",
		Help:      "Total number of grid cells by outcome",
	}, []string{"status"})

	SweepCellDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_cell_duration_seconds",
		Help:      "Duration of a single backtest cell in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Duration of a full grid sweep in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})

	SweepBestSharpe = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sweep_best_sharpe",
		Help:      "Sharpe ratio of the best configuration per instrument in the last sweep",
	}, []string{"instrument"})

	SweepsRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sweeps_running",
		Help:      "Number of sweeps currently executing",
	})
)

// RecordCell records one finished cell.
// status should be one of: StatusCompleted, StatusSkipped, StatusFailed
func RecordCell(status string, durationSeconds float64) {
	SweepCellsTotal.WithLabelValues(status).Inc()
	if status == StatusCompleted {
		SweepCellDuration.Observe(durationSeconds)
	}
}

// RecordSweepDuration records a full sweep duration.
func RecordSweepDuration(durationSeconds float64) {
	SweepDuration.Observe(durationSeconds)
}

// UpdateBestSharpe publishes the best Sharpe for an instrument. Undefined
// values are not published.
func UpdateBestSharpe(instrument string, sharpe float64) {
	if math.IsNaN(sharpe) {
		return
	}
	SweepBestSharpe.WithLabelValues(instrument).Set(sharpe)
}

// SweepStarted increments the running sweeps gauge and returns its decrement.
func SweepStarted() func() {
	SweepsRunning.Inc()
	return SweepsRunning.Dec
}
