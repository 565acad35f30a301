package logger

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/strategy-lab/internal/models"
)

// SweepLogger provides dedicated logging for grid sweeps.
type SweepLogger struct {
	*logrus.Entry
}

// NewSweepLogger creates a new sweep logger.
func NewSweepLogger(baseLogger *logrus.Logger, sweepID string) *SweepLogger {
	return &SweepLogger{
		Entry: baseLogger.WithFields(logrus.Fields{
			"component": "sweep",
			"sweep_id":  sweepID,
		}),
	}
}

// LogCellCompleted logs a finished (params, instrument) cell.
func (sl *SweepLogger) LogCellCompleted(instrument string, params models.SweepParams, rows int, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"instrument":         instrument,
		"z_threshold":        params.ZThreshold,
		"momentum_threshold": params.MomentumThreshold,
		"cost_rate":          params.CostRate,
		"rows":               rows,
		"duration_ms":        duration.Milliseconds(),
	}).Debug("Sweep cell completed")
}

// LogCellSkipped logs a cell skipped for too little history.
func (sl *SweepLogger) LogCellSkipped(instrument string, params models.SweepParams, observations, required int) {
	sl.WithFields(logrus.Fields{
		"instrument":   instrument,
		"params":       params.String(),
		"observations": observations,
		"required":     required,
	}).Warn("Sweep cell skipped: insufficient history")
}

// LogCellFailed logs a cell that returned an error or panicked.
func (sl *SweepLogger) LogCellFailed(instrument string, params models.SweepParams, err error) {
	sl.WithFields(logrus.Fields{
		"instrument": instrument,
		"params":     params.String(),
	}).WithError(err).Error("Sweep cell failed")
}

// LogInstrumentUnavailable logs an instrument dropped from the sweep.
func (sl *SweepLogger) LogInstrumentUnavailable(instrument string, err error) {
	sl.WithField("instrument", instrument).WithError(err).Warn("Instrument data unavailable")
}

// LogSweepSummary logs the sweep totals.
func (sl *SweepLogger) LogSweepSummary(completed, skipped, failed, rows int, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"cells_completed": completed,
		"cells_skipped":   skipped,
		"cells_failed":    failed,
		"rows":            rows,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Sweep finished")
}
