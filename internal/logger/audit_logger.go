package logger

import (
	"github.com/sirupsen/logrus"
	"github.com/yourusername/strategy-lab/internal/models"
)

// AuditLogger records what a sweep produced and where it went.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogResultsSaved logs a completed sink write.
func (al *AuditLogger) LogResultsSaved(sweepID, sink string, rows int) {
	al.WithFields(logrus.Fields{
		"sweep_id": sweepID,
		"sink":     sink,
		"rows":     rows,
	}).Info("Sweep results saved")
}

// LogBestSelected logs the winning row for one instrument.
func (al *AuditLogger) LogBestSelected(sweepID string, best models.MetricsReport) {
	al.WithFields(logrus.Fields{
		"sweep_id":   sweepID,
		"instrument": best.Instrument,
		"strategy":   string(best.Strategy),
		"params":     best.Params.String(),
		"sharpe":     models.RoundTo(best.Sharpe, 2),
	}).Info("Best configuration selected")
}

// LogChartsExported logs an equity chart export.
func (al *AuditLogger) LogChartsExported(path string, series int) {
	al.WithFields(logrus.Fields{
		"path":   path,
		"series": series,
	}).Info("Equity charts exported")
}
