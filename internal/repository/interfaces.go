package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/strategy-lab/internal/models"
)

// ResultSink persists the rows of one sweep. Rows are full precision; sinks
// that present values round them.
type ResultSink interface {
	SaveResults(ctx context.Context, sweepID uuid.UUID, rows []models.MetricsReport) error
	Name() string
}

// ResultRepository is a queryable sink
type ResultRepository interface {
	ResultSink
	GetBySweep(ctx context.Context, sweepID uuid.UUID) ([]models.MetricsReport, error)
	GetBestByInstrument(ctx context.Context, sweepID uuid.UUID) ([]models.MetricsReport, error)
}
