// Package repository writes sweep results to files, the console or PostgreSQL
// and exports equity curves for charting.
package repository

import (
	"fmt"
	"io"
	"os"

	"github.com/yourusername/strategy-lab/internal/config"
	"github.com/yourusername/strategy-lab/internal/database"
)

// NewResultSink builds the configured sink. db is only required for the
// postgres sink and out only for the console sink (stdout when nil).
func NewResultSink(cfg config.OutputConfig, db *database.DB, out io.Writer) (ResultSink, error) {
	switch cfg.Sink {
	case "csv":
		return NewCSVSink(cfg.Directory), nil
	case "parquet":
		return NewParquetSink(cfg.Directory), nil
	case "console":
		if out == nil {
			out = os.Stdout
		}
		return NewConsoleSink(out), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("database connection is required")
		}
		return NewPostgresResultRepository(db.GetPool()), nil
	default:
		return nil, fmt.Errorf("unknown result sink: %s", cfg.Sink)
	}
}
