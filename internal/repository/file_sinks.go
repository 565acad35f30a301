package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/yourusername/strategy-lab/internal/backtest"
	"github.com/yourusername/strategy-lab/internal/models"
)

// CSVSink writes rounded rows to <dir>/sweep-<id>.csv
type CSVSink struct {
	dir string
}

// NewCSVSink creates a CSV sink
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

// Name returns the sink name
func (s *CSVSink) Name() string { return "csv" }

// Path returns the file a sweep is written to
func (s *CSVSink) Path(sweepID uuid.UUID) string {
	return filepath.Join(s.dir, "sweep-"+sweepID.String()+".csv")
}

// SaveResults writes the header and one line per row
func (s *CSVSink) SaveResults(ctx context.Context, sweepID uuid.UUID, rows []models.MetricsReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(s.Path(sweepID))
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()
	return WriteCSV(file, rows)
}

// WriteCSV writes the tabular layout to w
func WriteCSV(w io.Writer, rows []models.MetricsReport) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(models.ReportColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.Cells()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ResultRecord is the Parquet schema for one full-precision result row
type ResultRecord struct {
	SweepID           string  `parquet:"sweep_id"`
	Strategy          string  `parquet:"strategy"`
	Instrument        string  `parquet:"instrument"`
	ZThreshold        float64 `parquet:"z_threshold"`
	MomentumThreshold float64 `parquet:"momentum_threshold"`
	CostRate          float64 `parquet:"cost_rate"`
	Sharpe            float64 `parquet:"sharpe"`
	Sortino           float64 `parquet:"sortino"`
	Volatility        float64 `parquet:"volatility"`
	CAGR              float64 `parquet:"cagr"`
	MaxDrawdown       float64 `parquet:"max_drawdown"`
	HitRatio          float64 `parquet:"hit_ratio"`
	Trades            int64   `parquet:"trades"`
	AvgProfitPerTrade float64 `parquet:"avg_profit_per_trade"`
	Observations      int64   `parquet:"observations"`
	Baseline          bool    `parquet:"baseline"`
}

// ParquetSink writes full-precision rows to <dir>/sweep-<id>.parquet
type ParquetSink struct {
	dir string
}

// NewParquetSink creates a Parquet sink
func NewParquetSink(dir string) *ParquetSink {
	return &ParquetSink{dir: dir}
}

// Name returns the sink name
func (s *ParquetSink) Name() string { return "parquet" }

// Path returns the file a sweep is written to
func (s *ParquetSink) Path(sweepID uuid.UUID) string {
	return filepath.Join(s.dir, "sweep-"+sweepID.String()+".parquet")
}

// SaveResults writes every row
func (s *ParquetSink) SaveResults(ctx context.Context, sweepID uuid.UUID, rows []models.MetricsReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	records := make([]ResultRecord, len(rows))
	for i, r := range rows {
		records[i] = ResultRecord{
			SweepID:           sweepID.String(),
			Strategy:          string(r.Strategy),
			Instrument:        r.Instrument,
			ZThreshold:        r.Params.ZThreshold,
			MomentumThreshold: r.Params.MomentumThreshold,
			CostRate:          r.Params.CostRate,
			Sharpe:            r.Sharpe,
			Sortino:           r.Sortino,
			Volatility:        r.Volatility,
			CAGR:              r.CAGR,
			MaxDrawdown:       r.MaxDrawdown,
			HitRatio:          r.HitRatio,
			Trades:            int64(r.Trades),
			AvgProfitPerTrade: r.AvgProfitPerTrade,
			Observations:      int64(r.Observations),
			Baseline:          r.Baseline,
		}
	}
	return parquet.WriteFile(s.Path(sweepID), records)
}

// LoadResults reads a sweep written by SaveResults
func (s *ParquetSink) LoadResults(sweepID uuid.UUID) ([]models.MetricsReport, error) {
	records, err := parquet.ReadFile[ResultRecord](s.Path(sweepID))
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	rows := make([]models.MetricsReport, len(records))
	for i, r := range records {
		rows[i] = models.MetricsReport{
			Strategy:   models.StrategyKind(r.Strategy),
			Instrument: r.Instrument,
			Params: models.SweepParams{
				ZThreshold:        r.ZThreshold,
				MomentumThreshold: r.MomentumThreshold,
				CostRate:          r.CostRate,
			},
			Sharpe:            r.Sharpe,
			Sortino:           r.Sortino,
			Volatility:        r.Volatility,
			CAGR:              r.CAGR,
			MaxDrawdown:       r.MaxDrawdown,
			HitRatio:          r.HitRatio,
			Trades:            int(r.Trades),
			AvgProfitPerTrade: r.AvgProfitPerTrade,
			Observations:      int(r.Observations),
			Baseline:          r.Baseline,
		}
	}
	return rows, nil
}

// ConsoleSink prints the rounded table
type ConsoleSink struct {
	out io.Writer
}

// NewConsoleSink creates a console sink
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

// Name returns the sink name
func (s *ConsoleSink) Name() string { return "console" }

// SaveResults prints the sweep as one table
func (s *ConsoleSink) SaveResults(ctx context.Context, sweepID uuid.UUID, rows []models.MetricsReport) error {
	_, err := io.WriteString(s.out, backtest.GenerateConsoleReport("Sweep "+sweepID.String(), rows))
	return err
}
