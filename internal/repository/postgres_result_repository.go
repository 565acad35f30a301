package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/strategy-lab/internal/models"
)

const (
	resultsTable      = "sweep_results"
	errScanResult     = "failed to scan sweep result: %w"
	selectResultsBase = `
		SELECT strategy, instrument, z_threshold, momentum_threshold, cost_rate,
			sharpe, sortino, volatility, cagr, max_drawdown, hit_ratio,
			trades, avg_profit_per_trade, observations
		FROM sweep_results`
)

var resultColumns = []string{
	"sweep_id", "strategy", "instrument", "z_threshold", "momentum_threshold", "cost_rate",
	"sharpe", "sortino", "volatility", "cagr", "max_drawdown", "hit_ratio",
	"trades", "avg_profit_per_trade", "observations",
}

// pgxQuerier is the subset of *pgxpool.Pool the repository uses
type pgxQuerier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db pgxQuerier
}

// NewPostgresResultRepository creates a new sweep result repository
func NewPostgresResultRepository(db pgxQuerier) *PostgresResultRepository {
	return &PostgresResultRepository{db: db}
}

// Name returns the sink name
func (r *PostgresResultRepository) Name() string { return "postgres" }

// SaveResults bulk-loads one sweep with COPY
func (r *PostgresResultRepository) SaveResults(ctx context.Context, sweepID uuid.UUID, rows []models.MetricsReport) error {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = resultValues(sweepID, row)
	}
	copied, err := r.db.CopyFrom(ctx, pgx.Identifier{resultsTable}, resultColumns, pgx.CopyFromRows(values))
	if err != nil {
		return fmt.Errorf("failed to save sweep results: %w", err)
	}
	if int(copied) != len(rows) {
		return fmt.Errorf("saved %d of %d sweep results", copied, len(rows))
	}
	return nil
}

// GetBySweep retrieves every row of a sweep
func (r *PostgresResultRepository) GetBySweep(ctx context.Context, sweepID uuid.UUID) ([]models.MetricsReport, error) {
	query := selectResultsBase + `
		WHERE sweep_id = $1
		ORDER BY instrument, strategy, z_threshold, momentum_threshold, cost_rate`
	return r.query(ctx, query, sweepID)
}

// GetBestByInstrument retrieves the max-Sharpe row per instrument
func (r *PostgresResultRepository) GetBestByInstrument(ctx context.Context, sweepID uuid.UUID) ([]models.MetricsReport, error) {
	query := `
		SELECT DISTINCT ON (instrument) strategy, instrument, z_threshold, momentum_threshold, cost_rate,
			sharpe, sortino, volatility, cagr, max_drawdown, hit_ratio,
			trades, avg_profit_per_trade, observations
		FROM sweep_results
		WHERE sweep_id = $1
		ORDER BY instrument, sharpe DESC NULLS LAST, strategy, z_threshold, momentum_threshold, cost_rate`
	return r.query(ctx, query, sweepID)
}

func (r *PostgresResultRepository) query(ctx context.Context, query string, args ...any) ([]models.MetricsReport, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweep results: %w", err)
	}
	defer rows.Close()

	var results []models.MetricsReport
	for rows.Next() {
		var (
			report                                                  models.MetricsReport
			strategy                                                string
			sharpe, sortino, volatility, cagr, maxDD, hitRatio, avg *float64
			trades                                                  *int32
			observations                                            int32
		)
		if err := rows.Scan(
			&strategy, &report.Instrument,
			&report.Params.ZThreshold, &report.Params.MomentumThreshold, &report.Params.CostRate,
			&sharpe, &sortino, &volatility, &cagr, &maxDD, &hitRatio,
			&trades, &avg, &observations,
		); err != nil {
			return nil, fmt.Errorf(errScanResult, err)
		}
		report.Strategy = models.StrategyKind(strategy)
		report.Sharpe = fromNullable(sharpe)
		report.Sortino = fromNullable(sortino)
		report.Volatility = fromNullable(volatility)
		report.CAGR = fromNullable(cagr)
		report.MaxDrawdown = fromNullable(maxDD)
		report.HitRatio = fromNullable(hitRatio)
		report.AvgProfitPerTrade = fromNullable(avg)
		report.Observations = int(observations)
		report.Baseline = report.Strategy == models.StrategyBuyHold
		if trades != nil {
			report.Trades = int(*trades)
		}
		results = append(results, report)
	}
	return results, rows.Err()
}

// resultValues orders a row for COPY. NaN metrics and baseline trade
// columns become NULL.
func resultValues(sweepID uuid.UUID, row models.MetricsReport) []any {
	var trades any = int32(row.Trades)
	if row.Baseline {
		trades = nil
	}
	return []any{
		sweepID, string(row.Strategy), row.Instrument,
		row.Params.ZThreshold, row.Params.MomentumThreshold, row.Params.CostRate,
		toNullable(row.Sharpe), toNullable(row.Sortino), toNullable(row.Volatility),
		toNullable(row.CAGR), toNullable(row.MaxDrawdown), toNullable(row.HitRatio),
		trades, toNullable(row.AvgProfitPerTrade), int32(row.Observations),
	}
}

func toNullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func fromNullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
