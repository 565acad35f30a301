package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/strategy-lab/internal/config"
)

// schema holds one row per (sweep, strategy, instrument, params). Undefined
// metrics are stored as NULL.
const schema = `
CREATE TABLE IF NOT EXISTS sweep_results (
	sweep_id             UUID             NOT NULL,
	strategy             TEXT             NOT NULL,
	instrument           TEXT             NOT NULL,
	z_threshold          DOUBLE PRECISION NOT NULL,
	momentum_threshold   DOUBLE PRECISION NOT NULL,
	cost_rate            DOUBLE PRECISION NOT NULL,
	sharpe               DOUBLE PRECISION,
	sortino              DOUBLE PRECISION,
	volatility           DOUBLE PRECISION,
	cagr                 DOUBLE PRECISION,
	max_drawdown         DOUBLE PRECISION,
	hit_ratio            DOUBLE PRECISION,
	trades               INTEGER,
	avg_profit_per_trade DOUBLE PRECISION,
	observations         INTEGER          NOT NULL,
	created_at           TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (sweep_id, strategy, instrument, z_threshold, momentum_threshold, cost_rate)
);
CREATE INDEX IF NOT EXISTS sweep_results_instrument_idx ON sweep_results (instrument, sharpe DESC);
`

// Initialize creates a database connection pool and ensures the result
// schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	err = db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, schema)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}
