package database

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourusername/strategy-lab/internal/config"
)

func TestConnStringParses(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Name:     "strategy_lab",
		User:     "postgres",
		Password: "secret",
		SSLMode:  "disable",
	}

	connStr := ConnString(cfg)
	if !strings.Contains(connStr, "dbname=strategy_lab") {
		t.Fatalf("unexpected connection string %s", connStr)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("expected connection string to parse, got %v", err)
	}
	if poolConfig.ConnConfig.Port != 5432 || poolConfig.ConnConfig.Database != "strategy_lab" {
		t.Fatalf("unexpected parsed config %+v", poolConfig.ConnConfig)
	}
}

func TestSchemaDeclaresResultsTable(t *testing.T) {
	if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS sweep_results") {
		t.Fatal("expected idempotent results table")
	}
}
