package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "STRATEGY_LAB"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "strategy-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("data.provider", "csv")
	v.SetDefault("data.csv_dir", "data")
	v.SetDefault("data.start_date", "2019-01-01")
	v.SetDefault("data.end_date", "2024-12-31")
	v.SetDefault("data.universe", []string{"SPY", "AAPL", "MSFT", "GOOGL", "NVDA", "AMZN"})
	v.SetDefault("data.requests_per_second", 5)
	v.SetDefault("data.cache_ttl_seconds", 3600)

	v.SetDefault("indicators.short_window", 10)
	v.SetDefault("indicators.long_window", 200)
	v.SetDefault("indicators.momentum_lag", 5)
	v.SetDefault("indicators.atr_window", 14)
	v.SetDefault("indicators.atr_mean_window", 50)
	v.SetDefault("indicators.rsi_window", 14)
	v.SetDefault("indicators.macd_fast", 12)
	v.SetDefault("indicators.macd_slow", 26)
	v.SetDefault("indicators.macd_signal", 9)
	v.SetDefault("indicators.volume_window", 20)

	v.SetDefault("strategy.z_threshold", 1.0)
	v.SetDefault("strategy.momentum_threshold", 0.02)
	v.SetDefault("strategy.cost_rate", 0.0)
	v.SetDefault("strategy.mean_reversion_filters.trend", true)
	v.SetDefault("strategy.rsi_oversold", 30.0)
	v.SetDefault("strategy.rsi_overbought", 70.0)

	v.SetDefault("grid.z_thresholds", []float64{0.5, 1.0, 1.5, 2.0})
	v.SetDefault("grid.momentum_thresholds", []float64{0.01, 0.02, 0.03})
	v.SetDefault("grid.cost_rates", []float64{0.0, 0.0005, 0.001})
	v.SetDefault("grid.min_history", 210)

	v.SetDefault("output.sink", "csv")
	v.SetDefault("output.directory", "results")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.cron", "0 30 22 * * 1-5")
}
