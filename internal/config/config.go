// Package config provides configuration management for the strategy lab.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/strategy-lab/internal/indicators"
)

// DateLayout is the layout of every date in the configuration
const DateLayout = "2006-01-02"

// Config represents the complete application configuration
type Config struct {
	App        AppConfig       `mapstructure:"app" validate:"required"`
	Data       DataConfig      `mapstructure:"data" validate:"required"`
	Indicators IndicatorConfig `mapstructure:"indicators" validate:"required"`
	Strategy   StrategyConfig  `mapstructure:"strategy" validate:"required"`
	Grid       GridConfig      `mapstructure:"grid" validate:"required"`
	Output     OutputConfig    `mapstructure:"output" validate:"required"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Metrics    MetricsConfig   `mapstructure:"metrics"`
	Schedule   ScheduleConfig  `mapstructure:"schedule"`
	AWS        AWSConfig       `mapstructure:"aws"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DataConfig selects and parameterizes the market data provider
type DataConfig struct {
	Provider          string   `mapstructure:"provider" validate:"required,provider"`
	CSVDir            string   `mapstructure:"csv_dir"`
	ParquetDir        string   `mapstructure:"parquet_dir"`
	HTTPBaseURL       string   `mapstructure:"http_base_url" validate:"omitempty,url"`
	HTTPAPIKey        string   `mapstructure:"http_api_key"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" validate:"gte=0"`
	AlpacaAPIKey      string   `mapstructure:"alpaca_api_key"`
	AlpacaAPISecret   string   `mapstructure:"alpaca_api_secret"`
	AlpacaBaseURL     string   `mapstructure:"alpaca_base_url" validate:"omitempty,url"`
	StartDate         string   `mapstructure:"start_date" validate:"required,datetime"`
	EndDate           string   `mapstructure:"end_date" validate:"required,datetime"`
	Universe          []string `mapstructure:"universe" validate:"required,min=1,dive,required"`
	CacheTTLSeconds   int      `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
}

// IndicatorConfig holds the rolling window lengths
type IndicatorConfig struct {
	ShortWindow   int `mapstructure:"short_window" validate:"required,gte=2"`
	LongWindow    int `mapstructure:"long_window" validate:"required,gt=0"`
	MomentumLag   int `mapstructure:"momentum_lag" validate:"required,gt=0"`
	ATRWindow     int `mapstructure:"atr_window" validate:"required,gt=0"`
	ATRMeanWindow int `mapstructure:"atr_mean_window" validate:"required,gt=0"`
	RSIWindow     int `mapstructure:"rsi_window" validate:"required,gt=0"`
	MACDFast      int `mapstructure:"macd_fast" validate:"required,gt=0"`
	MACDSlow      int `mapstructure:"macd_slow" validate:"required,gt=0"`
	MACDSignal    int `mapstructure:"macd_signal" validate:"required,gt=0"`
	VolumeWindow  int `mapstructure:"volume_window" validate:"required,gt=0"`
}

// FilterConfig switches optional signal confirmations on or off
type FilterConfig struct {
	Trend      bool `mapstructure:"trend"`
	Volatility bool `mapstructure:"volatility"`
	RSI        bool `mapstructure:"rsi"`
	Volume     bool `mapstructure:"volume"`
	MACD       bool `mapstructure:"macd"`
}

// StrategyConfig holds thresholds for a single backtest run
type StrategyConfig struct {
	ZThreshold           float64      `mapstructure:"z_threshold" validate:"gte=0"`
	MomentumThreshold    float64      `mapstructure:"momentum_threshold" validate:"gte=0"`
	CostRate             float64      `mapstructure:"cost_rate" validate:"gte=0,lte=0.1"`
	MeanReversionFilters FilterConfig `mapstructure:"mean_reversion_filters"`
	MomentumFilters      FilterConfig `mapstructure:"momentum_filters"`
	RSIOversold          float64      `mapstructure:"rsi_oversold" validate:"gte=0,lte=100"`
	RSIOverbought        float64      `mapstructure:"rsi_overbought" validate:"gte=0,lte=100"`
}

// GridConfig describes a parameter sweep
type GridConfig struct {
	ZThresholds        []float64 `mapstructure:"z_thresholds" validate:"required,min=1,dive,gte=0"`
	MomentumThresholds []float64 `mapstructure:"momentum_thresholds" validate:"required,min=1,dive,gte=0"`
	CostRates          []float64 `mapstructure:"cost_rates" validate:"required,min=1,dive,gte=0,lte=0.1"`
	Workers            int       `mapstructure:"workers" validate:"gte=0"`
	MinHistory         int       `mapstructure:"min_history" validate:"gte=0"`
	TimeoutSeconds     int       `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// OutputConfig selects where sweep results go
type OutputConfig struct {
	Sink          string `mapstructure:"sink" validate:"required,sink"`
	Directory     string `mapstructure:"directory"`
	ChartsEnabled bool   `mapstructure:"charts_enabled"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
	MinConnections int    `mapstructure:"min_connections" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// ScheduleConfig drives repeated sweeps
type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

// AWSConfig locates the secret holding credentials
type AWSConfig struct {
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DateRange parses the configured backtest range
func (c *DataConfig) DateRange() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse(DateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date: %w", err)
	}
	return start, end, nil
}

// CacheTTL returns the series cache lifetime
func (c *DataConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Windows converts the configured lengths to indicator windows
func (c *IndicatorConfig) Windows() indicators.Windows {
	return indicators.Windows{
		Short:       c.ShortWindow,
		Long:        c.LongWindow,
		MomentumLag: c.MomentumLag,
		ATR:         c.ATRWindow,
		ATRMean:     c.ATRMeanWindow,
		RSI:         c.RSIWindow,
		MACDFast:    c.MACDFast,
		MACDSlow:    c.MACDSlow,
		MACDSignal:  c.MACDSignal,
		Volume:      c.VolumeWindow,
	}
}

// Timeout returns the sweep deadline, zero meaning none
func (c *GridConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
