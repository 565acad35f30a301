package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validProviders = map[string]bool{"csv": true, "parquet": true, "http": true, "alpaca": true}
	validSinks     = map[string]bool{"csv": true, "parquet": true, "postgres": true, "console": true}
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("datetime", validateDateTime)
	_ = v.RegisterValidation("provider", validateProvider)
	_ = v.RegisterValidation("sink", validateSink)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateDateTime(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateProvider(fl validator.FieldLevel) bool {
	return validProviders[fl.Field().String()]
}

func validateSink(fl validator.FieldLevel) bool {
	return validSinks[fl.Field().String()]
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	start, end, err := cfg.Data.DateRange()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("data start_date must be before end_date")
	}

	windows := cfg.Indicators.Windows()
	if err := windows.Validate(); err != nil {
		return fmt.Errorf("invalid indicator windows: %w", err)
	}
	if cfg.Grid.MinHistory > 0 && cfg.Grid.MinHistory < windows.Largest() {
		return fmt.Errorf("grid min_history %d is shorter than the largest indicator window %d",
			cfg.Grid.MinHistory, windows.Largest())
	}

	if cfg.Strategy.RSIOverbought > 0 && cfg.Strategy.RSIOversold >= cfg.Strategy.RSIOverbought {
		return fmt.Errorf("rsi_oversold must be below rsi_overbought")
	}

	switch cfg.Data.Provider {
	case "csv":
		if cfg.Data.CSVDir == "" {
			return fmt.Errorf("csv provider requires data.csv_dir")
		}
	case "parquet":
		if cfg.Data.ParquetDir == "" {
			return fmt.Errorf("parquet provider requires data.parquet_dir")
		}
	case "http":
		if cfg.Data.HTTPBaseURL == "" {
			return fmt.Errorf("http provider requires data.http_base_url")
		}
	case "alpaca":
		if cfg.Data.AlpacaAPIKey == "" || cfg.Data.AlpacaAPISecret == "" {
			return fmt.Errorf("alpaca provider requires data.alpaca_api_key and data.alpaca_api_secret")
		}
	}

	if cfg.Output.Sink == "postgres" {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("postgres sink requires database host, name and user")
		}
		if cfg.Database.MinConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("min_connections cannot exceed max_connections")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	if cfg.Schedule.Enabled && cfg.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is required when scheduling is enabled")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "datetime":
			fmt.Fprintf(&b, "- Field '%s' must be a date in YYYY-MM-DD format, got '%v'\n", field, value)
		case "provider":
			fmt.Fprintf(&b, "- Field '%s' must be one of: csv, parquet, http, alpaca\n", field)
		case "sink":
			fmt.Fprintf(&b, "- Field '%s' must be one of: csv, parquet, postgres, console\n", field)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
