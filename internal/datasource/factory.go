package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/strategy-lab/internal/config"
	"github.com/yourusername/strategy-lab/internal/metrics"
	"github.com/yourusername/strategy-lab/internal/models"
)

// SourceType represents the type of data source
type SourceType string

const (
	CSVSourceType     SourceType = "csv"
	ParquetSourceType SourceType = "parquet"
	HTTPSourceType    SourceType = "http"
	AlpacaSourceType  SourceType = "alpaca"
)

// NewProvider builds the configured provider, instrumented with fetch
// metrics and wrapped in a cache when a TTL is set.
func NewProvider(cfg config.DataConfig, logger *logrus.Logger) (Provider, error) {
	var provider Provider
	switch SourceType(cfg.Provider) {
	case CSVSourceType:
		provider = NewCSVSource(cfg.CSVDir)
	case ParquetSourceType:
		provider = NewParquetSource(cfg.ParquetDir)
	case HTTPSourceType:
		httpCfg := DefaultHTTPClientConfig()
		if cfg.RequestsPerSecond > 0 {
			httpCfg.RateLimit = cfg.RequestsPerSecond
		}
		provider = NewHTTPSource(NewRateLimitedHTTPClient(httpCfg, logger), cfg.HTTPBaseURL, cfg.HTTPAPIKey)
	case AlpacaSourceType:
		provider = NewAlpacaSource(cfg.AlpacaAPIKey, cfg.AlpacaAPISecret, cfg.AlpacaBaseURL)
	default:
		return nil, fmt.Errorf("unknown data source type: %s", cfg.Provider)
	}

	provider = Instrument(provider)
	if ttl := cfg.CacheTTL(); ttl > 0 {
		provider = NewCachedProvider(provider, ttl)
	}
	return provider, nil
}

// Instrument records fetch counts and latency for a provider
func Instrument(next Provider) Provider {
	return &instrumentedProvider{next: next}
}

type instrumentedProvider struct {
	next Provider
}

func (p *instrumentedProvider) Name() string {
	return p.next.Name()
}

func (p *instrumentedProvider) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	started := time.Now()
	series, err := p.next.FetchSeries(ctx, symbol, start, end)
	status := "success"
	switch {
	case IsUnavailable(err):
		status = "unavailable"
	case err != nil:
		status = "error"
	}
	metrics.RecordFetch(p.next.Name(), status, time.Since(started).Seconds())
	return series, err
}
