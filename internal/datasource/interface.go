// Package datasource loads daily price series from files and market data APIs.
package datasource

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/yourusername/strategy-lab/internal/models"
)

// Provider fetches one instrument's daily closing prices. The returned series
// is ordered and limited to [start, end]. Points without a usable price are
// dropped; days without data are simply absent.
type Provider interface {
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error)

	// Name returns the name of the data source
	Name() string
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap exposes the underlying error to errors.Is and errors.As
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnavailable          = "unavailable"
)

// ErrDataUnavailable means the provider has no usable prices for the
// instrument and range. The instrument is dropped from a sweep.
var ErrDataUnavailable = errors.New("price data unavailable")

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// unavailable builds the error returned when no prices remain
func unavailable(source, symbol string) DataSourceError {
	return NewDataSourceError(source, ErrCodeUnavailable, "no prices for "+symbol, ErrDataUnavailable)
}

// IsUnavailable reports whether err means the instrument has no data
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// IsFatal reports whether err would hit every instrument, not just the one
// being fetched: rejected credentials or a cancelled request.
func IsFatal(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var dsErr DataSourceError
	return errors.As(err, &dsErr) && dsErr.Code == ErrCodeAuthenticationFailed
}

// finalize orders raw points, keeps the requested range, drops duplicate
// dates (last one wins) and points without a usable price, then validates.
func finalize(source, symbol string, points []models.PricePoint, start, end time.Time) (models.PriceSeries, error) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })

	kept := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}
		if !end.IsZero() && p.Time.After(end) {
			continue
		}
		if n := len(kept); n > 0 && kept[n-1].Time.Equal(p.Time) {
			kept[n-1] = p
			continue
		}
		kept = append(kept, p)
	}

	series := models.PriceSeries{Symbol: symbol, Points: kept}.DropMissing()
	if series.Len() == 0 {
		return models.PriceSeries{}, unavailable(source, symbol)
	}
	if err := series.Validate(); err != nil {
		return models.PriceSeries{}, NewDataSourceError(source, ErrCodeInvalidData, "invalid series for "+symbol, err)
	}
	return series, nil
}
