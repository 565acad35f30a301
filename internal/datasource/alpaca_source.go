package datasource

import (
	"context"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/yourusername/strategy-lab/internal/models"
)

const alpacaSourceName = "alpaca"

// AlpacaSource fetches split and dividend adjusted daily bars from the
// Alpaca market data API.
type AlpacaSource struct {
	client *marketdata.Client
}

// NewAlpacaSource creates an Alpaca market data source. An empty dataURL
// uses the client default.
func NewAlpacaSource(apiKey, apiSecret, dataURL string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaSource{client: marketdata.NewClient(opts)}
}

// Name returns the name of the data source
func (s *AlpacaSource) Name() string {
	return alpacaSourceName
}

// FetchSeries requests daily bars over [start, end]
func (s *AlpacaSource) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}
	bars, err := s.client.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end.AddDate(0, 0, 1),
	})
	if err != nil {
		return models.PriceSeries{}, NewDataSourceError(alpacaSourceName, ErrCodeNetworkError, "GetBars "+symbol, err)
	}

	points := make([]models.PricePoint, len(bars))
	for i, b := range bars {
		points[i] = models.PricePoint{
			Time:   dailyTime(b.Timestamp),
			Price:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	return finalize(alpacaSourceName, symbol, points, start, end)
}

// dailyTime truncates a bar timestamp to its UTC calendar date
func dailyTime(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
