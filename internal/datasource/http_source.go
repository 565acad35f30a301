package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/strategy-lab/internal/models"
)

const httpSourceName = "http"

// seriesResponse is the JSON body of GET {base}/series/{symbol}
type seriesResponse struct {
	Symbol string `json:"symbol"`
	Points []struct {
		Date   string   `json:"date"`
		Close  *float64 `json:"close"`
		Volume *float64 `json:"volume"`
	} `json:"points"`
}

// HTTPSource fetches price series from a JSON price service
type HTTPSource struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
}

// NewHTTPSource creates a price service client
func NewHTTPSource(httpClient *RateLimitedHTTPClient, baseURL, apiKey string) *HTTPSource {
	return &HTTPSource{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Name returns the name of the data source
func (s *HTTPSource) Name() string {
	return httpSourceName
}

// FetchSeries requests one instrument's daily closes
func (s *HTTPSource) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	query := url.Values{}
	query.Set("start", start.Format("2006-01-02"))
	query.Set("end", end.Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/series/%s?%s", s.baseURL, url.PathEscape(strings.ToUpper(symbol)), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.PriceSeries{}, NewDataSourceError(httpSourceName, ErrCodeNetworkError, "failed to create request", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(ctx, req)
	if err != nil {
		return models.PriceSeries{}, NewDataSourceError(httpSourceName, ErrCodeNetworkError, "failed to fetch series", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return models.PriceSeries{}, unavailable(httpSourceName, symbol)
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.PriceSeries{}, NewDataSourceError(httpSourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case http.StatusTooManyRequests:
		return models.PriceSeries{}, NewDataSourceError(httpSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.PriceSeries{}, NewDataSourceError(httpSourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var payload seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.PriceSeries{}, NewDataSourceError(httpSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	points := make([]models.PricePoint, 0, len(payload.Points))
	for _, p := range payload.Points {
		ts, err := parseDate(p.Date)
		if err != nil {
			return models.PriceSeries{}, NewDataSourceError(httpSourceName, ErrCodeInvalidData, "bad date in response", err)
		}
		point := models.PricePoint{Time: ts, Price: math.NaN(), Volume: math.NaN()}
		if p.Close != nil {
			point.Price = *p.Close
		}
		if p.Volume != nil {
			point.Volume = *p.Volume
		}
		points = append(points, point)
	}
	return finalize(httpSourceName, symbol, points, start, end)
}
