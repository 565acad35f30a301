package datasource

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/yourusername/strategy-lab/internal/metrics"
	"github.com/yourusername/strategy-lab/internal/models"
)

// CachedProvider memoizes successful fetches so repeated sweeps over the
// same universe do not refetch. Errors are never cached.
type CachedProvider struct {
	next  Provider
	cache *cache.Cache
}

// NewCachedProvider wraps next with a TTL cache
func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Name returns the wrapped provider's name
func (p *CachedProvider) Name() string {
	return p.next.Name()
}

// FetchSeries serves from cache or delegates
func (p *CachedProvider) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	key := cacheKey(symbol, start, end)
	if cached, ok := p.cache.Get(key); ok {
		metrics.RecordCacheHit()
		return cached.(models.PriceSeries), nil
	}
	series, err := p.next.FetchSeries(ctx, symbol, start, end)
	if err != nil {
		return models.PriceSeries{}, err
	}
	p.cache.SetDefault(key, series)
	return series, nil
}

// Flush drops every cached series
func (p *CachedProvider) Flush() {
	p.cache.Flush()
}

func cacheKey(symbol string, start, end time.Time) string {
	return strings.ToUpper(symbol) + "|" + start.Format("2006-01-02") + "|" + end.Format("2006-01-02")
}
