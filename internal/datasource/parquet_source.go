package datasource

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/yourusername/strategy-lab/internal/models"
)

const parquetSourceName = "parquet"

// PriceRecord is the Parquet schema for one daily close.
type PriceRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
	HasVolume bool    `parquet:"has_volume"`
}

// ParquetSource reads <dir>/<SYMBOL>.parquet files.
type ParquetSource struct {
	dir string
}

// NewParquetSource creates a Parquet file source rooted at dir
func NewParquetSource(dir string) *ParquetSource {
	return &ParquetSource{dir: dir}
}

// Name returns the name of the data source
func (s *ParquetSource) Name() string {
	return parquetSourceName
}

// FetchSeries reads and filters one instrument's file
func (s *ParquetSource) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}
	path := s.path(symbol)
	records, err := parquet.ReadFile[PriceRecord](path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.PriceSeries{}, unavailable(parquetSourceName, symbol)
		}
		return models.PriceSeries{}, NewDataSourceError(parquetSourceName, ErrCodeInvalidData, "failed to read "+path, err)
	}

	points := make([]models.PricePoint, len(records))
	for i, r := range records {
		volume := math.NaN()
		if r.HasVolume {
			volume = float64(r.Volume)
		}
		points[i] = models.PricePoint{Time: time.UnixMilli(r.Timestamp).UTC(), Price: r.Close, Volume: volume}
	}
	return finalize(parquetSourceName, symbol, points, start, end)
}

// Save writes a series in the layout FetchSeries reads, replacing any
// existing file.
func (s *ParquetSource) Save(series models.PriceSeries) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	records := make([]PriceRecord, series.Len())
	for i, p := range series.Points {
		records[i] = PriceRecord{
			Symbol:    series.Symbol,
			Timestamp: p.Time.UnixMilli(),
			Close:     p.Price,
		}
		if !math.IsNaN(p.Volume) {
			records[i].Volume = int64(p.Volume)
			records[i].HasVolume = true
		}
	}
	return parquet.WriteFile(s.path(series.Symbol), records)
}

func (s *ParquetSource) path(symbol string) string {
	return filepath.Join(s.dir, strings.ToUpper(symbol)+".parquet")
}
