package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/strategy-lab/internal/models"
)

const csvSourceName = "csv"

// CSVSource reads <dir>/<SYMBOL>.csv files with a header row. The date
// column is "date" or "timestamp", the price column "adj_close", "close" or
// "price", and an optional "volume" column.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a CSV file source rooted at dir
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Name returns the name of the data source
func (s *CSVSource) Name() string {
	return csvSourceName
}

// FetchSeries reads and filters one instrument's file
func (s *CSVSource) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}
	path := filepath.Join(s.dir, strings.ToUpper(symbol)+".csv")
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.PriceSeries{}, unavailable(csvSourceName, symbol)
		}
		return models.PriceSeries{}, NewDataSourceError(csvSourceName, ErrCodeNotFound, "failed to open "+path, err)
	}
	defer file.Close()

	points, err := ReadCSV(file)
	if err != nil {
		return models.PriceSeries{}, NewDataSourceError(csvSourceName, ErrCodeInvalidData, "failed to parse "+path, err)
	}
	return finalize(csvSourceName, symbol, points, start, end)
}

// ReadCSV parses price rows. Empty or non-numeric prices become NaN so a
// leading gap can be dropped later.
func ReadCSV(r io.Reader) ([]models.PricePoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	dateCol, priceCol, volumeCol := columnIndexes(header)
	if dateCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("header needs a date and a price column, got %v", header)
	}

	var points []models.PricePoint
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ts, err := parseDate(record[dateCol])
		if err != nil {
			return nil, err
		}
		point := models.PricePoint{Time: ts, Price: parseNumber(record[priceCol]), Volume: math.NaN()}
		if volumeCol >= 0 && volumeCol < len(record) {
			point.Volume = parseNumber(record[volumeCol])
		}
		points = append(points, point)
	}
	return points, nil
}

func columnIndexes(header []string) (date, price, volume int) {
	date, price, volume = -1, -1, -1
	priceRank := 0
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "timestamp", "time":
			date = i
		case "adj_close", "adj close", "adjclose":
			price, priceRank = i, 3
		case "close":
			if priceRank < 2 {
				price, priceRank = i, 2
			}
		case "price":
			if priceRank < 1 {
				price, priceRank = i, 1
			}
		case "volume":
			volume = i
		}
	}
	return date, price, volume
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func parseNumber(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
