package repository

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/yourusername/strategy-lab/internal/backtest"
)

// ChartPoint is one plotted equity value
type ChartPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// ChartSeries is one named line of an equity chart
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// Chart is the document handed to an external renderer
type Chart struct {
	Title  string        `json:"title"`
	Series []ChartSeries `json:"series"`
}

// CorrelationChart is a heatmap document; undefined cells are null
type CorrelationChart struct {
	Title   string       `json:"title"`
	Labels  []string     `json:"labels"`
	Values  [][]*float64 `json:"values"`
	Periods int          `json:"periods"`
}

// ChartExporter writes equity curves and correlation matrices as JSON
// documents under a directory.
type ChartExporter struct {
	dir string
}

// NewChartExporter creates an exporter rooted at dir
func NewChartExporter(dir string) *ChartExporter {
	return &ChartExporter{dir: dir}
}

// ExportEquity writes named curves to <dir>/<name>.json and returns the path
func (e *ChartExporter) ExportEquity(name, title string, curves map[string]backtest.EquityCurve) (string, error) {
	names := make([]string, 0, len(curves))
	for n := range curves {
		names = append(names, n)
	}
	sort.Strings(names)

	chart := Chart{Title: title, Series: make([]ChartSeries, 0, len(names))}
	for _, n := range names {
		series := ChartSeries{Name: n, Points: make([]ChartPoint, len(curves[n]))}
		for i, p := range curves[n] {
			series.Points[i] = ChartPoint{Date: p.Time.Format(time.DateOnly), Value: p.Value}
		}
		chart.Series = append(chart.Series, series)
	}
	return e.write(name, chart)
}

// ExportCorrelation writes a correlation matrix to <dir>/<name>.json
func (e *ChartExporter) ExportCorrelation(name, title string, m backtest.CorrelationMatrix) (string, error) {
	chart := CorrelationChart{Title: title, Labels: m.Names, Periods: m.Periods, Values: make([][]*float64, len(m.Values))}
	for i, row := range m.Values {
		chart.Values[i] = make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				v := v
				chart.Values[i][j] = &v
			}
		}
	}
	return e.write(name, chart)
}

func (e *ChartExporter) write(name string, doc any) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create chart directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode chart: %w", err)
	}
	path := filepath.Join(e.dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	return path, nil
}
