package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/strategy-lab/internal/models"
)

// GenerateConsoleReport formats report rows as an aligned text table
func GenerateConsoleReport(title string, reports []models.MetricsReport) string {
	rows := make([][]string, 0, len(reports)+1)
	rows = append(rows, models.ReportColumns)
	for _, r := range reports {
		rows = append(rows, r.Cells())
	}

	widths := make([]int, len(models.ReportColumns))
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var builder strings.Builder
	if title != "" {
		builder.WriteString(title + "\n")
		builder.WriteString(strings.Repeat("=", len(title)) + "\n")
	}
	for n, row := range rows {
		for i, cell := range row {
			if i > 0 {
				builder.WriteString("  ")
			}
			builder.WriteString(fmt.Sprintf("%-*s", widths[i], cell))
		}
		builder.WriteString("\n")
		if n == 0 {
			total := 0
			for _, w := range widths {
				total += w + 2
			}
			builder.WriteString(strings.Repeat("-", total-2) + "\n")
		}
	}
	return builder.String()
}

// GenerateCorrelationReport formats a correlation matrix to 2 decimal places
func GenerateCorrelationReport(m CorrelationMatrix) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Equity correlation (%d common periods)\n", m.Periods))
	builder.WriteString(fmt.Sprintf("%-8s", ""))
	for _, name := range m.Names {
		builder.WriteString(fmt.Sprintf("%8s", name))
	}
	builder.WriteString("\n")
	for i, name := range m.Names {
		builder.WriteString(fmt.Sprintf("%-8s", name))
		for j := range m.Names {
			builder.WriteString(fmt.Sprintf("%8.2f", models.RoundTo(m.Values[i][j], 2)))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// GenerateEquityExport writes an equity curve as CSV
func GenerateEquityExport(curve EquityCurve, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(curve.ToCSV()), 0o644)
}

// GenerateCSVExport writes rounded report rows for spreadsheets
func GenerateCSVExport(reports []models.MetricsReport, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(models.ReportColumns); err != nil {
		return err
	}
	for _, r := range reports {
		if err := w.Write(r.Cells()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
