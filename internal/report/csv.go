package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"stockrisk/internal/engine"
)

// WriteCSV renders the output rows as a flat CSV table in the order the
// engine produced them (tier first, then age), one line per batch.
func WriteCSV(w io.Writer, rows []engine.BatchRow) error {
	cw := csv.NewWriter(w)

	header := []string{
		"product_code", "description", "production_date", "batch_age_days",
		"batch_quantity", "unit_price", "batch_value",
		"daily_avg_sales", "coefficient_of_variation", "seasonal_index", "forecast_bias",
		"days_to_clear", "risk_pct_30", "risk_pct_60", "risk_pct_90",
		"risk_score", "risk_level", "recommended_action", "stocking_reasons",
		"responsible_person", "responsible_region", "attribution_summary",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			string(r.Product),
			r.Description,
			r.ProductionDate.Format("2006-01-02"),
			fmt.Sprintf("%.1f", r.AgeDays),
			fmt.Sprintf("%g", r.Quantity),
			r.UnitPrice.String(),
			r.BatchValue.String(),
			fmt.Sprintf("%.3f", r.DailyAvgSales),
			formatCV(r.CV),
			fmt.Sprintf("%.2f", r.SeasonalIndex),
			fmt.Sprintf("%.3f", r.ForecastBias),
			formatDaysToClear(r),
			fmt.Sprintf("%.1f", r.Risk30),
			fmt.Sprintf("%.1f", r.Risk60),
			fmt.Sprintf("%.1f", r.Risk90),
			fmt.Sprintf("%d", r.RiskScore),
			r.RiskLevel.String(),
			r.RecommendedAction,
			strings.Join(r.StockingReasons, "|"),
			r.Attribution.PrimaryPerson,
			r.Attribution.PrimaryRegion,
			r.Attribution.Summary,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", r.Product, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCV(cv float64) string {
	if math.IsInf(cv, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.3f", cv)
}

// formatDaysToClear shows the display sentinel for products that never
// sold; the numeric projection is floor-driven there and would mislead.
func formatDaysToClear(r engine.BatchRow) string {
	if r.NoSalesHistory {
		return "inf"
	}
	return fmt.Sprintf("%.1f", r.DaysToClear)
}
