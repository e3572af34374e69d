package report

import (
	"github.com/shopspring/decimal"

	"stockrisk/internal/engine"
	"stockrisk/internal/risk"
)

// Summary is the run-level risk distribution consumed by the dashboard:
// batch counts and stock value per tier, plus stocking-reason frequencies.
type Summary struct {
	TotalBatches int                        `json:"total_batches"`
	TierCounts   map[string]int             `json:"tier_counts"`
	TierValues   map[string]decimal.Decimal `json:"tier_values"`
	TotalValue   decimal.Decimal            `json:"total_value"`
	ValueAtRisk  decimal.Decimal            `json:"value_at_risk"`
	ReasonCounts map[string]int             `json:"reason_counts"`
}

// Summarize aggregates the output rows into the risk distribution.
// ValueAtRisk is the combined value of critical and high tier batches.
func Summarize(rows []engine.BatchRow) Summary {
	s := Summary{
		TotalBatches: len(rows),
		TierCounts:   make(map[string]int),
		TierValues:   make(map[string]decimal.Decimal),
		TotalValue:   decimal.Zero,
		ValueAtRisk:  decimal.Zero,
		ReasonCounts: make(map[string]int),
	}

	for _, row := range rows {
		tier := row.RiskLevel.String()
		s.TierCounts[tier]++
		s.TierValues[tier] = s.TierValues[tier].Add(row.BatchValue)
		s.TotalValue = s.TotalValue.Add(row.BatchValue)

		if row.RiskLevel >= risk.High {
			s.ValueAtRisk = s.ValueAtRisk.Add(row.BatchValue)
		}

		for _, reason := range row.StockingReasons {
			s.ReasonCounts[reason]++
		}
	}

	return s
}
