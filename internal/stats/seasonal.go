package stats

import (
	"time"

	"stockrisk/internal/catalog"
)

// SeasonalIndex computes a multiplicative demand factor for the given
// calendar month from a product's shipment history: the month's historical
// total divided by the average monthly total. A month with no historical
// observation is neutral (1.0). The result is floor-clamped at minIndex so
// a near-zero seasonal trough cannot blow up clearance projections.
func SeasonalIndex(shipments []catalog.ShipmentRecord, month time.Month, minIndex float64) float64 {
	monthly := make(map[time.Month]float64)
	monthSeen := make(map[time.Month]bool)

	for _, s := range shipments {
		m := s.OrderDate.Month()
		monthly[m] += s.Quantity
		monthSeen[m] = true
	}

	index := 1.0
	if monthSeen[month] && len(monthly) > 0 {
		var total float64
		for _, q := range monthly {
			total += q
		}
		avg := total / float64(len(monthly))
		if avg > 0 {
			index = monthly[month] / avg
		}
	}

	if index < minIndex {
		index = minIndex
	}
	return index
}
