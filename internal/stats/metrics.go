package stats

import (
	"math"
	"time"

	"stockrisk/internal/catalog"
)

// SalesMetrics summarizes a product's historical demand.
// CV is +Inf when the product has no usable daily average; downstream
// formulas treat that sentinel via their documented floors rather than
// erroring, so a product with no history still produces metrics.
type SalesMetrics struct {
	DailyAvgSales float64            `json:"daily_avg_sales"`
	SalesStdDev   float64            `json:"sales_std_dev"`
	CV            float64            `json:"coefficient_of_variation"`
	RegionSales   map[string]float64 `json:"region_sales"`
	PersonSales   map[string]float64 `json:"person_sales"`
	TotalQuantity float64            `json:"total_quantity"`
	FirstSale     time.Time          `json:"first_sale,omitzero"`
	HasHistory    bool               `json:"has_history"`
}

// ComputeSalesMetrics aggregates one product's shipment history.
// The daily average divides total quantity by the full calendar span from
// the earliest shipment to now (inclusive), so zero-sale days count; the
// standard deviation is the population std-dev of observed daily totals.
func ComputeSalesMetrics(shipments []catalog.ShipmentRecord, now time.Time) SalesMetrics {
	m := SalesMetrics{
		CV:          math.Inf(1),
		RegionSales: make(map[string]float64),
		PersonSales: make(map[string]float64),
	}

	if len(shipments) == 0 {
		return m
	}
	m.HasHistory = true

	// 1. Daily totals plus side-channel breakdowns
	daily := make(map[string]float64)
	earliest := shipments[0].OrderDate
	for _, s := range shipments {
		daily[s.OrderDate.Format("2006-01-02")] += s.Quantity
		m.RegionSales[s.Region] += s.Quantity
		m.PersonSales[s.Salesperson] += s.Quantity
		m.TotalQuantity += s.Quantity
		if s.OrderDate.Before(earliest) {
			earliest = s.OrderDate
		}
	}
	m.FirstSale = earliest

	// 2. Average over the calendar span, not just shipping days
	spanDays := math.Floor(now.Sub(earliest).Hours()/24.0) + 1
	if spanDays < 1 {
		spanDays = 1
	}
	m.DailyAvgSales = m.TotalQuantity / spanDays

	// 3. Population std-dev of the observed daily totals
	var mean float64
	for _, q := range daily {
		mean += q
	}
	mean /= float64(len(daily))

	var variance float64
	for _, q := range daily {
		variance += (q - mean) * (q - mean)
	}
	variance /= float64(len(daily))
	m.SalesStdDev = math.Sqrt(variance)

	if m.DailyAvgSales > 0 {
		m.CV = m.SalesStdDev / m.DailyAvgSales
	}

	return m
}
