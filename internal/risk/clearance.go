package risk

import "math"

// Horizons for backlog-risk projection, in days.
const (
	Horizon30 = 30.0
	Horizon60 = 60.0
	Horizon90 = 90.0
)

// logistic steepness and midpoint for the smooth risk curve: risk passes
// 50% when days-to-clear equals the horizon.
const (
	logisticSteepness = 4.0
	logisticMidpoint  = 1.0
)

// ClearanceEstimate projects how long a batch takes to sell out and the
// probability-like risk of it still being unsold at each horizon.
// NoSalesHistory marks the "infinite" display sentinel; DaysToClear itself
// is always finite because adjusted daily sales is floored.
type ClearanceEstimate struct {
	AdjustedDailySales float64 `json:"adjusted_daily_sales"`
	DaysToClear        float64 `json:"days_to_clear"`
	NoSalesHistory     bool    `json:"no_sales_history"`
	Risk30             float64 `json:"risk_pct_30"`
	Risk60             float64 `json:"risk_pct_60"`
	Risk90             float64 `json:"risk_pct_90"`
}

// EstimateClearance computes the clearance projection for one batch.
// dailyAvgSales and seasonalIndex come from the product's metrics; the
// minDailySales floor guards the division for slow or brand-new products.
func EstimateClearance(batchQty, ageDays, dailyAvgSales, seasonalIndex, minDailySales float64) ClearanceEstimate {
	adjusted := dailyAvgSales * seasonalIndex
	if adjusted < minDailySales {
		adjusted = minDailySales
	}

	est := ClearanceEstimate{
		AdjustedDailySales: adjusted,
		DaysToClear:        batchQty / adjusted,
		NoSalesHistory:     dailyAvgSales <= 0,
	}

	est.Risk30 = horizonRisk(est.DaysToClear, ageDays, Horizon30)
	est.Risk60 = horizonRisk(est.DaysToClear, ageDays, Horizon60)
	est.Risk90 = horizonRisk(est.DaysToClear, ageDays, Horizon90)
	return est
}

// horizonRisk blends a logistic curve over days-to-clear with a linear ramp
// over batch age, then applies the monotonicity guard-rails. The guard-rails
// are a deliberate override policy: a very old or very slow batch can never
// report a misleadingly low risk, whatever the smooth formula says. They
// always take the max with the smooth estimate.
func horizonRisk(daysToClear, ageDays, horizon float64) float64 {
	smooth := 1.0 / (1.0 + math.Exp(-logisticSteepness*(daysToClear/horizon-logisticMidpoint)))

	linear := ageDays / horizon
	if linear > 1 {
		linear = 1
	} else if linear < 0 {
		linear = 0
	}

	// Weighted max/min blend: the worse signal dominates.
	hi := math.Max(smooth, linear)
	lo := math.Min(smooth, linear)
	pct := (0.8*hi + 0.2*lo) * 100

	if pct > 100 {
		pct = 100
	} else if pct < 0 {
		pct = 0
	}

	// Guard-rails
	if daysToClear > horizon && pct < 80 {
		pct = 80
	}
	if daysToClear >= 2*horizon && pct < 90 {
		pct = 90
	}
	if ageDays >= 0.75*horizon && pct < 75 {
		pct = 75
	}

	return pct
}
