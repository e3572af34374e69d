package risk

import (
	"math"
	"testing"
)

func TestEstimateClearanceFloorsAdjustedSales(t *testing.T) {
	// No sales history: the floor governs, never a division by zero.
	est := EstimateClearance(100, 10, 0, 1.0, 0.1)

	if !est.NoSalesHistory {
		t.Error("Expected NoSalesHistory sentinel for zero daily average")
	}
	if est.AdjustedDailySales != 0.1 {
		t.Errorf("Expected floored adjusted sales 0.1, got %f", est.AdjustedDailySales)
	}
	if est.DaysToClear != 1000 {
		t.Errorf("Expected 100/0.1 = 1000 days, got %f", est.DaysToClear)
	}
	if math.IsInf(est.DaysToClear, 1) || math.IsNaN(est.DaysToClear) {
		t.Error("DaysToClear must stay finite")
	}
}

func TestEstimateClearanceSeasonalAdjustment(t *testing.T) {
	est := EstimateClearance(100, 0, 10, 0.5, 0.1)

	if est.AdjustedDailySales != 5 {
		t.Errorf("Expected adjusted daily sales 5 (10 x 0.5), got %f", est.AdjustedDailySales)
	}
	if est.DaysToClear != 20 {
		t.Errorf("Expected 20 days to clear, got %f", est.DaysToClear)
	}
	if est.NoSalesHistory {
		t.Error("Product with sales must not carry the no-history sentinel")
	}
}

func TestGuardRailSlowBatch(t *testing.T) {
	// days_to_clear = 200: beyond every horizon, and >= 2x the 90-day one.
	est := EstimateClearance(1000, 0, 5, 1.0, 0.1)

	if est.DaysToClear != 200 {
		t.Fatalf("Expected 200 days to clear, got %f", est.DaysToClear)
	}
	if est.Risk30 < 80 {
		t.Errorf("days_to_clear > 30 requires risk30 >= 80, got %f", est.Risk30)
	}
	if est.Risk60 < 90 {
		t.Errorf("days_to_clear >= 120 requires risk60 >= 90, got %f", est.Risk60)
	}
	if est.Risk90 < 90 {
		t.Errorf("days_to_clear >= 180 requires risk90 >= 90, got %f", est.Risk90)
	}
}

func TestGuardRailOldBatch(t *testing.T) {
	// Fast-clearing but old: age 70 >= 0.75 x 90, so the 90-day risk can
	// never be reported low.
	est := EstimateClearance(10, 70, 10, 1.0, 0.1)

	if est.DaysToClear != 1 {
		t.Fatalf("Expected 1 day to clear, got %f", est.DaysToClear)
	}
	if est.Risk90 < 75 {
		t.Errorf("age >= 0.75H requires risk90 >= 75, got %f", est.Risk90)
	}
	if est.Risk60 < 75 {
		t.Errorf("age >= 0.75H requires risk60 >= 75, got %f", est.Risk60)
	}
	if est.Risk30 < 75 {
		t.Errorf("age >= 0.75H requires risk30 >= 75, got %f", est.Risk30)
	}
}

func TestHorizonRiskBounds(t *testing.T) {
	for _, d := range []float64{0, 1, 20, 45, 90, 500, 10000} {
		for _, age := range []float64{0, 10, 50, 100, 1000} {
			for _, h := range []float64{Horizon30, Horizon60, Horizon90} {
				pct := horizonRisk(d, age, h)
				if pct < 0 || pct > 100 {
					t.Fatalf("horizonRisk(%f, %f, %f) = %f escaped [0,100]", d, age, h, pct)
				}
			}
		}
	}
}

func TestHorizonRiskLowForFreshFastBatch(t *testing.T) {
	// Brand new batch clearing in 5 days: smooth formula stays low and no
	// guard-rail fires.
	pct := horizonRisk(5, 0, Horizon90)
	if pct >= 50 {
		t.Errorf("Expected low risk for fresh fast-clearing batch, got %f", pct)
	}
}
