package attribution

import (
	"strings"
	"testing"
	"time"

	"stockrisk/internal/catalog"
	"stockrisk/internal/stats"
)

var testProd = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func testBatch(qty float64) catalog.InventoryBatch {
	return catalog.InventoryBatch{
		Product:        "P1",
		Description:    "Widget",
		ProductionDate: testProd,
		Quantity:       qty,
	}
}

func forecast(person, region string, monthOffset int, qty float64) catalog.ForecastRecord {
	return catalog.ForecastRecord{
		Product:     "P1",
		PeriodMonth: time.Date(2026, time.Month(5+monthOffset), 1, 0, 0, 0, 0, time.UTC),
		Region:      region,
		Salesperson: person,
		Quantity:    qty,
	}
}

func shipment(person string, daysAfterProd int, qty float64) catalog.ShipmentRecord {
	return catalog.ShipmentRecord{
		Product:     "P1",
		OrderDate:   testProd.AddDate(0, 0, daysAfterProd),
		Region:      "North",
		Salesperson: person,
		Quantity:    qty,
	}
}

func TestAttributeFallbackWithoutForecasts(t *testing.T) {
	owner := stats.Owner{Region: "North", Person: "Ann"}

	res := Attribute(testBatch(100), nil, nil, DefaultWindows(), owner)

	if !res.Fallback {
		t.Error("Expected fallback attribution without forecast signal")
	}
	if res.PrimaryPerson != "Ann" {
		t.Errorf("Expected fallback person Ann, got %s", res.PrimaryPerson)
	}
	if res.PrimaryRegion != "" {
		t.Errorf("Fallback region must stay blank (attribution by convention), got %q", res.PrimaryRegion)
	}
	if res.Summary == "" {
		t.Error("Expected a human-readable summary even in fallback")
	}
}

func TestAttributeSingleUnderfulfilledForecaster(t *testing.T) {
	forecasts := []catalog.ForecastRecord{forecast("Ann", "North", 0, 100)}
	shipments := []catalog.ShipmentRecord{shipment("Ann", 10, 40)}

	res := Attribute(testBatch(500), forecasts, shipments, DefaultWindows(), stats.Owner{})

	if res.Fallback {
		t.Fatal("Expected evidence-based attribution")
	}
	if len(res.Allocations) != 1 {
		t.Fatalf("Expected one allocation, got %d", len(res.Allocations))
	}

	a := res.Allocations[0]
	if a.FulfillmentRate != 0.4 {
		t.Errorf("Expected fulfillment 0.4, got %f", a.FulfillmentRate)
	}
	// Unfulfilled 60 of total forecast 100: 60% of the batch.
	if a.AllocatedQty != 300 {
		t.Errorf("Expected allocation 300, got %f", a.AllocatedQty)
	}
	// Sole forecaster with share 1.0 and fulfillment < 0.6: base 0.6 x2.
	if a.Score != 1.2 {
		t.Errorf("Expected escalated score 1.2, got %f", a.Score)
	}
	if res.PrimaryPerson != "Ann" || res.PrimaryRegion != "North" {
		t.Errorf("Unexpected primary attribution: %s / %s", res.PrimaryPerson, res.PrimaryRegion)
	}
}

func TestAttributeAllocationsNeverExceedBatch(t *testing.T) {
	forecasts := []catalog.ForecastRecord{
		forecast("Ann", "North", 0, 100),
		forecast("Bob", "South", 0, 50),
		forecast("Cid", "East", -1, 30),
	}
	// Nobody delivered anything.
	res := Attribute(testBatch(600), forecasts, nil, DefaultWindows(), stats.Owner{})

	var total float64
	for _, a := range res.Allocations {
		total += a.AllocatedQty
	}
	if total > 600+1e-9 {
		t.Errorf("Allocations sum %f exceeds batch quantity 600", total)
	}
	// With zero fulfillment everywhere the whole batch is apportioned.
	if total < 600-1e-9 {
		t.Errorf("Expected full apportionment with zero fulfillment, got %f", total)
	}
}

func TestAttributeOverfulfillerGetsNothing(t *testing.T) {
	forecasts := []catalog.ForecastRecord{
		forecast("Ann", "North", 0, 100),
		forecast("Bob", "South", 0, 100),
	}
	shipments := []catalog.ShipmentRecord{
		shipment("Ann", 5, 150), // delivered beyond their promise
	}

	res := Attribute(testBatch(400), forecasts, shipments, DefaultWindows(), stats.Owner{})

	for _, a := range res.Allocations {
		if a.Salesperson == "Ann" && a.AllocatedQty != 0 {
			t.Errorf("Overfulfiller must get zero allocation, got %f", a.AllocatedQty)
		}
	}
	if res.PrimaryPerson != "Bob" {
		t.Errorf("Expected Bob as primary responsible, got %s", res.PrimaryPerson)
	}
}

func TestAttributeWindowFiltering(t *testing.T) {
	forecasts := []catalog.ForecastRecord{
		forecast("Old", "North", -6, 999), // ~180 days before production: out
		forecast("Ann", "North", 0, 100),
	}
	shipments := []catalog.ShipmentRecord{
		shipment("Ann", 120, 100), // past the 90-day actuals window: ignored
	}

	res := Attribute(testBatch(100), forecasts, shipments, DefaultWindows(), stats.Owner{})

	if len(res.Allocations) != 1 || res.Allocations[0].Salesperson != "Ann" {
		t.Fatalf("Expected only Ann inside the forecast window, got %+v", res.Allocations)
	}
	// Her in-window actuals are zero, so the full batch lands on her.
	if res.Allocations[0].AllocatedQty != 100 {
		t.Errorf("Expected allocation 100, got %f", res.Allocations[0].AllocatedQty)
	}
}

func TestScoreMultiplierBands(t *testing.T) {
	cases := []struct {
		share, fulfillment, want float64
	}{
		{0.6, 0.5, 2.0},
		{0.6, 0.9, 1.5},
		{0.3, 0.5, 1.5},
		{0.3, 0.9, 1.2},
		{0.1, 0.1, 1.0},
	}
	for _, c := range cases {
		if got := scoreMultiplier(c.share, c.fulfillment); got != c.want {
			t.Errorf("scoreMultiplier(%f, %f) = %f, want %f", c.share, c.fulfillment, got, c.want)
		}
	}
}

func TestSummaryOrderingAndCutoff(t *testing.T) {
	var forecasts []catalog.ForecastRecord
	people := []string{"P01", "P02", "P03", "P04", "P05", "P06", "P07", "P08"}
	for i, p := range people {
		forecasts = append(forecasts, forecast(p, "North", 0, float64(100-i*10)))
	}

	res := Attribute(testBatch(1000), forecasts, nil, DefaultWindows(), stats.Owner{})

	if res.PrimaryPerson != "P01" {
		t.Errorf("Expected largest forecaster P01 as primary, got %s", res.PrimaryPerson)
	}
	if !strings.HasPrefix(res.Summary, "P01") {
		t.Errorf("Summary must lead with the primary party: %s", res.Summary)
	}
	// Primary plus at most five others named.
	for _, p := range []string{"P02", "P03", "P04", "P05", "P06"} {
		if !strings.Contains(res.Summary, p) {
			t.Errorf("Expected %s in summary: %s", p, res.Summary)
		}
	}
	for _, p := range []string{"P07", "P08"} {
		if strings.Contains(res.Summary, p) {
			t.Errorf("Contributor %s beyond top-5 cutoff leaked into summary: %s", p, res.Summary)
		}
	}
}
