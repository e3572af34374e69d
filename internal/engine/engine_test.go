package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockrisk/internal/catalog"
	"stockrisk/internal/config"
	"stockrisk/internal/risk"
)

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	e := New(config.DefaultParams())
	e.Now = func() time.Time { return testNow }
	return e
}

// fastSeller builds steady daily history so the product clears quickly.
func fastSeller(product catalog.ProductCode, perDay float64, days int) []catalog.ShipmentRecord {
	var out []catalog.ShipmentRecord
	for i := 0; i < days; i++ {
		out = append(out, catalog.ShipmentRecord{
			Product:     product,
			OrderDate:   testNow.AddDate(0, 0, -i),
			Region:      "North",
			Salesperson: "Ann",
			Quantity:    perDay,
		})
	}
	return out
}

func TestAnalyzeOneRowPerBatch(t *testing.T) {
	snap := &catalog.Snapshot{
		Shipments: fastSeller("FAST", 10, 30),
		Batches: []catalog.InventoryBatch{
			{Product: "FAST", Description: "mover", ProductionDate: testNow.AddDate(0, 0, -5), Quantity: 20},
			{Product: "GHOST", Description: "no data anywhere", ProductionDate: testNow.AddDate(0, 0, -95), Quantity: 1000},
			{Product: "FAST", Description: "second lot", ProductionDate: testNow.AddDate(0, 0, -2), Quantity: 30},
		},
	}

	result, err := newTestEngine().Analyze(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3, "exactly one row per input batch, never dropped")

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, snap.Fingerprint(), result.Fingerprint)
}

func TestAnalyzeUnknownProductGetsBestEffortRow(t *testing.T) {
	snap := &catalog.Snapshot{
		Batches: []catalog.InventoryBatch{
			{Product: "GHOST", ProductionDate: testNow.AddDate(0, 0, -95), Quantity: 1000},
		},
	}

	result, err := newTestEngine().Analyze(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.True(t, row.NoSalesHistory)
	// Age 40 + no-sales clearance 40 + Inf-CV volatility 10 = 90.
	assert.Equal(t, 90, row.RiskScore)
	assert.Equal(t, risk.Critical, row.RiskLevel)
	// No forecast signal: fallback attribution with configured owner.
	assert.True(t, row.Attribution.Fallback)
	assert.Equal(t, "Unassigned", row.Attribution.PrimaryPerson)
	assert.Empty(t, row.Attribution.PrimaryRegion)
	// No price anywhere: zero-valued, still assessed.
	assert.True(t, row.BatchValue.IsZero())
}

func TestAnalyzeSortsByTierThenAge(t *testing.T) {
	snap := &catalog.Snapshot{
		Shipments: fastSeller("FAST", 10, 30),
		Batches: []catalog.InventoryBatch{
			{Product: "FAST", ProductionDate: testNow.AddDate(0, 0, -2), Quantity: 20},
			{Product: "GHOST", ProductionDate: testNow.AddDate(0, 0, -95), Quantity: 1000},
			{Product: "GHOST", ProductionDate: testNow.AddDate(0, 0, -200), Quantity: 1000},
		},
	}

	result, err := newTestEngine().Analyze(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	// Critical rows first, oldest first within the tier.
	assert.Equal(t, catalog.ProductCode("GHOST"), result.Rows[0].Product)
	assert.InDelta(t, 200, result.Rows[0].AgeDays, 0.5)
	assert.Equal(t, catalog.ProductCode("GHOST"), result.Rows[1].Product)
	assert.Equal(t, catalog.ProductCode("FAST"), result.Rows[2].Product)

	for i := 1; i < len(result.Rows); i++ {
		assert.GreaterOrEqual(t, result.Rows[i-1].RiskLevel, result.Rows[i].RiskLevel)
	}
}

func TestAnalyzePriceFallback(t *testing.T) {
	snap := &catalog.Snapshot{
		Batches: []catalog.InventoryBatch{
			{Product: "P1", ProductionDate: testNow.AddDate(0, 0, -10), Quantity: 10, UnitPrice: decimal.NewFromInt(3)},
			{Product: "P2", ProductionDate: testNow.AddDate(0, 0, -10), Quantity: 10},
		},
		Prices: catalog.PriceList{
			"P1": decimal.NewFromInt(99), // batch price wins
			"P2": decimal.NewFromInt(2),
		},
	}

	result, err := newTestEngine().Analyze(context.Background(), snap)
	require.NoError(t, err)

	byProduct := make(map[catalog.ProductCode]BatchRow)
	for _, r := range result.Rows {
		byProduct[r.Product] = r
	}
	assert.True(t, byProduct["P1"].BatchValue.Equal(decimal.NewFromInt(30)), "batch price takes precedence")
	assert.True(t, byProduct["P2"].BatchValue.Equal(decimal.NewFromInt(20)), "price list fills the gap")
}

func TestAnalyzeDeterministic(t *testing.T) {
	var batches []catalog.InventoryBatch
	for i := 0; i < 50; i++ {
		batches = append(batches, catalog.InventoryBatch{
			Product:        "FAST",
			ProductionDate: testNow.AddDate(0, 0, -i),
			Quantity:       float64(10 + i),
		})
	}
	snap := &catalog.Snapshot{Shipments: fastSeller("FAST", 5, 60), Batches: batches}

	e := newTestEngine()
	first, err := e.Analyze(context.Background(), snap)
	require.NoError(t, err)
	second, err := e.Analyze(context.Background(), snap)
	require.NoError(t, err)

	require.Len(t, second.Rows, len(first.Rows))
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].Product, second.Rows[i].Product)
		assert.Equal(t, first.Rows[i].AgeDays, second.Rows[i].AgeDays)
		assert.Equal(t, first.Rows[i].RiskScore, second.Rows[i].RiskScore)
		assert.Equal(t, first.Rows[i].DaysToClear, second.Rows[i].DaysToClear)
	}
}

func TestAnalyzeAttributionJoinsForecasts(t *testing.T) {
	prod := testNow.AddDate(0, 0, -40)
	snap := &catalog.Snapshot{
		Shipments: []catalog.ShipmentRecord{
			{Product: "P1", OrderDate: prod.AddDate(0, 0, 10), Region: "North", Salesperson: "Ann", Quantity: 20},
		},
		Forecasts: []catalog.ForecastRecord{
			{Product: "P1", PeriodMonth: time.Date(prod.Year(), prod.Month(), 1, 0, 0, 0, 0, time.UTC), Region: "North", Salesperson: "Ann", Quantity: 100},
		},
		Batches: []catalog.InventoryBatch{
			{Product: "P1", ProductionDate: prod, Quantity: 500},
		},
	}

	result, err := newTestEngine().Analyze(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	attr := result.Rows[0].Attribution
	require.False(t, attr.Fallback)
	assert.Equal(t, "Ann", attr.PrimaryPerson)
	assert.Equal(t, "North", attr.PrimaryRegion)
	require.Len(t, attr.Allocations, 1)
	// Unfulfilled 80 of 100 forecast: 80% of the 500-unit batch.
	assert.InDelta(t, 400, attr.Allocations[0].AllocatedQty, 1e-9)
}
