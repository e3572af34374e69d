package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"stockrisk/internal/attribution"
	"stockrisk/internal/catalog"
	"stockrisk/internal/config"
	"stockrisk/internal/risk"
	"stockrisk/internal/stats"
)

// BatchRow is one fully-joined output row: identifying fields, clearance
// projection, risk assessment and responsibility attribution for a single
// inventory batch. The output table always contains exactly one row per
// input batch.
type BatchRow struct {
	Product        catalog.ProductCode `json:"product_code"`
	Description    string              `json:"description"`
	ProductionDate time.Time           `json:"production_date"`
	AgeDays        float64             `json:"batch_age_days"`
	Quantity       float64             `json:"batch_quantity"`
	UnitPrice      decimal.Decimal     `json:"unit_price"`
	BatchValue     decimal.Decimal     `json:"batch_value"`

	DailyAvgSales float64 `json:"daily_avg_sales"`
	SalesStdDev   float64 `json:"sales_std_dev"`
	CV            float64 `json:"coefficient_of_variation"`
	SeasonalIndex float64 `json:"seasonal_index"`
	ForecastBias  float64 `json:"forecast_bias"`

	DaysToClear    float64 `json:"days_to_clear"`
	NoSalesHistory bool    `json:"no_sales_history"`
	Risk30         float64 `json:"risk_pct_30"`
	Risk60         float64 `json:"risk_pct_60"`
	Risk90         float64 `json:"risk_pct_90"`

	RiskScore         int        `json:"risk_score"`
	RiskLevel         risk.Level `json:"risk_level"`
	RecommendedAction string     `json:"recommended_action"`
	StockingReasons   []string   `json:"stocking_reasons,omitempty"`

	Attribution attribution.Result `json:"attribution"`
}

// RunResult is the complete output of one analysis run over a snapshot.
type RunResult struct {
	RunID       string     `json:"run_id"`
	Fingerprint string     `json:"fingerprint"`
	GeneratedAt time.Time  `json:"generated_at"`
	Rows        []BatchRow `json:"rows"`
}

// productProfile caches the per-product derivations shared by every batch
// of that product. Profiles are computed once per run, then read-only.
type productProfile struct {
	metrics   stats.SalesMetrics
	seasonal  float64
	bias      float64
	owner     stats.Owner
	shipments []catalog.ShipmentRecord
	forecasts []catalog.ForecastRecord
}

// Engine runs the risk/attribution analysis. It holds no cross-run state;
// every Analyze call is a pure function of the snapshot and parameters.
type Engine struct {
	params config.Params

	// Now is the reference clock, overridable in tests.
	Now func() time.Time
}

// New creates an Engine with the given tunable parameters.
func New(params config.Params) *Engine {
	return &Engine{params: params, Now: time.Now}
}

// Analyze scores every batch in the snapshot and returns one row per batch,
// sorted by risk tier (critical first) then by descending batch age.
// Per-batch computations run on a bounded worker pool: all workers read the
// same immutable snapshot and write disjoint output slots.
func (e *Engine) Analyze(ctx context.Context, snap *catalog.Snapshot) (*RunResult, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	started := time.Now()
	now := e.Now()

	profiles := e.buildProfiles(snap, now)

	rows := make([]BatchRow, len(snap.Batches))
	g, ctx := errgroup.WithContext(ctx)
	workers := e.params.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, batch := range snap.Batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[i] = e.assessBatch(batch, profiles[batch.Product], snap.Prices, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortRows(rows)

	result := &RunResult{
		RunID:       uuid.NewString(),
		Fingerprint: snap.Fingerprint(),
		GeneratedAt: now,
		Rows:        rows,
	}

	log.Info().
		Str("run", result.RunID).
		Str("fingerprint", result.Fingerprint[:12]).
		Int("batches", len(rows)).
		Int("products", len(profiles)).
		Dur("elapsed", time.Since(started)).
		Msg("Analysis run complete")

	return result, nil
}

// buildProfiles derives the per-product metrics every batch row joins on.
// Products that appear only in the batch snapshot (no shipments, no
// forecasts) still get a profile built from empty history, so their batches
// are assessed with sentinel metrics instead of being dropped.
func (e *Engine) buildProfiles(snap *catalog.Snapshot, now time.Time) map[catalog.ProductCode]*productProfile {
	shipByProd := snap.ShipmentsByProduct()
	fcByProd := snap.ForecastsByProduct()

	products := make(map[catalog.ProductCode]bool)
	for _, b := range snap.Batches {
		products[b.Product] = true
	}

	fallback := stats.Owner{Region: e.params.DefaultRegion, Person: e.params.DefaultOwner}
	biasForecastFrom := now.AddDate(0, 0, -e.params.BiasForecastWindowDays)
	biasActualsFrom := now.AddDate(0, 0, -e.params.BiasActualsWindowDays)

	profiles := make(map[catalog.ProductCode]*productProfile, len(products))
	for code := range products {
		shipments := shipByProd[code]
		forecasts := fcByProd[code]

		var forecastTotal float64
		for _, f := range forecasts {
			if !f.PeriodMonth.Before(biasForecastFrom) && !f.PeriodMonth.After(now) {
				forecastTotal += f.Quantity
			}
		}
		var actualTotal float64
		for _, s := range shipments {
			if !s.OrderDate.Before(biasActualsFrom) && !s.OrderDate.After(now) {
				actualTotal += s.Quantity
			}
		}

		metrics := stats.ComputeSalesMetrics(shipments, now)
		profiles[code] = &productProfile{
			metrics:   metrics,
			seasonal:  stats.SeasonalIndex(shipments, now.Month(), e.params.MinSeasonalIndex),
			bias:      stats.ForecastBias(forecastTotal, actualTotal, e.params.MaxForecastBias),
			owner:     stats.DefaultOwner(shipments, fallback),
			shipments: shipments,
			forecasts: forecasts,
		}

		if !metrics.HasHistory {
			log.Debug().Str("product", string(code)).Msg("No shipment history, using sentinel metrics")
		}
	}

	return profiles
}

func (e *Engine) assessBatch(batch catalog.InventoryBatch, profile *productProfile, prices catalog.PriceList, now time.Time) BatchRow {
	if profile == nil {
		// assessBatch is only called with profiles built for every batch
		// product, but a best-effort row beats a panic.
		fallback := stats.Owner{Region: e.params.DefaultRegion, Person: e.params.DefaultOwner}
		profile = &productProfile{
			metrics:  stats.ComputeSalesMetrics(nil, now),
			seasonal: 1.0,
			owner:    fallback,
		}
	}

	age := batch.AgeDays(now)
	m := profile.metrics

	est := risk.EstimateClearance(batch.Quantity, age, m.DailyAvgSales, profile.seasonal, e.params.MinDailySales)
	score, reasons := risk.Score(age, est, m.CV, profile.bias, profile.seasonal)
	level := risk.Classify(score, risk.Thresholds{
		Critical: e.params.CriticalScore,
		High:     e.params.HighScore,
		Medium:   e.params.MediumScore,
		Low:      e.params.LowScore,
	})

	windows := attribution.Windows{
		ForecastBackDays:    e.params.ForecastWindowBackDays,
		ForecastForwardDays: e.params.ForecastWindowForwardDays,
		ActualsDays:         e.params.ActualsWindowDays,
	}
	attr := attribution.Attribute(batch, profile.forecasts, profile.shipments, windows, profile.owner)

	price := resolvePrice(batch, prices)

	return BatchRow{
		Product:        batch.Product,
		Description:    batch.Description,
		ProductionDate: batch.ProductionDate,
		AgeDays:        age,
		Quantity:       batch.Quantity,
		UnitPrice:      price,
		BatchValue:     batch.Value(price),

		DailyAvgSales: m.DailyAvgSales,
		SalesStdDev:   m.SalesStdDev,
		CV:            m.CV,
		SeasonalIndex: profile.seasonal,
		ForecastBias:  profile.bias,

		DaysToClear:    est.DaysToClear,
		NoSalesHistory: est.NoSalesHistory,
		Risk30:         est.Risk30,
		Risk60:         est.Risk60,
		Risk90:         est.Risk90,

		RiskScore:         score,
		RiskLevel:         level,
		RecommendedAction: level.Action(),
		StockingReasons:   reasons,

		Attribution: attr,
	}
}

// resolvePrice prefers the batch's own price, falling back to the product
// price list. A product missing from both yields a zero price and the
// batch is still assessed.
func resolvePrice(batch catalog.InventoryBatch, prices catalog.PriceList) decimal.Decimal {
	if !batch.UnitPrice.IsZero() {
		return batch.UnitPrice
	}
	if p, ok := prices[batch.Product]; ok {
		return p
	}
	log.Debug().Str("product", string(batch.Product)).Msg("No unit price found, valuing batch at zero")
	return decimal.Zero
}

func sortRows(rows []BatchRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RiskLevel != rows[j].RiskLevel {
			return rows[i].RiskLevel > rows[j].RiskLevel
		}
		if rows[i].AgeDays != rows[j].AgeDays {
			return rows[i].AgeDays > rows[j].AgeDays
		}
		if rows[i].Product != rows[j].Product {
			return rows[i].Product < rows[j].Product
		}
		return rows[i].ProductionDate.Before(rows[j].ProductionDate)
	})
}
