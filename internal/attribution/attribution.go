package attribution

import (
	"fmt"
	"sort"
	"strings"

	"stockrisk/internal/catalog"
	"stockrisk/internal/stats"
)

// Windows bounds the records considered for one batch: forecasts from
// backDays before production to forwardDays after it, actual shipments in
// the actualsDays following production.
type Windows struct {
	ForecastBackDays    int
	ForecastForwardDays int
	ActualsDays         int
}

// DefaultWindows returns the documented attribution windows.
func DefaultWindows() Windows {
	return Windows{ForecastBackDays: 90, ForecastForwardDays: 30, ActualsDays: 90}
}

// Allocation is one salesperson's share of a batch's unsold-quantity blame.
// Score ranks contributors; AllocatedQty is the batch quantity apportioned
// to them. Built once per batch and discarded, never shared across batches.
type Allocation struct {
	Salesperson     string  `json:"salesperson"`
	Region          string  `json:"region"`
	ForecastQty     float64 `json:"forecast_qty"`
	ActualQty       float64 `json:"actual_qty"`
	FulfillmentRate float64 `json:"fulfillment_rate"`
	ForecastShare   float64 `json:"forecast_share"`
	Score           float64 `json:"score"`
	UnfulfilledQty  float64 `json:"unfulfilled_qty"`
	AllocatedQty    float64 `json:"allocated_qty"`
}

// Result is the responsibility attribution for one batch. When no forecast
// signal exists in the window, Fallback is true, the primary person comes
// from the shipment-frequency default owner and Region stays blank:
// attribution by convention, not evidence.
type Result struct {
	Allocations   []Allocation `json:"allocations,omitempty"`
	PrimaryPerson string       `json:"primary_person"`
	PrimaryRegion string       `json:"primary_region"`
	Fallback      bool         `json:"fallback"`
	Summary       string       `json:"summary"`
}

// personAcc accumulates one salesperson's forecast and fulfillment signal
// inside a single batch evaluation.
type personAcc struct {
	forecastQty     float64
	actualQty       float64
	regionForecasts map[string]float64
}

// Attribute apportions a batch's unsold quantity across the salespeople
// whose forecasts for its product most exceeded their delivered sales.
// forecasts and shipments must already be filtered to the batch's product.
func Attribute(batch catalog.InventoryBatch, forecasts []catalog.ForecastRecord, shipments []catalog.ShipmentRecord, windows Windows, fallback stats.Owner) Result {
	prod := batch.ProductionDate
	forecastFrom := prod.AddDate(0, 0, -windows.ForecastBackDays)
	forecastTo := prod.AddDate(0, 0, windows.ForecastForwardDays)
	actualsTo := prod.AddDate(0, 0, windows.ActualsDays)

	// 1. Accumulate per-person forecast totals in the window
	accs := make(map[string]*personAcc)
	var totalForecast float64
	for _, f := range forecasts {
		if f.PeriodMonth.Before(forecastFrom) || f.PeriodMonth.After(forecastTo) {
			continue
		}
		a, ok := accs[f.Salesperson]
		if !ok {
			a = &personAcc{regionForecasts: make(map[string]float64)}
			accs[f.Salesperson] = a
		}
		a.forecastQty += f.Quantity
		a.regionForecasts[f.Region] += f.Quantity
		totalForecast += f.Quantity
	}

	if totalForecast <= 0 {
		return fallbackResult(fallback)
	}

	// 2. Overlay actual fulfillment in the post-production window
	for _, s := range shipments {
		if s.OrderDate.Before(prod) || s.OrderDate.After(actualsTo) {
			continue
		}
		if a, ok := accs[s.Salesperson]; ok {
			a.actualQty += s.Quantity
		}
	}

	// 3. Score and allocate
	var allocs []Allocation
	for person, a := range accs {
		if a.forecastQty <= 0 {
			continue // no promise, no blame
		}
		fulfillment := a.actualQty / a.forecastQty
		share := a.forecastQty / totalForecast

		base := (1 - fulfillment) * share
		score := base * scoreMultiplier(share, fulfillment)

		unfulfilled := a.forecastQty - a.actualQty
		if unfulfilled < 0 {
			unfulfilled = 0
		}

		allocs = append(allocs, Allocation{
			Salesperson:     person,
			Region:          dominantRegion(a.regionForecasts),
			ForecastQty:     a.forecastQty,
			ActualQty:       a.actualQty,
			FulfillmentRate: fulfillment,
			ForecastShare:   share,
			Score:           score,
			UnfulfilledQty:  unfulfilled,
			AllocatedQty:    batch.Quantity * (unfulfilled / totalForecast),
		})
	}

	if len(allocs) == 0 {
		return fallbackResult(fallback)
	}

	// 4. Largest allocation first; score then name break ties
	sort.Slice(allocs, func(i, j int) bool {
		if allocs[i].AllocatedQty != allocs[j].AllocatedQty {
			return allocs[i].AllocatedQty > allocs[j].AllocatedQty
		}
		if allocs[i].Score != allocs[j].Score {
			return allocs[i].Score > allocs[j].Score
		}
		return allocs[i].Salesperson < allocs[j].Salesperson
	})

	primary := allocs[0]
	return Result{
		Allocations:   allocs,
		PrimaryPerson: primary.Salesperson,
		PrimaryRegion: primary.Region,
		Summary:       summarize(allocs),
	}
}

// scoreMultiplier escalates blame for large forecast shares with poor
// fulfillment.
func scoreMultiplier(share, fulfillment float64) float64 {
	switch {
	case share > 0.5 && fulfillment < 0.6:
		return 2.0
	case share > 0.5:
		return 1.5
	case share > 0.2 && fulfillment < 0.6:
		return 1.5
	case share > 0.2:
		return 1.2
	default:
		return 1.0
	}
}

// dominantRegion picks the region carrying the largest forecast quantity,
// alphabetical on ties.
func dominantRegion(regions map[string]float64) string {
	best := ""
	var bestQty float64
	first := true
	for r, q := range regions {
		if first || q > bestQty || (q == bestQty && r < best) {
			best = r
			bestQty = q
			first = false
		}
	}
	return best
}

// summarize renders the primary party's allocation followed by up to five
// other contributors in descending order.
func summarize(allocs []Allocation) string {
	primary := allocs[0]
	var b strings.Builder
	fmt.Fprintf(&b, "%s allocated %.1f units (fulfillment %.0f%%)", primary.Salesperson, primary.AllocatedQty, primary.FulfillmentRate*100)

	rest := allocs[1:]
	if len(rest) > 5 {
		rest = rest[:5]
	}
	if len(rest) > 0 {
		parts := make([]string, 0, len(rest))
		for _, a := range rest {
			parts = append(parts, fmt.Sprintf("%s %.1f", a.Salesperson, a.AllocatedQty))
		}
		fmt.Fprintf(&b, "; also: %s", strings.Join(parts, ", "))
	}
	return b.String()
}

func fallbackResult(owner stats.Owner) Result {
	return Result{
		PrimaryPerson: owner.Person,
		PrimaryRegion: "",
		Fallback:      true,
		Summary:       fmt.Sprintf("no forecast signal in window; defaulting to %s", owner.Person),
	}
}
