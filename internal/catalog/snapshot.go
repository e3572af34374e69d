package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Snapshot is the immutable input to one analysis run: the three flat
// datasets plus the product price lookup. All derived results are pure
// functions of a Snapshot; nothing in it is mutated after construction.
type Snapshot struct {
	Shipments []ShipmentRecord
	Forecasts []ForecastRecord
	Batches   []InventoryBatch
	Prices    PriceList
	TakenAt   time.Time
}

// ShipmentsByProduct groups the shipment history by product code.
func (s *Snapshot) ShipmentsByProduct() map[ProductCode][]ShipmentRecord {
	out := make(map[ProductCode][]ShipmentRecord)
	for _, r := range s.Shipments {
		out[r.Product] = append(out[r.Product], r)
	}
	return out
}

// ForecastsByProduct groups the forecast history by product code.
func (s *Snapshot) ForecastsByProduct() map[ProductCode][]ForecastRecord {
	out := make(map[ProductCode][]ForecastRecord)
	for _, r := range s.Forecasts {
		out[r.Product] = append(out[r.Product], r)
	}
	return out
}

// Fingerprint returns a stable content hash of the snapshot's datasets.
// It keys the run cache: two snapshots with identical records hash equal
// regardless of record order, so a re-run over unchanged data can be
// answered from the store.
func (s *Snapshot) Fingerprint() string {
	var lines []string

	for _, r := range s.Shipments {
		lines = append(lines, fmt.Sprintf("s|%s|%s|%s|%s|%g",
			r.Product, r.OrderDate.UTC().Format(time.RFC3339), r.Region, r.Salesperson, r.Quantity))
	}
	for _, r := range s.Forecasts {
		lines = append(lines, fmt.Sprintf("f|%s|%s|%s|%s|%g",
			r.Product, r.PeriodMonth.UTC().Format("2006-01"), r.Region, r.Salesperson, r.Quantity))
	}
	for _, b := range s.Batches {
		lines = append(lines, fmt.Sprintf("b|%s|%s|%g|%s",
			b.Product, b.ProductionDate.UTC().Format(time.RFC3339), b.Quantity, b.UnitPrice))
	}
	for code, price := range s.Prices {
		lines = append(lines, fmt.Sprintf("p|%s|%s", code, price))
	}

	sort.Strings(lines)

	h := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h[:])
}
