package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductCode identifies a product across all three input datasets.
type ProductCode string

// ShipmentRecord is one historical shipment line. It is the source of truth
// for actual sales and is never mutated after loading.
type ShipmentRecord struct {
	Product     ProductCode `json:"product_code"`
	OrderDate   time.Time   `json:"order_date"`
	Region      string      `json:"region"`
	Salesperson string      `json:"salesperson"`
	Quantity    float64     `json:"quantity"`
}

// NewShipmentRecord creates a validated ShipmentRecord.
func NewShipmentRecord(product ProductCode, orderDate time.Time, region, salesperson string, quantity float64) (ShipmentRecord, error) {
	if product == "" {
		return ShipmentRecord{}, fmt.Errorf("product code cannot be empty")
	}
	if orderDate.IsZero() {
		return ShipmentRecord{}, fmt.Errorf("order date cannot be zero")
	}
	if quantity < 0 {
		return ShipmentRecord{}, fmt.Errorf("quantity cannot be negative, got %v", quantity)
	}
	return ShipmentRecord{
		Product:     product,
		OrderDate:   orderDate,
		Region:      region,
		Salesperson: salesperson,
		Quantity:    quantity,
	}, nil
}

// ForecastRecord is one salesperson's forecast for a product in a calendar
// month. PeriodMonth is normalized to the first day of the month.
type ForecastRecord struct {
	Product     ProductCode `json:"product_code"`
	PeriodMonth time.Time   `json:"period_month"`
	Region      string      `json:"region"`
	Salesperson string      `json:"salesperson"`
	Quantity    float64     `json:"forecast_quantity"`
}

// NewForecastRecord creates a validated ForecastRecord.
func NewForecastRecord(product ProductCode, period time.Time, region, salesperson string, quantity float64) (ForecastRecord, error) {
	if product == "" {
		return ForecastRecord{}, fmt.Errorf("product code cannot be empty")
	}
	if period.IsZero() {
		return ForecastRecord{}, fmt.Errorf("period month cannot be zero")
	}
	if salesperson == "" {
		return ForecastRecord{}, fmt.Errorf("salesperson cannot be empty")
	}
	if quantity < 0 {
		return ForecastRecord{}, fmt.Errorf("forecast quantity cannot be negative, got %v", quantity)
	}
	return ForecastRecord{
		Product:     product,
		PeriodMonth: time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, period.Location()),
		Region:      region,
		Salesperson: salesperson,
		Quantity:    quantity,
	}, nil
}

// InventoryBatch is one production lot still held in stock.
// UnitPrice may be zero when the batch row carried no price; the engine
// falls back to the product price list in that case.
type InventoryBatch struct {
	Product        ProductCode     `json:"product_code"`
	Description    string          `json:"description"`
	ProductionDate time.Time       `json:"production_date"`
	Quantity       float64         `json:"batch_quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// NewInventoryBatch creates a validated InventoryBatch.
func NewInventoryBatch(product ProductCode, description string, productionDate time.Time, quantity float64, unitPrice decimal.Decimal) (InventoryBatch, error) {
	if product == "" {
		return InventoryBatch{}, fmt.Errorf("product code cannot be empty")
	}
	if productionDate.IsZero() {
		return InventoryBatch{}, fmt.Errorf("production date cannot be zero")
	}
	if quantity < 0 {
		return InventoryBatch{}, fmt.Errorf("batch quantity cannot be negative, got %v", quantity)
	}
	if unitPrice.IsNegative() {
		return InventoryBatch{}, fmt.Errorf("unit price cannot be negative, got %s", unitPrice)
	}
	return InventoryBatch{
		Product:        product,
		Description:    description,
		ProductionDate: productionDate,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
	}, nil
}

// AgeDays returns the batch age in whole days relative to now, clamped at 0
// so a production date in the future never yields a negative age.
func (b InventoryBatch) AgeDays(now time.Time) float64 {
	age := now.Sub(b.ProductionDate).Hours() / 24.0
	if age < 0 {
		return 0
	}
	return age
}

// Value returns quantity x unit price for the given resolved price.
func (b InventoryBatch) Value(unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromFloat(b.Quantity))
}

// PriceList maps product codes to list unit prices.
type PriceList map[ProductCode]decimal.Decimal
