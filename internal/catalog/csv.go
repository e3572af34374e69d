package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CSV loaders for the three flat input datasets plus the price lookup.
// A malformed header or row is a run-level failure (spec'd as the only
// abort case) and is reported with the source file and row number;
// per-record business fallbacks happen downstream, never here.

// LoadShipmentsCSV reads shipment history from a CSV file with header
// product_code,order_date,region,salesperson,quantity.
func LoadShipmentsCSV(filename string) ([]ShipmentRecord, error) {
	records, err := readTable(filename, []string{"product_code", "order_date", "region", "salesperson", "quantity"})
	if err != nil {
		return nil, err
	}

	var out []ShipmentRecord
	for i, row := range records {
		orderDate, err := parseDate(row[1])
		if err != nil {
			return nil, fmt.Errorf("shipments CSV %s row %d: %w", filename, i+2, err)
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return nil, fmt.Errorf("shipments CSV %s row %d: invalid quantity %q", filename, i+2, row[4])
		}
		r, err := NewShipmentRecord(ProductCode(strings.TrimSpace(row[0])), orderDate, strings.TrimSpace(row[2]), strings.TrimSpace(row[3]), qty)
		if err != nil {
			return nil, fmt.Errorf("shipments CSV %s row %d: %w", filename, i+2, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadForecastsCSV reads forecast history from a CSV file with header
// product_code,period_month,region,salesperson,forecast_quantity.
// period_month accepts YYYY-MM or a full date.
func LoadForecastsCSV(filename string) ([]ForecastRecord, error) {
	records, err := readTable(filename, []string{"product_code", "period_month", "region", "salesperson", "forecast_quantity"})
	if err != nil {
		return nil, err
	}

	var out []ForecastRecord
	for i, row := range records {
		period, err := parseMonth(row[1])
		if err != nil {
			return nil, fmt.Errorf("forecasts CSV %s row %d: %w", filename, i+2, err)
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return nil, fmt.Errorf("forecasts CSV %s row %d: invalid forecast_quantity %q", filename, i+2, row[4])
		}
		r, err := NewForecastRecord(ProductCode(strings.TrimSpace(row[0])), period, strings.TrimSpace(row[2]), strings.TrimSpace(row[3]), qty)
		if err != nil {
			return nil, fmt.Errorf("forecasts CSV %s row %d: %w", filename, i+2, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadBatchesCSV reads the inventory snapshot from a CSV file with header
// product_code,description,production_date,batch_quantity,unit_price.
// unit_price may be empty; the engine then resolves it from the price list.
func LoadBatchesCSV(filename string) ([]InventoryBatch, error) {
	records, err := readTable(filename, []string{"product_code", "description", "production_date", "batch_quantity", "unit_price"})
	if err != nil {
		return nil, err
	}

	var out []InventoryBatch
	for i, row := range records {
		prodDate, err := parseDate(row[2])
		if err != nil {
			return nil, fmt.Errorf("batches CSV %s row %d: %w", filename, i+2, err)
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("batches CSV %s row %d: invalid batch_quantity %q", filename, i+2, row[3])
		}
		price := decimal.Zero
		if p := strings.TrimSpace(row[4]); p != "" {
			price, err = decimal.NewFromString(p)
			if err != nil {
				return nil, fmt.Errorf("batches CSV %s row %d: invalid unit_price %q", filename, i+2, row[4])
			}
		}
		b, err := NewInventoryBatch(ProductCode(strings.TrimSpace(row[0])), strings.TrimSpace(row[1]), prodDate, qty, price)
		if err != nil {
			return nil, fmt.Errorf("batches CSV %s row %d: %w", filename, i+2, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// LoadPricesCSV reads the product price lookup from a CSV file with header
// product_code,unit_price.
func LoadPricesCSV(filename string) (PriceList, error) {
	records, err := readTable(filename, []string{"product_code", "unit_price"})
	if err != nil {
		return nil, err
	}

	prices := make(PriceList)
	for i, row := range records {
		code := ProductCode(strings.TrimSpace(row[0]))
		if code == "" {
			return nil, fmt.Errorf("prices CSV %s row %d: product code cannot be empty", filename, i+2)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("prices CSV %s row %d: invalid unit_price %q", filename, i+2, row[1])
		}
		prices[code] = price
	}
	return prices, nil
}

func readTable(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", filename, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("CSV %s is empty, expected header %v", filename, expectedHeader)
	}

	header := records[0]
	if len(header) != len(expectedHeader) {
		return nil, fmt.Errorf("CSV %s header mismatch. Expected: %v, Got: %v", filename, expectedHeader, header)
	}
	for i, col := range expectedHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return nil, fmt.Errorf("CSV %s header mismatch. Expected: %v, Got: %v", filename, expectedHeader, header)
		}
	}

	for i, row := range records[1:] {
		if len(row) != len(expectedHeader) {
			return nil, fmt.Errorf("CSV %s row %d: expected %d columns, got %d", filename, i+2, len(expectedHeader), len(row))
		}
	}

	return records[1:], nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, nil
	}
	return parseDate(s)
}
