package stats

import (
	"stockrisk/internal/catalog"
)

// Owner is a (region, salesperson) attribution target.
type Owner struct {
	Region string `json:"region"`
	Person string `json:"person"`
}

// DefaultOwner derives the fallback attribution target for a product from
// shipment frequency: the most frequent region, then the most frequent
// salesperson within that region. With no history it returns the configured
// defaults, so every product always has some attribution target.
func DefaultOwner(shipments []catalog.ShipmentRecord, fallback Owner) Owner {
	if len(shipments) == 0 {
		return fallback
	}

	regionCounts := make(map[string]int)
	for _, s := range shipments {
		regionCounts[s.Region]++
	}
	region := mostFrequent(regionCounts)

	personCounts := make(map[string]int)
	for _, s := range shipments {
		if s.Region == region {
			personCounts[s.Salesperson]++
		}
	}
	person := mostFrequent(personCounts)

	if region == "" {
		region = fallback.Region
	}
	if person == "" {
		person = fallback.Person
	}
	return Owner{Region: region, Person: person}
}

// mostFrequent picks the highest-count key, breaking ties alphabetically
// for deterministic output.
func mostFrequent(counts map[string]int) string {
	best := ""
	bestCount := 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && bestCount > 0 && k < best) {
			best = k
			bestCount = c
		}
	}
	return best
}
