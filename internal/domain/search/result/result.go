package result

import (
	"github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
)

// Result is a normalized, display-ready search hit.
// Medicine attributes are nil for pharmacies.
type Result struct {
	ID       string       `json:"id"`
	Type     catalog.Kind `json:"type"`
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle"`

	IsAvailable          *bool    `json:"isAvailable,omitempty"`
	DeliveryTimeMinutes  *float64 `json:"deliveryTimeMinutes,omitempty"`
	PharmacyDistanceKm   *float64 `json:"pharmacyDistanceKm,omitempty"`
	RequiresPrescription *bool    `json:"requiresPrescription,omitempty"`
}

// IsMedicine reports whether the hit is a medicine.
func (r *Result) IsMedicine() bool { return r.Type == catalog.KindMedicine }

// Attributes returns the filterable attributes of the hit.
func (r *Result) Attributes() filter.Attributes {
	return filter.Attributes{
		IsAvailable:          r.IsAvailable,
		DeliveryTimeMinutes:  r.DeliveryTimeMinutes,
		PharmacyDistanceKm:   r.PharmacyDistanceKm,
		RequiresPrescription: r.RequiresPrescription,
	}
}

// Split partitions results into medicines and pharmacies, preserving order.
func Split(results []Result) (medicines, pharmacies []Result) {
	medicines = make([]Result, 0, len(results))
	pharmacies = make([]Result, 0)
	for _, r := range results {
		if r.IsMedicine() {
			medicines = append(medicines, r)
		} else {
			pharmacies = append(pharmacies, r)
		}
	}
	return medicines, pharmacies
}
