package compose

import (
	"testing"

	"github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func medicine(id string, available bool, delivery, distance float64, prescription bool) result.Result {
	return result.Result{
		ID:                   id,
		Type:                 catalog.KindMedicine,
		Title:                id,
		IsAvailable:          boolPtr(available),
		DeliveryTimeMinutes:  floatPtr(delivery),
		PharmacyDistanceKm:   floatPtr(distance),
		RequiresPrescription: boolPtr(prescription),
	}
}

func sampleResults(t *testing.T) []result.Result {
	t.Helper()
	return result.Map(catalog.Sample())
}

func resultIDs(rs []result.Result) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].ID
	}
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
