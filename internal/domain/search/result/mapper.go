package result

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/medsearch/internal/domain/catalog"
)

// Map converts catalog records into display results, preserving order.
func Map(records []catalog.Record) []Result {
	out := make([]Result, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

// FromRecord converts a single catalog record.
func FromRecord(rec catalog.Record) Result {
	if m, ok := rec.Medicine(); ok {
		return Result{
			ID:                   m.ID,
			Type:                 catalog.KindMedicine,
			Title:                m.Name,
			Subtitle:             fmt.Sprintf("%s · %d tablets", m.Form, m.Quantity),
			IsAvailable:          &m.IsAvailable,
			DeliveryTimeMinutes:  &m.DeliveryTimeMinutes,
			PharmacyDistanceKm:   &m.PharmacyDistanceKm,
			RequiresPrescription: &m.RequiresPrescription,
		}
	}

	p, _ := rec.Pharmacy()
	return Result{
		ID:       p.ID,
		Type:     catalog.KindPharmacy,
		Title:    p.Name,
		Subtitle: fmt.Sprintf("Deliver · %s minutes | %s km", formatNumber(p.DeliveryTime), formatNumber(p.Distance)),
	}
}

// formatNumber prints the shortest decimal form: 15, 2.55, 5.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
