package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var sampleMedicines = []Medicine{
	{
		ID: "m1", Name: "Panadol 500mg", Form: "Tablet", Quantity: 12,
		Categories:  []string{"pain-killer", "fever"},
		IsAvailable: true, DeliveryTimeMinutes: 10, PharmacyDistanceKm: 2.3, RequiresPrescription: true,
	},
	{
		ID: "m2", Name: "Paracetamol", Form: "Tablet", Quantity: 20,
		Categories:  []string{"pain-killer", "fever-reducer"},
		IsAvailable: true, DeliveryTimeMinutes: 25, PharmacyDistanceKm: 5.1, RequiresPrescription: false,
	},
	{
		ID: "m3", Name: "Amoxicillin", Form: "Capsule", Quantity: 20,
		Categories:  []string{"antibiotic", "infection"},
		IsAvailable: true, DeliveryTimeMinutes: 15, PharmacyDistanceKm: 3.2, RequiresPrescription: true,
	},
	{
		ID: "m4", Name: "Augmentin", Form: "Tablet", Quantity: 14,
		Categories:  []string{"antibiotic"},
		IsAvailable: false, DeliveryTimeMinutes: 30, PharmacyDistanceKm: 6.8, RequiresPrescription: true,
	},
	{
		ID: "m5", Name: "Vitamin C", Form: "Tablet", Quantity: 30,
		Categories:  []string{"vitamins", "immune"},
		IsAvailable: true, DeliveryTimeMinutes: 5, PharmacyDistanceKm: 1.2, RequiresPrescription: false,
	},
	{
		ID: "m6", Name: "Cough Syrup", Form: "Syrup", Quantity: 1,
		Categories:  []string{"cold", "flu"},
		IsAvailable: false, DeliveryTimeMinutes: 20, PharmacyDistanceKm: 4.5, RequiresPrescription: false,
	},
}

var samplePharmacies = []Pharmacy{
	{ID: "p1", Name: "City Pharmacy", DeliveryTime: 15, Distance: 2.55},
	{ID: "p2", Name: "Health Plus Pharmacy", DeliveryTime: 10, Distance: 1.8},
	{ID: "p3", Name: "Care Pharmacy", DeliveryTime: 25, Distance: 5.0},
}

// Sample returns the built-in demo catalog: medicines first, then pharmacies.
func Sample() []Record {
	out := make([]Record, 0, len(sampleMedicines)+len(samplePharmacies))
	for _, m := range sampleMedicines {
		r, err := NewMedicine(m)
		if err != nil {
			panic("invalid sample medicine: " + err.Error())
		}
		out = append(out, r)
	}
	for _, p := range samplePharmacies {
		r, err := NewPharmacy(p)
		if err != nil {
			panic("invalid sample pharmacy: " + err.Error())
		}
		out = append(out, r)
	}
	return out
}

// LoadFile reads a catalog snapshot from a YAML or JSON file.
// The file holds a top-level list of type-tagged records.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	if err := Validate(records); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return records, nil
}
