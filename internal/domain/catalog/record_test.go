package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
)

func mustMedicine(t *testing.T, m Medicine) Record {
	t.Helper()
	r, err := NewMedicine(m)
	if err != nil {
		t.Fatalf("NewMedicine: %v", err)
	}
	return r
}

func mustPharmacy(t *testing.T, p Pharmacy) Record {
	t.Helper()
	r, err := NewPharmacy(p)
	if err != nil {
		t.Fatalf("NewPharmacy: %v", err)
	}
	return r
}

func TestNewMedicine_Validation(t *testing.T) {
	tests := []struct {
		name string
		m    Medicine
	}{
		{"missing id", Medicine{Name: "x"}},
		{"negative quantity", Medicine{ID: "m", Quantity: -1}},
		{"negative delivery", Medicine{ID: "m", DeliveryTimeMinutes: -1}},
		{"negative distance", Medicine{ID: "m", PharmacyDistanceKm: -0.5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMedicine(tc.m)
			if !errors.Is(err, domain.ErrInvalidRecord) {
				t.Errorf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestNewPharmacy_Validation(t *testing.T) {
	if _, err := NewPharmacy(Pharmacy{Name: "x"}); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for missing id, got %v", err)
	}
	if _, err := NewPharmacy(Pharmacy{ID: "p", Distance: -1}); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for negative distance, got %v", err)
	}
}

func TestNewMedicine_CopiesCategories(t *testing.T) {
	cats := []string{"fever"}
	r := mustMedicine(t, Medicine{ID: "m", Name: "Panadol", Categories: cats})
	cats[0] = "changed"

	m, ok := r.Medicine()
	if !ok {
		t.Fatal("expected medicine variant")
	}
	if m.Categories[0] != "fever" {
		t.Errorf("record must not alias caller slice, got %q", m.Categories[0])
	}
	if !r.Matches("fev") {
		t.Error("expected match on original category")
	}
}

func TestVariantAccessors(t *testing.T) {
	med := mustMedicine(t, Medicine{ID: "m1", Name: "Panadol"})
	ph := mustPharmacy(t, Pharmacy{ID: "p1", Name: "City Pharmacy"})

	if med.Kind() != KindMedicine || ph.Kind() != KindPharmacy {
		t.Fatal("unexpected kinds")
	}
	if _, ok := med.Pharmacy(); ok {
		t.Error("medicine must not expose a pharmacy variant")
	}
	if _, ok := ph.Medicine(); ok {
		t.Error("pharmacy must not expose a medicine variant")
	}
	if ph.ID() != "p1" || ph.Name() != "City Pharmacy" {
		t.Errorf("unexpected pharmacy id/name: %s %s", ph.ID(), ph.Name())
	}
}

func TestMatches(t *testing.T) {
	panadol := mustMedicine(t, Medicine{ID: "m1", Name: "Panadol 500mg", Categories: []string{"pain-killer"}})
	vitamin := mustMedicine(t, Medicine{ID: "m5", Name: "Vitamin C", Categories: []string{"vitamins", "immune"}})
	city := mustPharmacy(t, Pharmacy{ID: "p1", Name: "City Pharmacy"})

	tests := []struct {
		name  string
		r     Record
		query string
		want  bool
	}{
		{"name prefix", panadol, "pan", true},
		{"case insensitive", panadol, "PANADOL", true},
		{"category substring", panadol, "killer", true},
		{"no match", panadol, "amox", false},
		{"second category", vitamin, "immu", true},
		{"pharmacy name", city, "city", true},
		{"pharmacy ignores categories", city, "pain", false},
		{"full width folds", panadol, "ＰＡＮ", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.Matches(tc.query); got != tc.want {
				t.Errorf("Matches(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestSample_PanMatchesPanadolOnly(t *testing.T) {
	var got []string
	for _, r := range Sample() {
		if r.Matches("pan") {
			got = append(got, r.ID())
		}
	}
	// Paracetamol shares "pa" but not "pan".
	if len(got) != 1 || got[0] != "m1" {
		t.Errorf(`Matches("pan") over sample = %v, want [m1]`, got)
	}
}

func TestPassesFilters(t *testing.T) {
	fast := mustMedicine(t, Medicine{
		ID: "m5", Name: "Vitamin C", IsAvailable: true,
		DeliveryTimeMinutes: 5, PharmacyDistanceKm: 1.2,
	})
	slow := mustMedicine(t, Medicine{
		ID: "mx", Name: "Slow", IsAvailable: true,
		DeliveryTimeMinutes: 25, PharmacyDistanceKm: 1,
	})
	ph := mustPharmacy(t, Pharmacy{ID: "p1", Name: "City Pharmacy", DeliveryTime: 1, Distance: 1})

	if !ph.PassesFilters(filter.Set(0)) {
		t.Error("empty set must pass pharmacies")
	}
	if ph.PassesFilters(filter.NewSet(filter.Delivery)) {
		t.Error("any filter must exclude pharmacies")
	}
	if !fast.PassesFilters(filter.NewSet(filter.Delivery, filter.PharmacyDistance, filter.Availability)) {
		t.Error("fast medicine must pass")
	}
	if slow.PassesFilters(filter.NewSet(filter.Delivery, filter.PharmacyDistance)) {
		t.Error("25 minute delivery must fail the delivery filter")
	}
	if fast.PassesFilters(filter.NewSet(filter.Prescription)) {
		t.Error("medicine without prescription must fail the prescription filter")
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	a := mustMedicine(t, Medicine{ID: "x", Name: "A"})
	b := mustPharmacy(t, Pharmacy{ID: "x", Name: "B"})
	if err := Validate([]Record{a, b}); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("expected duplicate id error, got %v", err)
	}
	if err := Validate(Sample()); err != nil {
		t.Errorf("sample catalog must be valid: %v", err)
	}
}

func TestSample(t *testing.T) {
	s := Sample()
	if len(s) != 9 {
		t.Fatalf("expected 9 sample records, got %d", len(s))
	}
	var meds, phs int
	for _, r := range s {
		switch r.Kind() {
		case KindMedicine:
			meds++
		case KindPharmacy:
			phs++
		}
	}
	if meds != 6 || phs != 3 {
		t.Errorf("expected 6 medicines and 3 pharmacies, got %d/%d", meds, phs)
	}
}

func TestRecordJSON(t *testing.T) {
	in := `[
		{"id":"m1","type":"medicine","name":"Panadol 500mg","form":"Tablet","quantity":12,
		 "category":["pain-killer","fever"],"isAvailable":true,"deliveryTimeMinutes":10,
		 "pharmacyDistanceKm":2.3,"requiresPrescription":true},
		{"id":"p1","type":"pharmacy","name":"City Pharmacy","deliveryTime":15,"distance":2.55}
	]`

	var records []Record
	if err := json.Unmarshal([]byte(in), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	m, ok := records[0].Medicine()
	if !ok || m.Quantity != 12 || m.PharmacyDistanceKm != 2.3 || !m.RequiresPrescription {
		t.Errorf("unexpected medicine: %+v", m)
	}
	p, ok := records[1].Pharmacy()
	if !ok || p.Distance != 2.55 {
		t.Errorf("unexpected pharmacy: %+v", p)
	}

	out, err := json.Marshal(records[1])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"p1","type":"pharmacy","name":"City Pharmacy","deliveryTime":15,"distance":2.55}`
	if string(out) != want {
		t.Errorf("marshal:\ngot:  %s\nwant: %s", out, want)
	}
}

func TestRecordJSON_UnknownType(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"id":"x","type":"clinic","name":"X"}`), &r)
	if !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestRecordJSON_MissingMedicineAttributes(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		missing string
	}{
		{
			"no delivery or distance",
			`{"id":"m9","type":"medicine","name":"Ibuprofen","form":"Tablet","quantity":10,
			  "isAvailable":true,"requiresPrescription":false}`,
			"deliveryTimeMinutes, pharmacyDistanceKm",
		},
		{
			"no availability",
			`{"id":"m9","type":"medicine","name":"Ibuprofen","deliveryTimeMinutes":5,
			  "pharmacyDistanceKm":1,"requiresPrescription":false}`,
			"isAvailable",
		},
		{
			"no prescription flag",
			`{"id":"m9","type":"medicine","name":"Ibuprofen","isAvailable":true,
			  "deliveryTimeMinutes":5,"pharmacyDistanceKm":1}`,
			"requiresPrescription",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			err := json.Unmarshal([]byte(tt.in), &r)
			if !errors.Is(err, domain.ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("error %q must name %q", err, tt.missing)
			}
		})
	}
}

func TestRecordJSON_ZeroAttributesKept(t *testing.T) {
	var r Record
	in := `{"id":"m9","type":"medicine","name":"Ibuprofen","isAvailable":false,
	        "deliveryTimeMinutes":0,"pharmacyDistanceKm":0,"requiresPrescription":false}`
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("explicit zero values are valid: %v", err)
	}
	if !filter.NewSet(filter.Delivery, filter.PharmacyDistance).Admits(r.Attributes()) {
		t.Error("explicit zero delivery and distance must pass the limits")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `
- id: m1
  type: medicine
  name: Panadol 500mg
  form: Tablet
  quantity: 12
  category: [pain-killer, fever]
  isAvailable: true
  deliveryTimeMinutes: 10
  pharmacyDistanceKm: 2.3
  requiresPrescription: true
- id: p1
  type: pharmacy
  name: City Pharmacy
  deliveryTime: 15
  distance: 2.55
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(records) != 2 || records[0].ID() != "m1" || records[1].Kind() != KindPharmacy {
		t.Errorf("unexpected records: %d", len(records))
	}
	if !records[0].Matches("fever") {
		t.Error("loaded record must match on category")
	}
}

func TestLoadFile_Duplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "- {id: a, type: pharmacy, name: A}\n- {id: a, type: pharmacy, name: B}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
