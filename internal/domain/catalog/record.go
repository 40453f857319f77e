package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
)

// Kind discriminates catalog record variants.
type Kind string

// Record kinds.
const (
	KindMedicine Kind = "medicine"
	KindPharmacy Kind = "pharmacy"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == KindMedicine || k == KindPharmacy
}

// Medicine is a medicine offer as returned by the data source.
type Medicine struct {
	ID                   string
	Name                 string
	Form                 string
	Quantity             int
	Categories           []string
	IsAvailable          bool
	DeliveryTimeMinutes  float64
	PharmacyDistanceKm   float64
	RequiresPrescription bool
}

// Pharmacy is a pharmacy entry as returned by the data source.
type Pharmacy struct {
	ID           string
	Name         string
	DeliveryTime float64
	Distance     float64
}

// Record is a raw catalog entry: exactly one of medicine or pharmacy.
type Record struct {
	kind     Kind
	medicine Medicine
	pharmacy Pharmacy

	// case-folded copies used for matching
	foldedName       string
	foldedCategories []string
}

// NewMedicine validates and creates a medicine record.
func NewMedicine(m Medicine) (Record, error) {
	if m.ID == "" {
		return Record{}, fmt.Errorf("%w: medicine id is required", domain.ErrInvalidRecord)
	}
	if m.Quantity < 0 {
		return Record{}, fmt.Errorf("%w: medicine %s: negative quantity", domain.ErrInvalidRecord, m.ID)
	}
	if m.DeliveryTimeMinutes < 0 || m.PharmacyDistanceKm < 0 {
		return Record{}, fmt.Errorf("%w: medicine %s: negative delivery time or distance",
			domain.ErrInvalidRecord, m.ID)
	}

	cats := make([]string, len(m.Categories))
	copy(cats, m.Categories)
	m.Categories = cats

	folded := make([]string, len(cats))
	for i, c := range cats {
		folded[i] = Fold(c)
	}

	return Record{
		kind:             KindMedicine,
		medicine:         m,
		foldedName:       Fold(m.Name),
		foldedCategories: folded,
	}, nil
}

// NewPharmacy validates and creates a pharmacy record.
func NewPharmacy(p Pharmacy) (Record, error) {
	if p.ID == "" {
		return Record{}, fmt.Errorf("%w: pharmacy id is required", domain.ErrInvalidRecord)
	}
	if p.DeliveryTime < 0 || p.Distance < 0 {
		return Record{}, fmt.Errorf("%w: pharmacy %s: negative delivery time or distance",
			domain.ErrInvalidRecord, p.ID)
	}
	return Record{
		kind:       KindPharmacy,
		pharmacy:   p,
		foldedName: Fold(p.Name),
	}, nil
}

// Kind returns the record variant.
func (r Record) Kind() Kind { return r.kind }

// ID returns the record identifier.
func (r Record) ID() string {
	if r.kind == KindPharmacy {
		return r.pharmacy.ID
	}
	return r.medicine.ID
}

// Name returns the display name.
func (r Record) Name() string {
	if r.kind == KindPharmacy {
		return r.pharmacy.Name
	}
	return r.medicine.Name
}

// Medicine returns the medicine variant. ok is false for pharmacies.
func (r Record) Medicine() (m Medicine, ok bool) {
	if r.kind != KindMedicine {
		return Medicine{}, false
	}
	m = r.medicine
	m.Categories = append([]string(nil), r.medicine.Categories...)
	return m, true
}

// Pharmacy returns the pharmacy variant. ok is false for medicines.
func (r Record) Pharmacy() (Pharmacy, bool) {
	if r.kind != KindPharmacy {
		return Pharmacy{}, false
	}
	return r.pharmacy, true
}

// Matches reports whether the record matches a free-text query.
// Medicines match on name or any category, pharmacies on name only.
// Matching is a case-insensitive substring test.
func (r Record) Matches(query string) bool {
	return r.MatchesFolded(Fold(query))
}

// MatchesFolded is Matches for a query already passed through Fold.
func (r Record) MatchesFolded(q string) bool {
	if strings.Contains(r.foldedName, q) {
		return true
	}
	if r.kind != KindMedicine {
		return false
	}
	for _, c := range r.foldedCategories {
		if strings.Contains(c, q) {
			return true
		}
	}
	return false
}

// Attributes returns the filterable attributes. Pharmacies have none.
func (r Record) Attributes() filter.Attributes {
	if r.kind != KindMedicine {
		return filter.Attributes{}
	}
	m := r.medicine
	return filter.Attributes{
		IsAvailable:          &m.IsAvailable,
		DeliveryTimeMinutes:  &m.DeliveryTimeMinutes,
		PharmacyDistanceKm:   &m.PharmacyDistanceKm,
		RequiresPrescription: &m.RequiresPrescription,
	}
}

// PassesFilters applies engine-level filtering: a non-empty set excludes every
// pharmacy and requires medicines to satisfy all filters.
func (r Record) PassesFilters(s filter.Set) bool {
	if s.IsEmpty() {
		return true
	}
	if r.kind != KindMedicine {
		return false
	}
	return s.Admits(r.Attributes())
}

// Fold normalizes text for case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

// Validate checks that ids are unique within a snapshot.
func Validate(records []Record) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if !r.kind.IsValid() {
			return fmt.Errorf("%w: record without kind", domain.ErrInvalidRecord)
		}
		if _, dup := seen[r.ID()]; dup {
			return fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidRecord, r.ID())
		}
		seen[r.ID()] = struct{}{}
	}
	return nil
}
