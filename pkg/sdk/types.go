package medsearch

import (
	"fmt"

	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	sessionuc "github.com/kailas-cloud/medsearch/internal/usecase/session"
)

// ResultType distinguishes medicines from pharmacies.
type ResultType string

// Result type constants.
const (
	TypeMedicine ResultType = "medicine"
	TypePharmacy ResultType = "pharmacy"
)

// FilterKey names a medicine filter.
type FilterKey string

// Filter key constants.
const (
	FilterAvailability FilterKey = FilterKey(filter.Availability)
	FilterDelivery     FilterKey = FilterKey(filter.Delivery)
	FilterPharmacy     FilterKey = FilterKey(filter.PharmacyDistance)
	FilterPrescription FilterKey = FilterKey(filter.Prescription)
)

// Filter describes one available filter.
type Filter struct {
	Key         FilterKey
	Label       string
	Description string
}

// Result is a display-ready search hit. Medicine attributes are nil for
// pharmacies.
type Result struct {
	ID       string
	Type     ResultType
	Title    string
	Subtitle string

	IsAvailable          *bool
	DeliveryTimeMinutes  *float64
	PharmacyDistanceKm   *float64
	RequiresPrescription *bool
}

// SessionState is the interaction state of a session.
type SessionState string

// Session state constants.
const (
	StateIdle      SessionState = SessionState(sessionuc.StateIdle)
	StateTyping    SessionState = SessionState(sessionuc.StateTyping)
	StateFiltering SessionState = SessionState(sessionuc.StateFiltering)
	StateSelected  SessionState = SessionState(sessionuc.StateSelected)
)

// SessionView is a snapshot of a session.
type SessionView struct {
	State          SessionState
	Query          string
	Open           bool
	Loading        bool
	Error          string
	FiltersOpen    bool
	ActiveFilters  []FilterKey
	AppliedFilters []FilterKey
	ActiveIndex    int
	Medicines      []Result
	Pharmacies     []Result
	Recents        []Result
}

func filterSet(keys []FilterKey) (filter.Set, error) {
	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = string(k)
	}
	s, err := filter.ParseSet(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return s, nil
}

func filterKeys(s filter.Set) []FilterKey {
	keys := s.Keys()
	out := make([]FilterKey, len(keys))
	for i, k := range keys {
		out[i] = FilterKey(k)
	}
	return out
}

func resultFromDomain(r result.Result) Result {
	return Result{
		ID:                   r.ID,
		Type:                 ResultType(r.Type),
		Title:                r.Title,
		Subtitle:             r.Subtitle,
		IsAvailable:          r.IsAvailable,
		DeliveryTimeMinutes:  r.DeliveryTimeMinutes,
		PharmacyDistanceKm:   r.PharmacyDistanceKm,
		RequiresPrescription: r.RequiresPrescription,
	}
}

func resultsFromDomain(in []result.Result) []Result {
	out := make([]Result, len(in))
	for i, r := range in {
		out[i] = resultFromDomain(r)
	}
	return out
}

func viewFromDomain(v sessionuc.View) SessionView {
	return SessionView{
		State:          SessionState(v.State),
		Query:          v.Query,
		Open:           v.Open,
		Loading:        v.Loading,
		Error:          v.Error,
		FiltersOpen:    v.FiltersOpen,
		ActiveFilters:  filterKeys(v.ActiveFilters),
		AppliedFilters: filterKeys(v.AppliedFilters),
		ActiveIndex:    v.ActiveIndex,
		Medicines:      resultsFromDomain(v.Medicines),
		Pharmacies:     resultsFromDomain(v.Pharmacies),
		Recents:        resultsFromDomain(v.Recents),
	}
}
