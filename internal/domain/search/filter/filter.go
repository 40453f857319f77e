package filter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a filter predicate.
type Key string

// Filter keys. All filters apply to medicines only.
const (
	Availability     Key = "availability"
	Delivery         Key = "delivery"
	PharmacyDistance Key = "pharmacy"
	Prescription     Key = "prescription"
)

// Predicate thresholds.
const (
	MaxDeliveryMinutes    = 15
	MaxPharmacyDistanceKm = 3
)

// Descriptor is a named, described filter predicate.
type Descriptor struct {
	Key         Key    `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var catalog = [...]Descriptor{
	{Key: Availability, Label: "Availability", Description: "Available now"},
	{Key: Delivery, Label: "Delivery", Description: "Fast delivery"},
	{Key: PharmacyDistance, Label: "Pharmacy", Description: "Nearby only"},
	{Key: Prescription, Label: "Prescription", Description: "Required"},
}

// Catalog returns every available filter in display order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog[:])
	return out
}

// Lookup returns the descriptor for key.
func Lookup(k Key) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Key == k {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ParseKey validates a raw filter key.
func ParseKey(s string) (Key, error) {
	k := Key(strings.TrimSpace(s))
	if _, ok := Lookup(k); !ok {
		return "", fmt.Errorf("unknown filter key %q", s)
	}
	return k, nil
}

// IsValid reports whether the key is part of the catalog.
func (k Key) IsValid() bool {
	_, ok := Lookup(k)
	return ok
}

// Attributes are the medicine-only fields that filters inspect.
// A nil field never satisfies a filter.
type Attributes struct {
	IsAvailable          *bool
	DeliveryTimeMinutes  *float64
	PharmacyDistanceKm   *float64
	RequiresPrescription *bool
}

// Satisfied reports whether a satisfies the predicate behind k.
func (k Key) Satisfied(a Attributes) bool {
	switch k {
	case Availability:
		return a.IsAvailable != nil && *a.IsAvailable
	case Delivery:
		return a.DeliveryTimeMinutes != nil && *a.DeliveryTimeMinutes <= MaxDeliveryMinutes
	case PharmacyDistance:
		return a.PharmacyDistanceKm != nil && *a.PharmacyDistanceKm <= MaxPharmacyDistanceKm
	case Prescription:
		return a.RequiresPrescription != nil && *a.RequiresPrescription
	default:
		return true
	}
}

func (k Key) bit() Set {
	for i, d := range catalog {
		if d.Key == k {
			return 1 << uint(i)
		}
	}
	return 0
}

// Set is an immutable, order-irrelevant set of filters.
// The zero value is the empty set.
type Set uint8

// NewSet builds a set from keys. Unknown keys are ignored.
func NewSet(keys ...Key) Set {
	var s Set
	for _, k := range keys {
		s |= k.bit()
	}
	return s
}

// Full returns the set containing every catalog filter.
func Full() Set {
	return Set(1<<uint(len(catalog))) - 1
}

// ParseSet builds a set from raw keys, rejecting unknown ones.
func ParseSet(raw []string) (Set, error) {
	var s Set
	for _, r := range raw {
		k, err := ParseKey(r)
		if err != nil {
			return 0, err
		}
		s |= k.bit()
	}
	return s, nil
}

// Has reports whether k is in the set.
func (s Set) Has(k Key) bool {
	b := k.bit()
	return b != 0 && s&b != 0
}

// Toggle returns a copy of s with k added if absent, removed otherwise.
func (s Set) Toggle(k Key) Set {
	return s ^ k.bit()
}

// With returns a copy of s with k added.
func (s Set) With(k Key) Set { return s | k.bit() }

// IsEmpty reports whether no filter is set.
func (s Set) IsEmpty() bool { return s == 0 }

// Len returns the number of filters in the set.
func (s Set) Len() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Keys returns the keys in catalog order.
func (s Set) Keys() []Key {
	keys := make([]Key, 0, s.Len())
	for i, d := range catalog {
		if s&(1<<uint(i)) != 0 {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// Descriptors returns the descriptors in catalog order.
func (s Set) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, s.Len())
	for i, d := range catalog {
		if s&(1<<uint(i)) != 0 {
			out = append(out, d)
		}
	}
	return out
}

// Admits reports whether a satisfies every filter in the set (logical AND).
// The empty set admits everything.
func (s Set) Admits(a Attributes) bool {
	for _, k := range s.Keys() {
		if !k.Satisfied(a) {
			return false
		}
	}
	return true
}

// String renders the keys comma-separated.
func (s Set) String() string {
	keys := s.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

// MarshalJSON encodes the set as an array of descriptors.
func (s Set) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(s.Descriptors())
	if err != nil {
		return nil, fmt.Errorf("marshal filter set: %w", err)
	}
	return data, nil
}

// UnmarshalJSON accepts an array of descriptors or of bare keys.
func (s *Set) UnmarshalJSON(data []byte) error {
	var descs []Descriptor
	if err := json.Unmarshal(data, &descs); err == nil {
		raw := make([]string, len(descs))
		for i, d := range descs {
			raw[i] = string(d.Key)
		}
		parsed, err := ParseSet(raw)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal filter set: %w", err)
	}
	parsed, err := ParseSet(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
