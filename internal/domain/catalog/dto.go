package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/medsearch/internal/domain"
)

// recordDTO is the flat wire form shared by JSON and YAML.
type recordDTO struct {
	ID   string `json:"id" yaml:"id"`
	Type Kind   `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`

	Form                 string   `json:"form,omitempty" yaml:"form,omitempty"`
	Quantity             int      `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Category             []string `json:"category,omitempty" yaml:"category,omitempty"`
	IsAvailable          *bool    `json:"isAvailable,omitempty" yaml:"isAvailable,omitempty"`
	DeliveryTimeMinutes  *float64 `json:"deliveryTimeMinutes,omitempty" yaml:"deliveryTimeMinutes,omitempty"`
	PharmacyDistanceKm   *float64 `json:"pharmacyDistanceKm,omitempty" yaml:"pharmacyDistanceKm,omitempty"`
	RequiresPrescription *bool    `json:"requiresPrescription,omitempty" yaml:"requiresPrescription,omitempty"`

	DeliveryTime *float64 `json:"deliveryTime,omitempty" yaml:"deliveryTime,omitempty"`
	Distance     *float64 `json:"distance,omitempty" yaml:"distance,omitempty"`
}

func (r Record) toDTO() recordDTO {
	switch r.kind {
	case KindMedicine:
		m := r.medicine
		return recordDTO{
			ID:                   m.ID,
			Type:                 KindMedicine,
			Name:                 m.Name,
			Form:                 m.Form,
			Quantity:             m.Quantity,
			Category:             append([]string{}, m.Categories...),
			IsAvailable:          &m.IsAvailable,
			DeliveryTimeMinutes:  &m.DeliveryTimeMinutes,
			PharmacyDistanceKm:   &m.PharmacyDistanceKm,
			RequiresPrescription: &m.RequiresPrescription,
		}
	case KindPharmacy:
		p := r.pharmacy
		return recordDTO{
			ID:           p.ID,
			Type:         KindPharmacy,
			Name:         p.Name,
			DeliveryTime: &p.DeliveryTime,
			Distance:     &p.Distance,
		}
	default:
		return recordDTO{}
	}
}

func (d recordDTO) toRecord() (Record, error) {
	switch d.Type {
	case KindMedicine:
		if missing := d.missingMedicineAttributes(); len(missing) > 0 {
			return Record{}, fmt.Errorf("%w: medicine %q missing %s",
				domain.ErrInvalidRecord, d.ID, strings.Join(missing, ", "))
		}
		return NewMedicine(Medicine{
			ID:                   d.ID,
			Name:                 d.Name,
			Form:                 d.Form,
			Quantity:             d.Quantity,
			Categories:           d.Category,
			IsAvailable:          *d.IsAvailable,
			DeliveryTimeMinutes:  *d.DeliveryTimeMinutes,
			PharmacyDistanceKm:   *d.PharmacyDistanceKm,
			RequiresPrescription: *d.RequiresPrescription,
		})
	case KindPharmacy:
		return NewPharmacy(Pharmacy{
			ID:           d.ID,
			Name:         d.Name,
			DeliveryTime: derefFloat(d.DeliveryTime),
			Distance:     derefFloat(d.Distance),
		})
	default:
		return Record{}, fmt.Errorf("%w: unknown record type %q", domain.ErrInvalidRecord, d.Type)
	}
}

// missingMedicineAttributes lists the filterable attributes absent from the
// wire form. A zero default would satisfy the delivery and distance limits.
func (d recordDTO) missingMedicineAttributes() []string {
	var missing []string
	if d.IsAvailable == nil {
		missing = append(missing, "isAvailable")
	}
	if d.DeliveryTimeMinutes == nil {
		missing = append(missing, "deliveryTimeMinutes")
	}
	if d.PharmacyDistanceKm == nil {
		missing = append(missing, "pharmacyDistanceKm")
	}
	if d.RequiresPrescription == nil {
		missing = append(missing, "requiresPrescription")
	}
	return missing
}

// MarshalJSON encodes the record in its flat, type-tagged wire form.
func (r Record) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(r.toDTO())
	if err != nil {
		return nil, fmt.Errorf("marshal record %s: %w", r.ID(), err)
	}
	return data, nil
}

// UnmarshalJSON decodes and validates a type-tagged record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var d recordDTO
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	rec, err := d.toRecord()
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// UnmarshalYAML decodes and validates a type-tagged record.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	var d recordDTO
	if err := node.Decode(&d); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	rec, err := d.toRecord()
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
