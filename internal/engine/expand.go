package engine

import (
	"math"

	"github.com/piwi3910/tubenest/internal/model"
)

// ExpandParts turns part records into individually numbered items, one per
// piece. Item IDs are sequential in record order. Every record is checked
// before any item is returned, so an oversized or malformed part is reported
// here and never during the search.
func ExpandParts(parts []model.Part, capacity float64) ([]model.Item, error) {
	if !(capacity > 0) || math.IsInf(capacity, 0) {
		return nil, &model.ValidationError{Field: "capacity", Value: capacity, Reason: "must be a positive number"}
	}

	total := 0
	for _, p := range parts {
		if p.Quantity <= 0 {
			return nil, &model.ValidationError{Part: p.Name, Field: "quantity", Value: p.Quantity, Reason: "must be positive"}
		}
		if !(p.Length > 0) || math.IsInf(p.Length, 0) {
			return nil, &model.ValidationError{Part: p.Name, Field: "length", Value: p.Length, Reason: "must be positive"}
		}
		if p.Length > capacity {
			return nil, &model.CapacityError{Part: p.Name, Length: p.Length, Capacity: capacity}
		}
		total += p.Quantity
	}

	items := make([]model.Item, 0, total)
	for _, p := range parts {
		for i := 0; i < p.Quantity; i++ {
			items = append(items, model.Item{
				ID:     len(items),
				PartID: p.ID,
				Name:   p.Name,
				Length: p.Length,
			})
		}
	}
	return items, nil
}
