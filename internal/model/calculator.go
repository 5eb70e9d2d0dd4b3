package model

import "math"

// PurchaseEstimate holds the results of a tube purchasing calculation.
type PurchaseEstimate struct {
	TotalPartLength  float64 `json:"total_part_length"`  // Sum of all part lengths x quantity
	TubeLength       float64 `json:"tube_length"`        // Usable length of one tube
	TubesNeededExact float64 `json:"tubes_needed_exact"` // Exact fractional number of tubes
	TubesNeededMin   int     `json:"tubes_needed_min"`   // Minimum tubes (ceiling of exact)
	TubesWithWaste   int     `json:"tubes_with_waste"`   // Recommended tubes including waste factor
	WastePercent     float64 `json:"waste_percent"`      // Waste factor applied (e.g., 10 for 10%)
	MaterialLength   float64 `json:"material_length"`    // Length to buy including kerf allowance
	EstimatedCost    float64 `json:"estimated_cost"`     // Total cost if pricing available
	PricePerUnit     float64 `json:"price_per_unit"`     // Price per length unit used for estimation
	KerfAllowance    float64 `json:"kerf_allowance"`     // Allowance per tube used in calculation
}

// CalculatePurchaseEstimate computes how many tubes to buy for a given cut
// list without running the optimizer. The minimum is the volume lower bound;
// the waste factor covers the packing loss the optimizer will add on top.
func CalculatePurchaseEstimate(parts []Part, tubeLength, kerf, wastePercent, pricePerUnit float64) PurchaseEstimate {
	var total float64
	for _, p := range parts {
		total += p.Length * float64(p.Quantity)
	}

	if tubeLength <= 0 {
		return PurchaseEstimate{
			TotalPartLength: total,
			WastePercent:    wastePercent,
		}
	}

	exact := total / tubeLength
	minTubes := int(math.Ceil(exact - 1e-9))

	wasteFactor := 1.0 + (wastePercent / 100.0)
	withWaste := int(math.Ceil(exact*wasteFactor - 1e-9))
	if withWaste < minTubes {
		withWaste = minTubes
	}

	material := float64(withWaste) * (tubeLength + kerf)

	return PurchaseEstimate{
		TotalPartLength:  total,
		TubeLength:       tubeLength,
		TubesNeededExact: exact,
		TubesNeededMin:   minTubes,
		TubesWithWaste:   withWaste,
		WastePercent:     wastePercent,
		MaterialLength:   material,
		EstimatedCost:    material * pricePerUnit,
		PricePerUnit:     pricePerUnit,
		KerfAllowance:    kerf,
	}
}

// PartCost is the share of material attributed to one part record.
type PartCost struct {
	PartID      string  `json:"part_id"`
	Name        string  `json:"name"`
	Length      float64 `json:"length"`
	Quantity    int     `json:"quantity"`
	UnitLength  float64 `json:"unit_length"` // Tube length charged to one piece
	UnitCost    float64 `json:"unit_cost"`
	TotalLength float64 `json:"total_length"`
	TotalCost   float64 `json:"total_cost"`
}

// CostAllocation distributes the bought tube length over the parts.
type CostAllocation struct {
	TubeCount      int        `json:"tube_count"`
	TubeLength     float64    `json:"tube_length"`     // tube_count * (capacity + kerf)
	AssignedLength float64    `json:"assigned_length"` // Sum of nested item lengths
	PricePerUnit   float64    `json:"price_per_unit"`
	TotalCost      float64    `json:"total_cost"`
	Parts          []PartCost `json:"parts"`
}

// AllocateCost charges every part its proportional share of the tubes used:
//
//	unit_length = tube_count * (capacity + kerf) * length / assigned_length
//
// When pricePerUnit is zero the costs are expressed in length units.
func AllocateCost(result NestResult, parts []Part, kerf, pricePerUnit float64) (CostAllocation, error) {
	if kerf < 0 {
		return CostAllocation{}, &ValidationError{Field: "kerf allowance", Value: kerf, Reason: "must not be negative"}
	}
	if pricePerUnit < 0 {
		return CostAllocation{}, &ValidationError{Field: "price", Value: pricePerUnit, Reason: "must not be negative"}
	}

	price := pricePerUnit
	if price == 0 {
		price = 1
	}

	alloc := CostAllocation{
		TubeCount:      result.TubeCount,
		TubeLength:     float64(result.TubeCount) * (result.Capacity + kerf),
		AssignedLength: result.TotalUsed(),
		PricePerUnit:   pricePerUnit,
		Parts:          make([]PartCost, 0, len(parts)),
	}
	if alloc.AssignedLength <= 0 {
		return alloc, nil
	}

	for _, p := range parts {
		unit := alloc.TubeLength * p.Length / alloc.AssignedLength
		pc := PartCost{
			PartID:      p.ID,
			Name:        p.Name,
			Length:      p.Length,
			Quantity:    p.Quantity,
			UnitLength:  unit,
			UnitCost:    unit * price,
			TotalLength: unit * float64(p.Quantity),
			TotalCost:   unit * price * float64(p.Quantity),
		}
		alloc.TotalCost += pc.TotalCost
		alloc.Parts = append(alloc.Parts, pc)
	}
	return alloc, nil
}
