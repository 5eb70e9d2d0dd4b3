package engine

import (
	"math"
	"sort"

	"github.com/piwi3910/tubenest/internal/model"
)

// fitTolerance absorbs floating point noise when comparing summed lengths
// against a capacity. It is relative to the capacity.
const fitTolerance = 1e-9

// LowerBound returns ceil(sum(lengths) / capacity): no packing can use fewer tubes.
func LowerBound(items []model.Item, capacity float64) int {
	if len(items) == 0 || capacity <= 0 {
		return 0
	}
	var total float64
	for _, it := range items {
		total += it.Length
	}
	lb := int(math.Ceil(total/capacity - fitTolerance))
	if lb < 1 {
		lb = 1
	}
	return lb
}

// Packing is an assignment of length-sorted items to tubes.
// Assign[i] is the tube index of Order[i]; tubes are numbered 0..Count-1 in
// the order they were opened.
type Packing struct {
	Order  []model.Item
	Assign []int
	Count  int
}

// sortedItems returns a copy of items sorted by length descending. Equal
// lengths keep ascending ID order so every run branches identically.
func sortedItems(items []model.Item) []model.Item {
	order := make([]model.Item, len(items))
	copy(order, items)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Length != order[j].Length {
			return order[i].Length > order[j].Length
		}
		return order[i].ID < order[j].ID
	})
	return order
}

// FirstFitDecreasing places each item, longest first, into the first open
// tube with enough room, opening a new tube when none fits.
func FirstFitDecreasing(items []model.Item, capacity float64) Packing {
	order := sortedItems(items)
	eps := fitTolerance * capacity

	assign := make([]int, len(order))
	var residual []float64
	for i, it := range order {
		placed := false
		for j, r := range residual {
			if it.Length <= r+eps {
				residual[j] = r - it.Length
				assign[i] = j
				placed = true
				break
			}
		}
		if !placed {
			assign[i] = len(residual)
			residual = append(residual, capacity-it.Length)
		}
	}

	return Packing{Order: order, Assign: assign, Count: len(residual)}
}
