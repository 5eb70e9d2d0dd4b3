package engine

import (
	"fmt"

	"github.com/piwi3910/tubenest/internal/model"
)

// Validate re-checks a finished result against the items it was built from,
// independently of the search bookkeeping: every item appears exactly once,
// no tube is empty or over capacity, and the tube count matches. Any failure
// is an *model.InvariantViolation and means the solver is wrong, not the data.
func Validate(result model.NestResult, items []model.Item) error {
	capacity := result.Capacity
	eps := fitTolerance * capacity

	byID := make(map[int]model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	seen := make(map[int]int, len(items))
	for ti, t := range result.Tubes {
		if len(t.Items) == 0 {
			return &model.InvariantViolation{Detail: fmt.Sprintf("tube %d is empty", ti+1)}
		}
		if t.Capacity != capacity {
			return &model.InvariantViolation{Detail: fmt.Sprintf("tube %d has capacity %g, run uses %g", ti+1, t.Capacity, capacity)}
		}
		var used float64
		for _, it := range t.Items {
			want, ok := byID[it.ID]
			if !ok {
				return &model.InvariantViolation{Detail: fmt.Sprintf("tube %d holds unknown item %d", ti+1, it.ID)}
			}
			if want.Length != it.Length || want.Name != it.Name {
				return &model.InvariantViolation{Detail: fmt.Sprintf("item %d changed during nesting", it.ID)}
			}
			if prev, dup := seen[it.ID]; dup {
				return &model.InvariantViolation{Detail: fmt.Sprintf("item %d placed in tubes %d and %d", it.ID, prev+1, ti+1)}
			}
			seen[it.ID] = ti
			used += it.Length
		}
		if used > capacity+eps {
			return &model.InvariantViolation{Detail: fmt.Sprintf("tube %d holds %g, capacity %g", ti+1, used, capacity)}
		}
	}

	if len(seen) != len(byID) {
		for _, it := range items {
			if _, ok := seen[it.ID]; !ok {
				return &model.InvariantViolation{Detail: fmt.Sprintf("item %d (%s) was not placed", it.ID, it.Name)}
			}
		}
	}

	if result.TubeCount != len(result.Tubes) {
		return &model.InvariantViolation{Detail: fmt.Sprintf("tube count %d, but %d non-empty tubes", result.TubeCount, len(result.Tubes))}
	}
	return nil
}
