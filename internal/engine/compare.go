package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/piwi3910/tubenest/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the nesting result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Result       model.NestResult
	Status       model.Status
	TubesUsed    int
	TubeLength   float64 // tubes used * (capacity + kerf allowance)
	WastePercent float64
	Err          error // set for scenarios that failed for a reason other than capacity
}

// CompareScenarios nests the same part list under each scenario and returns
// the results in scenario order. A scenario whose tube is too short for some
// part is reported as infeasible rather than failing the comparison.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, parts []model.Part, opts ...Option) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		nester := New(scenario.Settings, opts...)
		result, err := nester.Nest(ctx, parts)

		cr := ComparisonResult{Scenario: scenario}
		switch {
		case errors.Is(err, model.ErrCapacity):
			cr.Status = model.StatusInfeasible
			cr.Err = err
		case err != nil:
			cr.Err = err
		default:
			cr.Result = result
			cr.Status = result.Status
			cr.TubesUsed = result.TubeCount
			cr.TubeLength = float64(result.TubeCount) * (scenario.Settings.Capacity + scenario.Settings.KerfAllowance)
			cr.WastePercent = 100.0 - result.TotalEfficiency()
			if result.TubeCount == 0 {
				cr.WastePercent = 0
			}
		}
		results = append(results, cr)
	}

	return results
}

// StandardTubeLengths are common stock lengths offered as what-if alternatives.
var StandardTubeLengths = []float64{6000, 6500}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying the stock length and kerf allowance.
func BuildDefaultScenarios(base model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	for _, length := range StandardTubeLengths {
		if length == base.Capacity {
			continue
		}
		alt := base
		alt.Capacity = length
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Stock %.0f", length),
			Settings: alt,
		})
	}

	if base.KerfAllowance > 0 {
		noKerf := base
		noKerf.KerfAllowance = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "No Kerf Allowance",
			Settings: noKerf,
		})
	}

	return scenarios
}

// ScenariosForLengths builds one scenario per stock length.
func ScenariosForLengths(base model.Settings, lengths []float64) []ComparisonScenario {
	scenarios := make([]ComparisonScenario, 0, len(lengths))
	for _, length := range lengths {
		s := base
		s.Capacity = length
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Stock %.0f", length),
			Settings: s,
		})
	}
	return scenarios
}
