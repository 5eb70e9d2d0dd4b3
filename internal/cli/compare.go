package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/tubenest/internal/engine"
	"github.com/piwi3910/tubenest/internal/importer"
	"github.com/piwi3910/tubenest/internal/model"
)

type compareFlags struct {
	settingsFlags
	excel         string
	lengths       []float64
	acceptBounded bool
}

// NewCompareCommand creates the "compare" command.
func NewCompareCommand() *cobra.Command {
	flags := &compareFlags{}

	cmd := &cobra.Command{
		Use:   "compare [FILE]",
		Short: "Nest the same cut list with several stock lengths",
		Long: `Nest one part table under several tube stocks and compare tube count,
waste and bought length. Without --lengths the current stock is compared
with the standard 6000 and 6500 lengths and with no kerf allowance.
The command fails when no stock fits every part, or when a scenario was
not proven optimal unless --accept-bounded is given.

Examples:
  tubenest compare -e parts.xlsx
  tubenest compare -e parts.xlsx --lengths 5870,6000,6500`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && flags.excel == "" {
				flags.excel = args[0]
			}
			settings, _, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return runCompare(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), settings, flags)
		},
	}

	flags.settingsFlags.register(cmd)
	cmd.Flags().StringVarP(&flags.excel, "excel", "e", "", "Part table (.xlsx or .csv)")
	cmd.Flags().Float64SliceVar(&flags.lengths, "lengths", nil, "Stock lengths to compare, comma separated")
	cmd.Flags().BoolVar(&flags.acceptBounded, "accept-bounded", false, "Exit 0 even if a scenario was not proven optimal")

	return cmd
}

// compareRow is one line of compare output.
type compareRow struct {
	Scenario     string       `json:"scenario"`
	TubeLength   float64      `json:"tube_length"`
	Status       model.Status `json:"status"`
	Tubes        int          `json:"tubes"`
	LowerBound   int          `json:"lower_bound"`
	BoughtLength float64      `json:"bought_length"`
	WastePercent float64      `json:"waste_percent"`
	Error        string       `json:"error,omitempty"`
}

func runCompare(ctx context.Context, stdout, stderr io.Writer, settings model.Settings, flags *compareFlags) error {
	if flags.excel == "" {
		return NewCLIError(ExitInvalidInput, "no part table given: pass --excel FILE")
	}
	for _, l := range flags.lengths {
		if l <= 0 {
			return NewCLIError(ExitInvalidInput, fmt.Sprintf("invalid stock length %g: must be positive", l))
		}
	}

	imported, err := importer.Load(flags.excel)
	if err != nil {
		return WrapCLIError(ExitInvalidInput, "load part table", err)
	}

	scenarios := engine.BuildDefaultScenarios(settings)
	if len(flags.lengths) > 0 {
		scenarios = engine.ScenariosForLengths(settings, flags.lengths)
	}

	logger := newLogger(stderr, settings.Debug)
	results := engine.CompareScenarios(ctx, scenarios, imported.Parts, engine.WithLogger(logger))

	rows := make([]compareRow, 0, len(results))
	for _, r := range results {
		row := compareRow{
			Scenario:     r.Scenario.Name,
			TubeLength:   r.Scenario.Settings.Capacity,
			Status:       r.Status,
			Tubes:        r.TubesUsed,
			LowerBound:   r.Result.LowerBound,
			BoughtLength: r.TubeLength,
			WastePercent: r.WastePercent,
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		rows = append(rows, row)
	}

	if jsonOutput {
		if err := printJSON(stdout, rows); err != nil {
			return err
		}
	} else {
		printCompareText(stdout, rows)
	}
	return compareOutcome(results, flags.acceptBounded)
}

// compareOutcome turns the scenario results into the command's error.
// Precedence: solver defect, bad input, no feasible stock, unproven scenario.
func compareOutcome(results []engine.ComparisonResult, acceptBounded bool) error {
	feasible := 0
	var bounded []string
	var inputErr error
	for _, r := range results {
		switch {
		case errors.Is(r.Err, model.ErrInvariant):
			return WrapCLIError(ExitInvariant, fmt.Sprintf("scenario %q", r.Scenario.Name), r.Err)
		case r.Status == model.StatusInfeasible:
		case r.Err != nil:
			if inputErr == nil {
				inputErr = WrapCLIError(ExitSuccess, fmt.Sprintf("scenario %q", r.Scenario.Name), r.Err)
			}
		default:
			feasible++
			if r.Status == model.StatusBounded {
				bounded = append(bounded, r.Scenario.Name)
			}
		}
	}

	switch {
	case inputErr != nil:
		return inputErr
	case len(results) > 0 && feasible == 0:
		return NewCLIError(ExitInfeasible, "no stock length fits every part")
	case len(bounded) > 0 && !acceptBounded:
		return NewCLIError(ExitBounded, fmt.Sprintf(
			"search budget exhausted for %s (use --accept-bounded to accept)", strings.Join(bounded, ", ")))
	}
	return nil
}

func printCompareText(w io.Writer, rows []compareRow) {
	fmt.Fprintf(w, "%-20s %-8s %-11s %-6s %-10s %s\n", "SCENARIO", "LENGTH", "STATUS", "TUBES", "BOUGHT", "WASTE")
	for _, r := range rows {
		if r.Error != "" {
			status := string(r.Status)
			if status == "" {
				status = "error"
			}
			fmt.Fprintf(w, "%-20s %-8.0f %-11s %s\n", r.Scenario, r.TubeLength, status, r.Error)
			continue
		}
		fmt.Fprintf(w, "%-20s %-8.0f %-11s %-6d %-10.0f %.1f%%\n",
			r.Scenario, r.TubeLength, r.Status, r.Tubes, r.BoughtLength, r.WastePercent)
	}
}
