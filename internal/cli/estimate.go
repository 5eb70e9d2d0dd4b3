package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/tubenest/internal/engine"
	"github.com/piwi3910/tubenest/internal/importer"
	"github.com/piwi3910/tubenest/internal/model"
)

type estimateFlags struct {
	settingsFlags
	excel string
	waste float64
}

// NewEstimateCommand creates the "estimate" command.
func NewEstimateCommand() *cobra.Command {
	flags := &estimateFlags{}

	cmd := &cobra.Command{
		Use:   "estimate [FILE]",
		Short: "Estimate how many tubes to buy without nesting",
		Long: `Compute the volume lower bound on tubes for a part table and a
purchase recommendation with a waste factor on top.

Examples:
  tubenest estimate -e parts.xlsx --waste 15 --price 0.004`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && flags.excel == "" {
				flags.excel = args[0]
			}
			settings, _, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return runEstimate(cmd.OutOrStdout(), settings, flags)
		},
	}

	flags.settingsFlags.register(cmd)
	cmd.Flags().StringVarP(&flags.excel, "excel", "e", "", "Part table (.xlsx or .csv)")
	cmd.Flags().Float64Var(&flags.waste, "waste", 10, "Waste factor in percent")

	return cmd
}

func runEstimate(stdout io.Writer, settings model.Settings, flags *estimateFlags) error {
	if flags.excel == "" {
		return NewCLIError(ExitInvalidInput, "no part table given: pass --excel FILE")
	}
	if flags.waste < 0 {
		return NewCLIError(ExitInvalidInput, fmt.Sprintf("invalid waste factor %g: must not be negative", flags.waste))
	}

	imported, err := importer.Load(flags.excel)
	if err != nil {
		return WrapCLIError(ExitInvalidInput, "load part table", err)
	}
	// Reject oversized parts the same way nest would.
	if _, err := engine.ExpandParts(imported.Parts, settings.Capacity); err != nil {
		return WrapCLIError(0, "invalid part table", err)
	}

	est := model.CalculatePurchaseEstimate(imported.Parts, settings.Capacity, settings.KerfAllowance, flags.waste, settings.PricePerUnit)
	if jsonOutput {
		return printJSON(stdout, est)
	}

	fmt.Fprintf(stdout, "Total part length:   %.1f\n", est.TotalPartLength)
	fmt.Fprintf(stdout, "Tube length:         %.1f (+%.0f per tube bought)\n", est.TubeLength, est.KerfAllowance)
	fmt.Fprintf(stdout, "Tubes (exact):       %.2f\n", est.TubesNeededExact)
	fmt.Fprintf(stdout, "Tubes (minimum):     %d\n", est.TubesNeededMin)
	fmt.Fprintf(stdout, "Tubes (+%.0f%% waste): %d\n", est.WastePercent, est.TubesWithWaste)
	fmt.Fprintf(stdout, "Material to buy:     %.0f\n", est.MaterialLength)
	if est.PricePerUnit > 0 {
		fmt.Fprintf(stdout, "Estimated cost:      %.2f\n", est.EstimatedCost)
	}
	return nil
}
