package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/tubenest/internal/project"
)

// NewOffcutsCommand creates the "offcuts" command.
func NewOffcutsCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "offcuts",
		Short: "List the offcut inventory",
		Long: `List remnants stocked by nest --keep-offcuts, longest first.

Examples:
  tubenest offcuts
  tubenest offcuts --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = project.DefaultInventoryPath()
			}
			return runOffcuts(cmd.OutOrStdout(), path)
		},
	}

	cmd.Flags().StringVar(&path, "inventory", "", "Inventory file (default ~/.tubenest/offcuts.json)")
	return cmd
}

func runOffcuts(stdout io.Writer, path string) error {
	inv, err := project.LoadInventory(path)
	if err != nil {
		return WrapCLIError(ExitGeneralError, "load offcut inventory", err)
	}
	if jsonOutput {
		return printJSON(stdout, inv)
	}

	if len(inv.Offcuts) == 0 {
		fmt.Fprintln(stdout, "No offcuts in stock.")
		return nil
	}
	fmt.Fprintf(stdout, "%-10s %-9s %-22s %s\n", "ID", "LENGTH", "ADDED", "SOURCE")
	for _, o := range inv.Offcuts {
		fmt.Fprintf(stdout, "%-10s %-9.1f %-22s %s\n", o.ID, o.Length, o.AddedAt, o.Source)
	}
	fmt.Fprintf(stdout, "%d offcuts, %.0f total\n", len(inv.Offcuts), inv.TotalLength())
	return nil
}
