package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/tubenest/internal/engine"
	"github.com/piwi3910/tubenest/internal/model"
	"github.com/piwi3910/tubenest/internal/project"
)

type reportFlags struct {
	artifactFlags
	project string
}

// NewReportCommand creates the "report" command.
func NewReportCommand() *cobra.Command {
	flags := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print or export a saved project without nesting again",
		Long: `Re-render the result stored in a project file written by nest --save.

Examples:
  tubenest report --project job.json
  tubenest report --project job.json --pdf plan.pdf --labels labels.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.project, "project", "p", "", "Project file")
	cmd.Flags().StringVar(&flags.pdf, "pdf", "", "Write the cutting plan as PDF")
	cmd.Flags().StringVar(&flags.labels, "labels", "", "Write QR item labels as PDF")
	cmd.Flags().StringVar(&flags.dxf, "dxf", "", "Write the cut drawing as DXF")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runReport(stdout, stderr io.Writer, flags *reportFlags) error {
	p, err := project.LoadProject(flags.project)
	if err != nil {
		return WrapCLIError(ExitInvalidInput, "load project", err)
	}
	if p.Result == nil {
		return NewCLIError(ExitInvalidInput, "project has no result: run nest with --save first")
	}
	if err := checkSavedResult(p); err != nil {
		return err
	}

	out, err := buildOutput(*p.Result, p.Parts, p.Settings)
	if err != nil {
		return WrapCLIError(ExitInvalidInput, "allocate cost", err)
	}
	if jsonOutput {
		if err := printJSON(stdout, out); err != nil {
			return err
		}
	} else {
		printNestText(stdout, out)
	}

	logger := newLogger(stderr, p.Settings.Debug || debug)
	written, err := flags.artifactFlags.write(out, p.Name)
	if err != nil {
		return WrapCLIError(ExitGeneralError, "write exports", err)
	}
	for _, path := range written {
		logger.Info("wrote export", "path", path)
	}
	return nil
}

// checkSavedResult re-expands the project's parts and validates the stored
// plan against them, so an edited or damaged file is rejected as input.
func checkSavedResult(p model.Project) error {
	items, err := engine.ExpandParts(p.Parts, p.Result.Capacity)
	if err != nil {
		return WrapCLIError(ExitInvalidInput, "project parts", err)
	}
	if err := engine.Validate(*p.Result, items); err != nil {
		return WrapCLIError(ExitInvalidInput, "project result does not match its parts", err)
	}
	return nil
}
