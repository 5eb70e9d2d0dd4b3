package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/piwi3910/tubenest/internal/engine"
	"github.com/piwi3910/tubenest/internal/importer"
	"github.com/piwi3910/tubenest/internal/model"
	"github.com/piwi3910/tubenest/internal/project"
)

type nestFlags struct {
	settingsFlags
	artifactFlags

	excel         string
	save          string
	metricsFile   string
	keepOffcuts   bool
	acceptBounded bool
}

// NewNestCommand creates the "nest" command.
func NewNestCommand() *cobra.Command {
	flags := &nestFlags{}

	cmd := &cobra.Command{
		Use:   "nest [FILE]",
		Short: "Assign the parts of a cut list to as few tubes as possible",
		Long: `Load a part table, nest it and print the cutting plan.

The exit status is 3 when the search budget ran out before the tube count
was proven minimal; pass --accept-bounded to treat that as success.

Examples:
  tubenest nest -e parts.xlsx
  tubenest nest -e parts.csv -m 6000 --kerf 100 --pdf plan.pdf
  tubenest nest parts.xlsx --stock alu-40 --workers 4 --save job.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && flags.excel == "" {
				flags.excel = args[0]
			}
			settings, _, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return runNest(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), settings, flags)
		},
	}

	flags.settingsFlags.register(cmd)
	cmd.Flags().StringVarP(&flags.excel, "excel", "e", "", "Part table (.xlsx or .csv)")
	cmd.Flags().StringVar(&flags.pdf, "pdf", "", "Write the cutting plan as PDF")
	cmd.Flags().StringVar(&flags.labels, "labels", "", "Write QR item labels as PDF")
	cmd.Flags().StringVar(&flags.dxf, "dxf", "", "Write the cut drawing as DXF")
	cmd.Flags().StringVar(&flags.save, "save", "", "Save parts, settings and result as a project file")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write solver metrics in Prometheus text format")
	cmd.Flags().BoolVar(&flags.keepOffcuts, "keep-offcuts", false, "Add reusable offcuts to the offcut inventory")
	cmd.Flags().BoolVar(&flags.acceptBounded, "accept-bounded", false, "Exit 0 even if optimality was not proven")

	return cmd
}

func runNest(ctx context.Context, stdout, stderr io.Writer, settings model.Settings, flags *nestFlags) error {
	if flags.excel == "" {
		return NewCLIError(ExitInvalidInput, "no part table given: pass --excel FILE")
	}
	logger := newLogger(stderr, settings.Debug)

	imported, err := importer.Load(flags.excel)
	if err != nil {
		return WrapCLIError(ExitInvalidInput, "load part table", err)
	}
	for _, w := range imported.Warnings {
		logger.Debug("import", "file", flags.excel, "note", w)
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	var reg *prometheus.Registry
	if flags.metricsFile != "" {
		reg = prometheus.NewRegistry()
		metrics, err := engine.NewMetrics(reg)
		if err != nil {
			return WrapCLIError(ExitGeneralError, "set up metrics", err)
		}
		opts = append(opts, engine.WithMetrics(metrics))
	}

	result, err := engine.New(settings, opts...).Nest(ctx, imported.Parts)
	if err != nil {
		return WrapCLIError(0, "nesting failed", err)
	}

	out, err := buildOutput(result, imported.Parts, settings)
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

	title := strings.TrimSuffix(filepath.Base(flags.excel), filepath.Ext(flags.excel))
	if err := writeRunFiles(logger, out, imported.Parts, settings, title, flags, reg); err != nil {
		return err
	}

	if result.Status == model.StatusBounded && !flags.acceptBounded {
		return NewCLIError(ExitBounded, fmt.Sprintf(
			"search budget exhausted: %d tubes, lower bound %d (use --accept-bounded to accept)",
			result.TubeCount, result.LowerBound))
	}
	return nil
}

// writeRunFiles writes exports, the project file, the offcut inventory and
// metrics, in that order.
func writeRunFiles(logger *slog.Logger, out nestOutput, parts []model.Part, settings model.Settings, title string, flags *nestFlags, reg *prometheus.Registry) error {
	written, err := flags.artifactFlags.write(out, title)
	if err != nil {
		return WrapCLIError(ExitGeneralError, "write exports", err)
	}
	for _, path := range written {
		logger.Info("wrote export", "path", path)
	}

	if flags.save != "" {
		p := model.NewProject()
		p.Name = title
		p.Parts = parts
		p.Settings = settings
		p.Result = &out.Result
		if err := project.SaveProject(flags.save, p); err != nil {
			return WrapCLIError(ExitGeneralError, "save project", err)
		}
		logger.Info("saved project", "path", flags.save)
	}

	if flags.keepOffcuts && len(out.Offcuts) > 0 {
		path := project.DefaultInventoryPath()
		inv, err := project.LoadInventory(path)
		if err != nil {
			return WrapCLIError(ExitGeneralError, "load offcut inventory", err)
		}
		added := inv.AddOffcuts(out.Offcuts, title+"/"+out.Result.RunID, time.Now())
		if err := project.SaveInventory(path, inv); err != nil {
			return WrapCLIError(ExitGeneralError, "save offcut inventory", err)
		}
		logger.Info("stocked offcuts", "added", added, "path", path)
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(flags.metricsFile, reg); err != nil {
			return WrapCLIError(ExitGeneralError, "write metrics", err)
		}
	}
	return nil
}
