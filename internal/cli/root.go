// Package cli implements the cobra command tree of the tubenest binary.
//
// Each subcommand lives in its own file. This file defines the root command,
// the global flags and the mapping of errors to exit codes.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Global flags, bound to persistent flags on the root command.
var (
	jsonOutput bool
	debug      bool
	configPath string
)

// Set from main at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates the root command with every subcommand registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tubenest",
		Short: "Cut-list optimizer for stock-length tubes",
		Long: `tubenest assigns the parts of a cut list to as few stock tubes as possible.

The part table (xlsx or csv) lists a part name, a length and a quantity.
Results are printed as a per-tube cutting plan with a material cost split
and can be exported as PDF, QR item labels or DXF.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tubenest/config.yaml)")

	rootCmd.AddCommand(NewNestCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewEstimateCommand())
	rootCmd.AddCommand(NewReportCommand())
	rootCmd.AddCommand(NewOffcutsCommand())

	return rootCmd
}

// Execute runs the root command and exits with the code of the failure.
// An interrupt cancels the running search, which then reports its best
// result as bounded.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}
	printError(os.Stderr, err)
	os.Exit(int(exitCodeFor(err)))
}

// printError writes err to w as text or, with --json, as a JSON object.
func printError(w io.Writer, err error) {
	message, detail := err.Error(), ""
	if cliErr, ok := err.(*CLIError); ok && cliErr.Err != nil {
		message, detail = cliErr.Message, cliErr.Err.Error()
	}

	if jsonOutput {
		errObj := map[string]any{"message": message, "code": int(exitCodeFor(err))}
		if detail != "" {
			errObj["detail"] = detail
		}
		data, _ := json.MarshalIndent(map[string]any{"error": errObj}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if detail != "" {
		fmt.Fprintf(w, "Error: %s: %s\n", message, detail)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// newLogger returns the stderr logger for a run.
func newLogger(w io.Writer, debugEnabled bool) *slog.Logger {
	level := slog.LevelInfo
	if debugEnabled {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
