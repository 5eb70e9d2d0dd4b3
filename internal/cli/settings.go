package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/tubenest/internal/model"
	"github.com/piwi3910/tubenest/internal/project"
)

// settingsFlags are the solver and costing flags shared by the commands
// that run a nesting.
type settingsFlags struct {
	material  float64
	kerf      float64
	stock     string
	timeout   time.Duration
	maxNodes  int64
	workers   int
	price     float64
	minOffcut float64
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	d := model.DefaultSettings()
	cmd.Flags().Float64VarP(&f.material, "material", "m", d.Capacity, "Usable tube length")
	cmd.Flags().Float64Var(&f.kerf, "kerf", d.KerfAllowance, "Extra material bought per tube")
	cmd.Flags().StringVar(&f.stock, "stock", "", "Tube stock preset from the config file")
	cmd.Flags().DurationVar(&f.timeout, "timeout", d.TimeLimit, "Search time limit (0 = none)")
	cmd.Flags().Int64Var(&f.maxNodes, "max-nodes", d.MaxNodes, "Search node budget (0 = unlimited)")
	cmd.Flags().IntVar(&f.workers, "workers", d.Workers, "Parallel search workers")
	cmd.Flags().Float64Var(&f.price, "price", d.PricePerUnit, "Material price per length unit (0 = report lengths)")
	cmd.Flags().Float64Var(&f.minOffcut, "min-offcut", d.MinOffcut, "Shortest remnant kept as offcut")
}

// resolve builds the run settings: defaults, then the config file, then the
// --stock preset, then any flag given explicitly.
func (f *settingsFlags) resolve(cmd *cobra.Command) (model.Settings, project.Config, error) {
	path := configPath
	if path == "" {
		path = project.DefaultConfigPath()
	}
	cfg, err := project.LoadConfig(path)
	if err != nil {
		return model.Settings{}, project.Config{}, WrapCLIError(ExitInvalidInput, "load config", err)
	}

	s := cfg.Settings
	if f.stock != "" {
		if s, err = cfg.ApplyStock(s, f.stock); err != nil {
			return model.Settings{}, cfg, WrapCLIError(ExitInvalidInput, "select stock", err)
		}
	}

	changed := cmd.Flags().Changed
	if changed("material") {
		s.Capacity = f.material
	}
	if changed("kerf") {
		s.KerfAllowance = f.kerf
	}
	if changed("timeout") {
		s.TimeLimit = f.timeout
	}
	if changed("max-nodes") {
		s.MaxNodes = f.maxNodes
	}
	if changed("workers") {
		s.Workers = f.workers
	}
	if changed("price") {
		s.PricePerUnit = f.price
	}
	if changed("min-offcut") {
		s.MinOffcut = f.minOffcut
	}
	s.Debug = s.Debug || debug

	if err := checkSettings(s); err != nil {
		return model.Settings{}, cfg, WrapCLIError(ExitInvalidInput, "invalid settings", err)
	}
	return s, cfg, nil
}

func checkSettings(s model.Settings) error {
	switch {
	case s.Capacity <= 0:
		return &model.ValidationError{Field: "tube length", Value: s.Capacity, Reason: "must be positive"}
	case s.KerfAllowance < 0:
		return &model.ValidationError{Field: "kerf allowance", Value: s.KerfAllowance, Reason: "must not be negative"}
	case s.PricePerUnit < 0:
		return &model.ValidationError{Field: "price", Value: s.PricePerUnit, Reason: "must not be negative"}
	case s.Workers < 1:
		return &model.ValidationError{Field: "workers", Value: s.Workers, Reason: "must be at least 1"}
	case s.MaxNodes < 0 || s.TimeLimit < 0:
		return &model.ValidationError{Field: "budget", Value: fmt.Sprintf("%d nodes / %s", s.MaxNodes, s.TimeLimit), Reason: "must not be negative"}
	}
	return nil
}
