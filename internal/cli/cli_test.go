package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/tubenest/internal/engine"
	"github.com/piwi3910/tubenest/internal/model"
	"github.com/piwi3910/tubenest/internal/project"
)

// runCLI executes the root command with args and an empty config file.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ExitCode
	}{
		{"nil", nil, ExitSuccess},
		{"load", &model.LoadError{Path: "x"}, ExitInvalidInput},
		{"validation", &model.ValidationError{Field: "length"}, ExitInvalidInput},
		{"capacity", &model.CapacityError{Part: "P", Length: 2, Capacity: 1}, ExitInfeasible},
		{"wrapped capacity", WrapCLIError(0, "nest", &model.CapacityError{}), ExitInfeasible},
		{"invariant", &model.InvariantViolation{Detail: "x"}, ExitInvariant},
		{"cli error", NewCLIError(ExitBounded, "bounded"), ExitBounded},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}

func TestFormatCuts(t *testing.T) {
	assert.Equal(t, "-", FormatCuts(nil))
	assert.Equal(t, "Rail 2400 | Brace 650.5", FormatCuts([]model.Item{
		{ID: 0, Name: "Rail", Length: 2400},
		{ID: 1, Name: "Brace", Length: 650.5},
	}))
}

func TestPrintError_JSON(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	var buf bytes.Buffer
	printError(&buf, WrapCLIError(ExitInvalidInput, "load part table", errors.New("bad row")))

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "load part table", doc["error"]["message"])
	assert.Equal(t, "bad row", doc["error"]["detail"])
	assert.Equal(t, float64(ExitInvalidInput), doc["error"]["code"])
}

func TestNest_PrintsPlan(t *testing.T) {
	csv := writeCSV(t, "Part,Length,Qty\nRail,60,2\nCap,30,1\n")

	out, _, err := runCLI(t, "nest", "-e", csv, "-m", "100", "--kerf", "0")

	require.NoError(t, err)
	assert.Contains(t, out, "Nested 3 items into 2 tubes of 100 (optimal")
	assert.Contains(t, out, "Rail 60 | Cap 30")
	assert.Contains(t, out, "Material per part")
}

func TestNest_PositionalFileAndJSON(t *testing.T) {
	csv := writeCSV(t, "Rail,40,3\n")

	out, _, err := runCLI(t, "nest", csv, "--material", "100", "--json")
	require.NoError(t, err)

	var doc nestOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc.Result.TubeCount)
	assert.Equal(t, model.StatusOptimal, doc.Result.Status)
	assert.Equal(t, 2, doc.Cost.TubeCount)
	assert.NotNil(t, doc.Offcuts)
}

func TestNest_BoundedExitCode(t *testing.T) {
	csv := writeCSV(t, "A,5,1\nB,4,1\nC,3,3\nD,2,1\n")

	_, _, err := runCLI(t, "nest", "-e", csv, "-m", "10", "--max-nodes", "1")
	require.Error(t, err)
	assert.Equal(t, ExitBounded, exitCodeFor(err))

	out, _, err := runCLI(t, "nest", "-e", csv, "-m", "10", "--max-nodes", "1", "--accept-bounded")
	require.NoError(t, err)
	assert.Contains(t, out, "Not proven optimal")
}

func TestNest_OversizedPartIsInfeasible(t *testing.T) {
	csv := writeCSV(t, "Mast,110,1\n")

	_, _, err := runCLI(t, "nest", "-e", csv, "-m", "100")

	require.Error(t, err)
	assert.Equal(t, ExitInfeasible, exitCodeFor(err))
	assert.True(t, errors.Is(err, model.ErrCapacity))
}

func TestNest_BadTableIsInvalidInput(t *testing.T) {
	csv := writeCSV(t, "Part,Length,Qty\nRail,abc,2\n")

	_, _, err := runCLI(t, "nest", "-e", csv)

	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, exitCodeFor(err))
	assert.True(t, errors.Is(err, model.ErrLoad))
}

func TestNest_MissingTable(t *testing.T) {
	_, _, err := runCLI(t, "nest")
	assert.Equal(t, ExitInvalidInput, exitCodeFor(err))
}

func TestNest_InvalidFlag(t *testing.T) {
	csv := writeCSV(t, "Rail,40,3\n")

	_, _, err := runCLI(t, "nest", "-e", csv, "--workers", "0")

	assert.Equal(t, ExitInvalidInput, exitCodeFor(err))
}

func TestNest_SaveThenReport(t *testing.T) {
	dir := t.TempDir()
	csv := writeCSV(t, "Part,Length,Qty\nRail,60,2\nCap,30,1\n")
	saved := filepath.Join(dir, "job.json")
	metrics := filepath.Join(dir, "metrics.prom")

	_, _, err := runCLI(t, "nest", "-e", csv, "-m", "100", "--save", saved, "--metrics-file", metrics)
	require.NoError(t, err)

	p, err := project.LoadProject(saved)
	require.NoError(t, err)
	require.NotNil(t, p.Result)
	assert.Equal(t, "parts", p.Name)
	assert.Len(t, p.Parts, 2)
	assert.Equal(t, 100.0, p.Settings.Capacity)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tubenest_solver_runs_total{status="optimal"} 1`)

	dxfPath := filepath.Join(dir, "cuts.dxf")
	out, _, err := runCLI(t, "report", "--project", saved, "--dxf", dxfPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Nested 3 items into 2 tubes")
	_, err = os.Stat(dxfPath)
	assert.NoError(t, err)
}

func TestReport_ProjectWithoutResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, project.SaveProject(path, model.NewProject()))

	_, _, err := runCLI(t, "report", "--project", path)

	assert.Equal(t, ExitInvalidInput, exitCodeFor(err))
}

func TestReport_RejectsDamagedResult(t *testing.T) {
	dir := t.TempDir()
	csv := writeCSV(t, "Part,Length,Qty\nRail,60,2\nCap,30,1\n")
	saved := filepath.Join(dir, "job.json")
	_, _, err := runCLI(t, "nest", "-e", csv, "-m", "100", "--save", saved)
	require.NoError(t, err)

	tests := []struct {
		name   string
		damage func(r *model.NestResult)
	}{
		{"changed length", func(r *model.NestResult) { r.Tubes[0].Items[0].Length = 95 }},
		{"capacity", func(r *model.NestResult) { r.Tubes[0].Capacity = 50 }},
		{"missing item", func(r *model.NestResult) { r.Tubes[1].Items = r.Tubes[1].Items[:0] }},
		{"tube count", func(r *model.NestResult) { r.TubeCount = 1 }},
		{"duplicate item", func(r *model.NestResult) {
			r.Tubes[1].Items = append(r.Tubes[1].Items, r.Tubes[0].Items[0])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := project.LoadProject(saved)
			require.NoError(t, err)
			require.NotNil(t, p.Result)
			require.Len(t, p.Result.Tubes, 2)
			tt.damage(p.Result)

			path := filepath.Join(t.TempDir(), "damaged.json")
			require.NoError(t, project.SaveProject(path, p))
			dxfPath := filepath.Join(t.TempDir(), "cuts.dxf")

			_, _, err = runCLI(t, "report", "--project", path, "--dxf", dxfPath)

			require.Error(t, err)
			assert.Equal(t, ExitInvalidInput, exitCodeFor(err))
			assert.True(t, errors.Is(err, model.ErrInvariant))
			assert.NoFileExists(t, dxfPath)
		})
	}
}

func TestCompare_ReportsInfeasibleStock(t *testing.T) {
	csv := writeCSV(t, "Mast,60,1\nCap,20,2\n")

	out, _, err := runCLI(t, "compare", "-e", csv, "--lengths", "100,50")

	require.NoError(t, err)
	assert.Contains(t, out, "Stock 100")
	assert.Contains(t, out, "infeasible")
}

func TestCompare_NoFeasibleStock(t *testing.T) {
	csv := writeCSV(t, "A,5,1\n")

	out, _, err := runCLI(t, "compare", "-e", csv, "--lengths", "3,4")

	require.Error(t, err)
	assert.Equal(t, ExitInfeasible, exitCodeFor(err))
	assert.Contains(t, out, "infeasible", "rows are printed before failing")
}

func TestCompare_BoundedScenario(t *testing.T) {
	csv := writeCSV(t, "A,5,1\nB,4,1\nC,3,3\nD,2,1\n")

	_, _, err := runCLI(t, "compare", "-e", csv, "--lengths", "10", "--max-nodes", "1")
	require.Error(t, err)
	assert.Equal(t, ExitBounded, exitCodeFor(err))
	assert.Contains(t, err.Error(), "Stock 10")

	out, _, err := runCLI(t, "compare", "-e", csv, "--lengths", "10", "--max-nodes", "1", "--accept-bounded")
	require.NoError(t, err)
	assert.Contains(t, out, "bounded")
}

func TestCompareOutcome(t *testing.T) {
	scenario := func(name string) engine.ComparisonScenario {
		return engine.ComparisonScenario{Name: name}
	}
	optimal := engine.ComparisonResult{Scenario: scenario("ok"), Status: model.StatusOptimal}
	bounded := engine.ComparisonResult{Scenario: scenario("slow"), Status: model.StatusBounded}
	infeasible := engine.ComparisonResult{
		Scenario: scenario("short"),
		Status:   model.StatusInfeasible,
		Err:      &model.CapacityError{Part: "A", Length: 5, Capacity: 3},
	}
	broken := engine.ComparisonResult{
		Scenario: scenario("broken"),
		Err:      &model.InvariantViolation{Detail: "tube 1 is empty"},
	}
	invalid := engine.ComparisonResult{
		Scenario: scenario("bad"),
		Err:      &model.ValidationError{Part: "A", Field: "quantity", Value: 0, Reason: "must be positive"},
	}

	tests := []struct {
		name          string
		results       []engine.ComparisonResult
		acceptBounded bool
		want          ExitCode
	}{
		{"all optimal", []engine.ComparisonResult{optimal}, false, ExitSuccess},
		{"some infeasible", []engine.ComparisonResult{optimal, infeasible}, false, ExitSuccess},
		{"all infeasible", []engine.ComparisonResult{infeasible, infeasible}, false, ExitInfeasible},
		{"bounded", []engine.ComparisonResult{optimal, bounded}, false, ExitBounded},
		{"bounded accepted", []engine.ComparisonResult{optimal, bounded}, true, ExitSuccess},
		{"invariant wins", []engine.ComparisonResult{infeasible, bounded, broken}, true, ExitInvariant},
		{"invalid input", []engine.ComparisonResult{invalid, invalid}, false, ExitInvalidInput},
		{"no scenarios", nil, false, ExitSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compareOutcome(tt.results, tt.acceptBounded)
			assert.Equal(t, tt.want, exitCodeFor(err))
		})
	}
}

func TestEstimate(t *testing.T) {
	csv := writeCSV(t, "Rail,40,5\n")

	out, _, err := runCLI(t, "estimate", "-e", csv, "-m", "100", "--kerf", "0", "--waste", "10", "--json")
	require.NoError(t, err)

	var est model.PurchaseEstimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Equal(t, 2, est.TubesNeededMin)
	assert.Equal(t, 3, est.TubesWithWaste)
}

func TestOffcuts_EmptyInventory(t *testing.T) {
	out, _, err := runCLI(t, "offcuts", "--inventory", filepath.Join(t.TempDir(), "offcuts.json"))

	require.NoError(t, err)
	assert.Contains(t, out, "No offcuts in stock.")
}

func TestResolveSettings_Precedence(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := project.DefaultConfig()
	cfg.Settings.Capacity = 6000
	cfg.Settings.Workers = 2
	cfg.Stocks["long"] = project.StockPreset{Length: 6500, Kerf: 90}
	require.NoError(t, project.SaveConfig(cfgPath, cfg))

	configPath = cfgPath
	defer func() { configPath = "" }()

	resolve := func(args ...string) model.Settings {
		t.Helper()
		cmd := &cobra.Command{Use: "nest"}
		var f settingsFlags
		f.register(cmd)
		require.NoError(t, cmd.ParseFlags(args))

		s, _, err := f.resolve(cmd)
		require.NoError(t, err)
		return s
	}

	s := resolve()
	assert.Equal(t, 6000.0, s.Capacity, "config file over defaults")
	assert.Equal(t, 2, s.Workers)

	s = resolve("--stock", "long")
	assert.Equal(t, 6500.0, s.Capacity, "preset over config file")
	assert.Equal(t, 90.0, s.KerfAllowance)

	s = resolve("--stock", "long", "-m", "7000", "--kerf", "0")
	assert.Equal(t, 7000.0, s.Capacity, "flag over preset")
	assert.Equal(t, 0.0, s.KerfAllowance)
}
