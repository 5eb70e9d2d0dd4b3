package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/piwi3910/tubenest/internal/export"
	"github.com/piwi3910/tubenest/internal/model"
)

// nestOutput is the JSON document printed by nest and report.
type nestOutput struct {
	Result  model.NestResult     `json:"result"`
	Cost    model.CostAllocation `json:"cost"`
	Offcuts []model.Offcut       `json:"offcuts"`
}

func buildOutput(result model.NestResult, parts []model.Part, settings model.Settings) (nestOutput, error) {
	cost, err := model.AllocateCost(result, parts, settings.KerfAllowance, settings.PricePerUnit)
	if err != nil {
		return nestOutput{}, err
	}
	offcuts := model.DetectAllOffcuts(result, settings.MinOffcut)
	if offcuts == nil {
		offcuts = []model.Offcut{}
	}
	return nestOutput{Result: result, Cost: cost, Offcuts: offcuts}, nil
}

// printNestText writes the cutting plan, cost split and offcuts.
//
//	TUBE  USED      REST     EFF     CUTS
//	1     5800.0    70.0     98.8%   Rail 2400 | Rail 2400 | Brace 1000
func printNestText(w io.Writer, out nestOutput) {
	r := out.Result
	fmt.Fprintf(w, "Nested %d items into %d tubes of %.0f (%s, lower bound %d, first-fit %d, %d nodes, %s)\n",
		r.ItemCount(), r.TubeCount, r.Capacity, r.Status, r.LowerBound, r.Heuristic, r.Nodes, r.Elapsed.Round(time.Millisecond))
	if r.Status == model.StatusBounded {
		fmt.Fprintf(w, "Not proven optimal: at most %d tube(s) more than necessary.\n", r.Gap())
	}
	if r.TubeCount == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-5s %-9s %-8s %-7s %s\n", "TUBE", "USED", "REST", "EFF", "CUTS")
	for i, t := range r.Tubes {
		fmt.Fprintf(w, "%-5d %-9.1f %-8.1f %-7s %s\n",
			i+1, t.Used(), t.Remaining(), fmt.Sprintf("%.1f%%", t.Efficiency()), FormatCuts(t.Items))
	}
	fmt.Fprintf(w, "Overall efficiency: %.1f%%\n", r.TotalEfficiency())

	printCostText(w, out.Cost)

	if len(out.Offcuts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Reusable offcuts: %d, %.0f total\n", len(out.Offcuts), model.TotalOffcutLength(out.Offcuts))
		for _, o := range out.Offcuts {
			fmt.Fprintf(w, "  tube %-4d %.1f\n", o.TubeIndex, o.Length)
		}
	}
}

func printCostText(w io.Writer, cost model.CostAllocation) {
	if len(cost.Parts) == 0 {
		return
	}
	unit := "length"
	if cost.PricePerUnit > 0 {
		unit = "cost"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Material per part (%s, %d tubes = %.0f bought):\n", unit, cost.TubeCount, cost.TubeLength)
	fmt.Fprintf(w, "%-20s %-9s %-5s %-12s %s\n", "PART", "LENGTH", "QTY", "UNIT", "TOTAL")
	for _, pc := range cost.Parts {
		fmt.Fprintf(w, "%-20s %-9.1f %-5d %-12.2f %.2f\n", pc.Name, pc.Length, pc.Quantity, pc.UnitCost, pc.TotalCost)
	}
	fmt.Fprintf(w, "%-48s %.2f\n", "TOTAL", cost.TotalCost)
}

// FormatCuts lists the items of a tube in cutting order, e.g.
// "Rail 2400 | Rail 2400 | Brace 1000". Returns "-" for no items.
func FormatCuts(items []model.Item) string {
	if len(items) == 0 {
		return "-"
	}
	cuts := make([]string, len(items))
	for i, it := range items {
		cuts[i] = fmt.Sprintf("%s %g", it.Name, it.Length)
	}
	return strings.Join(cuts, " | ")
}

// artifactFlags name the optional export files.
type artifactFlags struct {
	pdf    string
	labels string
	dxf    string
}

// write exports every requested artifact, returning the paths written.
func (a artifactFlags) write(out nestOutput, title string) ([]string, error) {
	var written []string
	if a.pdf != "" {
		report := export.Report{Title: title, Cost: &out.Cost, Offcuts: out.Offcuts}
		if err := export.ExportPDF(a.pdf, out.Result, report); err != nil {
			return written, fmt.Errorf("export pdf: %w", err)
		}
		written = append(written, a.pdf)
	}
	if a.labels != "" {
		if err := export.ExportLabels(a.labels, out.Result); err != nil {
			return written, fmt.Errorf("export labels: %w", err)
		}
		written = append(written, a.labels)
	}
	if a.dxf != "" {
		if err := export.ExportDXF(a.dxf, out.Result); err != nil {
			return written, fmt.Errorf("export dxf: %w", err)
		}
		written = append(written, a.dxf)
	}
	return written, nil
}
