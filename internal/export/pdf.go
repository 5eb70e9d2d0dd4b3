// Package export writes nesting results to PDF cutting plans, QR item
// labels and DXF drawings.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/tubenest/internal/model"
)

// partColor represents an RGB color for a part segment.
type partColor struct {
	R, G, B int
}

var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	axisWidth    = 18.0
	barHeight    = 8.0
	barGap       = 4.0
)

// Report carries the optional extras shown on the summary page.
type Report struct {
	Title   string
	Cost    *model.CostAllocation
	Offcuts []model.Offcut
}

// ExportPDF generates a cutting plan: one horizontal stacked bar per tube,
// paginated, followed by a summary page with statistics and costs.
func ExportPDF(path string, result model.NestResult, report Report) error {
	if len(result.Tubes) == 0 {
		return fmt.Errorf("no tubes to export")
	}
	if report.Title == "" {
		report.Title = "Cutting Plan"
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	colors := colorsByName(result)
	perPage := tubesPerPage()
	pages := (len(result.Tubes) + perPage - 1) / perPage

	for page := 0; page < pages; page++ {
		first := page * perPage
		last := min(first+perPage, len(result.Tubes))

		pdf.AddPage()
		renderTubePage(pdf, result, colors, report.Title, first, last, page+1, pages)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, result, report)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}

func tubesPerPage() int {
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight
	return int(drawHeight / (barHeight + barGap))
}

// nameColors assigns palette colors to part names in order of first appearance.
type nameColors struct {
	names []string
	index map[string]int
}

func colorsByName(result model.NestResult) nameColors {
	nc := nameColors{index: make(map[string]int)}
	for _, t := range result.Tubes {
		for _, it := range t.Items {
			if _, ok := nc.index[it.Name]; !ok {
				nc.index[it.Name] = len(nc.names)
				nc.names = append(nc.names, it.Name)
			}
		}
	}
	return nc
}

func (nc nameColors) color(name string) partColor {
	return partColors[nc.index[name]%len(partColors)]
}

// renderTubePage draws tubes [first, last) as stacked bars on the current page.
func renderTubePage(pdf *fpdf.Fpdf, result model.NestResult, colors nameColors, title string, first, last, page, pages int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	heading := fmt.Sprintf("%s: %d tubes of %.0f mm (page %d/%d)", title, result.TubeCount, result.Capacity, page, pages)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, heading, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Status: %s | Items: %d | Lower bound: %d | Efficiency: %.1f%%",
		result.Status, result.ItemCount(), result.LowerBound, result.TotalEfficiency())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	barLeft := marginLeft + axisWidth
	barWidth := pageWidth - barLeft - marginRight
	scale := barWidth / result.Capacity

	y := drawAreaTop
	for i := first; i < last; i++ {
		tube := result.Tubes[i]

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(axisWidth-2, barHeight, fmt.Sprintf("Tube %d", i+1), "", 0, "R", false, 0, "")

		// Capacity outline
		pdf.SetFillColor(235, 235, 235)
		pdf.SetDrawColor(100, 100, 100)
		pdf.SetLineWidth(0.4)
		pdf.Rect(barLeft, y, result.Capacity*scale, barHeight, "FD")

		x := barLeft
		for _, it := range tube.Items {
			w := it.Length * scale
			col := colors.color(it.Name)

			pdf.SetFillColor(col.R, col.G, col.B)
			pdf.SetDrawColor(30, 30, 30)
			pdf.SetLineWidth(0.2)
			pdf.Rect(x, y, w, barHeight, "FD")

			label := fmt.Sprintf("%.0f", it.Length)
			pdf.SetFont("Helvetica", "", labelFontSize(w))
			if lw := pdf.GetStringWidth(label); lw < w-1 {
				pdf.SetXY(x+(w-lw)/2, y+(barHeight-4)/2)
				pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
			}
			x += w
		}

		// Remnant length to the right of the last segment
		if rest := tube.Remaining(); rest > 0 {
			remW := rest * scale
			label := fmt.Sprintf("%.0f", rest)
			pdf.SetFont("Helvetica", "I", 6)
			pdf.SetTextColor(120, 120, 120)
			if lw := pdf.GetStringWidth(label); lw < remW-1 {
				pdf.SetXY(x+(remW-lw)/2, y+(barHeight-4)/2)
				pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
			}
			pdf.SetTextColor(0, 0, 0)
		}

		y += barHeight + barGap
	}

	drawLegend(pdf, colors, pageHeight-marginBottom-legendHeight+4)
}

// drawLegend renders the part-name color key.
func drawLegend(pdf *fpdf.Fpdf, colors nameColors, startY float64) {
	if len(colors.names) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(20, 4, "Parts:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 22
	maxX := pageWidth - marginRight

	for _, name := range colors.names {
		col := colors.color(name)
		labelW := pdf.GetStringWidth(name) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, name, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, result model.NestResult, report Report) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, report.Title+" Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Tubes Used", fmt.Sprintf("%d", result.TubeCount)},
		{"Status", string(result.Status)},
		{"Lower Bound", fmt.Sprintf("%d", result.LowerBound)},
		{"Tube Length", fmt.Sprintf("%.0f mm", result.Capacity)},
		{"Items Cut", fmt.Sprintf("%d", result.ItemCount())},
		{"Overall Efficiency", fmt.Sprintf("%.1f%%", result.TotalEfficiency())},
	}
	if len(report.Offcuts) > 0 {
		summaryItems = append(summaryItems, struct {
			label string
			value string
		}{"Reusable Offcuts", fmt.Sprintf("%d (%.0f mm)", len(report.Offcuts), model.TotalOffcutLength(report.Offcuts))})
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	if report.Cost != nil && len(report.Cost.Parts) > 0 {
		y += 5
		renderCostTable(pdf, *report.Cost, y)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by tubenest - tube cutting optimizer", "", 0, "C", false, 0, "")
}

// renderCostTable prints one row per part record with its share of the tubes.
func renderCostTable(pdf *fpdf.Fpdf, cost model.CostAllocation, y float64) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Cost Allocation", "", 0, "L", false, 0, "")
	y += 9

	unit := "mm"
	if cost.PricePerUnit > 0 {
		unit = "cost"
	}
	colWidths := []float64{70, 30, 20, 45, 45}
	headers := []string{"Part", "Length", "Qty", "Unit (" + unit + ")", "Total (" + unit + ")"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, pc := range cost.Parts {
		if y > pageHeight-marginBottom-12 {
			pdf.AddPage()
			y = marginTop
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		row := []string{
			pc.Name,
			fmt.Sprintf("%.1f", pc.Length),
			fmt.Sprintf("%d", pc.Quantity),
			fmt.Sprintf("%.2f", pc.UnitCost),
			fmt.Sprintf("%.2f", pc.TotalCost),
		}
		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(marginLeft, y)
	total := fmt.Sprintf("Total for %d tubes (%.0f mm bought): %.2f %s", cost.TubeCount, cost.TubeLength, cost.TotalCost, unit)
	pdf.CellFormat(200, 6, total, "", 0, "L", false, 0, "")
}

// labelFontSize returns a font size that fits a segment of width w.
func labelFontSize(w float64) float64 {
	switch {
	case w > 30:
		return 8
	case w > 15:
		return 7
	default:
		return math.Max(5, math.Min(6, w/2))
	}
}
