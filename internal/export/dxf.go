package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/tubenest/internal/model"
)

// DXF layer names.
const (
	LayerCuts   = "CUTS"
	LayerStock  = "STOCK"
	LayerLabels = "LABELS"
)

// Strip geometry in drawing units (mm).
const (
	dxfStripHeight = 40.0
	dxfStripGap    = 20.0
	dxfTextHeight  = 10.0
)

// ExportDXF draws every tube as a strip at 1:1 scale along X, tube 1 at the
// top and later tubes below it. Each strip has its stock outline, a cut line
// at every item boundary and the part names.
func ExportDXF(path string, result model.NestResult) error {
	if len(result.Tubes) == 0 {
		return fmt.Errorf("no tubes to export")
	}

	d := dxf.NewDrawing()
	layers := []struct {
		name string
		cl   color.ColorNumber
	}{
		{LayerStock, color.White},
		{LayerCuts, color.Red},
		{LayerLabels, color.Cyan},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.cl, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("add layer %s: %w", l.name, err)
		}
	}

	for i, tube := range result.Tubes {
		y := -float64(i) * (dxfStripHeight + dxfStripGap)
		if err := drawTubeStrip(d, tube, i+1, y); err != nil {
			return fmt.Errorf("draw tube %d: %w", i+1, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("write dxf %s: %w", path, err)
	}
	return nil
}

func drawTubeStrip(d *drawing.Drawing, tube model.Tube, number int, y float64) error {
	top := y + dxfStripHeight

	if err := d.ChangeLayer(LayerStock); err != nil {
		return err
	}
	outline := [][4]float64{
		{0, y, tube.Capacity, y},
		{tube.Capacity, y, tube.Capacity, top},
		{tube.Capacity, top, 0, top},
		{0, top, 0, y},
	}
	for _, seg := range outline {
		if _, err := d.Line(seg[0], seg[1], 0, seg[2], seg[3], 0); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(LayerCuts); err != nil {
		return err
	}
	var x float64
	for _, it := range tube.Items {
		x += it.Length
		if _, err := d.Line(x, y, 0, x, top, 0); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(LayerLabels); err != nil {
		return err
	}
	if _, err := d.Text(fmt.Sprintf("Tube %d", number), -6*dxfTextHeight, y+dxfStripHeight/2, 0, dxfTextHeight); err != nil {
		return err
	}
	x = 0
	for _, it := range tube.Items {
		label := fmt.Sprintf("%s %.0f", it.Name, it.Length)
		if _, err := d.Text(label, x+dxfTextHeight/2, y+(dxfStripHeight-dxfTextHeight)/2, 0, dxfTextHeight); err != nil {
			return err
		}
		x += it.Length
	}
	return nil
}
