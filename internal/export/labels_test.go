package export

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/piwi3910/tubenest/internal/model"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, buildTestResult()); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertFileWritten(t, path, 500)
}

func TestExportLabels_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	if err := ExportLabels(path, model.NestResult{}); err == nil {
		t.Fatal("expected error for empty result, got nil")
	}
}

func TestExportLabels_ManyItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many_labels.pdf")

	tube := model.Tube{Capacity: 5870}
	for i := 0; i < 35; i++ {
		tube.Items = append(tube.Items, model.Item{ID: i, Name: "Spacer", Length: 150})
	}
	result := model.NestResult{Capacity: 5870, TubeCount: 1, Tubes: []model.Tube{tube}}

	if err := ExportLabels(path, result); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertFileWritten(t, path, 500)
}

func TestCollectLabelInfos(t *testing.T) {
	labels := CollectLabelInfos(buildTestResult())

	if len(labels) != 5 {
		t.Fatalf("expected 5 labels, got %d", len(labels))
	}

	third := labels[2]
	if third.PartName != "Brace" || third.ItemID != 3 {
		t.Errorf("unexpected third label %+v", third)
	}
	if third.Tube != 1 || third.Position != 3 {
		t.Errorf("expected tube 1 position 3, got tube %d position %d", third.Tube, third.Position)
	}
	if third.Offset != 4800 {
		t.Errorf("expected offset 4800, got %v", third.Offset)
	}

	if labels[3].Tube != 2 || labels[3].Offset != 0 {
		t.Errorf("second tube should restart offsets, got %+v", labels[3])
	}
	if labels[4].PartID != "p3" {
		t.Errorf("expected part id p3, got %q", labels[4].PartID)
	}
}

func TestFitText(t *testing.T) {
	byteWidth := func(s string) float64 { return float64(len(s)) }

	tests := []struct {
		name string
		in   string
		maxW float64
		want string
	}{
		{"fits", "Rail", 10, "Rail"},
		{"ascii", "Handrail bracket", 10, "Handrai..."},
		{"multibyte boundary", "Größenträger", 8, "Grö..."},
		{"nothing fits", "Überlänge", 2, "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fitText(tt.in, tt.maxW, byteWidth)
			if got != tt.want {
				t.Errorf("fitText(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("fitText(%q) returned invalid UTF-8 %q", tt.in, got)
			}
			if got != tt.in && !strings.HasSuffix(got, "...") {
				t.Errorf("fitText(%q) = %q, want ellipsis", tt.in, got)
			}
		})
	}
}
