package model

import (
	"testing"
)

func TestDetectOffcutsEmptyTube(t *testing.T) {
	tube := Tube{Capacity: 5870}
	offcuts := DetectOffcuts(tube, 1, 300)
	if len(offcuts) != 1 {
		t.Fatalf("expected 1 offcut for empty tube, got %d", len(offcuts))
	}
	if offcuts[0].Length != 5870 {
		t.Errorf("expected full tube as offcut, got %.0f", offcuts[0].Length)
	}
	if offcuts[0].TubeIndex != 1 {
		t.Errorf("expected tube number 1, got %d", offcuts[0].TubeIndex)
	}
}

func TestDetectOffcutsTooShort(t *testing.T) {
	tube := Tube{Capacity: 1000, Items: []Item{{Length: 800}}}
	if offcuts := DetectOffcuts(tube, 1, 300); len(offcuts) != 0 {
		t.Errorf("expected no offcut for a 200 remnant, got %d", len(offcuts))
	}
}

func TestDetectOffcutsDefaultMinimum(t *testing.T) {
	tube := Tube{Capacity: 1000, Items: []Item{{Length: 650}}}
	offcuts := DetectOffcuts(tube, 2, 0)
	if len(offcuts) != 1 || offcuts[0].Length != 350 {
		t.Errorf("expected one 350 offcut with the default minimum, got %+v", offcuts)
	}
}

func TestDetectAllOffcutsSortedLongestFirst(t *testing.T) {
	result := NestResult{
		Capacity: 1000,
		Tubes: []Tube{
			{Capacity: 1000, Items: []Item{{Length: 600}}},
			{Capacity: 1000, Items: []Item{{Length: 100}}},
			{Capacity: 1000, Items: []Item{{Length: 950}}},
		},
	}
	offcuts := DetectAllOffcuts(result, 300)
	if len(offcuts) != 2 {
		t.Fatalf("expected 2 offcuts, got %d", len(offcuts))
	}
	if offcuts[0].Length != 900 || offcuts[0].TubeIndex != 2 {
		t.Errorf("expected tube 2 remnant first, got %+v", offcuts[0])
	}
	if TotalOffcutLength(offcuts) != 1300 {
		t.Errorf("expected total 1300, got %.0f", TotalOffcutLength(offcuts))
	}
}
