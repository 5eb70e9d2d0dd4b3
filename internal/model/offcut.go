package model

import (
	"sort"

	"github.com/google/uuid"
)

// Offcut represents a usable remnant left at the end of a tube after cutting.
type Offcut struct {
	ID        string  `json:"id"`
	TubeIndex int     `json:"tube_index"` // 1-based tube number in the result
	Length    float64 `json:"length"`
}

// DefaultMinOffcut is the shortest remnant considered reusable when the
// settings do not say otherwise. Anything shorter is scrap.
const DefaultMinOffcut = 300.0

// DetectOffcuts returns the remnant of the tube if it is at least minLength long.
func DetectOffcuts(t Tube, tubeNumber int, minLength float64) []Offcut {
	if minLength <= 0 {
		minLength = DefaultMinOffcut
	}
	rest := t.Remaining()
	if rest < minLength {
		return nil
	}
	return []Offcut{{
		ID:        uuid.New().String()[:8],
		TubeIndex: tubeNumber,
		Length:    rest,
	}}
}

// DetectAllOffcuts finds offcuts across all tubes in a result, longest first.
func DetectAllOffcuts(result NestResult, minLength float64) []Offcut {
	var all []Offcut
	for i, t := range result.Tubes {
		all = append(all, DetectOffcuts(t, i+1, minLength)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Length > all[j].Length
	})
	return all
}

// TotalOffcutLength returns the total length of all offcuts.
func TotalOffcutLength(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.Length
	}
	return total
}
