package model

import (
	"time"

	"github.com/google/uuid"
)

// Part represents one row of the cut list: a named length needed Quantity times.
type Part struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Length   float64 `json:"length"` // same unit as the tube capacity (mm)
	Quantity int     `json:"quantity"`
}

func NewPart(name string, length float64, qty int) Part {
	return Part{
		ID:       uuid.New().String()[:8],
		Name:     name,
		Length:   length,
		Quantity: qty,
	}
}

// Item is a single physical piece to be cut. Items are created by the
// expander and never mutated afterwards.
type Item struct {
	ID     int     `json:"id"`
	PartID string  `json:"part_id,omitempty"`
	Name   string  `json:"name"`
	Length float64 `json:"length"`
}

// Tube is one stock tube with the items cut from it, in cutting order.
type Tube struct {
	Index    int     `json:"index"`
	Capacity float64 `json:"capacity"`
	Items    []Item  `json:"items"`
}

// Used returns the total length assigned to the tube.
func (t Tube) Used() float64 {
	var total float64
	for _, it := range t.Items {
		total += it.Length
	}
	return total
}

// Remaining returns the unassigned length of the tube.
func (t Tube) Remaining() float64 {
	return t.Capacity - t.Used()
}

// Efficiency returns the usage percentage.
func (t Tube) Efficiency() float64 {
	if t.Capacity == 0 {
		return 0
	}
	return (t.Used() / t.Capacity) * 100.0
}

// Status describes how far the solver got.
type Status string

const (
	StatusOptimal    Status = "optimal"    // Tube count proven minimal
	StatusBounded    Status = "bounded"    // Budget ran out; best assignment found so far
	StatusInfeasible Status = "infeasible" // No assignment exists for these settings
)

// NestResult holds the full solution. It is built once by the engine and
// treated as read-only by everything downstream.
type NestResult struct {
	RunID      string        `json:"run_id"`
	Capacity   float64       `json:"capacity"`
	Tubes      []Tube        `json:"tubes"`
	TubeCount  int           `json:"tube_count"`
	Status     Status        `json:"status"`
	LowerBound int           `json:"lower_bound"`
	Heuristic  int           `json:"heuristic"` // First-Fit-Decreasing tube count
	Nodes      int64         `json:"nodes"`
	Elapsed    time.Duration `json:"elapsed"`
}

// ItemCount returns the number of items across all tubes.
func (r NestResult) ItemCount() int {
	n := 0
	for _, t := range r.Tubes {
		n += len(t.Items)
	}
	return n
}

// TotalUsed returns the total assigned length across all tubes.
func (r NestResult) TotalUsed() float64 {
	var total float64
	for _, t := range r.Tubes {
		total += t.Used()
	}
	return total
}

// TotalEfficiency returns overall material usage percentage.
func (r NestResult) TotalEfficiency() float64 {
	total := float64(len(r.Tubes)) * r.Capacity
	if total == 0 {
		return 0
	}
	return (r.TotalUsed() / total) * 100.0
}

// Gap is the distance between the tube count and the proven lower bound.
func (r NestResult) Gap() int {
	if r.TubeCount < r.LowerBound {
		return 0
	}
	return r.TubeCount - r.LowerBound
}

// Settings holds nesting, budget and costing configuration for one run.
type Settings struct {
	Capacity      float64       `json:"capacity" yaml:"capacity"`             // Usable tube length
	KerfAllowance float64       `json:"kerf_allowance" yaml:"kerf_allowance"` // Extra material per tube, used for costing only
	MaxNodes      int64         `json:"max_nodes" yaml:"max_nodes"`           // Search node budget, 0 = unlimited
	TimeLimit     time.Duration `json:"time_limit" yaml:"time_limit"`         // Search deadline, 0 = none
	Workers       int           `json:"workers" yaml:"workers"`               // 1 = sequential search
	PricePerUnit  float64       `json:"price_per_unit" yaml:"price_per_unit"` // Material price per length unit
	MinOffcut     float64       `json:"min_offcut" yaml:"min_offcut"`         // Shortest remnant worth keeping
	Debug         bool          `json:"debug" yaml:"debug"`
}

// DefaultCapacity is the stock tube length used when none is given.
const DefaultCapacity = 5870.0

func DefaultSettings() Settings {
	return Settings{
		Capacity:      DefaultCapacity,
		KerfAllowance: 130,
		MaxNodes:      2_000_000,
		TimeLimit:     30 * time.Second,
		Workers:       1,
		PricePerUnit:  0,
		MinOffcut:     300,
		Debug:         false,
	}
}

// Project ties everything together for save/load.
type Project struct {
	Name     string      `json:"name"`
	Parts    []Part      `json:"parts"`
	Settings Settings    `json:"settings"`
	Result   *NestResult `json:"result,omitempty"`
}

func NewProject() Project {
	return Project{
		Name:     "Untitled",
		Parts:    []Part{},
		Settings: DefaultSettings(),
	}
}
