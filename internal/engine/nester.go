package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/tubenest/internal/model"
)

// phase is the position of a run in INIT → BOUNDING → SEARCHING → DONE.
type phase int

const (
	phaseInit phase = iota
	phaseBounding
	phaseSearching
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseInit:
		return "INIT"
	case phaseBounding:
		return "BOUNDING"
	case phaseSearching:
		return "SEARCHING"
	default:
		return "DONE"
	}
}

// Nester assigns parts to the minimum number of tubes.
type Nester struct {
	Settings model.Settings

	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Nester.
type Option func(*Nester)

// WithLogger sets the logger used for phase transitions and outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(n *Nester) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithMetrics records every run on m.
func WithMetrics(m *Metrics) Option {
	return func(n *Nester) { n.metrics = m }
}

func New(settings model.Settings, opts ...Option) *Nester {
	n := &Nester{
		Settings: settings,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Nest expands parts into items and packs them into as few tubes as possible.
//
// Invalid records fail with *model.ValidationError or *model.CapacityError
// before any search work. Running out of node or time budget is not an
// error: the best assignment found is returned with model.StatusBounded.
func (n *Nester) Nest(ctx context.Context, parts []model.Part) (model.NestResult, error) {
	start := time.Now()
	runID := uuid.New().String()[:8]
	log := n.logger.With("run", runID)

	log.Debug("phase", "phase", phaseInit, "parts", len(parts), "capacity", n.Settings.Capacity)
	items, err := ExpandParts(parts, n.Settings.Capacity)
	if err != nil {
		return model.NestResult{}, fmt.Errorf("expand parts: %w", err)
	}

	result, err := n.solve(ctx, log, items, start)
	if err != nil {
		return model.NestResult{}, err
	}
	result.RunID = runID

	n.metrics.observe(result)
	log.Info("nesting finished",
		"status", result.Status,
		"tubes", result.TubeCount,
		"lower_bound", result.LowerBound,
		"items", len(items),
		"nodes", result.Nodes,
		"elapsed", result.Elapsed)
	return result, nil
}

func (n *Nester) solve(ctx context.Context, log *slog.Logger, items []model.Item, start time.Time) (model.NestResult, error) {
	capacity := n.Settings.Capacity

	if len(items) == 0 {
		log.Debug("phase", "phase", phaseDone, "reason", "no items")
		return model.NestResult{
			Capacity: capacity,
			Tubes:    []model.Tube{},
			Status:   model.StatusOptimal,
			Elapsed:  time.Since(start),
		}, nil
	}

	log.Debug("phase", "phase", phaseBounding, "items", len(items))
	lb := LowerBound(items, capacity)
	ffd := FirstFitDecreasing(items, capacity)
	log.Debug("bounds", "lower_bound", lb, "first_fit_decreasing", ffd.Count)

	status := model.StatusOptimal
	assign := ffd.Assign
	count := ffd.Count
	var nodes int64

	if lb < ffd.Count {
		log.Debug("phase", "phase", phaseSearching, "gap", ffd.Count-lb)

		var deadline time.Time
		if n.Settings.TimeLimit > 0 {
			deadline = start.Add(n.Settings.TimeLimit)
		}
		workers := n.Settings.Workers
		if workers < 1 {
			workers = 1
		}

		probe := newSearcher(ffd.Order, capacity, lb, nil, nil)
		floor := max(lb, probe.nodeBound(0))

		res := search(ctx, ffd, capacity, floor, searchOptions{
			MaxNodes: n.Settings.MaxNodes,
			Deadline: deadline,
			Workers:  workers,
		})
		assign, count, nodes = res.Assign, res.Count, res.Nodes
		if res.Exhausted {
			status = model.StatusBounded
		}
		if floor > lb {
			lb = floor
		}
	}

	result := buildResult(ffd.Order, assign, capacity)
	result.Status = status
	result.LowerBound = lb
	result.Heuristic = ffd.Count
	result.Nodes = nodes
	result.Elapsed = time.Since(start)

	if result.TubeCount != count {
		return model.NestResult{}, &model.InvariantViolation{
			Detail: fmt.Sprintf("search reported %d tubes, assignment has %d", count, result.TubeCount),
		}
	}
	if err := Validate(result, items); err != nil {
		log.Error("solution rejected", "error", err)
		return model.NestResult{}, err
	}

	log.Debug("phase", "phase", phaseDone, "status", status, "tubes", result.TubeCount, "nodes", nodes)
	return result, nil
}

// buildResult groups items by the tube identity they were assigned to.
// Tube identities need not be dense, so tubes are collected in a map and
// then numbered in opening order.
func buildResult(order []model.Item, assign []int, capacity float64) model.NestResult {
	byTube := make(map[int][]model.Item)
	for i, it := range order {
		byTube[assign[i]] = append(byTube[assign[i]], it)
	}

	ids := make([]int, 0, len(byTube))
	for id := range byTube {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	tubes := make([]model.Tube, 0, len(ids))
	for i, id := range ids {
		tubes = append(tubes, model.Tube{
			Index:    i,
			Capacity: capacity,
			Items:    byTube[id],
		})
	}

	return model.NestResult{
		Capacity:  capacity,
		Tubes:     tubes,
		TubeCount: len(tubes),
	}
}
