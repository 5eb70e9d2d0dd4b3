package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/piwi3910/tubenest/internal/model"
)

// budget bounds the search by node count, deadline and context. It is shared
// by every worker of one run.
type budget struct {
	ctx      context.Context
	maxNodes int64
	deadline time.Time

	nodes     atomic.Int64
	exhausted atomic.Bool // a limit was hit before the search finished
	done      atomic.Bool // stop exploring: exhausted or proven optimal
}

func newBudget(ctx context.Context, maxNodes int64, deadline time.Time) *budget {
	return &budget{ctx: ctx, maxNodes: maxNodes, deadline: deadline}
}

// spend accounts for one node expansion and reports whether it may proceed.
// The clock and context are only consulted every 1024 nodes.
func (b *budget) spend() bool {
	if b.done.Load() {
		return false
	}
	n := b.nodes.Add(1)
	if b.maxNodes > 0 && n > b.maxNodes {
		b.exhaust()
		return false
	}
	if n&1023 == 0 {
		if !b.deadline.IsZero() && time.Now().After(b.deadline) {
			b.exhaust()
			return false
		}
		if b.ctx != nil && b.ctx.Err() != nil {
			b.exhaust()
			return false
		}
	}
	return true
}

func (b *budget) exhaust() {
	b.exhausted.Store(true)
	b.done.Store(true)
}

func (b *budget) halted() bool { return b.done.Load() }

// incumbent is the best complete assignment found so far. Its tube count
// only ever decreases.
type incumbent struct {
	mu     sync.Mutex
	count  atomic.Int64
	assign []int
}

func newIncumbent(seed Packing) *incumbent {
	in := &incumbent{assign: append([]int(nil), seed.Assign...)}
	in.count.Store(int64(seed.Count))
	return in
}

// Count returns the tube count of the incumbent.
func (in *incumbent) Count() int { return int(in.count.Load()) }

// offer replaces the incumbent if count improves on it.
func (in *incumbent) offer(count int, assign []int) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if int64(count) >= in.count.Load() {
		return false
	}
	in.assign = append(in.assign[:0], assign...)
	in.count.Store(int64(count))
	return true
}

func (in *incumbent) snapshot() (int, []int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return int(in.count.Load()), append([]int(nil), in.assign...)
}

// searcher explores one subtree depth-first. Items, suffix sums and the
// shared incumbent/budget are read-only or synchronized; residual and assign
// belong to this searcher alone.
type searcher struct {
	items    []model.Item // length-descending
	suffix   []float64    // suffix[i] = sum of items[i:] lengths
	capacity float64
	eps      float64
	floor    int // proven lower bound; reaching it ends the run

	best   *incumbent
	budget *budget

	residual []float64 // remaining capacity per open tube
	assign   []int
	scratch  [][]int // per-depth candidate buffers
}

func newSearcher(order []model.Item, capacity float64, floor int, best *incumbent, b *budget) *searcher {
	suffix := make([]float64, len(order)+1)
	for i := len(order) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + order[i].Length
	}
	return &searcher{
		items:    order,
		suffix:   suffix,
		capacity: capacity,
		eps:      fitTolerance * capacity,
		floor:    floor,
		best:     best,
		budget:   b,
		assign:   make([]int, len(order)),
		scratch:  make([][]int, len(order)),
	}
}

// fork returns a searcher positioned at st that shares the read-only data.
func (s *searcher) fork(st subtree) *searcher {
	w := *s
	w.residual = append([]float64(nil), st.residual...)
	w.assign = append([]int(nil), st.assign...)
	w.scratch = make([][]int, len(s.items))
	return &w
}

// nodeBound is a bin-completion lower bound on the tubes any completion of
// the current partial assignment needs.
//
// Volume: open tube space too small for the shortest remaining item is
// waste, so remaining length beyond the usable space needs new tubes.
// Large items: items longer than half a tube never share, so each one that
// fits no open tube needs a new tube of its own.
func (s *searcher) nodeBound(depth int) int {
	open := len(s.residual)
	if depth >= len(s.items) {
		return open
	}
	smallest := s.items[len(s.items)-1].Length

	var usable, widest float64
	for _, r := range s.residual {
		if smallest <= r+s.eps {
			usable += r
		}
		if r > widest {
			widest = r
		}
	}

	lb := open
	if overflow := s.suffix[depth] - usable; overflow > s.eps {
		lb = open + int(math.Ceil(overflow/s.capacity-fitTolerance))
	}

	half := s.capacity / 2
	large := 0
	for i := depth; i < len(s.items) && s.items[i].Length > half+s.eps; i++ {
		if s.items[i].Length > widest+s.eps {
			large++
		}
	}
	if open+large > lb {
		lb = open + large
	}
	return lb
}

// branchTargets lists the open tubes that can take an item of the given
// length, tightest fit first with index as tie-break. Tubes with the same
// remaining capacity lead to equivalent subtrees, so only the first of them
// is kept. openNew reports whether opening a new tube is a distinct branch,
// which it is not while an empty tube is already open.
func branchTargets(dst []int, residual []float64, length, capacity, eps float64) (targets []int, openNew bool) {
	dst = dst[:0]
	openNew = true
	for j, r := range residual {
		if r >= capacity-eps {
			openNew = false
		}
		if length <= r+eps {
			dst = append(dst, j)
		}
	}

	// insertion sort: candidate lists are short and mostly ordered
	for i := 1; i < len(dst); i++ {
		for k := i; k > 0; k-- {
			a, b := dst[k-1], dst[k]
			if residual[a] < residual[b] || (residual[a] == residual[b] && a < b) {
				break
			}
			dst[k-1], dst[k] = b, a
		}
	}

	out := dst[:0]
	for i, j := range dst {
		if i > 0 && residual[j] == residual[out[len(out)-1]] {
			continue
		}
		out = append(out, j)
	}
	return out, openNew
}

// dfs performs the core search: tightest-fit branching, a new tube last,
// pruning once a branch cannot beat the incumbent.
func (s *searcher) dfs(depth int) {
	if !s.budget.spend() {
		return
	}

	open := len(s.residual)
	if depth == len(s.items) {
		if s.best.offer(open, s.assign) && open <= s.floor {
			s.budget.done.Store(true)
		}
		return
	}

	if s.nodeBound(depth) >= s.best.Count() {
		return
	}

	length := s.items[depth].Length
	targets, openNew := branchTargets(s.scratch[depth], s.residual, length, s.capacity, s.eps)
	s.scratch[depth] = targets

	for _, j := range targets {
		r := s.residual[j]
		s.residual[j] = r - length
		s.assign[depth] = j
		s.dfs(depth + 1)
		s.residual[j] = r
		if s.budget.halted() {
			return
		}
	}

	if openNew && open+1 < s.best.Count() {
		s.residual = append(s.residual, s.capacity-length)
		s.assign[depth] = open
		s.dfs(depth + 1)
		s.residual = s.residual[:open]
	}
}

// subtree is an independent search state handed to a parallel worker.
type subtree struct {
	depth    int
	residual []float64
	assign   []int
}

// children expands the node at depth into its branches, in dfs order.
func (s *searcher) children(depth int) []subtree {
	length := s.items[depth].Length
	targets, openNew := branchTargets(nil, s.residual, length, s.capacity, s.eps)

	out := make([]subtree, 0, len(targets)+1)
	for _, j := range targets {
		st := subtree{
			depth:    depth + 1,
			residual: append([]float64(nil), s.residual...),
			assign:   append([]int(nil), s.assign...),
		}
		st.residual[j] -= length
		st.assign[depth] = j
		out = append(out, st)
	}
	open := len(s.residual)
	if openNew && open+1 < s.best.Count() {
		st := subtree{
			depth:    depth + 1,
			residual: append(append([]float64(nil), s.residual...), s.capacity-length),
			assign:   append([]int(nil), s.assign...),
		}
		st.assign[depth] = open
		out = append(out, st)
	}
	return out
}

// searchResult is what the branch-and-bound hands back to the Nester.
type searchResult struct {
	Count     int
	Assign    []int
	Nodes     int64
	Exhausted bool
}

// searchOptions configures one branch-and-bound run.
type searchOptions struct {
	MaxNodes int64
	Deadline time.Time
	Workers  int
}

// search runs branch-and-bound over seed.Order, starting from the seed
// packing as incumbent. floor is a proven lower bound.
func search(ctx context.Context, seed Packing, capacity float64, floor int, opts searchOptions) searchResult {
	best := newIncumbent(seed)
	b := newBudget(ctx, opts.MaxNodes, opts.Deadline)
	root := newSearcher(seed.Order, capacity, floor, best, b)

	if best.Count() > floor && len(seed.Order) > 0 {
		if opts.Workers > 1 {
			root.parallel(ctx, opts.Workers)
		} else {
			root.dfs(0)
		}
	}

	count, assign := best.snapshot()
	return searchResult{
		Count:     count,
		Assign:    assign,
		Nodes:     b.nodes.Load(),
		Exhausted: b.exhausted.Load() && count > floor,
	}
}
