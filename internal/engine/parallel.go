package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// subtreesPerWorker controls how finely the top of the tree is split before
// handing subtrees to workers.
const subtreesPerWorker = 4

// parallel splits the top of the search tree breadth-first into independent
// subtrees and explores them concurrently. Only the incumbent and the budget
// are shared; every subtree carries its own copy of the partial assignment.
func (s *searcher) parallel(ctx context.Context, workers int) {
	frontier := s.frontier(workers * subtreesPerWorker)
	if len(frontier) == 0 {
		return
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, st := range frontier {
		g.Go(func() error {
			if s.budget.halted() {
				return nil
			}
			w := s.fork(st)
			w.dfs(st.depth)
			return nil
		})
	}
	_ = g.Wait()
}

// frontier expands the root level by level until at least target open
// subtrees exist or the tree runs out. Complete assignments found on the way
// are offered to the incumbent directly.
func (s *searcher) frontier(target int) []subtree {
	level := []subtree{{depth: 0, assign: make([]int, len(s.items))}}

	for len(level) > 0 && len(level) < target {
		var next []subtree
		for _, st := range level {
			if !s.budget.spend() {
				return nil
			}
			w := s.fork(st)
			if st.depth == len(s.items) {
				if s.best.offer(len(w.residual), w.assign) && len(w.residual) <= s.floor {
					s.budget.done.Store(true)
					return nil
				}
				continue
			}
			if w.nodeBound(st.depth) >= s.best.Count() {
				continue
			}
			next = append(next, w.children(st.depth)...)
		}
		level = next
	}
	return level
}
