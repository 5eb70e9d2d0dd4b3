package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/tubenest/internal/model"
)

func TestBranchTargets_TightestFitFirst(t *testing.T) {
	residual := []float64{50, 20, 35, 10}
	targets, openNew := branchTargets(nil, residual, 15, 100, 0)

	assert.Equal(t, []int{1, 2, 0}, targets, "tube 3 is too small, rest by remaining capacity")
	assert.True(t, openNew)
}

func TestBranchTargets_EqualRemainingCapacityBranchesOnce(t *testing.T) {
	residual := []float64{30, 30, 40, 30}
	targets, _ := branchTargets(nil, residual, 25, 100, 0)
	assert.Equal(t, []int{0, 2}, targets)
}

func TestBranchTargets_NoNewTubeWhileOneIsEmpty(t *testing.T) {
	residual := []float64{20, 100}
	targets, openNew := branchTargets(nil, residual, 30, 100, 0)
	assert.Equal(t, []int{1}, targets)
	assert.False(t, openNew, "an empty open tube is identical to a new one")
}

func TestNodeBound(t *testing.T) {
	order := sortedItems(itemsOf(5, 4, 3, 3, 3, 2))
	s := newSearcher(order, 10, 0, nil, nil)

	assert.Equal(t, 2, s.nodeBound(0), "volume bound at the root")

	// 5 and 4 share a tube: 1 left is waste for the remaining 3,3,3,2.
	s.residual = []float64{1}
	assert.Equal(t, 3, s.nodeBound(2))

	s.residual = []float64{5, 6}
	assert.Equal(t, 2, s.nodeBound(2))
}

func TestNodeBound_LargeItemsNeedOwnTubes(t *testing.T) {
	order := sortedItems(itemsOf(60, 60, 60, 5))
	s := newSearcher(order, 100, 0, nil, nil)
	assert.Equal(t, 3, s.nodeBound(0))

	s.residual = []float64{40}
	assert.Equal(t, 3, s.nodeBound(1), "two more items over half a tube that fit nowhere")
}

func TestSearch_ImprovesOnFirstFitDecreasing(t *testing.T) {
	seed := FirstFitDecreasing(itemsOf(5, 4, 3, 3, 3, 2), 10)
	require.Equal(t, 3, seed.Count)

	res := search(context.Background(), seed, 10, 2, searchOptions{})

	assert.Equal(t, 2, res.Count)
	assert.False(t, res.Exhausted)
	assert.Positive(t, res.Nodes)
	assertAssignmentFits(t, seed, res.Assign, 10)
}

func TestSearch_NodeBudgetKeepsIncumbent(t *testing.T) {
	seed := FirstFitDecreasing(itemsOf(5, 4, 3, 3, 3, 2), 10)

	res := search(context.Background(), seed, 10, 2, searchOptions{MaxNodes: 1})

	assert.True(t, res.Exhausted)
	assert.Equal(t, 3, res.Count, "the seed packing is returned")
	assert.Equal(t, seed.Assign, res.Assign)
}

func TestSearch_CancelledContextIsExhaustion(t *testing.T) {
	items := randomLengths(rand.New(rand.NewSource(7)), 60, 100)
	seed := FirstFitDecreasing(items, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := search(ctx, seed, 100, LowerBound(items, 100), searchOptions{Deadline: time.Now().Add(-time.Second)})

	assert.True(t, res.Exhausted)
	assert.LessOrEqual(t, res.Count, seed.Count)
	assertAssignmentFits(t, seed, res.Assign, 100)
}

func TestSearch_ParallelMatchesSequential(t *testing.T) {
	items := itemsOf(5, 5, 4, 4, 3, 3, 3, 3, 3, 3, 2, 2)
	seed := FirstFitDecreasing(items, 10)
	require.Equal(t, 5, seed.Count)

	seq := search(context.Background(), seed, 10, 4, searchOptions{})
	par := search(context.Background(), seed, 10, 4, searchOptions{Workers: 4})

	assert.Equal(t, 4, seq.Count)
	assert.Equal(t, seq.Count, par.Count)
	assert.False(t, par.Exhausted)
	assertAssignmentFits(t, seed, par.Assign, 10)
}

func TestSearch_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 40; round++ {
		n := 3 + rng.Intn(6)
		items := randomLengths(rng, n, 100)
		seed := FirstFitDecreasing(items, 100)
		floor := max(LowerBound(items, 100), newSearcher(seed.Order, 100, 0, nil, nil).nodeBound(0))

		for _, workers := range []int{1, 3} {
			res := search(context.Background(), seed, 100, floor, searchOptions{Workers: workers})
			want := bruteForceTubes(lengthsOf(items), 100)

			require.False(t, res.Exhausted)
			require.Equal(t, want, res.Count, "round %d workers %d lengths %v", round, workers, lengthsOf(items))
			assertAssignmentFits(t, seed, res.Assign, 100)
		}
	}
}

func randomLengths(rng *rand.Rand, n int, capacity int) []model.Item {
	lengths := make([]float64, n)
	for i := range lengths {
		lengths[i] = float64(10 + rng.Intn(capacity*7/10))
	}
	return itemsOf(lengths...)
}

// bruteForceTubes enumerates every partition of the lengths into tubes.
func bruteForceTubes(lengths []float64, capacity float64) int {
	best := len(lengths)
	var bins []float64
	var rec func(i int)
	rec = func(i int) {
		if len(bins) >= best {
			return
		}
		if i == len(lengths) {
			best = len(bins)
			return
		}
		for j := range bins {
			if bins[j]+lengths[i] <= capacity {
				bins[j] += lengths[i]
				rec(i + 1)
				bins[j] -= lengths[i]
			}
		}
		bins = append(bins, lengths[i])
		rec(i + 1)
		bins = bins[:len(bins)-1]
	}
	rec(0)
	return best
}

func assertAssignmentFits(t *testing.T, seed Packing, assign []int, capacity float64) {
	t.Helper()
	require.Len(t, assign, len(seed.Order))
	used := map[int]float64{}
	for i, it := range seed.Order {
		used[assign[i]] += it.Length
	}
	for tube, u := range used {
		assert.LessOrEqual(t, u, capacity, "tube %d over capacity", tube)
	}
}
