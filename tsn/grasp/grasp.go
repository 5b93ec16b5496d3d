// Package grasp implements the Greedy-Randomised-Adaptive-Search-Procedure
// route optimiser: a randomised greedy construction phase followed by a
// hill-climbing local search, both operating only on AVB flows (TSN routes
// are left exactly where tsn/tsnsched scheduled them). Its CLI entry point
// is the `grasp` algorithm name (see cmd/gatesched); `ro` is the separate
// no-op shortest-path baseline (tsn/network.RouteShortestPathOnly).
package grasp

import (
	"math"
	"math/rand"
	"time"

	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/network"
	"github.com/tsnfabric/gatesched/tsn/yens"
)

// Config holds the tunable GRASP parameters.
type Config struct {
	// AlphaPortion is the fraction of a flow's candidate routes considered
	// during the randomised-greedy construction phase.
	AlphaPortion float64
	// FastStop, when set, ends the search as soon as a zero-deadline-miss
	// routing is found, instead of running to the wall clock limit.
	FastStop bool
}

// DefaultConfig returns the engine's stock search parameters.
func DefaultConfig() Config {
	return Config{AlphaPortion: 0.5}
}

// Optimize searches wrapper's AVB routing for at most tLimit, alternating
// randomised-greedy construction with hill-climbing local search, and
// returns the best-scoring wrapper found (wrapper itself if nothing beat
// leaving every AVB flow exactly where it is). wrapper is never mutated;
// every trial runs against a Clone.
func Optimize(wrapper *network.Wrapper[int], store *yens.Store, cfg Config, weights network.Weights, tLimit time.Duration, seed int64) *network.Wrapper[int] {
	rng := rand.New(rand.NewSource(seed))
	deadline := time.Now().Add(tLimit)

	best := wrapper
	_, minCost := sumAVBCost(wrapper, weights)

	for time.Now().Before(deadline) {
		trial := constructionPhase(wrapper, store, cfg, weights, rng)
		failCnt, cost := sumAVBCost(trial, weights)

		stop := false
		if cost < minCost {
			best = trial
			minCost = cost
			if failCnt == 0 && cfg.FastStop {
				stop = true
			}
		}

		if !stop {
			if hcBest, hcFail, hcCost := hillClimb(trial, store, weights, deadline, rng, minCost); hcBest != nil {
				best = hcBest
				minCost = hcCost
				if hcFail == 0 && cfg.FastStop {
					stop = true
				}
			}
		}

		if stop {
			break
		}
	}

	return best
}

// constructionPhase greedily assigns every AVB flow, in ascending id
// order, the minimum-cost route out of a random alpha-sized subset of its
// candidates. Each flow's evaluation sees every earlier flow's just-chosen
// route already registered on the graph. Operates entirely on a fresh
// Clone of base; base is never touched.
func constructionPhase(base *network.Wrapper[int], store *yens.Store, cfg Config, weights network.Weights, rng *rand.Rand) *network.Wrapper[int] {
	trial := base.Clone()

	var avbIDs []int
	trial.Table().ForEach(func(f flowtable.Flow, _ int) {
		if f.Kind == flowtable.KindAVB {
			avbIDs = append(avbIDs, f.ID)
		}
	})

	for _, id := range avbIDs {
		f := trial.Table().Arena().Flow(id)
		count := store.GetRouteCount(f.Src, f.Dst)
		alpha := int(float64(count) * cfg.AlphaPortion)
		candidates := randomDistinctSubset(rng, alpha, count)
		k := findMinCostRoute(trial, store, f, candidates, weights)
		commitAVB(trial, id, k)
	}

	return trial
}

// hillClimb repeatedly rerouting a single random AVB flow to its current
// best candidate, accepting the move if it improves total AVB cost and
// reverting (by simply not committing) otherwise, until flowCnt
// consecutive non-improving draws or the deadline. Returns the best
// wrapper found along the way (nil if none improved on minCost), its
// fail count, and its cost.
func hillClimb(start *network.Wrapper[int], store *yens.Store, weights network.Weights, deadline time.Time, rng *rand.Rand, minCost float64) (best *network.Wrapper[int], bestFail int, bestCost float64) {
	w := start
	bestCost = minCost
	bestFail = math.MaxInt32
	n := w.Table().Arena().Len()
	if n == 0 {
		return nil, bestFail, bestCost
	}
	nonImprove := 0

	for time.Now().Before(deadline) {
		id := rng.Intn(n)
		f, ok := w.Table().GetAVB(id)
		if !ok {
			continue
		}
		oldK, _ := w.Table().GetInfo(id)

		count := store.GetRouteCount(f.Src, f.Dst)
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		newK := findMinCostRoute(w, store, f, all, weights)

		if newK == oldK {
			nonImprove++
			if nonImprove == n {
				break
			}
			continue
		}

		trial := w.Clone()
		commitAVB(trial, id, newK)
		failCnt, cost := sumAVBCost(trial, weights)

		if cost < bestCost {
			best = trial
			bestCost = cost
			bestFail = failCnt
			w = trial
			nonImprove = 0
			if failCnt == 0 {
				return best, 0, cost
			}
		} else {
			nonImprove++
			if nonImprove == n {
				break
			}
		}
	}

	return best, bestFail, bestCost
}
