package grasp

import (
	"math"
	"math/rand"

	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/network"
	"github.com/tsnfabric/gatesched/tsn/wcd"
	"github.com/tsnfabric/gatesched/tsn/yens"
)

// sumAVBCost folds every AVB flow's individual cost (deadline-miss flag
// and WCD ratio, per tsn/network.ComputeSingleAVBCost) into a total. The
// reroute-overhead term plays no role here: GRASP never compares a
// candidate against the pre-round snapshot, only against other candidates
// for the same flow.
func sumAVBCost(w *network.Wrapper[int], weights network.Weights) (failCnt int, cost float64) {
	w.Table().ForEach(func(f flowtable.Flow, _ int) {
		if f.Kind != flowtable.KindAVB {
			return
		}
		single := w.ComputeSingleAVBCost(f.ID)
		failCnt += single.AVBFailCnt

		var fail float64
		if single.AVBFailCnt > 0 {
			fail = 1
		}
		cost += weights.W1*fail + weights.W3*single.AVBWCD
	})

	return
}

// findMinCostRoute returns the candidate index in candidates with the
// lowest single-flow cost, estimated directly off the graph and GCL
// without committing anything (wcd.ComputeLatency always excludes the
// flow's own id from overlap, so no temporary deregistration is needed).
// Defaults to index 0 if candidates is empty.
func findMinCostRoute(w *network.Wrapper[int], store *yens.Store, f flowtable.Flow, candidates []int, weights network.Weights) int {
	bestK, bestCost := 0, math.MaxFloat64
	for _, k := range candidates {
		path := store.GetKthRoute(f.Src, f.Dst, k).Path
		latency, err := wcd.ComputeLatency(w.Graph(), w.Table().Arena(), w.Gates(), f.ID, path)
		if err != nil {
			continue
		}
		ratio := float64(latency) / float64(f.MaxDelay)
		var fail float64
		if ratio >= 1.0 {
			fail = 1
		}
		cost := weights.W1*fail + weights.W3*ratio
		if cost < bestCost {
			bestCost = cost
			bestK = k
		}
	}

	return bestK
}

func commitAVB(w *network.Wrapper[int], id, k int) {
	diff := w.Table().CloneAsDiff()
	diff.UpdateInfo(id, func(int) int { return k })
	w.UpdateAVB(diff)
}

// randomDistinctSubset returns n distinct indices out of [0,k) in random
// order. n is clamped to [0,k]; n<=0 (candidate count too small for
// AlphaPortion to round up to at least one) yields an empty subset.
func randomDistinctSubset(rng *rand.Rand, n, k int) []int {
	if n > k {
		n = k
	}
	if n <= 0 {
		return nil
	}

	perm := rng.Perm(k)

	return perm[:n]
}
