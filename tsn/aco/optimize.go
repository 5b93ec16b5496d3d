package aco

import (
	"math"
	"time"

	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/network"
	"github.com/tsnfabric/gatesched/tsn/wcd"
	"github.com/tsnfabric/gatesched/tsn/yens"
)

// Optimize runs the colony against wrapper's current flow population,
// using store for each flow's candidate routes, and returns the
// best-scoring wrapper found (wrapper itself if nothing improved on the
// cost of leaving every flow exactly where it is). wrapper is never
// mutated; every trial runs against a Clone.
func Optimize(wrapper *network.Wrapper[int], store *yens.Store, cfg Config, weights network.Weights, tLimit time.Duration, seed int64) *network.Wrapper[int] {
	n := wrapper.Table().Arena().Len()
	k := maxCandidateCount(wrapper, store)
	if k == 0 {
		return wrapper
	}

	engine := New(cfg, k, seed)
	engine.ExtendStateLen(n)
	vis := buildVisibility(wrapper, store, weights, cfg, n, k)

	best := wrapper
	bestDist := compress(wrapper.ComputeAllCost().Scalar(weights))

	judge := func(state []int) (Verdict, float64) {
		trial := tryState(wrapper, store, state)
		cost := trial.ComputeAllCost()
		dist := compress(cost.Scalar(weights))
		if dist < bestDist {
			bestDist = dist
			best = trial
		}
		v := KeepOn
		if cfg.FastStop && cost.AVBFailCnt == 0 && !cost.TSNScheduleFail {
			v = Stop
		}

		return v, dist
	}

	engine.Run(tLimit, vis, judge, bestDist)

	return best
}

// compress maps a raw scalar cost onto a 10^(cost-1) distance, so a unit
// cost improvement is rewarded exponentially rather than linearly.
func compress(cost float64) float64 {
	return math.Pow(10, cost-1)
}

// maxCandidateCount returns the largest candidate-route count across every
// active flow's (src,dst) pair, the pheromone matrix's column width.
func maxCandidateCount(w *network.Wrapper[int], store *yens.Store) int {
	max := 0
	w.Table().ForEach(func(f flowtable.Flow, _ int) {
		if c := store.GetRouteCount(f.Src, f.Dst); c > max {
			max = c
		}
	})

	return max
}

// buildVisibility scores every (flow, candidate) pair: 1/routeLength for a
// TSN flow, 1/(w1*deadlineMiss + w3*wcdRatio) for an AVB flow, estimated
// directly off the graph and GCL without touching the flow's committed
// route. A flow that hasn't changed since the round started has its
// current candidate's entry boosted by the configured memory factor,
// favouring leaving it alone.
func buildVisibility(w *network.Wrapper[int], store *yens.Store, weights network.Weights, cfg Config, n, k int) [][]float64 {
	vis := make([][]float64, n)
	for i := range vis {
		vis[i] = make([]float64, k)
	}

	w.Table().ForEach(func(f flowtable.Flow, cur int) {
		count := store.GetRouteCount(f.Src, f.Dst)
		for i := 0; i < count && i < k; i++ {
			cand := store.GetKthRoute(f.Src, f.Dst, i)
			switch f.Kind {
			case flowtable.KindTSN:
				if l := len(cand.Path); l > 0 {
					vis[f.ID][i] = 1.0 / float64(l)
				}
			case flowtable.KindAVB:
				latency, err := wcd.ComputeLatency(w.Graph(), w.Table().Arena(), w.Gates(), f.ID, cand.Path)
				if err != nil {
					continue
				}
				ratio := float64(latency) / float64(f.MaxDelay)
				var fail float64
				if ratio >= 1.0 {
					fail = 1
				}
				if c := weights.W1*fail + weights.W3*ratio; c > 0 {
					vis[f.ID][i] = 1.0 / c
				}
			}
		}

		if !w.Changed(f.ID, cur) && cur < k {
			mem := cfg.TSNMemory
			if f.Kind == flowtable.KindAVB {
				mem = cfg.AVBMemory
			}
			vis[f.ID][cur] *= mem
		}
	})

	return vis
}

// tryState clones wrapper and commits every flow whose candidate index in
// state differs from its current one: TSN flows reschedule online, AVB
// flows re-register on the graph. The clone is returned for cost
// evaluation or promotion to the new best; wrapper itself is untouched.
func tryState(wrapper *network.Wrapper[int], store *yens.Store, state []int) *network.Wrapper[int] {
	clone := wrapper.Clone()
	diff := clone.Table().CloneAsDiff()

	clone.Table().ForEach(func(f flowtable.Flow, cur int) {
		if f.ID >= len(state) {
			return
		}
		k := state[f.ID]
		if k == cur || k >= store.GetRouteCount(f.Src, f.Dst) {
			return
		}
		diff.UpdateInfo(f.ID, func(int) int { return k })
	})

	_ = clone.UpdateTSN(diff)
	clone.UpdateAVB(diff)

	return clone
}
