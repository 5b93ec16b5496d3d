package network

import (
	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/wcd"
)

// Weights scales each RoutingCost component into the final scalar cost.
type Weights struct {
	W0, W1, W2, W3 float64
}

// RoutingCost aggregates a reconfiguration round's schedulability and
// routing-stability signals.
type RoutingCost struct {
	TSNScheduleFail bool
	AVBFailCnt      int
	AVBWCD          float64 // Σ of wcd/max_delay over every AVB flow counted
	RerouteOverhead int     // flows whose current info differs from the old-new snapshot
	AVBCnt          int
	TSNCnt          int
}

// Scalar folds the components into a single cost using weights. AVB terms
// are guarded against division by zero when no AVB flow exists yet: an
// empty-AVB configuration is a normal TSN-only scenario, not a programmer
// error.
func (c RoutingCost) Scalar(w Weights) float64 {
	var fail float64
	if c.TSNScheduleFail {
		fail = 1
	}

	var avbFailTerm, avbWCDTerm float64
	if c.AVBCnt > 0 {
		avbFailTerm = float64(c.AVBFailCnt) / float64(c.AVBCnt)
		avbWCDTerm = c.AVBWCD / float64(c.AVBCnt)
	}

	var rerouteTerm float64
	if total := c.AVBCnt + c.TSNCnt; total > 0 {
		rerouteTerm = float64(c.RerouteOverhead) / float64(total)
	}

	return w.W0*fail + w.W1*avbFailTerm + w.W2*rerouteTerm + w.W3*avbWCDTerm
}

func (w *Wrapper[T]) changed(id int, current T) bool {
	on, ok := w.oldNew[id]
	if !ok {
		return false
	}

	return on.changed(current)
}

// Changed reports whether id's current info differs from the snapshot
// recorded at the start of the current round; never true for a flow born
// this round, since it has no prior route to compare against. Exposed for
// optimisers (package tsn/aco) that need to favour an existing flow's
// prior route when building a visibility/heuristic matrix.
func (w *Wrapper[T]) Changed(id int, current T) bool {
	return w.changed(id, current)
}

// ComputeSingleAVBCost returns the cost contribution of one AVB flow in
// isolation: its own WCD ratio and deadline-miss flag, plus whether it was
// individually rerouted this round. Used by the optimisers to predict a
// candidate route's cost without committing it or folding in every other
// flow's state.
//
// A flow's WCD ratio is considered a deadline miss at ratio >= 1.0, the
// same threshold ComputeAllCost applies, so a single flow's verdict never
// depends on which of the two entry points reports it.
func (w *Wrapper[T]) ComputeSingleAVBCost(id int) RoutingCost {
	f := w.table.Arena().Flow(id)
	info, _ := w.table.GetInfo(id)

	cost := RoutingCost{AVBCnt: 1}
	if w.changed(id, info) {
		cost.RerouteOverhead = 1
	}

	latency, err := wcd.ComputeLatency(w.g, w.table.Arena(), w.gates, id, w.getRoute(f, info))
	if err != nil {
		return cost
	}
	ratio := float64(latency) / float64(f.MaxDelay)
	cost.AVBWCD = ratio
	if ratio >= 1.0 {
		cost.AVBFailCnt = 1
	}

	return cost
}

// ComputeAllCost folds every active flow's contribution into one
// RoutingCost: TSN/AVB counts, total reroute overhead, and every AVB flow's
// WCD ratio and deadline-miss flag.
func (w *Wrapper[T]) ComputeAllCost() RoutingCost {
	cost := RoutingCost{TSNScheduleFail: w.tsnFail}

	w.table.ForEach(func(f flowtable.Flow, info T) {
		if w.changed(f.ID, info) {
			cost.RerouteOverhead++
		}

		switch f.Kind {
		case flowtable.KindTSN:
			cost.TSNCnt++
		case flowtable.KindAVB:
			cost.AVBCnt++
			latency, err := wcd.ComputeLatency(w.g, w.table.Arena(), w.gates, f.ID, w.getRoute(f, info))
			if err != nil {
				return
			}
			ratio := float64(latency) / float64(f.MaxDelay)
			cost.AVBWCD += ratio
			if ratio >= 1.0 {
				cost.AVBFailCnt++
			}
		}
	})

	return cost
}
