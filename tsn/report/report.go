// Package report renders the CLI's human-readable per-round and
// exp_times-averaged summary output.
package report

import (
	"fmt"
	"io"

	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/network"
)

// Printer writes the engine's report to an underlying writer (typically
// os.Stdout from cmd/gatesched).
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer { return &Printer{w: w} }

func kindName(k flowtable.Kind) string {
	if k == flowtable.KindAVB {
		return "avb"
	}

	return "tsn"
}

// PrintRound writes one round's per-flow lines (id, kind, chosen path;
// for AVB flows also wcd/max_delay and whether it was rerouted this
// round) followed by a summary line of cost components and aggregate
// scalar cost.
func (p *Printer) PrintRound(label string, w *network.Wrapper[int], weights network.Weights) {
	fmt.Fprintf(p.w, "--- %s ---\n", label)

	w.Table().ForEach(func(f flowtable.Flow, info int) {
		path := w.GetRoute(f.ID)
		fmt.Fprintf(p.w, "flow id=%d kind=%s route=%v\n", f.ID, kindName(f.Kind), path)

		if f.Kind == flowtable.KindAVB {
			single := w.ComputeSingleAVBCost(f.ID)
			fmt.Fprintf(p.w, "  wcd/max_delay=%.4f rerouted=%v\n", single.AVBWCD, w.Changed(f.ID, info))
		}
	})

	cost := w.ComputeAllCost()
	fmt.Fprintf(p.w, "[%s] tsn_schedule_fail=%v avb_fail=%d/%d reroute_overhead=%d scalar_cost=%.4f\n",
		label, cost.TSNScheduleFail, cost.AVBFailCnt, cost.AVBCnt, cost.RerouteOverhead, cost.Scalar(weights))
}

// Summary is the averaged result of exp_times repeated experiment runs.
type Summary struct {
	Runs               int
	AvgScalarCost      float64
	AvgAVBFailCnt      float64
	AvgRerouteOverhead float64
	TSNFailRate        float64
}

// Average folds one scalar cost per completed run into a Summary. Returns
// the zero Summary if costs is empty.
func Average(costs []network.RoutingCost, weights network.Weights) Summary {
	n := len(costs)
	if n == 0 {
		return Summary{}
	}

	var sumScalar, sumFail, sumReroute float64
	var tsnFails int
	for _, c := range costs {
		sumScalar += c.Scalar(weights)
		sumFail += float64(c.AVBFailCnt)
		sumReroute += float64(c.RerouteOverhead)
		if c.TSNScheduleFail {
			tsnFails++
		}
	}

	return Summary{
		Runs:               n,
		AvgScalarCost:      sumScalar / float64(n),
		AvgAVBFailCnt:      sumFail / float64(n),
		AvgRerouteOverhead: sumReroute / float64(n),
		TSNFailRate:        float64(tsnFails) / float64(n),
	}
}

// PrintSummary writes s as the experiment's final averaged line.
func (p *Printer) PrintSummary(s Summary) {
	fmt.Fprintf(p.w, "=== summary over %d run(s): avg_scalar_cost=%.4f avg_avb_fail=%.3f avg_reroute=%.3f tsn_fail_rate=%.3f ===\n",
		s.Runs, s.AvgScalarCost, s.AvgAVBFailCnt, s.AvgRerouteOverhead, s.TSNFailRate)
}
