// Package wcd computes the worst-case end-to-end delay of an AVB stream:
// per-hop credit-shaper interference from co-located AVBs plus TSN gate
// interference read off the GCL.
package wcd

import (
	"fmt"
	"math"

	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/gcl"
	"github.com/tsnfabric/gatesched/tsn/graph"
)

// MaxBESize is the largest best-effort frame an AVB stream must wait
// behind on every hop, in bytes.
const MaxBESize = 1500.0

// AVBShare is the fraction of link bandwidth the credit-based shaper
// reserves for AVB traffic.
const AVBShare = 0.75

// ComputeLatency returns the worst-case end-to-end delay (truncated to
// whole time units) of flow selfID along path, given the current flow
// occupancy recorded on g and the TSN gate schedule in gates.
//
// Panics if selfID does not name an AVB flow in arena.
func ComputeLatency(g *graph.Graph, arena *flowtable.Arena, gates *gcl.GCL, selfID int, path graph.Path) (int, error) {
	self := arena.Flow(selfID)
	if self.Kind != flowtable.KindAVB {
		panic(fmt.Sprintf("wcd: flow %d is not an AVB flow", selfID))
	}

	hops, err := g.GetLinksIDBandwidth(path)
	if err != nil {
		return 0, err
	}
	overlaps, err := g.GetOverlapFlows(path)
	if err != nil {
		return 0, err
	}

	var total float64
	for i, hop := range hops {
		w := singleLinkWCD(arena, self, hop.Bandwidth, overlaps[i])
		total += w + float64(tsnInterference(gates, hop.LinkID, w))
	}

	return int(math.Floor(total)), nil
}

// singleLinkWCD is the credit-shaper contribution at one hop: the worst
// case best-effort frame, this flow's own transmission, and every other
// AVB sharing the hop that contributes under the class rule (self is
// class B, or the other flow is class A).
func singleLinkWCD(arena *flowtable.Arena, self flowtable.Flow, bandwidth float64, overlap map[int]struct{}) float64 {
	shaped := AVBShare * bandwidth
	wcd := MaxBESize/bandwidth + float64(self.Size)/shaped

	for id := range overlap {
		if id == self.ID {
			continue
		}
		other := arena.Flow(id)
		if other.Kind != flowtable.KindAVB {
			continue
		}
		if self.Class == flowtable.ClassB || other.Class == flowtable.ClassA {
			wcd += float64(other.Size) / shaped
		}
	}

	return wcd
}

// tsnInterference slides a cursor of length wcd across the merged gate
// events of link, starting from each event in turn, accumulating gate
// durations until the non-gate time between them would exceed wcd. It
// returns the largest accumulated gate time found across every starting
// point. The scan does not wrap past the last event back to the start of
// the hyper-period.
func tsnInterference(gates *gcl.GCL, link int, wcd float64) int {
	evts := gates.MergedGateEvents(link)
	iMax := 0
	rem0 := int(wcd)

	for start := 0; start < len(evts); start++ {
		iCur := 0
		rem := rem0
		j := start
		for rem >= 0 {
			e := evts[j]
			iCur += int(e.Duration)
			j++
			if j == len(evts) {
				break
			}
			next := evts[j]
			rem -= int(next.Start) - (int(e.Start) + int(e.Duration))
		}
		if iCur > iMax {
			iMax = iCur
		}
	}

	return iMax
}
