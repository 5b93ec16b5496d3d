// Package tsnsched assigns per-flow, per-hop gate-open offsets and egress
// queue ids to TSN flows, writing the result into a GCL. It offers both a
// full reschedule (ScheduleFixedOG, usable standalone as an offline
// scheduler) and an incremental mode (ScheduleOnline) that schedules only a
// diff's changed flows first, falling back to a full reschedule when that
// fails to fit.
package tsnsched

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/gcl"
	"github.com/tsnfabric/gatesched/tsn/graph"
)

// MTU bounds how many bytes a single TSN frame carries; a flow whose Size
// exceeds MTU is split across multiple frames transmitted back to back.
const MTU = 1500

// MaxQueue is the number of egress queues available per port (ids 0..7).
// The scheduler tries queue ids 0..MaxQueue-1 in turn, starting at 0,
// before reporting the queue space exhausted.
const MaxQueue = gcl.MaxQueue

// ErrUnschedulable is returned when a TSN flow cannot be fit into the
// hyper-period at any queue assignment.
var ErrUnschedulable = errors.New("tsnsched: flow cannot be scheduled within its deadline")

// errQueuesExhausted signals assignNewQueues ran out of ids to try; always
// wrapped into ErrUnschedulable before leaving the package.
var errQueuesExhausted = errors.New("tsnsched: no queue assignment fits this flow")

// GetLinksFunc resolves a flow's route to its ordered hops (link id plus
// bandwidth), given the flow record and its auxiliary info. Callers
// typically close over a *graph.Graph and the field of T holding the
// flow's chosen route.
type GetLinksFunc[T any] func(flowtable.Flow, T) []graph.Hop

// entry pairs a flow with its auxiliary info for the duration of a
// scheduling pass, so the route only needs to be resolved once per flow.
type entry[T any] struct {
	flow     flowtable.Flow
	info     T
	links    []graph.Hop
	frameCnt int
}

// FrameCount returns how many MTU-sized frames a flow of size bytes splits
// into.
func FrameCount(size int) int {
	return int(math.Ceil(float64(size) / float64(MTU)))
}

// ScheduleFixedOG schedules every TSN flow currently active in table from
// scratch, clearing no state of its own: callers that want a clean slate
// must call gates.Clear() first. Returns ErrUnschedulable if any flow does
// not fit.
func ScheduleFixedOG[T any](table *flowtable.FlowTable[T], gates *gcl.GCL, getLinks GetLinksFunc[T]) error {
	return scheduleEntries(collectAllTSN(table, getLinks), gates, getLinks)
}

// ScheduleOnline schedules only diff's changed TSN flows against the
// existing gate schedule, then merges the diff's TSN-changed ids into
// ogTable regardless of outcome. If the incremental attempt fails to fit,
// it clears gates and reschedules every TSN flow in ogTable from scratch.
//
// Returns true if a full reschedule was needed, false if the incremental
// attempt succeeded. Returns ErrUnschedulable if even the full reschedule
// does not fit.
func ScheduleOnline[T any](ogTable *flowtable.FlowTable[T], diff *flowtable.DiffFlowTable[T], gates *gcl.GCL, getLinks GetLinksFunc[T]) (bool, error) {
	diffEntries := make([]entry[T], 0, len(diff.TSNDiff()))
	for _, id := range diff.TSNDiff() {
		f := diff.Arena().Flow(id)
		info, _ := diff.GetInfo(id)
		links := getLinks(f, info)
		diffEntries = append(diffEntries, entry[T]{flow: f, info: info, links: links, frameCnt: FrameCount(f.Size)})
	}

	// A diff whose periods grow the hyper-period invalidates the incremental
	// path: the already-committed events only cover the old, shorter
	// hyper-period, so placing new frames against them in the extension would
	// be checked against a hole, not a schedule. Fall straight through to the
	// full reschedule in that case.
	oldHyper := gates.GetHyperP()
	hadEvents := gates.HasEvents()
	for _, e := range diffEntries {
		gates.UpdateHyperP(uint32(e.flow.Period))
	}

	var err error
	if gates.GetHyperP() != oldHyper && hadEvents {
		err = fmt.Errorf("%w: hyper-period grew from %d to %d", ErrUnschedulable, oldHyper, gates.GetHyperP())
	} else {
		err = scheduleEntries(diffEntries, gates, getLinks)
	}

	// The TSN-changed subset merges into the running table whether or not
	// the incremental attempt fit.
	ogTable.ApplyDiff(false, diff)

	if err == nil {
		return false, nil
	}

	gates.Clear()
	if err := scheduleEntries(collectAllTSN(ogTable, getLinks), gates, getLinks); err != nil {
		return true, err
	}

	return true, nil
}

func collectAllTSN[T any](table *flowtable.FlowTable[T], getLinks GetLinksFunc[T]) []entry[T] {
	var out []entry[T]
	table.ForEach(func(f flowtable.Flow, info T) {
		if f.Kind != flowtable.KindTSN {
			return
		}
		links := getLinks(f, info)
		out = append(out, entry[T]{flow: f, info: info, links: links, frameCnt: FrameCount(f.Size)})
	})

	return out
}

// scheduleEntries sorts entries by cmpFlow ordering and commits each flow's
// gate and queue-occupancy events to gates in turn. A later entry's
// scheduling attempt sees every earlier entry's committed events, so order
// matters: entries are sorted once, up front.
func scheduleEntries[T any](entries []entry[T], gates *gcl.GCL, getLinks GetLinksFunc[T]) error {
	// Fold every period into the hyper-period up front: calculateOffsets
	// probes every time shift within it, so a later entry's period must
	// already be accounted for when an earlier entry commits its events.
	for _, e := range entries {
		gates.UpdateHyperP(uint32(e.flow.Period))
	}

	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })

	for _, e := range entries {
		if len(e.links) == 0 {
			continue
		}
		ro := make([]uint8, len(e.links))
		var allOffsets [][]uint32
		m := 0
		for m < e.frameCnt {
			offsets := calculateOffsets(e.flow, allOffsets, e.links, ro, gates)
			if len(offsets) == len(e.links) {
				allOffsets = append(allOffsets, offsets)
				m++
				continue
			}
			allOffsets = nil
			m = 0
			if err := assignNewQueues(ro); err != nil {
				return fmt.Errorf("%w: flow %d: %v", ErrUnschedulable, e.flow.ID, err)
			}
		}

		commit(gates, e, ro, allOffsets)
	}

	return nil
}

// less implements cmp_flow's ordering: ascending max delay, then ascending
// period, then descending route length (longer routes are scheduled
// first, since they have the least slack to find a conflict-free slot).
func less[T any](a, b entry[T]) bool {
	if a.flow.MaxDelay != b.flow.MaxDelay {
		return a.flow.MaxDelay < b.flow.MaxDelay
	}
	if a.flow.Period != b.flow.Period {
		return a.flow.Period < b.flow.Period
	}

	return len(a.links) > len(b.links)
}

// commit writes every frame's gate-open event and the preceding
// queue-occupancy event for each hop of e, repeated every period across
// the hyper-period, and binds the flow to its chosen queue on each link.
func commit[T any](gates *gcl.GCL, e entry[T], ro []uint8, allOffsets [][]uint32) {
	hyperP := gates.GetHyperP()
	period := uint32(e.flow.Period)

	for i, hop := range e.links {
		queueID := ro[i]
		transTime := ceilDiv(MTU, hop.Bandwidth)
		gates.SetQueueID(hop.LinkID, e.flow.ID, queueID)

		for timeShift := uint32(0); timeShift < hyperP; timeShift += period {
			for m := 0; m < e.frameCnt; m++ {
				start := allOffsets[m][i]
				_ = gates.InsertGateEvt(hop.LinkID, e.flow.ID, queueID, timeShift+start, transTime)

				var queueStart uint32
				if i == 0 {
					queueStart = uint32(e.flow.Offset)
				} else {
					queueStart = allOffsets[m][i-1]
				}
				// start >= queueStart always holds: a hop's offset never
				// precedes the offset that fed it. GCL.InsertQueueEvt is a
				// no-op on a zero-duration window.
				_ = gates.InsertQueueEvt(hop.LinkID, queueID, e.flow.ID, timeShift+queueStart, start-queueStart)
			}
		}
	}
}

func ceilDiv(mtu int, bandwidth float64) uint32 {
	return uint32(math.Ceil(float64(mtu) / bandwidth))
}
