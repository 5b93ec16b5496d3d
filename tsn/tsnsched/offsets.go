package tsnsched

import (
	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/gcl"
	"github.com/tsnfabric/gatesched/tsn/graph"
)

// calculateOffsets computes one candidate frame's per-hop gate-open offset
// for flow, given the offsets already committed to allOffsets for earlier
// frames of the same flow (nil for the first frame attempted at this queue
// assignment) and the queue ids ro this attempt is trying. It returns a
// slice shorter than links when the flow's deadline is blown partway
// through; the caller must then discard the attempt and either retry with
// a new queue assignment or give up.
func calculateOffsets(flow flowtable.Flow, allOffsets [][]uint32, links []graph.Hop, ro []uint8, gates *gcl.GCL) []uint32 {
	offsets := make([]uint32, 0, len(links))
	hyperP := gates.GetHyperP()
	period := uint32(flow.Period)

	for i, hop := range links {
		transTime := ceilDiv(MTU, hop.Bandwidth)

		var arrive uint32
		switch {
		case i == 0 && len(allOffsets) == 0:
			arrive = uint32(flow.Offset)
		case i == 0:
			arrive = allOffsets[len(allOffsets)-1][0] + transTime
		default:
			prevTrans := ceilDiv(MTU, links[i-1].Bandwidth)
			a := offsets[i-1] + prevTrans
			if len(allOffsets) == 0 {
				arrive = a
			} else {
				b := allOffsets[len(allOffsets)-1][i] + transTime
				if a > b {
					arrive = a
				} else {
					arrive = b
				}
			}
		}

		cur := arrive
		for timeShift := uint32(0); timeShift < hyperP; timeShift += period {
		retry:
			if t, ok := gates.GetNextEmptyTime(hop.LinkID, timeShift+cur, transTime); ok {
				cur = t - timeShift
				if missDeadline(cur, transTime, flow) {
					return offsets
				}
				goto retry
			}
			if i < len(links)-1 {
				if t, ok := gates.GetNextQueueEmptyTime(links[i+1].LinkID, ro[i], timeShift+cur+transTime); ok {
					cur = t - timeShift
					if missDeadline(cur, transTime, flow) {
						return offsets
					}
					goto retry
				}
			}
			if missDeadline(cur, transTime, flow) {
				return offsets
			}
		}

		offsets = append(offsets, cur)
	}

	return offsets
}

// missDeadline reports whether a frame starting at offset, occupying the
// link for transTime, would arrive at or after the flow's admissible
// window close (its release offset plus its max end-to-end delay).
func missDeadline(offset, transTime uint32, flow flowtable.Flow) bool {
	return offset+transTime >= uint32(flow.Offset)+uint32(flow.MaxDelay)
}

// assignNewQueues bumps every hop's trial queue id by one, in lock-step:
// a single flow occupies exactly one queue per hop and all entries start
// from the same value. Returns errQueuesExhausted once the ids would run
// off the end of the available queue space.
func assignNewQueues(ro []uint8) error {
	if len(ro) > 0 && ro[0] == MaxQueue-1 {
		return errQueuesExhausted
	}
	for i := range ro {
		ro[i]++
	}

	return nil
}
