// Package gcl implements the Gate Control List: per-link sorted gate-close
// events, per-(link,queue) sorted occupancy events, a hyper-period kept as
// the LCM of every scheduled period, and a queue-assignment map.
//
// All time values are integer "time units" (the scheduler works in the same
// unit as flow.period/offset/max_delay); everything here assumes events lie
// within [0, hyper_period).
package gcl

import (
	"errors"
	"fmt"
	"sort"
)

// MaxQueue bounds the egress-queue id space a flow can be assigned to
// (ids 0..MaxQueue-1). Matches the TSN scheduler's MAX_QUEUE.
const MaxQueue = 8

// ErrOverlap is returned by InsertGateEvt when the new event collides with
// an existing gate event on the same link. The TSN scheduler treats this as
// "this queue assignment is exhausted, try the next one" rather than a fatal
// condition.
var ErrOverlap = errors.New("gcl: overlapping gate event")

// ErrLinkRange is returned when a link id is outside [0, edgeCount).
var ErrLinkRange = errors.New("gcl: link id out of range")

// gateEvent is one gate-close window on a link.
type gateEvent struct {
	start, duration uint32
	queue           uint8
	flow            int
}

// queueEvent is one occupancy window for a (link,queue) pair.
type queueEvent struct {
	start, duration uint32
	flow            int
}

// GCL is the Gate Control List for one topology snapshot.
type GCL struct {
	hyperP uint32

	gateEvt     [][]gateEvent
	gateLookup  [][]MergedEvent  // lazily computed, merge of adjacent gate events; nil = stale
	queueOccupy [][][]queueEvent // [link][queue][]queueEvent
	queueMap    map[linkFlow]uint8
}

type linkFlow struct {
	link, flow int
}

// MergedEvent is a (start, duration) pair with adjacent raw events coalesced.
type MergedEvent struct {
	Start, Duration uint32
}

// New returns a GCL with room for edgeCount links and an initial hyper
// period of hyperP.
func New(hyperP uint32, edgeCount int) *GCL {
	g := &GCL{hyperP: hyperP}
	g.allocate(edgeCount)

	return g
}

func (g *GCL) allocate(edgeCount int) {
	g.gateEvt = make([][]gateEvent, edgeCount)
	g.gateLookup = make([][]MergedEvent, edgeCount)
	g.queueOccupy = make([][][]queueEvent, edgeCount)
	for i := range g.queueOccupy {
		g.queueOccupy[i] = make([][]queueEvent, MaxQueue)
	}
	g.queueMap = make(map[linkFlow]uint8)
}

// GetHyperP returns the current hyper-period.
func (g *GCL) GetHyperP() uint32 { return g.hyperP }

// HasEvents reports whether any gate event is currently committed on any
// link.
func (g *GCL) HasEvents() bool {
	for _, evts := range g.gateEvt {
		if len(evts) > 0 {
			return true
		}
	}

	return false
}

// UpdateHyperP grows the hyper-period to lcm(current, newPeriod).
func (g *GCL) UpdateHyperP(newPeriod uint32) {
	g.hyperP = lcm(g.hyperP, newPeriod)
}

// Clear drops every event and queue binding, preserving link-count sizing
// and the hyper-period.
func (g *GCL) Clear() {
	edgeCount := len(g.gateEvt)
	g.allocate(edgeCount)
}

func lcm(a, b uint32) uint32 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}

	return a / gcd(a, b) * b
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

func (g *GCL) checkLink(link int) error {
	if link < 0 || link >= len(g.gateEvt) {
		return fmt.Errorf("%w: %d", ErrLinkRange, link)
	}

	return nil
}

// InsertGateEvt adds a gate-close window [start, start+duration) tagged with
// (flow, queue) to link's event list, keeping it sorted by start. Returns
// ErrOverlap (without mutating the list) if the window collides with an
// existing event on the same link.
func (g *GCL) InsertGateEvt(link, flow int, queue uint8, start, duration uint32) error {
	if err := g.checkLink(link); err != nil {
		return err
	}
	evts := g.gateEvt[link]
	pos := sort.Search(len(evts), func(i int) bool { return evts[i].start >= start })

	if pos > 0 && evts[pos-1].start+evts[pos-1].duration > start {
		return fmt.Errorf("%w: link %d flow %d at %d", ErrOverlap, link, flow, start)
	}
	if pos < len(evts) && start+duration > evts[pos].start {
		return fmt.Errorf("%w: link %d flow %d at %d", ErrOverlap, link, flow, start)
	}

	evts = append(evts, gateEvent{})
	copy(evts[pos+1:], evts[pos:])
	evts[pos] = gateEvent{start: start, duration: duration, queue: queue, flow: flow}
	g.gateEvt[link] = evts
	g.gateLookup[link] = nil

	return nil
}

// GetNextEmptyTime reports whether [start, start+duration) overlaps any
// existing gate event on link. It returns (0, false) when the window is
// already free (nothing to do) and (t, true) with the earliest time at
// or after start that clears every overlapping event otherwise.
func (g *GCL) GetNextEmptyTime(link int, start, duration uint32) (uint32, bool) {
	if g.checkLink(link) != nil {
		return 0, false
	}
	evts := g.gateEvt[link]
	cur := start
	conflict := false
	for _, e := range evts {
		if cur+duration <= e.start {
			break
		}
		if cur < e.start+e.duration {
			cur = e.start + e.duration
			conflict = true
		}
	}
	if !conflict {
		return 0, false
	}

	return cur, true
}

// MergedGateEvents returns link's gate events with adjacent/overlapping
// windows coalesced, computing and caching the result on first use after a
// mutation. Used by tsn/wcd to scan TSN interference windows.
func (g *GCL) MergedGateEvents(link int) []MergedEvent {
	if g.checkLink(link) != nil {
		return nil
	}
	if g.gateLookup[link] != nil {
		return g.gateLookup[link]
	}
	evts := g.gateEvt[link]
	merged := make([]MergedEvent, 0, len(evts))
	for _, e := range evts {
		if n := len(merged); n > 0 && merged[n-1].Start+merged[n-1].Duration >= e.start {
			end := e.start + e.duration
			if cur := merged[n-1].Start + merged[n-1].Duration; cur > end {
				end = cur
			}
			merged[n-1].Duration = end - merged[n-1].Start

			continue
		}
		merged = append(merged, MergedEvent{Start: e.start, Duration: e.duration})
	}
	g.gateLookup[link] = merged

	return merged
}

// InsertQueueEvt records that flow occupies (link,queue) during
// [start, start+duration). An event abutting or overlapping the
// immediately preceding event in that queue's list is coalesced into it
// rather than stored separately. A zero-duration window is a no-op.
func (g *GCL) InsertQueueEvt(link int, queue uint8, flow int, start, duration uint32) error {
	if err := g.checkLink(link); err != nil {
		return err
	}
	if duration == 0 {
		return nil
	}
	evts := g.queueOccupy[link][queue]
	pos := sort.Search(len(evts), func(i int) bool { return evts[i].start > start })

	if pos > 0 && evts[pos-1].start+evts[pos-1].duration >= start {
		end := start + duration
		if cur := evts[pos-1].start + evts[pos-1].duration; cur > end {
			end = cur
		}
		evts[pos-1].duration = end - evts[pos-1].start
		g.queueOccupy[link][queue] = evts

		return nil
	}

	evts = append(evts, queueEvent{})
	copy(evts[pos+1:], evts[pos:])
	evts[pos] = queueEvent{start: start, duration: duration, flow: flow}
	g.queueOccupy[link][queue] = evts

	return nil
}

// GetNextQueueEmptyTime returns the end time of the occupancy event on
// (link,queue) that contains t, or (0, false) if t falls in a gap.
func (g *GCL) GetNextQueueEmptyTime(link int, queue uint8, t uint32) (uint32, bool) {
	if g.checkLink(link) != nil {
		return 0, false
	}
	evts := g.queueOccupy[link][queue]
	pos := sort.Search(len(evts), func(i int) bool { return evts[i].start > t }) - 1
	if pos < 0 {
		return 0, false
	}
	e := evts[pos]
	if t < e.start+e.duration {
		return e.start + e.duration, true
	}

	return 0, false
}

// SetQueueID binds flow's egress queue on link.
func (g *GCL) SetQueueID(link, flow int, queue uint8) {
	g.queueMap[linkFlow{link, flow}] = queue
}

// GetQueueID returns the queue bound to flow on link, if any.
func (g *GCL) GetQueueID(link, flow int) (uint8, bool) {
	q, ok := g.queueMap[linkFlow{link, flow}]

	return q, ok
}

// DeleteFlow removes every gate event, queue event, and queue binding
// belonging to flow across the given links.
func (g *GCL) DeleteFlow(links []int, flow int) {
	for _, link := range links {
		if g.checkLink(link) != nil {
			continue
		}

		kept := g.gateEvt[link][:0]
		for _, e := range g.gateEvt[link] {
			if e.flow != flow {
				kept = append(kept, e)
			}
		}
		g.gateEvt[link] = kept
		g.gateLookup[link] = nil

		for q := 0; q < MaxQueue; q++ {
			evts := g.queueOccupy[link][q][:0]
			for _, e := range g.queueOccupy[link][q] {
				if e.flow != flow {
					evts = append(evts, e)
				}
			}
			g.queueOccupy[link][q] = evts
		}

		delete(g.queueMap, linkFlow{link, flow})
	}
}
