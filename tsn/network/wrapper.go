// Package network ties the graph, GCL, flow table and route-resolution
// closure together into the single object an optimiser mutates: insert new
// streams, push a TSN or AVB reconfiguration diff, and read back a scalar
// cost. Its expensive member (the flow arena) is shared by reference across
// clones; its mutable members (GCL, graph overlay, per-flow info) are
// deep-copied, so an optimiser can try a proposal against Clone() and
// discard it without disturbing the wrapper it branched from.
package network

import (
	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/gcl"
	"github.com/tsnfabric/gatesched/tsn/graph"
	"github.com/tsnfabric/gatesched/tsn/tsnsched"
)

// GetRouteFunc resolves a flow's chosen route given its record and its
// auxiliary info (typically a path index into a cached tsn/yens candidate
// list). T must be comparable so the wrapper can tell whether a flow's info
// changed since the last insert/reconfiguration round.
type GetRouteFunc[T comparable] func(flowtable.Flow, T) graph.Path

// Wrapper is the engine's per-round working state.
type Wrapper[T comparable] struct {
	table    *flowtable.FlowTable[T]
	g        *graph.Graph
	gates    *gcl.GCL
	getRoute GetRouteFunc[T]

	oldNew  map[int]OldNew[T]
	tsnFail bool
}

// New returns a Wrapper with an empty flow table over arena.
func New[T comparable](g *graph.Graph, gates *gcl.GCL, arena *flowtable.Arena, getRoute GetRouteFunc[T]) *Wrapper[T] {
	return &Wrapper[T]{
		table:    flowtable.NewFlowTable[T](arena),
		g:        g,
		gates:    gates,
		getRoute: getRoute,
		oldNew:   make(map[int]OldNew[T]),
	}
}

// Table returns the backing flow table.
func (w *Wrapper[T]) Table() *flowtable.FlowTable[T] { return w.table }

// Graph returns the backing topology.
func (w *Wrapper[T]) Graph() *graph.Graph { return w.g }

// Gates returns the backing gate control list.
func (w *Wrapper[T]) Gates() *gcl.GCL { return w.gates }

// TSNFail reports whether the most recent UpdateTSN call needed a full
// reschedule that still failed to fit.
func (w *Wrapper[T]) TSNFail() bool { return w.tsnFail }

// Insert discards the prior old-new snapshot, interns tsns then avbs with
// defaultInfo, and returns a diff recording every newly-born id. If the
// arena has already been handed out to a clone (true after any prior
// Insert, since this method always clones the table to build its result),
// a fresh arena is built first, replaying every existing flow's Seed so ids
// are preserved: growing the flow population never mutates a shared
// arena.
func (w *Wrapper[T]) Insert(tsns, avbs []flowtable.Seed, defaultInfo T) *flowtable.DiffFlowTable[T] {
	w.oldNew = nil

	if w.table.Arena().Shared() {
		w.rebuildArena()
	}

	ids := w.table.Insert(tsns, avbs, defaultInfo)
	isNew := make(map[int]bool, len(ids))
	for _, id := range ids {
		isNew[id] = true
	}

	reconf := w.table.CloneAsDiff()
	for _, id := range ids {
		reconf.UpdateInfo(id, func(T) T { return defaultInfo })
	}

	snapshot := make(map[int]OldNew[T])
	w.table.ForEach(func(f flowtable.Flow, info T) {
		if isNew[f.ID] {
			snapshot[f.ID] = OldNew[T]{}
		} else {
			snapshot[f.ID] = oldOf(info)
		}
	})
	w.oldNew = snapshot

	return reconf
}

// rebuildArena replaces the table's arena with a fresh one, reinserting
// every currently-active flow one at a time in ascending id order: since a
// fresh arena assigns ids purely by append position, replaying in id order
// reproduces every existing id exactly, regardless of the original
// tsn/avb call grouping.
func (w *Wrapper[T]) rebuildArena() {
	old := w.table
	arena := old.Arena()
	fresh := flowtable.NewFlowTable[T](flowtable.NewArena())

	n := arena.Len()
	for id := 0; id < n; id++ {
		f := arena.Flow(id)
		info, ok := old.GetInfo(id)
		if !ok {
			continue
		}
		seed := flowtable.Seed{
			Src: f.Src, Dst: f.Dst, Size: f.Size,
			Period: f.Period, MaxDelay: f.MaxDelay,
			Offset: f.Offset, Class: f.Class,
		}
		if f.Kind == flowtable.KindTSN {
			fresh.Insert([]flowtable.Seed{seed}, nil, info)
		} else {
			fresh.Insert(nil, []flowtable.Seed{seed}, info)
		}
	}

	w.table = fresh
}

// GetRoute resolves id's chosen path through the wrapper's route closure.
func (w *Wrapper[T]) GetRoute(id int) graph.Path {
	f := w.table.Arena().Flow(id)
	info, _ := w.table.GetInfo(id)

	return w.getRoute(f, info)
}

func (w *Wrapper[T]) linksOf(f flowtable.Flow, info T) []graph.Hop {
	hops, err := w.g.GetLinksIDBandwidth(w.getRoute(f, info))
	if err != nil {
		return nil
	}

	return hops
}

// UpdateTSN removes each diff-flow's previously committed GCL footprint,
// then reschedules via tsn/tsnsched, merging diff into the table
// regardless of outcome. Returns the scheduling error, if any; TSNFail
// reflects the same outcome for cost computation.
func (w *Wrapper[T]) UpdateTSN(diff *flowtable.DiffFlowTable[T]) error {
	for _, id := range diff.TSNDiff() {
		f := w.table.Arena().Flow(id)
		if info, ok := w.table.GetInfo(id); ok {
			hops := w.linksOf(f, info)
			linkIDs := make([]int, len(hops))
			for i, h := range hops {
				linkIDs[i] = h.LinkID
			}
			w.gates.DeleteFlow(linkIDs, id)
		}
	}

	_, err := tsnsched.ScheduleOnline[T](w.table, diff, w.gates, w.linksOf)
	w.tsnFail = err != nil

	return err
}

// UpdateAVB unregisters each diff-flow's prior path from the graph
// occupancy overlay, writes its new info, and registers the new path.
func (w *Wrapper[T]) UpdateAVB(diff *flowtable.DiffFlowTable[T]) {
	for _, id := range diff.AVBDiff() {
		f := w.table.Arena().Flow(id)
		if oldInfo, ok := w.table.GetInfo(id); ok {
			_ = w.g.UpdateFlowIDOnRoute(false, id, w.getRoute(f, oldInfo))
		}

		newInfo, _ := diff.GetInfo(id)
		w.table.UpdateInfo(id, func(T) T { return newInfo })
		_ = w.g.UpdateFlowIDOnRoute(true, id, w.getRoute(f, newInfo))
	}
}

// Clone returns a wrapper an optimiser can mutate and discard: the arena
// stays shared by reference (cheap), while the graph, the GCL, and the
// per-flow info are deep-copied so proposals never leak back into w.
func (w *Wrapper[T]) Clone() *Wrapper[T] {
	clone := &Wrapper[T]{
		table:    flowtable.CloneAsType(w.table, func(v T) T { return v }),
		g:        w.g.Clone(),
		gates:    w.gates.Clone(),
		getRoute: w.getRoute,
		tsnFail:  w.tsnFail,
	}

	clone.oldNew = make(map[int]OldNew[T], len(w.oldNew))
	for id, on := range w.oldNew {
		clone.oldNew[id] = on
	}

	return clone
}
