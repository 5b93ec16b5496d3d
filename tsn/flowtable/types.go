// Package flowtable implements the shared flow arena and the FlowTable /
// DiffFlowTable views over it. All flows live in one append-only Arena;
// tables only carry a per-id auxiliary-info slice plus a reference to the
// arena they were built from, so cloning a table is cheap and cloning the
// arena never happens.
package flowtable

import (
	"errors"
	"fmt"
	"sync"
)

// ErrArenaShared is the panic value raised by Insert when the arena has
// already been handed out to more than one table. Programmer error: the
// engine must finish all insertions before taking any clone.
var ErrArenaShared = errors.New("flowtable: arena mutated while aliased")

// ErrIDRange is the panic value raised when a flow id falls outside the
// arena's current bounds.
var ErrIDRange = errors.New("flowtable: flow id out of range")

// ErrArenaMismatch is the panic value raised by ApplyDiff when the target
// table and the diff table were not built from the same arena.
var ErrArenaMismatch = errors.New("flowtable: diff and table do not share an arena")

// Kind discriminates a flow's scheduling discipline.
type Kind uint8

const (
	KindTSN Kind = iota
	KindAVB
)

// Class is the AVB credit-based-shaper class.
type Class uint8

const (
	ClassA Class = iota
	ClassB
)

// Flow is an immutable stream record. TSN fields are meaningful only when
// Kind == KindTSN; AVB fields only when Kind == KindAVB.
type Flow struct {
	ID       int
	Src, Dst int
	Size     int // bytes
	Period   int
	MaxDelay int

	Kind   Kind
	Offset int   // TSN
	Class  Class // AVB
}

// Seed is the caller-supplied shape of a not-yet-interned flow.
type Seed struct {
	Src, Dst int
	Size     int
	Period   int
	MaxDelay int
	Offset   int   // used when inserted as TSN
	Class    Class // used when inserted as AVB
}

// Arena is the single append-only store of interned flows, shared by
// reference across every FlowTable/DiffFlowTable built on top of it.
type Arena struct {
	mu     sync.RWMutex
	flows  []Flow
	tsnIDs []int
	avbIDs []int
	shared bool
}

// NewArena returns an empty, unshared arena.
func NewArena() *Arena {
	return &Arena{}
}

// Len returns the number of interned flows.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.flows)
}

// Flow returns a copy of the flow record at id. Panics (ErrIDRange) if id
// is out of bounds.
func (a *Arena) Flow(id int) Flow {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id < 0 || id >= len(a.flows) {
		panic(fmt.Errorf("%w: %d", ErrIDRange, id))
	}

	return a.flows[id]
}

// TSNIDs returns a copy of every id interned as a TSN flow, in insertion order.
func (a *Arena) TSNIDs() []int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return append([]int(nil), a.tsnIDs...)
}

// AVBIDs returns a copy of every id interned as an AVB flow, in insertion order.
func (a *Arena) AVBIDs() []int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return append([]int(nil), a.avbIDs...)
}

// isShared reports whether more than one table has ever been handed this
// arena (set once, by markShared, and never cleared).
func (a *Arena) isShared() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.shared
}

// Shared reports whether this arena has ever been cloned out to a second
// table. Callers that grow the flow population after taking a clone (e.g.
// the network wrapper's reconfiguration round) must rebuild a fresh arena
// instead of calling Insert once this is true.
func (a *Arena) Shared() bool {
	return a.isShared()
}

func (a *Arena) markShared() {
	a.mu.Lock()
	a.shared = true
	a.mu.Unlock()
}

// insert appends tsns then avbs to the arena and returns their newly
// assigned ids, in that order. Panics (ErrArenaShared) if the arena has
// already been cloned out to a second table.
func (a *Arena) insert(tsns, avbs []Seed) []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.shared {
		panic(ErrArenaShared)
	}

	ids := make([]int, 0, len(tsns)+len(avbs))
	for _, s := range tsns {
		id := len(a.flows)
		a.flows = append(a.flows, Flow{
			ID: id, Src: s.Src, Dst: s.Dst, Size: s.Size,
			Period: s.Period, MaxDelay: s.MaxDelay,
			Kind: KindTSN, Offset: s.Offset,
		})
		a.tsnIDs = append(a.tsnIDs, id)
		ids = append(ids, id)
	}
	for _, s := range avbs {
		id := len(a.flows)
		a.flows = append(a.flows, Flow{
			ID: id, Src: s.Src, Dst: s.Dst, Size: s.Size,
			Period: s.Period, MaxDelay: s.MaxDelay,
			Kind: KindAVB, Class: s.Class,
		})
		a.avbIDs = append(a.avbIDs, id)
		ids = append(ids, id)
	}

	return ids
}
