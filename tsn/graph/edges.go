package graph

import "fmt"

// AddEdge inserts a bidirectional link between u and v with the given
// bandwidth. Two Edge values are created, u->v and v->u, with consecutive
// ids (u->v even, v->u odd), so callers can derive one direction's id from
// the other with a single XOR 1.
//
// Fails with ErrTopology if either endpoint is missing or inactive.
//
// Complexity: O(1).
func (g *Graph) AddEdge(u, v int, bandwidth float64) (int, error) {
	if !g.NodeActive(u) {
		return 0, fmt.Errorf("%w: endpoint %d missing or inactive", ErrTopology, u)
	}
	if !g.NodeActive(v) {
		return 0, fmt.Errorf("%w: endpoint %d missing or inactive", ErrTopology, v)
	}

	g.muEdges.Lock()
	defer g.muEdges.Unlock()

	fwdID := g.nextLinkID
	g.nextLinkID++
	revID := g.nextLinkID
	g.nextLinkID++

	fwd := &Edge{ID: fwdID, From: u, To: v, Bandwidth: bandwidth, Active: true, Flows: make(map[int]struct{})}
	rev := &Edge{ID: revID, From: v, To: u, Bandwidth: bandwidth, Active: true, Flows: make(map[int]struct{})}
	g.edges[fwdID] = fwd
	g.edges[revID] = rev

	if g.adjacency[u] == nil {
		g.adjacency[u] = make(map[int]int)
	}
	if g.adjacency[v] == nil {
		g.adjacency[v] = make(map[int]int)
	}
	g.adjacency[u][v] = fwdID
	g.adjacency[v][u] = revID

	return fwdID, nil
}

// LinkCount returns the number of directed links allocated so far (twice
// the number of AddEdge calls), the size cmd/gatesched needs to pass as
// tsn/gcl.New's edgeCount.
func (g *Graph) LinkCount() int {
	g.muEdges.RLock()
	defer g.muEdges.RUnlock()

	return g.nextLinkID
}

// DelEdge removes both directions of the link identified by either of its
// two edge ids.
func (g *Graph) DelEdge(linkID int) error {
	g.muEdges.Lock()
	defer g.muEdges.Unlock()

	e, ok := g.edges[linkID]
	if !ok {
		return fmt.Errorf("%w: %w: link %d", ErrTopology, ErrEdgeNotFound, linkID)
	}
	other, ok := g.adjacency[e.To][e.From]
	delete(g.edges, linkID)
	if m, ok2 := g.adjacency[e.From]; ok2 {
		delete(m, e.To)
	}
	if ok {
		delete(g.edges, other)
		if m, ok2 := g.adjacency[e.To]; ok2 {
			delete(m, e.From)
		}
	}

	return nil
}

// InactivateEdge marks a single directed edge inactive. Unlike DelEdge this
// does not touch the reverse direction and is reversible via Reset or
// ActivateEdge.
func (g *Graph) InactivateEdge(linkID int) error {
	return g.setEdgeActive(linkID, false)
}

// ActivateEdge reverses a single InactivateEdge call without touching any
// other deactivated edge or node. Used by yens to scope deviation search
// without disturbing unrelated topology state.
func (g *Graph) ActivateEdge(linkID int) error {
	return g.setEdgeActive(linkID, true)
}

func (g *Graph) setEdgeActive(linkID int, active bool) error {
	g.muEdges.Lock()
	defer g.muEdges.Unlock()
	e, ok := g.edges[linkID]
	if !ok {
		return ErrEdgeNotFound
	}
	e.Active = active

	return nil
}

// ForeachEdge invokes fn once per stored Edge (both directions), in
// unspecified order. fn must not mutate the graph.
func (g *Graph) ForeachEdge(fn func(e *Edge)) {
	g.muEdges.RLock()
	defer g.muEdges.RUnlock()
	for _, e := range g.edges {
		fn(e)
	}
}

// Neighbors returns the active out-edges of u: directed edges whose From is
// u, to active destination nodes, over an active edge.
//
// Complexity: O(deg(u)).
func (g *Graph) Neighbors(u int) []*Edge {
	g.muEdges.RLock()
	defer g.muEdges.RUnlock()

	out := make([]*Edge, 0, len(g.adjacency[u]))
	for v, eid := range g.adjacency[u] {
		e := g.edges[eid]
		if e == nil || !e.Active {
			continue
		}
		if !g.NodeActive(v) {
			continue
		}
		out = append(out, e)
	}

	return out
}

// edgeBetween returns the directed edge u->v, or nil if none exists.
func (g *Graph) edgeBetween(u, v int) *Edge {
	g.muEdges.RLock()
	defer g.muEdges.RUnlock()
	eid, ok := g.adjacency[u][v]
	if !ok {
		return nil
	}

	return g.edges[eid]
}
