package graph

import "fmt"

// GetDist returns Σ 1/bandwidth over every hop of path, matching the
// Dijkstra/Yens edge weight convention (narrower bandwidth costs more).
//
// Fails with ErrBadPath if path has fewer than two nodes or a hop has no
// active edge.
func (g *Graph) GetDist(path Path) (float64, error) {
	hops, err := g.GetLinksIDBandwidth(path)
	if err != nil {
		return 0, err
	}

	var dist float64
	for _, h := range hops {
		dist += 1.0 / h.Bandwidth
	}

	return dist, nil
}

// GetLinksIDBandwidth resolves each hop of path to its (link id, bandwidth).
//
// Complexity: O(len(path)).
func (g *Graph) GetLinksIDBandwidth(path Path) ([]Hop, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: path needs at least two nodes", ErrBadPath)
	}

	hops := make([]Hop, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		e := g.edgeBetween(path[i], path[i+1])
		if e == nil || !e.Active {
			return nil, fmt.Errorf("%w: no active edge %d->%d", ErrBadPath, path[i], path[i+1])
		}
		hops = append(hops, Hop{LinkID: e.ID, Bandwidth: e.Bandwidth})
	}

	return hops, nil
}

// UpdateFlowIDOnRoute adds (remember=true) or removes (remember=false) id
// from the flow overlay of every directed edge along path.
func (g *Graph) UpdateFlowIDOnRoute(remember bool, id int, path Path) error {
	hops, err := g.GetLinksIDBandwidth(path)
	if err != nil {
		return err
	}

	g.muEdges.Lock()
	defer g.muEdges.Unlock()
	for _, h := range hops {
		e := g.edges[h.LinkID]
		if e == nil {
			continue
		}
		if remember {
			e.Flows[id] = struct{}{}
		} else {
			delete(e.Flows, id)
		}
	}

	return nil
}

// GetOverlapFlows returns, for each hop of path, the set of flow ids
// currently routed over that directed edge.
func (g *Graph) GetOverlapFlows(path Path) ([]map[int]struct{}, error) {
	hops, err := g.GetLinksIDBandwidth(path)
	if err != nil {
		return nil, err
	}

	g.muEdges.RLock()
	defer g.muEdges.RUnlock()
	out := make([]map[int]struct{}, len(hops))
	for i, h := range hops {
		e := g.edges[h.LinkID]
		set := make(map[int]struct{}, len(e.Flows))
		for fid := range e.Flows {
			set[fid] = struct{}{}
		}
		out[i] = set
	}

	return out, nil
}

// ForgetAllFlows clears the flow overlay of every edge, keeping the
// topology itself intact.
func (g *Graph) ForgetAllFlows() {
	g.muEdges.Lock()
	defer g.muEdges.Unlock()
	for _, e := range g.edges {
		e.Flows = make(map[int]struct{})
	}
}
