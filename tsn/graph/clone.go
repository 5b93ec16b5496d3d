package graph

// Clone returns a deep copy of g: independent nodes, edges and adjacency,
// safe to mutate (activate/deactivate, add/remove flow occupancy) without
// affecting g. Used by optimisers that need to try a rerouting decision
// against an isolated copy of the topology before committing to it.
func (g *Graph) Clone() *Graph {
	g.muNodes.RLock()
	g.muEdges.RLock()
	defer g.muNodes.RUnlock()
	defer g.muEdges.RUnlock()

	out := &Graph{
		nodes:      make(map[int]*Node, len(g.nodes)),
		edges:      make(map[int]*Edge, len(g.edges)),
		adjacency:  make(map[int]map[int]int, len(g.adjacency)),
		nextNodeID: g.nextNodeID,
		nextLinkID: g.nextLinkID,
	}
	for id, n := range g.nodes {
		cp := *n
		out.nodes[id] = &cp
	}
	for id, e := range g.edges {
		cp := *e
		cp.Flows = make(map[int]struct{}, len(e.Flows))
		for f := range e.Flows {
			cp.Flows[f] = struct{}{}
		}
		out.edges[id] = &cp
	}
	for from, tos := range g.adjacency {
		m := make(map[int]int, len(tos))
		for to, id := range tos {
			m[to] = id
		}
		out.adjacency[from] = m
	}

	return out
}
