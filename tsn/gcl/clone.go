package gcl

// Clone returns a deep copy of g, safe to mutate independently. Used by
// optimisers that trial a reroute against an isolated GCL before deciding
// whether to keep it.
func (g *GCL) Clone() *GCL {
	out := &GCL{hyperP: g.hyperP}

	out.gateEvt = make([][]gateEvent, len(g.gateEvt))
	for i, evts := range g.gateEvt {
		out.gateEvt[i] = append([]gateEvent(nil), evts...)
	}

	out.gateLookup = make([][]MergedEvent, len(g.gateLookup))
	for i, m := range g.gateLookup {
		if m != nil {
			out.gateLookup[i] = append([]MergedEvent(nil), m...)
		}
	}

	out.queueOccupy = make([][][]queueEvent, len(g.queueOccupy))
	for i, perQueue := range g.queueOccupy {
		out.queueOccupy[i] = make([][]queueEvent, len(perQueue))
		for q, evts := range perQueue {
			out.queueOccupy[i][q] = append([]queueEvent(nil), evts...)
		}
	}

	out.queueMap = make(map[linkFlow]uint8, len(g.queueMap))
	for k, v := range g.queueMap {
		out.queueMap[k] = v
	}

	return out
}
