package network

import (
	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/graph"
	"github.com/tsnfabric/gatesched/tsn/yens"
)

// RouteShortestPathOnly returns a GetRouteFunc that always resolves a
// flow's route via its shortest (index 0) tsn/yens candidate, ignoring
// whatever info value the flow table holds. This is the `ro`/`spf` CLI
// baseline: every flow is scheduled/placed once and left there, with no
// ACO or GRASP search loop run afterward, as a comparison point for
// measuring what either optimiser actually buys.
func RouteShortestPathOnly(store *yens.Store) GetRouteFunc[int] {
	return func(f flowtable.Flow, _ int) graph.Path {
		return store.GetKthRoute(f.Src, f.Dst, 0).Path
	}
}
