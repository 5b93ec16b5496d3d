package grasp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/gcl"
	"github.com/tsnfabric/gatesched/tsn/grasp"
	"github.com/tsnfabric/gatesched/tsn/graph"
	"github.com/tsnfabric/gatesched/tsn/network"
	"github.com/tsnfabric/gatesched/tsn/yens"
)

// diamond builds a 4-node 0->{1,2}->3 topology so yens can find two
// distinct src=0,dst=3 candidates.
func diamond(bw float64) *graph.Graph {
	g := graph.New()
	a, b, c, d := g.AddHost(), g.AddSwitch(), g.AddSwitch(), g.AddHost()
	for _, e := range [][2]int{{a, b}, {a, c}, {b, d}, {c, d}} {
		if _, err := g.AddEdge(e[0], e[1], bw); err != nil {
			panic(err)
		}
	}

	return g
}

func TestOptimize_NeverRegressesBaselineCost(t *testing.T) {
	g := diamond(1500)
	gates := gcl.New(1000, g.LinkCount())
	arena := flowtable.NewArena()
	store := yens.NewStore(g, 2, 1)
	require.NoError(t, store.Compute(0, 3))

	getRoute := func(f flowtable.Flow, idx int) graph.Path {
		return store.GetKthRoute(f.Src, f.Dst, idx).Path
	}
	w := network.New[int](g, gates, arena, getRoute)

	diff := w.Insert(nil, []flowtable.Seed{
		{Src: 0, Dst: 3, Size: 100, MaxDelay: 1000, Class: flowtable.ClassB},
		{Src: 0, Dst: 3, Size: 200, MaxDelay: 1000, Class: flowtable.ClassB},
	}, 0)
	w.UpdateAVB(diff)

	baseline := w.ComputeAllCost()
	weights := network.Weights{W0: 1, W1: 2, W2: 1, W3: 1}

	result := grasp.Optimize(w, store, grasp.DefaultConfig(), weights, 20*time.Millisecond, 5)

	require.NotNil(t, result)
	optimized := result.ComputeAllCost()
	require.LessOrEqual(t, optimized.Scalar(weights), baseline.Scalar(weights)+1e-9,
		"GRASP must never hand back a routing worse than the one it started from")
}

func TestOptimize_EmptyFlowTableReturnsSourceWrapper(t *testing.T) {
	g := diamond(1500)
	gates := gcl.New(1000, g.LinkCount())
	arena := flowtable.NewArena()
	store := yens.NewStore(g, 2, 1)

	getRoute := func(f flowtable.Flow, idx int) graph.Path { return nil }
	w := network.New[int](g, gates, arena, getRoute)

	result := grasp.Optimize(w, store, grasp.DefaultConfig(), network.Weights{}, 5*time.Millisecond, 1)
	require.Same(t, w, result)
}
