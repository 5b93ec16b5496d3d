package network_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/gcl"
	"github.com/tsnfabric/gatesched/tsn/network"
	"github.com/tsnfabric/gatesched/tsn/yens"
)

func TestRouteShortestPathOnly_IgnoresInfoAndAlwaysResolvesIndexZero(t *testing.T) {
	g := lineGraph(1500)
	store := yens.NewStore(g, 3, 1)
	require.NoError(t, store.Compute(0, 2))

	getRoute := network.RouteShortestPathOnly(store)
	f := flowtable.Flow{ID: 0, Src: 0, Dst: 2, Kind: flowtable.KindAVB}

	want := store.GetKthRoute(0, 2, 0).Path
	require.Equal(t, want, getRoute(f, 0))
	require.Equal(t, want, getRoute(f, 99), "must ignore the info value and always resolve candidate 0")
}

func TestRouteShortestPathOnly_WiresIntoWrapperEndToEnd(t *testing.T) {
	g := lineGraph(1500)
	gates := gcl.New(100, 4)
	arena := flowtable.NewArena()
	store := yens.NewStore(g, 2, 1)
	require.NoError(t, store.Compute(0, 2))

	w := network.New[int](g, gates, arena, network.RouteShortestPathOnly(store))
	diff := w.Insert(nil, []flowtable.Seed{
		{Src: 0, Dst: 2, Size: 100, MaxDelay: 500, Class: flowtable.ClassB},
	}, 0)
	w.UpdateAVB(diff)

	cost := w.ComputeAllCost()
	require.Equal(t, 1, cost.AVBCnt)
}
