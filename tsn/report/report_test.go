package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/gcl"
	"github.com/tsnfabric/gatesched/tsn/graph"
	"github.com/tsnfabric/gatesched/tsn/network"
	"github.com/tsnfabric/gatesched/tsn/report"
)

func lineGraph(bw float64) *graph.Graph {
	g := graph.New()
	a, b, c := g.AddHost(), g.AddHost(), g.AddHost()
	if _, err := g.AddEdge(a, b, bw); err != nil {
		panic(err)
	}
	if _, err := g.AddEdge(b, c, bw); err != nil {
		panic(err)
	}

	return g
}

func TestPrintRound_IncludesFlowAndSummaryLines(t *testing.T) {
	g := lineGraph(1500)
	gates := gcl.New(100, 4)
	arena := flowtable.NewArena()
	routes := map[int]graph.Path{0: {0, 1}}
	w := network.New[int](g, gates, arena, func(f flowtable.Flow, _ int) graph.Path { return routes[f.ID] })

	diff := w.Insert(nil, []flowtable.Seed{
		{Src: 0, Dst: 1, Size: 100, MaxDelay: 1000, Class: flowtable.ClassB},
	}, 0)
	w.UpdateAVB(diff)

	var buf bytes.Buffer
	report.New(&buf).PrintRound("base", w, network.Weights{W0: 1, W1: 1, W2: 1, W3: 1})

	out := buf.String()
	require.Contains(t, out, "flow id=0 kind=avb")
	require.Contains(t, out, "wcd/max_delay=")
	require.Contains(t, out, "[base]")
	require.True(t, strings.Contains(out, "scalar_cost="))
}

func TestAverage_FoldsMultipleRunsAndReportsFailRate(t *testing.T) {
	weights := network.Weights{W0: 1, W1: 1, W2: 1, W3: 1}
	costs := []network.RoutingCost{
		{TSNScheduleFail: true, AVBCnt: 1, TSNCnt: 1},
		{TSNScheduleFail: false, AVBCnt: 1, TSNCnt: 1},
	}

	s := report.Average(costs, weights)
	require.Equal(t, 2, s.Runs)
	require.Equal(t, 0.5, s.TSNFailRate)
}

func TestAverage_EmptyReturnsZeroSummary(t *testing.T) {
	s := report.Average(nil, network.Weights{})
	require.Equal(t, report.Summary{}, s)
}
