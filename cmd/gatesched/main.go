// Command gatesched runs the joint TSN/AVB routing-and-scheduling engine
// against a topology and two flow batches: a base population, then a
// reconfiguration population repeated multiplier times. Usage:
//
//	gatesched <algo> <topo.json> <base_flow.json> <reconf_flow.json> <multiplier> [--config=<file>]
//
// algo is one of aco, ro, grasp, spf. Exit code 0 on a successful run,
// non-zero on malformed arguments or unreadable input files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tsnfabric/gatesched/tsn/aco"
	"github.com/tsnfabric/gatesched/tsn/config"
	"github.com/tsnfabric/gatesched/tsn/flowtable"
	"github.com/tsnfabric/gatesched/tsn/gcl"
	"github.com/tsnfabric/gatesched/tsn/graph"
	"github.com/tsnfabric/gatesched/tsn/grasp"
	"github.com/tsnfabric/gatesched/tsn/ioformats"
	"github.com/tsnfabric/gatesched/tsn/network"
	"github.com/tsnfabric/gatesched/tsn/report"
	"github.com/tsnfabric/gatesched/tsn/yens"
)

// maxK is the candidate-route width Yen's algorithm computes per (src,dst)
// pair.
const maxK = 10

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	algo, topoPath, basePath, reconfPath, multiplier, cfgPath, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := config.LoadDefault(cfgPath, "config.example.json")
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}

	topo, err := ioformats.LoadTopology(topoPath)
	if err != nil {
		fmt.Fprintln(stderr, "topology:", err)
		return 1
	}

	baseFlows, err := ioformats.LoadFlows(basePath)
	if err != nil {
		fmt.Fprintln(stderr, "base flows:", err)
		return 1
	}
	baseTSN, baseAVB, err := baseFlows.Seeds()
	if err != nil {
		fmt.Fprintln(stderr, "base flows:", err)
		return 1
	}

	reconfFlows, err := ioformats.LoadFlows(reconfPath)
	if err != nil {
		fmt.Fprintln(stderr, "reconf flows:", err)
		return 1
	}
	reconfTSN, reconfAVB, err := reconfFlows.Seeds()
	if err != nil {
		fmt.Fprintln(stderr, "reconf flows:", err)
		return 1
	}

	weights := network.Weights{W0: cfg.W0, W1: cfg.W1, W2: cfg.W2, W3: cfg.W3}
	printer := report.New(stdout)

	var costs []network.RoutingCost
	for trial := 0; trial < cfg.ExpTimes; trial++ {
		seed := int64(trial + 1)
		cost, err := experiment(algo, topo, baseTSN, baseAVB, reconfTSN, reconfAVB, multiplier, cfg, weights, printer, seed)
		if err != nil {
			fmt.Fprintln(stderr, "experiment:", err)
			return 1
		}
		costs = append(costs, cost)
	}

	printer.PrintSummary(report.Average(costs, weights))

	return 0
}

func parseArgs(args []string) (algo, topoPath, basePath, reconfPath string, multiplier int, cfgPath string, err error) {
	var flagArgs, positional []string
	for _, a := range args {
		if len(a) > 0 && a[0] == '-' {
			flagArgs = append(flagArgs, a)
		} else {
			positional = append(positional, a)
		}
	}

	fs := flag.NewFlagSet("gatesched", flag.ContinueOnError)
	cfg := fs.String("config", "config.json", "path to the engine's numeric config JSON")
	if err := fs.Parse(flagArgs); err != nil {
		return "", "", "", "", 0, "", err
	}

	if len(positional) != 5 {
		return "", "", "", "", 0, "", fmt.Errorf("usage: gatesched <algo> <topo.json> <base_flow.json> <reconf_flow.json> <multiplier> [--config=<file>]")
	}

	algo = positional[0]
	switch algo {
	case "aco", "ro", "grasp", "spf":
	default:
		return "", "", "", "", 0, "", fmt.Errorf("unknown algo %q: want one of aco, ro, grasp, spf", algo)
	}

	if _, err := fmt.Sscanf(positional[4], "%d", &multiplier); err != nil || multiplier < 0 {
		return "", "", "", "", 0, "", fmt.Errorf("multiplier must be a non-negative integer, got %q", positional[4])
	}

	return algo, positional[1], positional[2], positional[3], multiplier, *cfg, nil
}

// experiment builds a fresh topology/flow-table/gate-control-list triple,
// routes the base population, prints that round, then routes the reconf
// population multiplier times in a row (each pass reusing the previous
// pass's committed state), printing each pass and returning the final
// round's cost for averaging.
func experiment(algo string, topo *graph.Graph, baseTSN, baseAVB, reconfTSN, reconfAVB []flowtable.Seed, multiplier int, cfg config.Config, weights network.Weights, printer *report.Printer, seed int64) (network.RoutingCost, error) {
	g := topo.Clone()
	store := yens.NewStore(g, maxK, seed)

	pairs := collectPairs(baseTSN, baseAVB, reconfTSN, reconfAVB)
	for _, p := range pairs {
		if err := store.Compute(p.src, p.dst); err != nil {
			return network.RoutingCost{}, err
		}
	}

	gates := gcl.New(1, g.LinkCount())
	arena := flowtable.NewArena()

	var getRoute network.GetRouteFunc[int]
	switch algo {
	case "ro", "spf":
		getRoute = network.RouteShortestPathOnly(store)
	default:
		getRoute = func(f flowtable.Flow, idx int) graph.Path {
			return store.GetKthRoute(f.Src, f.Dst, idx).Path
		}
	}

	w := network.New[int](g, gates, arena, getRoute)

	w = routeRound(w, "base", algo, store, cfg, weights, printer, baseTSN, baseAVB, seed)

	for i := 0; i < multiplier; i++ {
		label := fmt.Sprintf("reconf[%d]", i)
		w = routeRound(w, label, algo, store, cfg, weights, printer, reconfTSN, reconfAVB, seed)
	}

	return w.ComputeAllCost(), nil
}

// routeRound inserts one batch of flows, schedules the TSN ones and
// registers the AVB ones, then hands the result to the configured
// optimiser (a no-op for ro/spf), printing the round before returning.
func routeRound(w *network.Wrapper[int], label, algo string, store *yens.Store, cfg config.Config, weights network.Weights, printer *report.Printer, tsns, avbs []flowtable.Seed, seed int64) *network.Wrapper[int] {
	diff := w.Insert(tsns, avbs, 0)
	_ = w.UpdateTSN(diff)
	w.UpdateAVB(diff)

	switch algo {
	case "aco":
		acoCfg := aco.DefaultConfig()
		acoCfg.FastStop = cfg.FastStop
		acoCfg.TSNMemory = cfg.TSNMemory
		acoCfg.AVBMemory = cfg.AVBMemory
		w = aco.Optimize(w, store, acoCfg, weights, cfg.TLimit(), seed)
	case "grasp":
		graspCfg := grasp.DefaultConfig()
		graspCfg.FastStop = cfg.FastStop
		w = grasp.Optimize(w, store, graspCfg, weights, cfg.TLimit(), seed)
	}

	printer.PrintRound(label, w, weights)

	return w
}

type pair struct{ src, dst int }

// collectPairs gathers every distinct (src,dst) pair across every flow
// batch so the Yen's store can compute candidates for all of them up
// front: every batch must be known before the first route is resolved,
// since reconf flows may introduce pairs the base batch never used.
func collectPairs(batches ...[]flowtable.Seed) []pair {
	seen := make(map[pair]bool)
	var out []pair
	for _, batch := range batches {
		for _, s := range batch {
			p := pair{s.Src, s.Dst}
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}

	return out
}
