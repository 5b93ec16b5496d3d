// Package dijkstra computes single-source shortest paths over tsn/graph
// using edge weight 1/bandwidth, backed by pqueue's decrease-key heap.
//
// Finalised (distance, back-pointer) maps are cached per source node, so
// that package yens (which repeatedly re-runs Dijkstra from many deviation
// nodes while probing K-shortest-path candidates) shares work across calls
// for the same source as long as the graph has not changed shape since.
package dijkstra

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/tsnfabric/gatesched/tsn/graph"
	"github.com/tsnfabric/gatesched/tsn/pqueue"
)

// Result holds the finalised distances and predecessors from one source.
type Result struct {
	Dist map[int]float64
	Prev map[int]int // prev[v] == u means shortest path to v passes through u; no entry for source/unreachable.
}

// Router runs Dijkstra over a graph.Graph and caches per-source results
// until explicitly invalidated.
//
// Callers must call Invalidate after any topology mutation (AddEdge,
// InactivateEdge/Node, Reset, DelEdge/Node); Router itself never reads
// graph state outside of GetRoute, so the cache cannot silently go stale as
// long as Invalidate is called. yens does this on every probe.
type Router struct {
	g *graph.Graph

	mu    sync.Mutex
	cache map[int]*Result
}

// NewRouter wraps g. g is read, never mutated.
func NewRouter(g *graph.Graph) *Router {
	return &Router{g: g, cache: make(map[int]*Result)}
}

// Invalidate drops all cached results. Call after any topology mutation.
func (r *Router) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[int]*Result)
}

// GetRoute returns the shortest (distance, path) from src to dst, or false
// if dst is unreachable from src.
func (r *Router) GetRoute(src, dst int) (float64, graph.Path, bool) {
	res := r.resultFor(src)
	d, ok := res.Dist[dst]
	if !ok || math.IsInf(d, 1) {
		return 0, nil, false
	}

	path := graph.Path{dst}
	cur := dst
	for cur != src {
		prev, ok := res.Prev[cur]
		if !ok {
			return 0, nil, false
		}
		path = append(graph.Path{prev}, path...)
		cur = prev
	}

	return d, path, true
}

// resultFor returns the cached Result for src, computing and storing it if
// absent.
func (r *Router) resultFor(src int) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.cache[src]; ok {
		return res
	}
	res := run(r.g, src)
	r.cache[src] = res

	return res
}

const infinity = math.MaxFloat64

func run(g *graph.Graph, src int) *Result {
	dist := map[int]float64{src: 0}
	prev := map[int]int{}
	visited := map[int]bool{}

	pq := pqueue.New()
	_ = pq.Push(key(src), 0, src)

	for pq.Len() > 0 {
		_, _, payload, ok := pq.Pop()
		if !ok {
			break
		}
		u := payload.(int)
		if visited[u] {
			continue
		}
		visited[u] = true

		for _, e := range g.Neighbors(u) {
			v := e.To
			if e.Bandwidth <= 0 {
				continue
			}
			w := 1.0 / e.Bandwidth
			ud := dist[u] + w
			curr, known := dist[v]
			if known && ud >= curr {
				continue
			}
			dist[v] = ud
			prev[v] = u
			if pq.ContainsKey(key(v)) {
				// DecreasePriority only accepts strict improvements; since
				// ud < curr was just established this always succeeds.
				_ = pq.DecreasePriority(key(v), int64(ud*priorityScale))
			} else {
				_ = pq.Push(key(v), int64(ud*priorityScale), v)
			}
		}
	}

	return &Result{Dist: dist, Prev: prev}
}

// priorityScale converts float distances to the heap's int64 priority space
// with enough precision for realistic bandwidth ranges.
const priorityScale = 1e9

func key(id int) string {
	return strconv.Itoa(id)
}

// ErrUnreachable is returned by callers that need an explicit error instead
// of GetRoute's boolean form (e.g. wrapping code that wants fmt.Errorf context).
var ErrUnreachable = fmt.Errorf("dijkstra: destination unreachable")
