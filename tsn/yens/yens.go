// Package yens computes and caches up to K loopless shortest paths per
// (src,dst) pair using Yen's algorithm, layered on package dijkstra.
//
// Each accepted candidate's distance is perturbed at comparison time by a
// factor drawn uniformly from [1.0, 1.00001) so that true ties between
// competing deviation paths resolve to a stable (but seed-dependent) order
// instead of depending on map/slice iteration order. The perturbation never
// changes the *stored* distance of an accepted candidate, it only affects
// which of several equal-distance candidates is picked next, so the
// returned sequence's true distances remain non-decreasing.
package yens

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/tsnfabric/gatesched/tsn/dijkstra"
	"github.com/tsnfabric/gatesched/tsn/graph"
)

// ErrRoutingMissing indicates a (src,dst) pair was queried before Compute
// ran for it. This is a programmer error: it panics rather than returning
// an error value.
var ErrRoutingMissing = errors.New("yens: route requested before being computed")

// Candidate is one accepted K-shortest-path result.
type Candidate struct {
	Distance float64
	Path     graph.Path
}

type pairKey struct{ src, dst int }

// Store computes and caches candidate routes for a graph.Graph.
type Store struct {
	g   *graph.Graph
	r   *dijkstra.Router
	k   int
	rng *rand.Rand

	mu    sync.Mutex
	cache map[pairKey][]Candidate
}

// NewStore returns a Store that will compute up to k candidates per pair,
// using seed to drive tie-break perturbation deterministically.
func NewStore(g *graph.Graph, k int, seed int64) *Store {
	return &Store{
		g:     g,
		r:     dijkstra.NewRouter(g),
		k:     k,
		rng:   rand.New(rand.NewSource(seed)),
		cache: make(map[pairKey][]Candidate),
	}
}

// GetRouteCount returns the number of candidates computed for (src,dst).
// Panics (ErrRoutingMissing) if Compute has not been called for this pair.
func (s *Store) GetRouteCount(src, dst int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	routes, ok := s.cache[pairKey{src, dst}]
	if !ok {
		panic(ErrRoutingMissing)
	}

	return len(routes)
}

// GetKthRoute returns the k-th (0-indexed) candidate for (src,dst).
// Panics (ErrRoutingMissing) if Compute has not been called, or if k is out
// of range for the computed count.
func (s *Store) GetKthRoute(src, dst, k int) Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	routes, ok := s.cache[pairKey{src, dst}]
	if !ok || k < 0 || k >= len(routes) {
		panic(ErrRoutingMissing)
	}

	return routes[k]
}

// Compute runs Yen's algorithm for (src,dst), caching up to s.k candidates
// sorted by ascending true distance. Safe to call again after a topology
// change; overwrites any previous result for the pair.
func (s *Store) Compute(src, dst int) error {
	s.r.Invalidate()
	_, first, ok := s.r.GetRoute(src, dst)
	if !ok {
		s.mu.Lock()
		s.cache[pairKey{src, dst}] = nil
		s.mu.Unlock()

		return fmt.Errorf("yens: %d->%d unreachable", src, dst)
	}

	accepted := []graph.Path{first}
	var candidates []Candidate

	for len(accepted) < s.k {
		prev := accepted[len(accepted)-1]
		for i := 0; i < len(prev)-1; i++ {
			spur := prev[i]
			root := append(graph.Path{}, prev[:i+1]...)

			// Deactivate the edge each previously accepted path takes out of
			// the shared root prefix, so the spur search cannot reuse it.
			var removedEdges []int
			for _, p := range accepted {
				if len(p) > i+1 && samePrefix(p, root) {
					if id, ok := s.linkID(p[i], p[i+1]); ok {
						_ = s.g.InactivateEdge(id)
						removedEdges = append(removedEdges, id)
					}
				}
			}

			// Deactivate every root-path node except the spur node itself,
			// forcing the spur search to stay loopless.
			var removedNodes []int
			for _, n := range root[:len(root)-1] {
				_ = s.g.InactivateNode(n)
				removedNodes = append(removedNodes, n)
			}

			s.r.Invalidate()
			if _, spurPath, ok := s.r.GetRoute(spur, dst); ok {
				total := append(append(graph.Path{}, root[:len(root)-1]...), spurPath...)
				if !containsPath(accepted, total) && !containsCandidate(candidates, total) {
					if dist, derr := s.g.GetDist(total); derr == nil {
						candidates = append(candidates, Candidate{Distance: dist, Path: total})
					}
				}
			}

			for _, id := range removedEdges {
				_ = s.g.ActivateEdge(id)
			}
			for _, n := range removedNodes {
				_ = s.g.ActivateNode(n)
			}
			s.r.Invalidate()
		}

		idx, ok := s.popBest(&candidates)
		if !ok {
			break
		}
		accepted = append(accepted, candidates[idx].Path)
		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}

	out := make([]Candidate, 0, len(accepted))
	for _, p := range accepted {
		d, err := s.g.GetDist(p)
		if err != nil {
			continue
		}
		out = append(out, Candidate{Distance: d, Path: p})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > s.k {
		out = out[:s.k]
	}

	s.mu.Lock()
	s.cache[pairKey{src, dst}] = out
	s.mu.Unlock()

	return nil
}

// popBest removes and returns the index of the minimum-perturbed-distance
// candidate. Perturbation is applied only to break true ties: every
// candidate's priority is Distance * factor, factor in [1, 1.00001).
func (s *Store) popBest(candidates *[]Candidate) (int, bool) {
	cs := *candidates
	if len(cs) == 0 {
		return 0, false
	}
	best := 0
	bestKey := cs[0].Distance * s.perturb()
	for i := 1; i < len(cs); i++ {
		k := cs[i].Distance * s.perturb()
		if k < bestKey {
			bestKey = k
			best = i
		}
	}

	return best, true
}

func (s *Store) perturb() float64 {
	return 1.0 + s.rng.Float64()*0.00001
}

func samePrefix(p graph.Path, prefix graph.Path) bool {
	if len(p) < len(prefix) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}

	return true
}

func containsPath(paths []graph.Path, p graph.Path) bool {
	for _, q := range paths {
		if pathsEqual(p, q) {
			return true
		}
	}

	return false
}

func containsCandidate(cs []Candidate, p graph.Path) bool {
	for _, c := range cs {
		if pathsEqual(p, c.Path) {
			return true
		}
	}

	return false
}

func pathsEqual(a, b graph.Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func (s *Store) linkID(u, v int) (int, bool) {
	hops, err := s.g.GetLinksIDBandwidth(graph.Path{u, v})
	if err != nil || len(hops) == 0 {
		return 0, false
	}

	return hops[0].LinkID, true
}
