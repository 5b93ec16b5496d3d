// Package aco implements the ant-colony optimiser that searches the space
// of per-flow candidate-route choices for a low-cost routing assignment.
// A state is a []int the length of the flow population, each entry an
// index into that flow's tsn/yens candidate list; an ant builds one state
// by repeatedly choosing, per flow, either the best-looking candidate
// (exploitation) or a pheromone-and-visibility-weighted random one
// (exploration), and the colony reinforces whichever states score best.
package aco

import (
	"math/rand"
	"sort"
	"time"
)

// Config holds the tunable ACO parameters: R ants and L elites reinforced
// per epoch, evaporation rate, exploit/explore split, pheromone clamp,
// and the visibility memory factors.
type Config struct {
	R   int // ants per epoch
	L   int // top-L states reinforced per epoch
	Q0  float64
	Rho float64 // evaporation rate

	Tao0  float64 // initial pheromone
	MinPh float64
	MaxPh float64

	// TSNMemory and AVBMemory multiply a flow's previously-chosen
	// candidate's visibility entry, biasing the colony toward leaving an
	// untouched flow on its existing route rather than churning it for a
	// marginal cost gain.
	TSNMemory float64
	AVBMemory float64

	// FastStop, when set, lets the judge passed to Run end the search early
	// once it reports an acceptable state, instead of running to the wall
	// clock limit.
	FastStop bool
}

// DefaultConfig returns the engine's stock colony parameters.
func DefaultConfig() Config {
	return Config{
		R: 50, L: 7, Q0: 0.3, Rho: 0.65,
		Tao0: 5.0, MinPh: 2.0, MaxPh: 50.0,
		TSNMemory: 3.0, AVBMemory: 3.0,
	}
}

// Verdict is a judge's early-termination signal.
type Verdict uint8

const (
	// KeepOn means the search should continue until the wall clock expires.
	KeepOn Verdict = iota
	// Stop means this state is acceptable; Run may end the epoch loop early.
	Stop
)

// JudgeFunc scores a candidate state, returning its distance (lower is
// better) and whether the state is good enough to stop searching for.
type JudgeFunc func(state []int) (Verdict, float64)

// ACO holds the pheromone matrix for a fixed-length population of flows,
// each with up to k candidate routes.
type ACO struct {
	cfg Config
	k   int
	ph  [][]float64
	rng *rand.Rand
}

// New returns an ACO with no flows yet tracked. Call ExtendStateLen before
// Run to size the pheromone matrix to the flow population.
func New(cfg Config, k int, seed int64) *ACO {
	return &ACO{cfg: cfg, k: k, rng: rand.New(rand.NewSource(seed))}
}

// StateLen returns the number of flows currently tracked.
func (a *ACO) StateLen() int { return len(a.ph) }

// ExtendStateLen grows the pheromone matrix to cover n flows, initialising
// any new row to Tao0 across all k candidate slots. Shrinking is not
// supported: flows never disappear mid-run.
func (a *ACO) ExtendStateLen(n int) {
	for len(a.ph) < n {
		row := make([]float64, a.k)
		for i := range row {
			row[i] = a.cfg.Tao0
		}
		a.ph = append(a.ph, row)
	}
}

// Run searches for at most timeLimit, proposing successive epochs of R ant
// states, reinforcing the top L of each epoch, and tracking the best state
// seen against curDist (the cost of not rerouting anything, i.e. the state
// to beat). Returns the best state found, or nil if none beat curDist.
func (a *ACO) Run(timeLimit time.Duration, visibility [][]float64, judge JudgeFunc, curDist float64) []int {
	deadline := time.Now().Add(timeLimit)
	bestDist := curDist
	var best []int

	for time.Now().Before(deadline) {
		epochBest, epochDist, verdict := a.epoch(visibility, judge)
		if epochDist < bestDist {
			bestDist = epochDist
			best = epochBest
		}
		if verdict == Stop {
			break
		}
	}

	return best
}

type weightedState struct {
	dist  float64
	state []int
}

// epoch builds R ant states, scores each via judge, evaporates, then
// reinforces the top L states (by ascending dist) into the pheromone
// matrix. Returns the epoch's own best state/dist, and Stop if any ant in
// the epoch satisfied the judge.
func (a *ACO) epoch(visibility [][]float64, judge JudgeFunc) ([]int, float64, Verdict) {
	ants := make([]weightedState, a.cfg.R)
	verdict := KeepOn

	for i := range ants {
		state := make([]int, len(a.ph))
		for flow := range state {
			state[flow] = a.selectCluster(visibility[flow], a.ph[flow])
		}
		v, dist := judge(state)
		ants[i] = weightedState{dist: dist, state: state}
		if v == Stop {
			verdict = Stop
		}
	}

	sort.Slice(ants, func(i, j int) bool { return ants[i].dist < ants[j].dist })

	a.evaporate()
	l := a.cfg.L
	if l > len(ants) {
		l = len(ants)
	}
	for i := 0; i < l; i++ {
		a.reinforce(ants[i])
	}

	return ants[0].state, ants[0].dist, verdict
}

// selectCluster picks a candidate index for one flow: with probability Q0
// the best-looking candidate (argmax pheromone*visibility), otherwise a
// roulette-wheel draw weighted by pheromone*visibility.
func (a *ACO) selectCluster(visibility, pheromone []float64) int {
	k := a.k
	if a.rng.Float64() < a.cfg.Q0 {
		best, bestI := -1.0, 0
		for i := 0; i < k; i++ {
			w := pheromone[i] * visibility[i]
			if w > best {
				best = w
				bestI = i
			}
		}

		return bestI
	}

	var sum float64
	for i := 0; i < k; i++ {
		sum += pheromone[i] * visibility[i]
	}
	if sum <= 0 {
		return a.rng.Intn(k)
	}

	r := a.rng.Float64() * sum
	var acc float64
	for i := 0; i < k; i++ {
		acc += pheromone[i] * visibility[i]
		if acc >= r {
			return i
		}
	}

	return k - 1
}

func (a *ACO) evaporate() {
	for _, row := range a.ph {
		for i, v := range row {
			v *= 1 - a.cfg.Rho
			if v < a.cfg.MinPh {
				v = a.cfg.MinPh
			}
			row[i] = v
		}
	}
}

// reinforce deposits pheromone along ws.state, proportional to how good
// its distance was (1/dist, the classic ACO deposit rule), clamped to MaxPh.
func (a *ACO) reinforce(ws weightedState) {
	deposit := 1.0
	if ws.dist > 0 {
		deposit = 1.0 / ws.dist
	}
	for flow, idx := range ws.state {
		v := a.ph[flow][idx] + deposit
		if v > a.cfg.MaxPh {
			v = a.cfg.MaxPh
		}
		a.ph[flow][idx] = v
	}
}
