// Package ioformats decodes the CLI's topology and flow JSON inputs into
// the domain types tsn/graph and tsn/flowtable already understand.
package ioformats

import (
	"errors"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/tsnfabric/gatesched/tsn/graph"
)

// ErrMalformed wraps any schema or decode failure in a topology or flow file.
var ErrMalformed = errors.New("ioformats: malformed input")

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Edge is one `[u, v, bandwidth]` topology edge entry.
type Edge struct {
	U, V      int
	Bandwidth float64
}

// UnmarshalJSON decodes the schema's 3-element array form into Edge's
// fields.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var raw [3]float64
	if err := api.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: edge: %v", ErrMalformed, err)
	}
	e.U = int(raw[0])
	e.V = int(raw[1])
	e.Bandwidth = raw[2]

	return nil
}

// Topology is the decoded shape of the topology JSON input.
type Topology struct {
	HostCnt   int    `json:"host_cnt"`
	SwitchCnt int    `json:"switch_cnt"`
	Edges     []Edge `json:"edges"`
}

// Build constructs a tsn/graph.Graph: host_cnt hosts first (ids
// 0..host_cnt), then switch_cnt switches, then every edge in order.
func (t Topology) Build() (*graph.Graph, error) {
	g := graph.New()
	for i := 0; i < t.HostCnt; i++ {
		g.AddHost()
	}
	for i := 0; i < t.SwitchCnt; i++ {
		g.AddSwitch()
	}
	for _, e := range t.Edges {
		if _, err := g.AddEdge(e.U, e.V, e.Bandwidth); err != nil {
			return nil, fmt.Errorf("%w: edge (%d,%d): %v", ErrMalformed, e.U, e.V, err)
		}
	}

	return g, nil
}

// LoadTopology reads path, decodes it as a Topology, and builds the graph.
func LoadTopology(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Topology
	if err := api.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	return t.Build()
}
