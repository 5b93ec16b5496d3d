package ioformats_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsnfabric/gatesched/tsn/ioformats"
)

func write(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func TestLoadTopology_HostsThenSwitchesThenEdges(t *testing.T) {
	path := write(t, `{"host_cnt":2,"switch_cnt":1,"edges":[[0,2,10],[1,2,20]]}`)

	g, err := ioformats.LoadTopology(path)
	require.NoError(t, err)

	hops, err := g.GetLinksIDBandwidth([]int{0, 2})
	require.NoError(t, err)
	require.Equal(t, 10.0, hops[0].Bandwidth)
}

func TestLoadTopology_BadEdgeEndpointReportsErrMalformed(t *testing.T) {
	path := write(t, `{"host_cnt":1,"switch_cnt":0,"edges":[[0,5,10]]}`)

	_, err := ioformats.LoadTopology(path)
	require.ErrorIs(t, err, ioformats.ErrMalformed)
}

func TestLoadFlows_SeedsSplitsByKindAndClass(t *testing.T) {
	path := write(t, `{
		"tt_flows": [{"size":100,"src":0,"dst":1,"period":50,"max_delay":200,"offset":0}],
		"avb_flows": [
			{"size":75,"src":0,"dst":1,"period":0,"max_delay":100,"avb_type":"A"},
			{"size":50,"src":1,"dst":0,"period":0,"max_delay":150,"avb_type":"B"}
		]
	}`)

	fs, err := ioformats.LoadFlows(path)
	require.NoError(t, err)

	tsns, avbs, err := fs.Seeds()
	require.NoError(t, err)
	require.Len(t, tsns, 1)
	require.Len(t, avbs, 2)
}

func TestFlowSet_Seeds_InvalidAVBTypeReportsErrMalformed(t *testing.T) {
	fs := ioformats.FlowSet{
		AVBFlows: []ioformats.AVBFlowSpec{{Size: 1, Src: 0, Dst: 1, MaxDelay: 1, AVBType: "C"}},
	}

	_, _, err := fs.Seeds()
	require.ErrorIs(t, err, ioformats.ErrMalformed)
}
