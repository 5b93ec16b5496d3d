package ioformats

import (
	"fmt"
	"os"

	"github.com/tsnfabric/gatesched/tsn/flowtable"
)

// TSNFlowSpec is one `tt_flows` entry.
type TSNFlowSpec struct {
	Size     int `json:"size"`
	Src      int `json:"src"`
	Dst      int `json:"dst"`
	Period   int `json:"period"`
	MaxDelay int `json:"max_delay"`
	Offset   int `json:"offset"`
}

// AVBFlowSpec is one `avb_flows` entry.
type AVBFlowSpec struct {
	Size     int    `json:"size"`
	Src      int    `json:"src"`
	Dst      int    `json:"dst"`
	Period   int    `json:"period"`
	MaxDelay int    `json:"max_delay"`
	AVBType  string `json:"avb_type"`
}

// FlowSet is the decoded shape of the flow JSON input.
type FlowSet struct {
	TTFlows  []TSNFlowSpec `json:"tt_flows"`
	AVBFlows []AVBFlowSpec `json:"avb_flows"`
}

// Seeds converts the decoded flow set into flowtable.Seed batches ready
// for FlowTable.Insert / Wrapper.Insert. An avb_type outside {"A","B"} is
// a fatal input error.
func (fs FlowSet) Seeds() (tsns, avbs []flowtable.Seed, err error) {
	tsns = make([]flowtable.Seed, 0, len(fs.TTFlows))
	for _, f := range fs.TTFlows {
		tsns = append(tsns, flowtable.Seed{
			Src: f.Src, Dst: f.Dst, Size: f.Size,
			Period: f.Period, MaxDelay: f.MaxDelay, Offset: f.Offset,
		})
	}

	avbs = make([]flowtable.Seed, 0, len(fs.AVBFlows))
	for _, f := range fs.AVBFlows {
		var class flowtable.Class
		switch f.AVBType {
		case "A":
			class = flowtable.ClassA
		case "B":
			class = flowtable.ClassB
		default:
			return nil, nil, fmt.Errorf("%w: avb_type %q must be \"A\" or \"B\"", ErrMalformed, f.AVBType)
		}
		avbs = append(avbs, flowtable.Seed{
			Src: f.Src, Dst: f.Dst, Size: f.Size,
			Period: f.Period, MaxDelay: f.MaxDelay, Class: class,
		})
	}

	return tsns, avbs, nil
}

// LoadFlows reads path and decodes it as a FlowSet.
func LoadFlows(path string) (FlowSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FlowSet{}, err
	}

	var fs FlowSet
	if err := api.Unmarshal(data, &fs); err != nil {
		return FlowSet{}, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	return fs, nil
}
