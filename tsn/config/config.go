// Package config loads the engine's numeric configuration (cost weights,
// optimiser time budget, visibility memory factors, experiment repeat
// count) from JSON.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ErrMalformed wraps any JSON decode failure against the schema below.
var ErrMalformed = errors.New("config: malformed config file")

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Config is the engine's tunable numeric configuration.
type Config struct {
	W0 float64 `json:"w0"`
	W1 float64 `json:"w1"`
	W2 float64 `json:"w2"`
	W3 float64 `json:"w3"`

	FastStop bool `json:"fast_stop"`

	TSNMemory float64 `json:"tsn_memory"`
	AVBMemory float64 `json:"avb_memory"`

	// TLimitUS is the optimiser wall-clock budget in microseconds, the
	// schema's native unit; TLimit() converts it to a time.Duration.
	TLimitUS int `json:"t_limit"`

	ExpTimes int `json:"exp_times"`
}

// TLimit returns the configured optimiser time budget as a time.Duration.
func (c Config) TLimit() time.Duration {
	return time.Duration(c.TLimitUS) * time.Microsecond
}

// Default returns the engine's built-in defaults, matching
// config.example.json: unit weights, fast-stop enabled, visibility memory
// factors of 3.0 for both TSN and AVB, a 500ms optimiser budget, and a
// single experiment repetition.
func Default() Config {
	return Config{
		W0: 1, W1: 1, W2: 1, W3: 1,
		FastStop:  true,
		TSNMemory: 3.0,
		AVBMemory: 3.0,
		TLimitUS:  500_000,
		ExpTimes:  1,
	}
}

// Load reads path and decodes it as a Config. Returns ErrMalformed wrapping
// the decode error if path exists but does not parse.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := api.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	return cfg, nil
}

// LoadDefault loads path, falling back to exampleFallback when path does
// not exist. A parse error on either file is reported, not silently
// swallowed into Default().
func LoadDefault(path, exampleFallback string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	return Load(exampleFallback)
}
