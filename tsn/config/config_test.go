package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tsnfabric/gatesched/tsn/config"
)

func TestLoad_DecodesEverySchemaField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, writeFile(path, `{
		"w0": 10, "w1": 2, "w2": 1, "w3": 3,
		"fast_stop": false,
		"tsn_memory": 4.5, "avb_memory": 2.5,
		"t_limit": 250000,
		"exp_times": 5
	}`))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 10.0, cfg.W0)
	require.Equal(t, 3.0, cfg.W3)
	require.False(t, cfg.FastStop)
	require.Equal(t, 250*time.Millisecond, cfg.TLimit())
	require.Equal(t, 5, cfg.ExpTimes)
}

func TestLoad_MalformedJSONWrapsErrMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, writeFile(path, `{not valid json`))

	_, err := config.Load(path)
	require.ErrorIs(t, err, config.ErrMalformed)
}

func TestLoadDefault_FallsBackWhenPrimaryMissing(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "config.json")
	fallback := filepath.Join(dir, "config.example.json")
	require.NoError(t, writeFile(fallback, `{"w0":1,"w1":1,"w2":1,"w3":1,"fast_stop":true,"tsn_memory":3,"avb_memory":3,"t_limit":500000,"exp_times":1}`))

	cfg, err := config.LoadDefault(missing, fallback)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
