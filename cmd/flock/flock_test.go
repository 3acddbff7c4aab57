package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `{"numAgents": 9, "spawnSpacing": 3, "spawnSeed": 3, "workers": 2}`

const testScene = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "pillar", "geometry": {"type": "Point", "coordinates": [0, 12]}, "properties": {"radius": 2, "y": 5}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_WritesRecording(t *testing.T) {
	cfg := writeFile(t, "flock.json", testConfig)
	scene := writeFile(t, "scene.geojson", testScene)
	rec := filepath.Join(t.TempDir(), "out.flk")

	out, err := execute(t, "run", "--config", cfg, "--scene", scene, "--ticks", "12",
		"--record", rec, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "tick=12 agents=9")

	f, err := os.Open(rec)
	require.NoError(t, err)
	defer f.Close()
	frames, err := recording.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, frames, 12)
	assert.Equal(t, uint64(1), frames[0].Tick)
	assert.Equal(t, uint64(12), frames[11].Tick)
	assert.Len(t, frames[11].Agents, 9)
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	cfg := writeFile(t, "flock.json", testConfig)
	out, err := execute(t, "run", "--config", cfg, "--ticks", "2", "--agents", "4", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "tick=2 agents=4")
}

func TestRun_ReadsEnvironment(t *testing.T) {
	t.Setenv("FLOCK_TICKS", "3")
	t.Setenv("FLOCK_LOG_LEVEL", "error")
	out, err := execute(t, "run", "--agents", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "tick=3 agents=2")
}

func TestRun_ActorDispatch(t *testing.T) {
	cfg := writeFile(t, "flock.json", testConfig)
	out, err := execute(t, "run", "--config", cfg, "--ticks", "5", "--dispatch", "actors", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "tick=5 agents=9")

	pooled, err := execute(t, "run", "--config", cfg, "--ticks", "5", "--dispatch", "pool", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, pooled, out)
}

func TestRun_BadInputs(t *testing.T) {
	bad := writeFile(t, "bad.json", `{"sensingRadius": -4}`)
	_, err := execute(t, "run", "--config", bad, "--log-level", "error")
	assert.Error(t, err)

	_, err = execute(t, "run", "--log-level", "shouting")
	assert.Error(t, err)

	_, err = execute(t, "run", "--dispatch", "threads", "--log-level", "error")
	assert.Error(t, err)

	_, err = execute(t, "run", "--agents", "100000", "--log-level", "error")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := writeFile(t, "flock.json", testConfig)
	scene := writeFile(t, "scene.geojson", testScene)

	out, err := execute(t, "validate", "--config", cfg, "--scene", scene)
	require.NoError(t, err)
	assert.Contains(t, out, "config ok: 9 agents")
	assert.Contains(t, out, "1 obstacles")

	broken := writeFile(t, "broken.geojson", `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {}}
	]}`)
	_, err = execute(t, "validate", "--scene", broken)
	assert.Error(t, err)
}
