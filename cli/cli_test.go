package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (map[string]interface{}, error) {
	t.Helper()

	// flags are package globals, reset what a previous run may have set
	propsPath, hardwarePropsPath, traceOut, logCapacity, honorProps = "", "", "", 0, nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	var resp map[string]interface{}
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
	}
	return resp, err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestInterpretThenReplay(t *testing.T) {
	frames := writeFile(t, "frames.json", `[
		{"timestamp": 1, "relX": 2},
		{"timestamp": 2, "buttonsDown": 1},
		{"timestamp": 3}
	]`)
	trace := filepath.Join(t.TempDir(), "trace.json")

	resp, err := run(t, "interpret", frames, "--trace-out", trace)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]interface{})
	assert.Len(t, data["gestures"], 3)

	resp, err = run(t, "replay", trace)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
	assert.Empty(t, resp["data"].(map[string]interface{})["divergences"])
}

func TestReplayDivergenceFails(t *testing.T) {
	frames := writeFile(t, "frames.json", `[{"timestamp": 1, "relWheel": 1}]`)
	trace := filepath.Join(t.TempDir(), "trace.json")
	_, err := run(t, "interpret", frames, "--trace-out", trace)
	require.NoError(t, err)

	overrides := writeFile(t, "props.yaml", "Output Mouse Wheel Gestures: false\n")
	resp, err := run(t, "replay", trace, "--props", overrides, "--honor", "Mouse Wheel Acceleration")
	assert.Error(t, err)
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["data"].(map[string]interface{})["divergences"])
}

func TestInterpretErrors(t *testing.T) {
	resp, err := run(t, "interpret", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.Equal(t, "error", resp["status"])

	_, err = run(t, "interpret")
	assert.Error(t, err)
}

func TestProps(t *testing.T) {
	resp, err := run(t, "props")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["data"].(map[string]interface{})["properties"])
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.NotEmpty(t, bytes.TrimSpace(out.Bytes()))
}
