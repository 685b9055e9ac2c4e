package commands

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mobile-next/gestures/replay"
	"github.com/mobile-next/gestures/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mouseFrames = `[
	{"timestamp": 1, "relX": 3},
	{"hardwareState": {"timestamp": 2, "buttonsDown": 1}},
	{"timer": 2.5},
	{"timestamp": 3, "buttonsDown": 1, "relWheel": 1}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResponses(t *testing.T) {
	ok := NewSuccessResponse(map[string]int{"a": 1})
	assert.Equal(t, "ok", ok.Status)
	assert.Empty(t, ok.Error)

	failed := NewErrorResponse(errors.New("boom"))
	assert.Equal(t, "error", failed.Status)
	assert.Equal(t, "boom", failed.Error)
	assert.Nil(t, failed.Data)
}

func TestParseEvents(t *testing.T) {
	events, err := ParseEvents([]byte(mouseFrames))
	require.NoError(t, err)
	require.Len(t, events, 4)

	require.NotNil(t, events[0].HardwareState)
	assert.Equal(t, 3.0, events[0].HardwareState.RelX)
	require.NotNil(t, events[1].HardwareState)
	assert.Equal(t, types.ButtonLeft, events[1].HardwareState.ButtonsDown)
	require.NotNil(t, events[2].Timer)
	assert.Equal(t, 2.5, *events[2].Timer)
	assert.Nil(t, events[2].HardwareState)
}

func TestParseEvents_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an array", `{"timestamp": 1}`},
		{"not an object", `[1]`},
		{"unknown key next to frame", `[{"hardwareState": {"timestamp": 1}, "extra": 1}]`},
		{"timer is not a number", `[{"timer": "soon"}]`},
		{"finger missing fields", `[{"timestamp": 1, "fingers": [{"pressure": 3}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvents([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestInterpretCommand(t *testing.T) {
	frames := writeFile(t, "frames.json", mouseFrames)
	tracePath := filepath.Join(t.TempDir(), "trace.json")

	resp := InterpretCommand(InterpretRequest{FramesPath: frames, TraceOut: tracePath})
	require.Equal(t, "ok", resp.Status, resp.Error)

	data := resp.Data.(InterpretResponse)
	require.Len(t, data.Gestures, 3)
	assert.Equal(t, types.NewMove(1, 1, 3, 0), data.Gestures[0])
	assert.Equal(t, types.NewButtonsChange(1, 2, types.ButtonLeft, 0, false), data.Gestures[1])
	assert.Equal(t, types.GestureTypeMouseWheel, data.Gestures[2].Type())
	assert.Equal(t, map[string]int{"move": 1, "buttonsChange": 1, "mouseWheel": 1}, data.Metrics)
	assert.Nil(t, data.PendingDeadline)
	assert.Equal(t, tracePath, data.TracePath)

	replayed := ReplayCommand(ReplayRequest{TracePath: tracePath})
	require.Equal(t, "ok", replayed.Status, replayed.Error)
	report := replayed.Data.(replay.Report)
	assert.True(t, report.OK(), "%v", report.Divergences)
	assert.Equal(t, 1, report.Replayed["timerCallback"])
	assert.Equal(t, 3, report.Replayed["hardwareState"])
	assert.Equal(t, 3, report.Replayed["gesture"])
}

func TestInterpretCommand_PropertiesAndHardware(t *testing.T) {
	frames := writeFile(t, "frames.json", `[{"timestamp": 1, "relWheel": 1}]`)
	hwprops := writeFile(t, "hwprops.json", `{"hasWheel": true, "wheelIsHiRes": false}`)
	overrides := writeFile(t, "props.ini", "Output Mouse Wheel Gestures = false\nSomething Else = 1\n")

	resp := InterpretCommand(InterpretRequest{
		FramesPath:             frames,
		HardwarePropertiesPath: hwprops,
		PropsPath:              overrides,
	})
	require.Equal(t, "ok", resp.Status, resp.Error)

	data := resp.Data.(InterpretResponse)
	require.Len(t, data.Gestures, 1)
	assert.Equal(t, types.GestureTypeScroll, data.Gestures[0].Type())
	assert.Equal(t, []string{"Something Else"}, data.UnknownProperties)
}

func TestInterpretCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	frames := writeFile(t, "frames.json", mouseFrames)
	badFrames := writeFile(t, "bad.json", `{"timestamp": 1}`)
	badHardware := writeFile(t, "hwprops.json", `[1, 2]`)
	badProps := writeFile(t, "props.yaml", "Mouse Wheel Acceleration: sometimes\n")

	tests := []struct {
		name string
		req  InterpretRequest
	}{
		{"no frames", InterpretRequest{}},
		{"missing frames file", InterpretRequest{FramesPath: filepath.Join(dir, "missing.json")}},
		{"bad frames", InterpretRequest{FramesPath: badFrames}},
		{"bad hardware properties", InterpretRequest{FramesPath: frames, HardwarePropertiesPath: badHardware}},
		{"bad property value", InterpretRequest{FramesPath: frames, PropsPath: badProps}},
		{"unwritable trace", InterpretRequest{FramesPath: frames, TraceOut: filepath.Join(dir, "missing", "trace.json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := InterpretCommand(tt.req)
			assert.Equal(t, "error", resp.Status)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestReplayCommand_Errors(t *testing.T) {
	assert.Equal(t, "error", ReplayCommand(ReplayRequest{}).Status)
	assert.Equal(t, "error", ReplayCommand(ReplayRequest{Trace: []byte(`{"version": 1}`)}).Status)
	assert.Equal(t, "error", ReplayCommand(ReplayRequest{TracePath: filepath.Join(t.TempDir(), "missing.json")}).Status)
}

func TestReplayCommand_ReportsDivergence(t *testing.T) {
	frames := writeFile(t, "frames.json", mouseFrames)
	tracePath := filepath.Join(t.TempDir(), "trace.json")
	resp := InterpretCommand(InterpretRequest{FramesPath: frames, TraceOut: tracePath})
	require.Equal(t, "ok", resp.Status, resp.Error)

	// replaying with a different notch size changes the wheel gesture, as
	// long as the recorded value is not honored
	overrides := writeFile(t, "props.toml", "\"Mouse Wheel Pixels Per Notch\" = 20.0\n")
	replayed := ReplayCommand(ReplayRequest{
		TracePath:  tracePath,
		PropsPath:  overrides,
		HonorProps: []string{"Mouse Wheel Acceleration"},
	})
	require.Equal(t, "ok", replayed.Status, replayed.Error)

	report := replayed.Data.(replay.Report)
	require.Len(t, report.Divergences, 1)
	assert.Equal(t, "gesture", report.Divergences[0].Kind)
}

func TestPropertiesCommand(t *testing.T) {
	overrides := writeFile(t, "props.yaml", "Mouse Wheel Pixels Per Notch: 60\nBogus: 1\n")

	resp := PropertiesCommand(PropertiesRequest{PropsPath: overrides})
	require.Equal(t, "ok", resp.Status, resp.Error)

	data := resp.Data.(PropertiesResponse)
	assert.Equal(t, []string{"Bogus"}, data.UnknownProperties)

	byName := make(map[string]PropertyInfo)
	for _, p := range data.Properties {
		byName[p.Name] = p
	}
	assert.Equal(t, PropertyInfo{Name: "Mouse Wheel Pixels Per Notch", Type: "double", Value: 60.0}, byName["Mouse Wheel Pixels Per Notch"])
	assert.Equal(t, PropertyInfo{Name: "Haptic Button Sensitivity", Type: "int", Value: 3}, byName["Haptic Button Sensitivity"])
	assert.Equal(t, "bool", byName["Enable Haptic Button Generation"].Type)

	for i := 1; i < len(data.Properties); i++ {
		assert.Less(t, data.Properties[i-1].Name, data.Properties[i].Name)
	}
}

func TestPropertiesCommand_BadFile(t *testing.T) {
	overrides := writeFile(t, "props.xml", "<props/>")
	resp := PropertiesCommand(PropertiesRequest{PropsPath: overrides})
	assert.Equal(t, "error", resp.Status)
}
