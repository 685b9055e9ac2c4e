package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mobile-next/gestures/activitylog"
	"github.com/mobile-next/gestures/interpreter"
	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
	"github.com/mobile-next/gestures/utils"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// DefaultHardwareProperties describes a plain wheel mouse, used when no
// hardware properties file is given.
func DefaultHardwareProperties() types.HardwareProperties {
	return types.HardwareProperties{
		HasWheel: true,
	}
}

// Pipeline is one interpreter instance with its registry and log.
type Pipeline struct {
	Registry *props.Registry
	Chain    *interpreter.Chain
	Driver   *interpreter.Driver
}

// NewPipeline builds the standard chain, applies the optional override
// file and initializes it with hwprops. Names in the override file that
// no stage registered are returned.
func NewPipeline(hwprops types.HardwareProperties, logCapacity int, propsPath string) (*Pipeline, []string, error) {
	reg := props.NewRegistry()
	chain := interpreter.NewPipeline(reg)

	var unknown []string
	if propsPath != "" {
		var err error
		unknown, err = props.LoadFile(reg, propsPath)
		if err != nil {
			return nil, nil, err
		}
	}

	log := activitylog.New(logCapacity, reg)
	driver := interpreter.NewDriver(chain, reg, log, nil)
	driver.Initialize(hwprops)

	return &Pipeline{Registry: reg, Chain: chain, Driver: driver}, unknown, nil
}

// Event is one input to a pipeline: a frame, or a timer callback at a
// given time.
type Event struct {
	HardwareState *types.HardwareState `json:"hardwareState,omitempty"`
	Timer         *float64             `json:"timer,omitempty"`
}

// ParseEvents decodes a JSON array whose elements are either
// {"hardwareState": {...}}, {"timer": now} or a bare frame.
func ParseEvents(data []byte) ([]Event, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("expected a JSON array of events: %w", err)
	}

	events := make([]Event, 0, len(raw))
	for i, item := range raw {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(item, &keys); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}

		var ev Event
		switch {
		case keys["hardwareState"] != nil:
			if err := decodeEvent(item, &ev); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		case keys["timer"] != nil:
			if err := decodeEvent(item, &ev); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		default:
			var hs types.HardwareState
			if err := json.Unmarshal(item, &hs); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
			ev.HardwareState = &hs
		}

		if ev.HardwareState == nil && ev.Timer == nil {
			return nil, fmt.Errorf("event %d: neither a frame nor a timer", i)
		}
		events = append(events, ev)
	}
	return events, nil
}

func decodeEvent(data []byte, ev *Event) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(ev)
}

// Run feeds events through the pipeline in order. Before each frame, every
// timer that fell due is fired, as an event loop would.
func (p *Pipeline) Run(events []Event) []types.Gesture {
	var out []types.Gesture
	for _, ev := range events {
		if ev.Timer != nil {
			if g := p.Driver.HandleTimer(*ev.Timer); g != nil {
				out = append(out, *g)
			}
			continue
		}

		hs := ev.HardwareState.Clone()
		out = append(out, p.Driver.AdvanceTo(hs.Timestamp)...)
		if g := p.Driver.PushHardwareState(&hs); g != nil {
			out = append(out, *g)
		}
	}
	utils.Verbose("ran %d events, %d gestures", len(events), len(out))
	return out
}

// PendingDeadline returns the next timer deadline, or nil.
func (p *Pipeline) PendingDeadline() *float64 {
	d := p.Driver.Deadline()
	if d == interpreter.NoDeadline {
		return nil
	}
	return &d
}

func readHardwareProperties(path string) (types.HardwareProperties, error) {
	if path == "" {
		return DefaultHardwareProperties(), nil
	}

	data, err := utils.ReadInput(path)
	if err != nil {
		return types.HardwareProperties{}, fmt.Errorf("failed to read hardware properties: %w", err)
	}

	hwprops := DefaultHardwareProperties()
	if err := json.Unmarshal(data, &hwprops); err != nil {
		return types.HardwareProperties{}, fmt.Errorf("invalid hardware properties: %w", err)
	}
	return hwprops, nil
}
