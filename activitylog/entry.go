package activitylog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
)

// EntryType tags the variants of Entry.
type EntryType int

const (
	EntryHardwareState EntryType = iota
	EntryGesture
	EntryTimerCallback
	EntryCallbackRequest
	EntryPropChange
)

var entryTypeNames = map[EntryType]string{
	EntryHardwareState:   "hardwareState",
	EntryGesture:         "gesture",
	EntryTimerCallback:   "timerCallback",
	EntryCallbackRequest: "callbackRequest",
	EntryPropChange:      "propChange",
}

func (t EntryType) String() string {
	if name, ok := entryTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EntryType(%d)", int(t))
}

// Entry is one recorded event. The concrete types below are the only
// implementations.
type Entry interface {
	Type() EntryType
	isEntry()
}

// HardwareStateEntry records an input frame as it entered the pipeline.
type HardwareStateEntry struct {
	State types.HardwareState
}

// GestureEntry records a gesture the pipeline emitted.
type GestureEntry struct {
	Gesture types.Gesture
}

// TimerCallbackEntry records a HandleTimer call.
type TimerCallbackEntry struct {
	Now float64
}

// CallbackRequestEntry records the absolute time a timer was requested for.
type CallbackRequestEntry struct {
	When float64
}

// PropChangeEntry records a property value change.
type PropChangeEntry struct {
	Name      string
	ValueType props.Type
	Value     interface{}
}

func (HardwareStateEntry) Type() EntryType   { return EntryHardwareState }
func (GestureEntry) Type() EntryType         { return EntryGesture }
func (TimerCallbackEntry) Type() EntryType   { return EntryTimerCallback }
func (CallbackRequestEntry) Type() EntryType { return EntryCallbackRequest }
func (PropChangeEntry) Type() EntryType      { return EntryPropChange }

func (HardwareStateEntry) isEntry()   {}
func (GestureEntry) isEntry()         {}
func (TimerCallbackEntry) isEntry()   {}
func (CallbackRequestEntry) isEntry() {}
func (PropChangeEntry) isEntry()      {}

type wireHardwareState struct {
	Type          string              `json:"type"`
	HardwareState types.HardwareState `json:"hardwareState"`
}

type wireGesture struct {
	Type    string        `json:"type"`
	Gesture types.Gesture `json:"gesture"`
}

type wireTimerCallback struct {
	Type string  `json:"type"`
	Now  float64 `json:"now"`
}

type wireCallbackRequest struct {
	Type string  `json:"type"`
	When float64 `json:"when"`
}

type wirePropChange struct {
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	ValueType string      `json:"valueType"`
	Value     interface{} `json:"value"`
}

// MarshalEntry encodes e as a JSON object tagged with its "type".
func MarshalEntry(e Entry) ([]byte, error) {
	name := e.Type().String()
	switch v := e.(type) {
	case HardwareStateEntry:
		return json.Marshal(wireHardwareState{Type: name, HardwareState: v.State})
	case GestureEntry:
		return json.Marshal(wireGesture{Type: name, Gesture: v.Gesture})
	case TimerCallbackEntry:
		return json.Marshal(wireTimerCallback{Type: name, Now: v.Now})
	case CallbackRequestEntry:
		return json.Marshal(wireCallbackRequest{Type: name, When: v.When})
	case PropChangeEntry:
		return json.Marshal(wirePropChange{Type: name, Name: v.Name, ValueType: v.ValueType.String(), Value: v.Value})
	}
	return nil, fmt.Errorf("unknown entry %T", e)
}

// UnmarshalEntry decodes one entry object. Every field of the named entry
// type must be present.
func UnmarshalEntry(data []byte) (Entry, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := types.UnmarshalStrict(data, &tag); err != nil {
		return nil, fmt.Errorf("invalid entry: %w", err)
	}

	switch tag.Type {
	case EntryHardwareState.String():
		var w wireHardwareState
		if err := types.UnmarshalStrict(data, &w); err != nil {
			return nil, fmt.Errorf("invalid hardwareState entry: %w", err)
		}
		if err := types.UnmarshalStrict(rawField(data, "hardwareState"), &w.HardwareState); err != nil {
			return nil, fmt.Errorf("invalid hardwareState entry: %w", err)
		}
		return HardwareStateEntry{State: w.HardwareState}, nil

	case EntryGesture.String():
		var w wireGesture
		if err := types.UnmarshalStrict(data, &w); err != nil {
			return nil, fmt.Errorf("invalid gesture entry: %w", err)
		}
		return GestureEntry{Gesture: w.Gesture}, nil

	case EntryTimerCallback.String():
		var w wireTimerCallback
		if err := types.UnmarshalStrict(data, &w); err != nil {
			return nil, fmt.Errorf("invalid timerCallback entry: %w", err)
		}
		return TimerCallbackEntry{Now: w.Now}, nil

	case EntryCallbackRequest.String():
		var w wireCallbackRequest
		if err := types.UnmarshalStrict(data, &w); err != nil {
			return nil, fmt.Errorf("invalid callbackRequest entry: %w", err)
		}
		return CallbackRequestEntry{When: w.When}, nil

	case EntryPropChange.String():
		return unmarshalPropChange(data)
	}

	return nil, fmt.Errorf("unknown entry type: %q", tag.Type)
}

func unmarshalPropChange(data []byte) (Entry, error) {
	var w wirePropChange
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&w); err != nil {
		return nil, fmt.Errorf("invalid propChange entry: %w", err)
	}
	if err := types.UnmarshalStrict(data, &wirePropChange{}); err != nil {
		return nil, fmt.Errorf("invalid propChange entry: %w", err)
	}

	valueType, err := props.ParseType(w.ValueType)
	if err != nil {
		return nil, fmt.Errorf("invalid propChange entry: %w", err)
	}
	value, err := coerceValue(valueType, w.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid propChange entry %q: %w", w.Name, err)
	}

	return PropChangeEntry{Name: w.Name, ValueType: valueType, Value: value}, nil
}

// coerceValue turns a decoded JSON value into the Go type used for the
// given property type.
func coerceValue(t props.Type, v interface{}) (interface{}, error) {
	switch t {
	case props.TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case props.TypeInt:
		if n, ok := v.(json.Number); ok {
			i, err := n.Int64()
			if err != nil {
				return nil, err
			}
			return int(i), nil
		}
	case props.TypeDouble:
		if n, ok := v.(json.Number); ok {
			return n.Float64()
		}
	case props.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("value %v is not a %s", v, t)
}

// SnapshotValue converts a snapshot value whose type was not recorded.
// Integral numbers become int and other numbers double, matching what
// Registry properties accept.
func SnapshotValue(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func rawField(data []byte, name string) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	return fields[name]
}
