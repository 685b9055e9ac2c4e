// Package interpreter turns hardware frames into gestures. An Interpreter is
// either a leaf that classifies frames or a Chain of Stages wrapped around
// another Interpreter.
package interpreter

import (
	"github.com/mobile-next/gestures/types"
)

// NoDeadline is written to a timeout out-param (or returned from
// Stage.Deadline) when no timer is wanted.
const NoDeadline = -1.0

// GestureConsumer receives every gesture the pipeline emits.
type GestureConsumer interface {
	ConsumeGesture(g types.Gesture)
}

// GestureConsumerFunc adapts a plain function to GestureConsumer.
type GestureConsumerFunc func(g types.Gesture)

func (f GestureConsumerFunc) ConsumeGesture(g types.Gesture) { f(g) }

// Interpreter is the contract every pipeline element implements.
//
// SyncInterpret and HandleTimer return at most one gesture. When timeout is
// non-nil the callee always writes it: a non-negative delay in seconds
// requests a HandleTimer call after that delay, NoDeadline cancels. An
// interpreter has one outstanding timer, so each answer replaces the last.
// Calls must be serialized by the caller.
type Interpreter interface {
	Initialize(hwprops *types.HardwareProperties, metrics *Metrics, mprops *MetricsProperties, consumer GestureConsumer)
	SyncInterpret(hwstate *types.HardwareState, timeout *float64) *types.Gesture
	HandleTimer(now float64, timeout *float64) *types.Gesture
}

// Stage is a filter layered over an Interpreter by a Chain. Frames pass
// down through FilterHardwareState before reaching the leaf, gestures pass
// back up through FilterGesture.
type Stage interface {
	Name() string
	Initialize(hwprops *types.HardwareProperties)
	// FilterHardwareState may modify the frame in place.
	FilterHardwareState(hwstate *types.HardwareState)
	// FilterGesture may return g, a replacement, or nil to swallow it.
	FilterGesture(g *types.Gesture) *types.Gesture
	HandleTimer(now float64) *types.Gesture
	// Deadline is the absolute time the stage wants HandleTimer called, or
	// NoDeadline.
	Deadline() float64
}

func setTimeout(timeout *float64, value float64) {
	if timeout != nil {
		*timeout = value
	}
}

// timerRequested reports whether a timeout value asks for a callback.
func timerRequested(timeout float64) bool {
	return timeout >= 0
}
