package interpreter

import (
	"github.com/mobile-next/gestures/types"
)

// scriptedLeaf records what reaches it and returns queued gestures and
// timeouts, one per call.
type scriptedLeaf struct {
	frames   []types.HardwareState
	timers   []float64
	gestures []*types.Gesture
	timeouts []float64
}

func (l *scriptedLeaf) Initialize(*types.HardwareProperties, *Metrics, *MetricsProperties, GestureConsumer) {
}

func (l *scriptedLeaf) next() (*types.Gesture, float64) {
	var g *types.Gesture
	timeout := NoDeadline
	if len(l.gestures) > 0 {
		g, l.gestures = l.gestures[0], l.gestures[1:]
	}
	if len(l.timeouts) > 0 {
		timeout, l.timeouts = l.timeouts[0], l.timeouts[1:]
	}
	return g, timeout
}

func (l *scriptedLeaf) SyncInterpret(hwstate *types.HardwareState, timeout *float64) *types.Gesture {
	l.frames = append(l.frames, hwstate.Clone())
	g, t := l.next()
	setTimeout(timeout, t)
	return g
}

func (l *scriptedLeaf) HandleTimer(now float64, timeout *float64) *types.Gesture {
	l.timers = append(l.timers, now)
	g, t := l.next()
	setTimeout(timeout, t)
	return g
}

func (l *scriptedLeaf) queue(g *types.Gesture) {
	l.gestures = append(l.gestures, g)
}

// recordingStage tags gestures it sees and can hold its own deadline.
type recordingStage struct {
	name     string
	deadline float64
	onTimer  *types.Gesture
	seen     []types.GestureType
	fired    []float64
}

func newRecordingStage(name string) *recordingStage {
	return &recordingStage{name: name, deadline: NoDeadline}
}

func (s *recordingStage) Name() string                            { return s.name }
func (s *recordingStage) Initialize(*types.HardwareProperties)    {}
func (s *recordingStage) FilterHardwareState(*types.HardwareState) {}
func (s *recordingStage) Deadline() float64                       { return s.deadline }

func (s *recordingStage) FilterGesture(g *types.Gesture) *types.Gesture {
	s.seen = append(s.seen, g.Type())
	return g
}

func (s *recordingStage) HandleTimer(now float64) *types.Gesture {
	s.fired = append(s.fired, now)
	s.deadline = NoDeadline
	g := s.onTimer
	s.onTimer = nil
	return g
}

func gesturePtr(g types.Gesture) *types.Gesture {
	return &g
}

func finger(id int, pressure float64) types.FingerState {
	return types.FingerState{Pressure: pressure, PositionX: 10, PositionY: 1, TrackingID: id}
}

func frame(ts float64, buttons uint32, fingers ...types.FingerState) types.HardwareState {
	return types.HardwareState{
		Timestamp:   ts,
		ButtonsDown: buttons,
		FingerCount: len(fingers),
		TouchCount:  len(fingers),
		Fingers:     fingers,
	}
}
