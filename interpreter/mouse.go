package interpreter

import (
	"math"

	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
)

// hi-res wheel units per detent
const wheelHiResUnitsPerNotch = 120.0

// MouseInterpreter is the leaf for relative pointing devices. Each frame
// yields at most one gesture, checked in order: button transitions, wheel
// motion, pointer motion.
type MouseInterpreter struct {
	outputMouseWheelGestures *props.BoolProperty
	hiResScrolling           *props.BoolProperty
	wheelPixelsPerNotch      *props.DoubleProperty
	wheelAcceleration        *props.BoolProperty
	wheelAccelThreshold      *props.DoubleProperty
	wheelAccelGain           *props.DoubleProperty
	wheelAccelMax            *props.DoubleProperty
	wheelMinInterval         *props.DoubleProperty

	hwprops types.HardwareProperties

	prev    types.HardwareState
	hasPrev bool
}

func NewMouseInterpreter(reg *props.Registry) *MouseInterpreter {
	return &MouseInterpreter{
		outputMouseWheelGestures: reg.Bool("Output Mouse Wheel Gestures", true),
		hiResScrolling:           reg.Bool("Mouse High Resolution Scrolling", true),
		wheelPixelsPerNotch:      reg.Double("Mouse Wheel Pixels Per Notch", 53.0),
		wheelAcceleration:        reg.Bool("Mouse Wheel Acceleration", true),
		wheelAccelThreshold:      reg.Double("Mouse Wheel Acceleration Threshold", 10.0),
		wheelAccelGain:           reg.Double("Mouse Wheel Acceleration Gain", 0.05),
		wheelAccelMax:            reg.Double("Mouse Wheel Acceleration Max", 4.0),
		wheelMinInterval:         reg.Double("Mouse Wheel Minimum Interval", 0.008),
	}
}

func (m *MouseInterpreter) Initialize(hwprops *types.HardwareProperties, metrics *Metrics, mprops *MetricsProperties, consumer GestureConsumer) {
	if hwprops != nil {
		m.hwprops = *hwprops
	}
	m.prev = types.HardwareState{}
	m.hasPrev = false
}

func (m *MouseInterpreter) SyncInterpret(hwstate *types.HardwareState, timeout *float64) *types.Gesture {
	setTimeout(timeout, NoDeadline)

	g := m.classify(hwstate)
	m.prev = hwstate.ShallowCopy()
	m.hasPrev = true
	return g
}

func (m *MouseInterpreter) HandleTimer(now float64, timeout *float64) *types.Gesture {
	setTimeout(timeout, NoDeadline)
	return nil
}

// prevTimestamp is the start of a gesture ending at hwstate. It never lies
// after hwstate, even when frames arrive out of order.
func (m *MouseInterpreter) prevTimestamp(hwstate *types.HardwareState) float64 {
	if !m.hasPrev {
		return hwstate.Timestamp
	}
	return math.Min(m.prev.Timestamp, hwstate.Timestamp)
}

func (m *MouseInterpreter) classify(hwstate *types.HardwareState) *types.Gesture {
	var down, up uint32
	for _, b := range types.AllButtons {
		wasDown := m.prev.ButtonsDown&b != 0
		isDown := hwstate.ButtonsDown&b != 0
		if !wasDown && isDown {
			down |= b
		}
		if wasDown && !isDown {
			up |= b
		}
	}
	if down != 0 || up != 0 {
		g := types.NewButtonsChange(m.prevTimestamp(hwstate), hwstate.Timestamp, down, up, false)
		return &g
	}

	if g := m.interpretWheel(hwstate); g != nil {
		return g
	}

	if hwstate.RelX != 0 || hwstate.RelY != 0 {
		g := types.NewMove(m.prevTimestamp(hwstate), hwstate.Timestamp, hwstate.RelX, hwstate.RelY)
		return &g
	}
	return nil
}

// verticalWheel returns the vertical motion in notches and in 120ths of a
// notch, before the axis is inverted.
func (m *MouseInterpreter) verticalWheel(hwstate *types.HardwareState) (float64, int) {
	if m.hwprops.WheelIsHiRes && m.hiResScrolling.Val() {
		return hwstate.RelWheelHiRes / wheelHiResUnitsPerNotch, int(math.Round(hwstate.RelWheelHiRes))
	}
	return hwstate.RelWheel, int(math.Round(hwstate.RelWheel * wheelHiResUnitsPerNotch))
}

func (m *MouseInterpreter) interpretWheel(hwstate *types.HardwareState) *types.Gesture {
	vNotches, vTicks := m.verticalWheel(hwstate)
	hNotches := hwstate.RelHWheel
	hTicks := int(math.Round(hNotches * wheelHiResUnitsPerNotch))

	if vNotches == 0 && hNotches == 0 {
		return nil
	}

	dt := m.wheelInterval(hwstate)
	// positive wheel values scroll up, which is negative dy
	dy := m.wheelDistance(-vNotches, dt)
	dx := m.wheelDistance(hNotches, dt)

	ts := hwstate.Timestamp
	var g types.Gesture
	if m.outputMouseWheelGestures.Val() {
		g = types.NewMouseWheel(ts, ts, dx, dy, hTicks, -vTicks)
	} else {
		g = types.NewScroll(ts, ts, dx, dy)
	}
	return &g
}

// wheelInterval is the time since the previous frame, floored so that
// bursts of events arriving together cannot produce unbounded speeds.
func (m *MouseInterpreter) wheelInterval(hwstate *types.HardwareState) float64 {
	if !m.hasPrev {
		return 1.0
	}
	return math.Max(hwstate.Timestamp-m.prev.Timestamp, m.wheelMinInterval.Val())
}

func (m *MouseInterpreter) wheelDistance(notches, dt float64) float64 {
	if notches == 0 {
		return 0
	}

	factor := 1.0
	if m.wheelAcceleration.Val() && dt > 0 {
		speed := math.Abs(notches) / dt
		if threshold := m.wheelAccelThreshold.Val(); speed > threshold {
			factor = math.Min(1+m.wheelAccelGain.Val()*(speed-threshold), m.wheelAccelMax.Val())
		}
	}
	return notches * m.wheelPixelsPerNotch.Val() * factor
}
