package interpreter

import (
	"math"

	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
)

// force thresholds in grams, indexed by sensitivity - 1
var (
	hapticDownThresholds = [5]float64{110, 130, 150, 170, 190}
	hapticUpThresholds   = [5]float64{90, 110, 130, 150, 170}
)

// HapticButtonGeneratorFilter synthesizes the left button from finger force
// on haptic touchpads, which have no physical switch. The button goes down
// above the down threshold and comes back up below the (lower) up threshold.
// While a scroll, swipe or pinch is in progress a new press is suppressed.
type HapticButtonGeneratorFilter struct {
	sensitivity          *props.IntProperty
	useCustomThresholds  *props.BoolProperty
	customDownThreshold  *props.DoubleProperty
	customUpThreshold    *props.DoubleProperty
	enabled              *props.BoolProperty
	forceScale           *props.DoubleProperty
	forceTranslate       *props.DoubleProperty
	activeGestureTimeout *props.DoubleProperty

	isHapticPad bool
	buttonDown  bool

	activeGesture         bool
	activeGestureDeadline float64
}

func NewHapticButtonGeneratorFilter(reg *props.Registry) *HapticButtonGeneratorFilter {
	return &HapticButtonGeneratorFilter{
		sensitivity:          reg.Int("Haptic Button Sensitivity", 3),
		useCustomThresholds:  reg.Bool("Use Custom Haptic Button Force Thresholds", false),
		customDownThreshold:  reg.Double("Custom Haptic Button Force Threshold Down", 150.0),
		customUpThreshold:    reg.Double("Custom Haptic Button Force Threshold Up", 130.0),
		enabled:              reg.Bool("Enable Haptic Button Generation", false),
		forceScale:           reg.Double("Force Calibration Slope", 1.0),
		forceTranslate:       reg.Double("Force Calibration Offset", 0.0),
		activeGestureTimeout: reg.Double("Haptic Button Active Gesture Timeout", 0.1),
	}
}

func (f *HapticButtonGeneratorFilter) Name() string {
	return "HapticButtonGeneratorFilter"
}

func (f *HapticButtonGeneratorFilter) Initialize(hwprops *types.HardwareProperties) {
	f.isHapticPad = hwprops != nil && hwprops.IsHapticPad
	f.buttonDown = false
	f.activeGesture = false
}

func (f *HapticButtonGeneratorFilter) active() bool {
	return f.enabled.Val() && f.isHapticPad
}

// ButtonDown reports the synthesized button state.
func (f *HapticButtonGeneratorFilter) ButtonDown() bool {
	return f.buttonDown
}

// Suppressed reports whether new presses are currently blocked.
func (f *HapticButtonGeneratorFilter) Suppressed() bool {
	return f.activeGesture
}

func (f *HapticButtonGeneratorFilter) thresholds() (down, up float64) {
	if f.useCustomThresholds.Val() {
		return f.customDownThreshold.Val(), f.customUpThreshold.Val()
	}
	// sensitivity must be 1..5
	i := f.sensitivity.Val() - 1
	return hapticDownThresholds[i], hapticUpThresholds[i]
}

func (f *HapticButtonGeneratorFilter) FilterHardwareState(hwstate *types.HardwareState) {
	if !f.active() {
		return
	}

	if f.activeGesture && hwstate.Timestamp >= f.activeGestureDeadline {
		f.activeGesture = false
	}

	// the firmware button is meaningless on a haptic pad
	hwstate.ButtonsDown = 0

	down, up := f.thresholds()

	force := 0.0
	for _, fs := range hwstate.ActiveFingers() {
		force = math.Max(force, fs.Pressure)
	}
	force = force*f.forceScale.Val() + f.forceTranslate.Val()

	if f.buttonDown {
		if force < up {
			f.buttonDown = false
		} else {
			hwstate.ButtonsDown = types.ButtonLeft
		}
	} else if force > down && !f.activeGesture {
		f.buttonDown = true
		hwstate.ButtonsDown = types.ButtonLeft
	}
}

func (f *HapticButtonGeneratorFilter) FilterGesture(g *types.Gesture) *types.Gesture {
	if !f.active() {
		return g
	}

	switch d := g.Details.(type) {
	case types.Scroll, types.Swipe, types.FourFingerSwipe:
		f.openSuppression(g.EndTime)
	case types.Pinch:
		if d.ZoomState == types.ZoomStateEnd {
			f.activeGesture = false
		} else {
			f.openSuppression(g.EndTime)
		}
	case types.SwipeLift, types.FourFingerSwipeLift, types.Fling:
		f.activeGesture = false
	}
	return g
}

func (f *HapticButtonGeneratorFilter) openSuppression(at float64) {
	f.activeGesture = true
	f.activeGestureDeadline = at + f.activeGestureTimeout.Val()
}

func (f *HapticButtonGeneratorFilter) HandleTimer(now float64) *types.Gesture {
	if f.activeGesture && now >= f.activeGestureDeadline {
		f.activeGesture = false
	}
	return nil
}

func (f *HapticButtonGeneratorFilter) Deadline() float64 {
	if !f.activeGesture {
		return NoDeadline
	}
	return f.activeGestureDeadline
}
