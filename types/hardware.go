package types

import "fmt"

// Button bits reported in HardwareState.ButtonsDown and ButtonsChange gestures.
const (
	ButtonNone    uint32 = 0
	ButtonLeft    uint32 = 1
	ButtonMiddle  uint32 = 2
	ButtonRight   uint32 = 4
	ButtonBack    uint32 = 8
	ButtonForward uint32 = 16
)

// AllButtons lists the button bits in the order they are scanned.
var AllButtons = []uint32{ButtonLeft, ButtonMiddle, ButtonRight, ButtonBack, ButtonForward}

// Finger flags.
const (
	FingerFlagWarpX          uint32 = 1 << 0
	FingerFlagWarpY          uint32 = 1 << 1
	FingerFlagNoTap          uint32 = 1 << 2
	FingerFlagPossiblePalm   uint32 = 1 << 3
	FingerFlagPalm           uint32 = 1 << 4
	FingerFlagMergedFinger   uint32 = 1 << 5
	FingerFlagTrendIncX      uint32 = 1 << 6
	FingerFlagTrendDecX      uint32 = 1 << 7
	FingerFlagTrendIncY      uint32 = 1 << 8
	FingerFlagTrendDecY      uint32 = 1 << 9
	FingerFlagInstantaneousX uint32 = 1 << 10
)

// FingerState is one contact as reported by the touch hardware.
// TrackingID identifies the same physical contact across frames.
type FingerState struct {
	TouchMajor  float64 `json:"touchMajor"`
	TouchMinor  float64 `json:"touchMinor"`
	WidthMajor  float64 `json:"widthMajor"`
	WidthMinor  float64 `json:"widthMinor"`
	Pressure    float64 `json:"pressure"`
	Orientation float64 `json:"orientation"`
	PositionX   float64 `json:"positionX"`
	PositionY   float64 `json:"positionY"`
	TrackingID  int     `json:"trackingId"`
	Flags       uint32  `json:"flags"`
}

// UnmarshalJSON rejects finger objects with missing fields.
func (fs *FingerState) UnmarshalJSON(data []byte) error {
	type plain FingerState
	var p plain
	if err := UnmarshalStrict(data, &p); err != nil {
		return fmt.Errorf("invalid finger state: %w", err)
	}
	*fs = FingerState(p)
	return nil
}

// HardwareState is a single frame of input. It is owned by the caller and
// may be modified in place by the stages it passes through.
type HardwareState struct {
	Timestamp     float64       `json:"timestamp"`
	ButtonsDown   uint32        `json:"buttonsDown"`
	FingerCount   int           `json:"fingerCount"`
	TouchCount    int           `json:"touchCount"`
	Fingers       []FingerState `json:"fingers"`
	RelX          float64       `json:"relX"`
	RelY          float64       `json:"relY"`
	RelWheel      float64       `json:"relWheel"`
	RelWheelHiRes float64       `json:"relWheelHiRes"`
	RelHWheel     float64       `json:"relHWheel"`
	MscTimestamp  float64       `json:"mscTimestamp"`
}

// Clone returns a deep copy of the frame, including its finger array.
func (hs HardwareState) Clone() HardwareState {
	out := hs
	if hs.Fingers != nil {
		out.Fingers = make([]FingerState, len(hs.Fingers))
		copy(out.Fingers, hs.Fingers)
	}
	return out
}

// ShallowCopy returns a copy of the frame without fingers.
func (hs HardwareState) ShallowCopy() HardwareState {
	out := hs
	out.Fingers = nil
	return out
}

// GetFingerState returns the finger with the given tracking id, or nil.
func (hs *HardwareState) GetFingerState(trackingID int) *FingerState {
	for i := range hs.Fingers {
		if hs.Fingers[i].TrackingID == trackingID {
			return &hs.Fingers[i]
		}
	}
	return nil
}

// ActiveFingers returns the fingers the frame claims are down, bounded by
// the length of the finger array.
func (hs *HardwareState) ActiveFingers() []FingerState {
	n := hs.FingerCount
	if n > len(hs.Fingers) {
		n = len(hs.Fingers)
	}
	if n < 0 {
		n = 0
	}
	return hs.Fingers[:n]
}

// HardwareProperties describes a device. It is set once at initialization
// and shared read-only by every stage.
type HardwareProperties struct {
	Left               float64 `json:"left"`
	Top                float64 `json:"top"`
	Right              float64 `json:"right"`
	Bottom             float64 `json:"bottom"`
	ResX               float64 `json:"resX"`
	ResY               float64 `json:"resY"`
	ScreenDPIX         float64 `json:"screenDpiX"`
	ScreenDPIY         float64 `json:"screenDpiY"`
	OrientationMinimum float64 `json:"orientationMinimum"`
	OrientationMaximum float64 `json:"orientationMaximum"`
	MaxFingerCount     int     `json:"maxFingerCount"`
	MaxTouchCount      int     `json:"maxTouchCount"`
	SupportsT5R2       bool    `json:"supportsT5R2"`
	SupportSemiMT      bool    `json:"supportSemiMt"`
	IsButtonPad        bool    `json:"isButtonPad"`
	HasWheel           bool    `json:"hasWheel"`
	WheelIsHiRes       bool    `json:"wheelIsHiRes"`
	IsHapticPad        bool    `json:"isHapticPad"`
}
