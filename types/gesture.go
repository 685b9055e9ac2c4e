package types

import (
	"encoding/json"
	"fmt"
)

// GestureType identifies the kind of a gesture.
type GestureType int

const (
	GestureTypeNull GestureType = iota
	GestureTypeContactInitiated
	GestureTypeMove
	GestureTypeScroll
	GestureTypeButtonsChange
	GestureTypeSwipe
	GestureTypeSwipeLift
	GestureTypePinch
	GestureTypeFling
	GestureTypeMouseWheel
	GestureTypeFourFingerSwipe
	GestureTypeFourFingerSwipeLift
	GestureTypeMetrics
)

var gestureTypeNames = map[GestureType]string{
	GestureTypeNull:                "null",
	GestureTypeContactInitiated:    "contactInitiated",
	GestureTypeMove:                "move",
	GestureTypeScroll:              "scroll",
	GestureTypeButtonsChange:       "buttonsChange",
	GestureTypeSwipe:               "swipe",
	GestureTypeSwipeLift:           "swipeLift",
	GestureTypePinch:               "pinch",
	GestureTypeFling:               "fling",
	GestureTypeMouseWheel:          "mouseWheel",
	GestureTypeFourFingerSwipe:     "fourFingerSwipe",
	GestureTypeFourFingerSwipeLift: "fourFingerSwipeLift",
	GestureTypeMetrics:             "metrics",
}

// AllGestureTypes lists every gesture kind.
var AllGestureTypes = []GestureType{
	GestureTypeNull,
	GestureTypeContactInitiated,
	GestureTypeMove,
	GestureTypeScroll,
	GestureTypeButtonsChange,
	GestureTypeSwipe,
	GestureTypeSwipeLift,
	GestureTypePinch,
	GestureTypeFling,
	GestureTypeMouseWheel,
	GestureTypeFourFingerSwipe,
	GestureTypeFourFingerSwipeLift,
	GestureTypeMetrics,
}

func (t GestureType) String() string {
	if name, ok := gestureTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("GestureType(%d)", int(t))
}

// ParseGestureType maps a wire name back to its GestureType.
func ParseGestureType(name string) (GestureType, error) {
	for t, n := range gestureTypeNames {
		if n == name {
			return t, nil
		}
	}
	return GestureTypeNull, fmt.Errorf("unknown gesture type: %s", name)
}

// Pinch zoom states.
const (
	ZoomStateStart  uint32 = 1
	ZoomStateUpdate uint32 = 2
	ZoomStateEnd    uint32 = 4
)

// Fling states.
const (
	FlingStateStart   uint32 = 0
	FlingStateTapDown uint32 = 1
)

// Metrics gesture types.
const (
	MetricsTypeNoisyGround   = 0
	MetricsTypeMouseMovement = 1
)

// Details is the kind-specific payload of a gesture. The concrete type
// determines the gesture kind.
type Details interface {
	gestureType() GestureType
}

type Null struct{}

type ContactInitiated struct{}

type Move struct {
	Dx        float64 `json:"dx"`
	Dy        float64 `json:"dy"`
	OrdinalDx float64 `json:"ordinalDx"`
	OrdinalDy float64 `json:"ordinalDy"`
}

type Scroll struct {
	Dx        float64 `json:"dx"`
	Dy        float64 `json:"dy"`
	OrdinalDx float64 `json:"ordinalDx"`
	OrdinalDy float64 `json:"ordinalDy"`
	StopFling bool    `json:"stopFling"`
}

type ButtonsChange struct {
	Down  uint32 `json:"down"`
	Up    uint32 `json:"up"`
	IsTap bool   `json:"isTap"`
}

type Swipe struct {
	Dx        float64 `json:"dx"`
	Dy        float64 `json:"dy"`
	OrdinalDx float64 `json:"ordinalDx"`
	OrdinalDy float64 `json:"ordinalDy"`
}

type SwipeLift struct{}

type Pinch struct {
	Dz        float64 `json:"dz"`
	OrdinalDz float64 `json:"ordinalDz"`
	ZoomState uint32  `json:"zoomState"`
}

type Fling struct {
	Vx         float64 `json:"vx"`
	Vy         float64 `json:"vy"`
	OrdinalVx  float64 `json:"ordinalVx"`
	OrdinalVy  float64 `json:"ordinalVy"`
	FlingState uint32  `json:"flingState"`
}

// MouseWheel carries both the scaled distance and the raw tick count in
// 120ths of a notch.
type MouseWheel struct {
	Dx        float64 `json:"dx"`
	Dy        float64 `json:"dy"`
	TickDx120 int     `json:"tick120thsDx"`
	TickDy120 int     `json:"tick120thsDy"`
}

type FourFingerSwipe struct {
	Dx        float64 `json:"dx"`
	Dy        float64 `json:"dy"`
	OrdinalDx float64 `json:"ordinalDx"`
	OrdinalDy float64 `json:"ordinalDy"`
}

type FourFingerSwipeLift struct{}

type Metrics struct {
	MetricsType int     `json:"metricsType"`
	Data1       float64 `json:"data1"`
	Data2       float64 `json:"data2"`
}

func (Null) gestureType() GestureType                { return GestureTypeNull }
func (ContactInitiated) gestureType() GestureType    { return GestureTypeContactInitiated }
func (Move) gestureType() GestureType                { return GestureTypeMove }
func (Scroll) gestureType() GestureType              { return GestureTypeScroll }
func (ButtonsChange) gestureType() GestureType       { return GestureTypeButtonsChange }
func (Swipe) gestureType() GestureType               { return GestureTypeSwipe }
func (SwipeLift) gestureType() GestureType           { return GestureTypeSwipeLift }
func (Pinch) gestureType() GestureType               { return GestureTypePinch }
func (Fling) gestureType() GestureType               { return GestureTypeFling }
func (MouseWheel) gestureType() GestureType          { return GestureTypeMouseWheel }
func (FourFingerSwipe) gestureType() GestureType     { return GestureTypeFourFingerSwipe }
func (FourFingerSwipeLift) gestureType() GestureType { return GestureTypeFourFingerSwipeLift }
func (Metrics) gestureType() GestureType             { return GestureTypeMetrics }

func newDetails(t GestureType) (Details, error) {
	switch t {
	case GestureTypeNull:
		return &Null{}, nil
	case GestureTypeContactInitiated:
		return &ContactInitiated{}, nil
	case GestureTypeMove:
		return &Move{}, nil
	case GestureTypeScroll:
		return &Scroll{}, nil
	case GestureTypeButtonsChange:
		return &ButtonsChange{}, nil
	case GestureTypeSwipe:
		return &Swipe{}, nil
	case GestureTypeSwipeLift:
		return &SwipeLift{}, nil
	case GestureTypePinch:
		return &Pinch{}, nil
	case GestureTypeFling:
		return &Fling{}, nil
	case GestureTypeMouseWheel:
		return &MouseWheel{}, nil
	case GestureTypeFourFingerSwipe:
		return &FourFingerSwipe{}, nil
	case GestureTypeFourFingerSwipeLift:
		return &FourFingerSwipeLift{}, nil
	case GestureTypeMetrics:
		return &Metrics{}, nil
	}
	return nil, fmt.Errorf("unknown gesture type: %d", int(t))
}

// deref turns the pointer produced by newDetails back into a value so that
// gestures never share payload storage.
func deref(d Details) Details {
	switch v := d.(type) {
	case *Null:
		return *v
	case *ContactInitiated:
		return *v
	case *Move:
		return *v
	case *Scroll:
		return *v
	case *ButtonsChange:
		return *v
	case *Swipe:
		return *v
	case *SwipeLift:
		return *v
	case *Pinch:
		return *v
	case *Fling:
		return *v
	case *MouseWheel:
		return *v
	case *FourFingerSwipe:
		return *v
	case *FourFingerSwipeLift:
		return *v
	case *Metrics:
		return *v
	}
	return d
}

// Gesture is a single semantic output of the interpreter pipeline.
// Details are always stored by value.
type Gesture struct {
	StartTime float64
	EndTime   float64
	Details   Details
}

// Type returns the kind of the gesture. A gesture without details is Null.
func (g Gesture) Type() GestureType {
	if g.Details == nil {
		return GestureTypeNull
	}
	return g.Details.gestureType()
}

func (g Gesture) String() string {
	return fmt.Sprintf("%s(%g..%g %+v)", g.Type(), g.StartTime, g.EndTime, g.Details)
}

func NewMove(start, end, dx, dy float64) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: Move{Dx: dx, Dy: dy, OrdinalDx: dx, OrdinalDy: dy}}
}

func NewScroll(start, end, dx, dy float64) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: Scroll{Dx: dx, Dy: dy, OrdinalDx: dx, OrdinalDy: dy}}
}

func NewButtonsChange(start, end float64, down, up uint32, isTap bool) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: ButtonsChange{Down: down, Up: up, IsTap: isTap}}
}

func NewMouseWheel(start, end, dx, dy float64, tickDx, tickDy int) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: MouseWheel{Dx: dx, Dy: dy, TickDx120: tickDx, TickDy120: tickDy}}
}

func NewSwipe(start, end, dx, dy float64) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: Swipe{Dx: dx, Dy: dy, OrdinalDx: dx, OrdinalDy: dy}}
}

func NewSwipeLift(start, end float64) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: SwipeLift{}}
}

func NewFourFingerSwipe(start, end, dx, dy float64) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: FourFingerSwipe{Dx: dx, Dy: dy, OrdinalDx: dx, OrdinalDy: dy}}
}

func NewFourFingerSwipeLift(start, end float64) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: FourFingerSwipeLift{}}
}

func NewPinch(start, end, dz float64, zoomState uint32) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: Pinch{Dz: dz, OrdinalDz: dz, ZoomState: zoomState}}
}

func NewFling(start, end, vx, vy float64, flingState uint32) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: Fling{Vx: vx, Vy: vy, OrdinalVx: vx, OrdinalVy: vy, FlingState: flingState}}
}

func NewMetrics(start, end float64, metricsType int, data1, data2 float64) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: Metrics{MetricsType: metricsType, Data1: data1, Data2: data2}}
}

func NewContactInitiated(start, end float64) Gesture {
	return Gesture{StartTime: start, EndTime: end, Details: ContactInitiated{}}
}

type gestureHeader struct {
	GestureType string  `json:"gestureType"`
	StartTime   float64 `json:"startTime"`
	EndTime     float64 `json:"endTime"`
}

// MarshalJSON writes the gesture as one flat object: the header fields
// followed by the payload fields of its kind.
func (g Gesture) MarshalJSON() ([]byte, error) {
	details := g.Details
	if details == nil {
		details = Null{}
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", g.Type(), err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten %s payload: %w", g.Type(), err)
	}

	header, err := json.Marshal(gestureHeader{
		GestureType: g.Type().String(),
		StartTime:   g.StartTime,
		EndTime:     g.EndTime,
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(header, &fields); err != nil {
		return nil, err
	}

	return json.Marshal(fields)
}

// UnmarshalJSON requires the header and every payload field of the named
// kind to be present.
func (g *Gesture) UnmarshalJSON(data []byte) error {
	var header gestureHeader
	if err := UnmarshalStrict(data, &header); err != nil {
		return fmt.Errorf("invalid gesture: %w", err)
	}

	gestureType, err := ParseGestureType(header.GestureType)
	if err != nil {
		return err
	}

	details, err := newDetails(gestureType)
	if err != nil {
		return err
	}
	if err := UnmarshalStrict(data, details); err != nil {
		return fmt.Errorf("invalid %s gesture: %w", gestureType, err)
	}

	g.StartTime = header.StartTime
	g.EndTime = header.EndTime
	g.Details = deref(details)
	return nil
}
