// Package activitylog records everything that crosses an interpreter
// pipeline into a bounded ring buffer and encodes it as a JSON trace.
package activitylog

import (
	"fmt"

	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
)

// DefaultCapacity is the number of entries kept when no capacity is given.
const DefaultCapacity = 8192

// ActivityLog is a fixed-capacity ring of entries. When full, each append
// evicts the oldest entry. It is not safe for concurrent use.
type ActivityLog struct {
	entries  []Entry
	head     int // index of the oldest entry
	size     int
	hwprops  types.HardwareProperties
	registry *props.Registry
}

// New creates a log holding up to capacity entries. reg supplies the
// property snapshot written by Encode and may be nil.
func New(capacity int, reg *props.Registry) *ActivityLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ActivityLog{
		entries:  make([]Entry, capacity),
		registry: reg,
	}
}

func (l *ActivityLog) SetHardwareProperties(hwprops types.HardwareProperties) {
	l.hwprops = hwprops
}

func (l *ActivityLog) HardwareProperties() types.HardwareProperties {
	return l.hwprops
}

func (l *ActivityLog) Size() int {
	return l.size
}

func (l *ActivityLog) Capacity() int {
	return len(l.entries)
}

// Entry returns the i-th entry, 0 being the oldest still held.
func (l *ActivityLog) Entry(i int) Entry {
	if i < 0 || i >= l.size {
		panic(fmt.Sprintf("activitylog: entry %d out of range [0,%d)", i, l.size))
	}
	return l.entries[(l.head+i)%len(l.entries)]
}

// Entries returns all held entries, oldest first.
func (l *ActivityLog) Entries() []Entry {
	out := make([]Entry, l.size)
	for i := range out {
		out[i] = l.Entry(i)
	}
	return out
}

func (l *ActivityLog) Clear() {
	for i := range l.entries {
		l.entries[i] = nil
	}
	l.head = 0
	l.size = 0
}

func (l *ActivityLog) push(e Entry) {
	capacity := len(l.entries)
	if l.size < capacity {
		l.entries[(l.head+l.size)%capacity] = e
		l.size++
		return
	}
	l.entries[l.head] = e
	l.head = (l.head + 1) % capacity
}

// Append adds an already built entry, deep-copying its payload.
func (l *ActivityLog) Append(e Entry) {
	switch v := e.(type) {
	case HardwareStateEntry:
		l.LogHardwareState(v.State)
	case GestureEntry:
		l.LogGesture(v.Gesture)
	default:
		l.push(e)
	}
}

// LogHardwareState records a copy of hwstate, fingers included.
func (l *ActivityLog) LogHardwareState(hwstate types.HardwareState) {
	l.push(HardwareStateEntry{State: hwstate.Clone()})
}

func (l *ActivityLog) LogGesture(g types.Gesture) {
	l.push(GestureEntry{Gesture: g})
}

func (l *ActivityLog) LogTimerCallback(now float64) {
	l.push(TimerCallbackEntry{Now: now})
}

func (l *ActivityLog) LogCallbackRequest(when float64) {
	l.push(CallbackRequestEntry{When: when})
}

func (l *ActivityLog) LogPropChange(name string, valueType props.Type, value interface{}) {
	l.push(PropChangeEntry{Name: name, ValueType: valueType, Value: value})
}
