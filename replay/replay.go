// Package replay re-drives an interpreter from a recorded activity trace
// and reports where its behavior differs from the recording.
package replay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mobile-next/gestures/activitylog"
	"github.com/mobile-next/gestures/interpreter"
	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
	"github.com/mobile-next/gestures/utils"
)

// DefaultEpsilon is the tolerance used when comparing recorded and replayed
// numbers.
const DefaultEpsilon = 1e-6

const none = "none"

// Divergence is one difference between the trace and the replay.
type Divergence struct {
	Step     int    `json:"step"`
	Kind     string `json:"kind"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (d Divergence) String() string {
	return fmt.Sprintf("step %d: %s expected %s, got %s", d.Step, d.Kind, d.Expected, d.Actual)
}

// Report summarizes a replay run.
type Report struct {
	Entries     int            `json:"entries"`
	Replayed    map[string]int `json:"replayed"`
	Produced    map[string]int `json:"produced"`
	Divergences []Divergence   `json:"divergences"`
}

// OK reports whether the replay matched the trace.
func (r Report) OK() bool {
	return len(r.Divergences) == 0
}

// Observer is told about every entry as it is replayed. produced is the
// gesture returned by the call the entry triggered, if any.
type Observer func(step int, entry activitylog.Entry, produced *types.Gesture)

// ActivityReplay parses a trace and plays it back.
type ActivityReplay struct {
	registry *props.Registry
	log      *activitylog.ActivityLog
	hwprops  types.HardwareProperties
	honored  map[string]bool
	observer Observer
	epsilon  float64
}

// New creates a replayer that applies recorded properties to reg.
func New(reg *props.Registry) *ActivityReplay {
	return &ActivityReplay{
		registry: reg,
		log:      activitylog.New(activitylog.DefaultCapacity, reg),
		epsilon:  DefaultEpsilon,
	}
}

func (r *ActivityReplay) SetObserver(o Observer) {
	r.observer = o
}

func (r *ActivityReplay) SetEpsilon(eps float64) {
	r.epsilon = eps
}

// Log returns the parsed entries.
func (r *ActivityReplay) Log() *activitylog.ActivityLog {
	return r.log
}

// HardwareProperties returns the recorded device description.
func (r *ActivityReplay) HardwareProperties() types.HardwareProperties {
	return r.hwprops
}

// Parse loads a trace. Recorded property values are applied to the
// registry, limited to honorProps when any are given. The same limit holds
// for property changes met during Replay. On error nothing is
// changed: neither the registry nor previously parsed entries.
func (r *ActivityReplay) Parse(data []byte, honorProps ...string) error {
	trace, err := activitylog.Decode(data)
	if err != nil {
		return err
	}

	capacity := activitylog.DefaultCapacity
	if len(trace.Entries) > capacity {
		capacity = len(trace.Entries)
	}
	log := activitylog.New(capacity, r.registry)
	log.SetHardwareProperties(trace.HardwareProperties)
	for _, e := range trace.Entries {
		log.Append(e)
	}

	honored := make(map[string]bool, len(honorProps))
	for _, name := range honorProps {
		honored[name] = true
	}
	if err := r.applyProperties(trace.Properties, honored); err != nil {
		return err
	}

	r.honored = honored
	r.log = log
	r.hwprops = trace.HardwareProperties
	return nil
}

// applyProperties sets the honored values, restoring every previous value
// if one of them fails.
func (r *ActivityReplay) applyProperties(values map[string]interface{}, honored map[string]bool) error {
	type previous struct {
		prop  props.Property
		value interface{}
	}
	var applied []previous

	for _, p := range r.registry.All() {
		value, ok := values[p.Name()]
		if !ok {
			continue
		}
		if !r.honors(p.Name(), honored) {
			continue
		}

		old := p.Value()
		if err := p.SetValue(value); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				_ = applied[i].prop.SetValue(applied[i].value)
			}
			return fmt.Errorf("failed to apply recorded properties: %w", err)
		}
		applied = append(applied, previous{prop: p, value: old})
	}

	for name := range values {
		if _, ok := r.registry.Lookup(name); !ok {
			utils.Verbose("trace property %q is not registered, ignoring", name)
		}
	}
	return nil
}

// honors reports whether a recorded value for name may be applied. An
// empty set honors everything.
func (r *ActivityReplay) honors(name string, honored map[string]bool) bool {
	return len(honored) == 0 || honored[name]
}

// outcome is what the last input entry produced, waiting to be checked
// against the expectations that follow it in the trace.
type outcome struct {
	step            int
	active          bool
	gesture         *types.Gesture
	gestureChecked  bool
	callback        float64
	callbackChecked bool
}

// Replay initializes interp with the recorded hardware properties and feeds
// it every entry. It never stops early; all differences are in the report.
func (r *ActivityReplay) Replay(interp interpreter.Interpreter) Report {
	report := Report{
		Replayed: make(map[string]int),
		Produced: make(map[string]int),
	}

	hwprops := r.hwprops
	interp.Initialize(&hwprops, interpreter.NewMetrics(), interpreter.NewMetricsProperties(r.registry), nil)

	var last outcome
	for step, entry := range r.log.Entries() {
		report.Entries++
		report.Replayed[entry.Type().String()]++

		var produced *types.Gesture
		switch e := entry.(type) {
		case activitylog.HardwareStateEntry:
			r.flush(&report, &last)
			hs := e.State.Clone()
			timeout := interpreter.NoDeadline
			produced = interp.SyncInterpret(&hs, &timeout)
			last = newOutcome(step, hs.Timestamp, produced, timeout)

		case activitylog.TimerCallbackEntry:
			r.flush(&report, &last)
			timeout := interpreter.NoDeadline
			produced = interp.HandleTimer(e.Now, &timeout)
			last = newOutcome(step, e.Now, produced, timeout)

		case activitylog.PropChangeEntry:
			if !r.honors(e.Name, r.honored) {
				utils.Verbose("replay step %d: %q is not honored, keeping the current value", step, e.Name)
				break
			}
			if err := r.registry.Set(e.Name, e.Value); err != nil {
				utils.Verbose("replay step %d: %v", step, err)
			}

		case activitylog.GestureEntry:
			r.checkGesture(&report, &last, step, e.Gesture)

		case activitylog.CallbackRequestEntry:
			r.checkCallback(&report, &last, step, e.When)
		}

		if produced != nil {
			report.Produced[produced.Type().String()]++
		}
		if r.observer != nil {
			r.observer(step, entry, produced)
		}
	}
	r.flush(&report, &last)

	return report
}

func newOutcome(step int, now float64, g *types.Gesture, timeout float64) outcome {
	o := outcome{step: step, active: true, gesture: g, callback: interpreter.NoDeadline}
	if timeout >= 0 {
		o.callback = now + timeout
	}
	return o
}

// flush reports outputs of the previous call that the trace did not record.
func (r *ActivityReplay) flush(report *Report, last *outcome) {
	if !last.active {
		return
	}
	if last.gesture != nil && !last.gestureChecked {
		report.diverge(last.step, "gesture", none, last.gesture.String())
	}
	if last.callback != interpreter.NoDeadline && !last.callbackChecked {
		report.diverge(last.step, "callbackRequest", none, formatTime(last.callback))
	}
	*last = outcome{}
}

func (r *ActivityReplay) checkGesture(report *Report, last *outcome, step int, expected types.Gesture) {
	if !last.active {
		// the input that produced it fell off the ring
		return
	}
	switch {
	case last.gestureChecked || last.gesture == nil:
		report.diverge(step, "gesture", expected.String(), none)
	case !gesturesEqual(expected, *last.gesture, r.epsilon):
		report.diverge(step, "gesture", expected.String(), last.gesture.String())
	}
	last.gestureChecked = true
}

func (r *ActivityReplay) checkCallback(report *Report, last *outcome, step int, expected float64) {
	if !last.active {
		return
	}
	switch {
	case last.callbackChecked || last.callback == interpreter.NoDeadline:
		report.diverge(step, "callbackRequest", formatTime(expected), none)
	case math.Abs(expected-last.callback) > r.epsilon:
		report.diverge(step, "callbackRequest", formatTime(expected), formatTime(last.callback))
	}
	last.callbackChecked = true
}

func (report *Report) diverge(step int, kind, expected, actual string) {
	d := Divergence{Step: step, Kind: kind, Expected: expected, Actual: actual}
	utils.Verbose("replay divergence: %s", d)
	report.Divergences = append(report.Divergences, d)
}

func formatTime(t float64) string {
	return fmt.Sprintf("%g", t)
}

// gesturesEqual compares kind and every field, numbers within eps.
func gesturesEqual(a, b types.Gesture, eps float64) bool {
	if a.Type() != b.Type() {
		return false
	}
	fa, err := gestureFields(a)
	if err != nil {
		return false
	}
	fb, err := gestureFields(b)
	if err != nil {
		return false
	}
	if len(fa) != len(fb) {
		return false
	}

	for key, va := range fa {
		vb, ok := fb[key]
		if !ok {
			return false
		}
		na, aNum := va.(json.Number)
		nb, bNum := vb.(json.Number)
		if aNum && bNum {
			x, _ := na.Float64()
			y, _ := nb.Float64()
			if math.Abs(x-y) > eps {
				return false
			}
			continue
		}
		if va != vb {
			return false
		}
	}
	return true
}

func gestureFields(g types.Gesture) (map[string]interface{}, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}
