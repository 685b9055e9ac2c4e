package interpreter

import (
	"github.com/mobile-next/gestures/activitylog"
	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
)

// maxTimerFires bounds AdvanceTo when a stage keeps asking for an
// immediate callback.
const maxTimerFires = 64

// Driver owns a pipeline: it feeds frames and timer callbacks into the
// interpreter, records everything in an activity log and hands gestures to
// the consumer. Like the interpreter it drives, it is not safe for
// concurrent use.
type Driver struct {
	interp   Interpreter
	log      *activitylog.ActivityLog
	consumer GestureConsumer
	metrics  *Metrics
	mprops   *MetricsProperties
	hwprops  types.HardwareProperties
	deadline float64
}

// NewDriver wires interp to log and consumer. Property changes on reg are
// recorded in the log from now on. consumer may be nil.
func NewDriver(interp Interpreter, reg *props.Registry, log *activitylog.ActivityLog, consumer GestureConsumer) *Driver {
	d := &Driver{
		interp:   interp,
		log:      log,
		consumer: consumer,
		metrics:  NewMetrics(),
		mprops:   NewMetricsProperties(reg),
		deadline: NoDeadline,
	}

	reg.OnChange(func(p props.Property) {
		d.log.LogPropChange(p.Name(), p.Type(), p.Value())
	})
	return d
}

// Initialize passes the device description down the pipeline and starts
// the gesture counts over.
func (d *Driver) Initialize(hwprops types.HardwareProperties) {
	d.hwprops = hwprops
	d.log.SetHardwareProperties(hwprops)
	d.deadline = NoDeadline
	d.metrics.Reset()
	d.interp.Initialize(&d.hwprops, d.metrics, d.mprops, d.consumer)
}

// PushHardwareState interprets one frame. The frame may be modified by the
// pipeline; the log keeps a copy of it as it arrived.
func (d *Driver) PushHardwareState(hwstate *types.HardwareState) *types.Gesture {
	d.log.LogHardwareState(*hwstate)

	timeout := NoDeadline
	g := d.interp.SyncInterpret(hwstate, &timeout)
	d.finish(hwstate.Timestamp, g, timeout)
	return g
}

// HandleTimer delivers a timer callback at now.
func (d *Driver) HandleTimer(now float64) *types.Gesture {
	d.log.LogTimerCallback(now)

	timeout := NoDeadline
	g := d.interp.HandleTimer(now, &timeout)
	d.finish(now, g, timeout)
	return g
}

func (d *Driver) finish(now float64, g *types.Gesture, timeout float64) {
	if g != nil {
		d.log.LogGesture(*g)
		d.metrics.Record(g)
		if d.consumer != nil {
			d.consumer.ConsumeGesture(*g)
		}
	}

	if timerRequested(timeout) {
		d.deadline = now + timeout
		d.log.LogCallbackRequest(d.deadline)
	} else {
		d.deadline = NoDeadline
	}
}

// AdvanceTo fires every timer that falls due at or before now, in order,
// and returns the gestures they produced. It stands in for an event loop
// when frames are fed from a file or over the network.
func (d *Driver) AdvanceTo(now float64) []types.Gesture {
	var out []types.Gesture
	for i := 0; i < maxTimerFires && d.deadline != NoDeadline && d.deadline <= now; i++ {
		if g := d.HandleTimer(d.deadline); g != nil {
			out = append(out, *g)
		}
	}
	return out
}

// Deadline is the absolute time HandleTimer should next be called, or
// NoDeadline.
func (d *Driver) Deadline() float64 {
	return d.deadline
}

func (d *Driver) Log() *activitylog.ActivityLog {
	return d.log
}

func (d *Driver) Metrics() *Metrics {
	return d.metrics
}

func (d *Driver) HardwareProperties() types.HardwareProperties {
	return d.hwprops
}
