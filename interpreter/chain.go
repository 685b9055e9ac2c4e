package interpreter

import (
	"github.com/mobile-next/gestures/types"
	"github.com/mobile-next/gestures/utils"
)

// LeafReason is the timer reason reported when the leaf owns the deadline.
const LeafReason = "leaf"

// Chain runs frames down through its stages (outermost first) into a leaf
// interpreter and bubbles the result back up. All stage timers and the
// leaf timer share one slot holding the earliest deadline.
type Chain struct {
	stages       []Stage
	leaf         Interpreter
	leafDeadline float64
}

// NewChain wraps leaf in stages. stages[0] sees frames first and gestures
// last.
func NewChain(leaf Interpreter, stages ...Stage) *Chain {
	return &Chain{
		stages:       stages,
		leaf:         leaf,
		leafDeadline: NoDeadline,
	}
}

func (c *Chain) Initialize(hwprops *types.HardwareProperties, metrics *Metrics, mprops *MetricsProperties, consumer GestureConsumer) {
	for _, s := range c.stages {
		s.Initialize(hwprops)
	}
	c.leaf.Initialize(hwprops, metrics, mprops, consumer)
	c.leafDeadline = NoDeadline
}

func (c *Chain) SyncInterpret(hwstate *types.HardwareState, timeout *float64) *types.Gesture {
	for _, s := range c.stages {
		s.FilterHardwareState(hwstate)
	}

	leafTimeout := NoDeadline
	g := c.leaf.SyncInterpret(hwstate, &leafTimeout)
	c.setLeafDeadline(hwstate.Timestamp, leafTimeout)

	g = c.bubble(g, len(c.stages))
	c.writeTimeout(hwstate.Timestamp, timeout)
	return g
}

func (c *Chain) HandleTimer(now float64, timeout *float64) *types.Gesture {
	var result *types.Gesture
	keep := func(g *types.Gesture, from string) {
		if g == nil {
			return
		}
		if result != nil {
			utils.Verbose("timer at %g: dropping %s from %s, already have %s", now, g, from, result)
			return
		}
		result = g
	}

	for i, s := range c.stages {
		d := s.Deadline()
		if d == NoDeadline || d > now {
			continue
		}
		keep(c.bubble(s.HandleTimer(now), i), s.Name())
	}

	if c.leafDeadline != NoDeadline && c.leafDeadline <= now {
		leafTimeout := NoDeadline
		g := c.leaf.HandleTimer(now, &leafTimeout)
		c.setLeafDeadline(now, leafTimeout)
		keep(c.bubble(g, len(c.stages)), LeafReason)
	}

	c.writeTimeout(now, timeout)
	return result
}

// Pending returns the earliest outstanding deadline and who asked for it.
func (c *Chain) Pending() (deadline float64, reason string, ok bool) {
	deadline = NoDeadline
	for _, s := range c.stages {
		d := s.Deadline()
		if d == NoDeadline {
			continue
		}
		if !ok || d < deadline {
			deadline, reason, ok = d, s.Name(), true
		}
	}
	if c.leafDeadline != NoDeadline && (!ok || c.leafDeadline < deadline) {
		deadline, reason, ok = c.leafDeadline, LeafReason, true
	}
	return deadline, reason, ok
}

// bubble passes g up through stages[below-1] .. stages[0].
func (c *Chain) bubble(g *types.Gesture, below int) *types.Gesture {
	for i := below - 1; i >= 0 && g != nil; i-- {
		g = c.stages[i].FilterGesture(g)
	}
	return g
}

func (c *Chain) setLeafDeadline(now, leafTimeout float64) {
	if timerRequested(leafTimeout) {
		c.leafDeadline = now + leafTimeout
	} else {
		c.leafDeadline = NoDeadline
	}
}

func (c *Chain) writeTimeout(now float64, timeout *float64) {
	deadline, reason, ok := c.Pending()
	if !ok {
		setTimeout(timeout, NoDeadline)
		return
	}

	delay := deadline - now
	if delay < 0 {
		delay = 0
	}
	utils.Verbose("timer slot: %g (in %g) for %s", deadline, delay, reason)
	setTimeout(timeout, delay)
}
