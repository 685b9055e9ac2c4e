package interpreter

import (
	"github.com/mobile-next/gestures/props"
)

// NewPipeline builds the standard chain: the haptic button generator over
// the mouse interpreter. Every property the pipeline reads is registered in
// reg.
func NewPipeline(reg *props.Registry) *Chain {
	NewMetricsProperties(reg)
	return NewChain(NewMouseInterpreter(reg), NewHapticButtonGeneratorFilter(reg))
}
