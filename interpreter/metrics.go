package interpreter

import (
	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
)

// MetricsProperties are the tunables shared by metrics producers.
type MetricsProperties struct {
	NoisyGroundDistanceThreshold *props.DoubleProperty
	NoisyGroundTimeThreshold     *props.DoubleProperty
}

func NewMetricsProperties(reg *props.Registry) *MetricsProperties {
	return &MetricsProperties{
		NoisyGroundDistanceThreshold: reg.Double("Metrics Noisy Ground Distance Threshold", 0.0),
		NoisyGroundTimeThreshold:     reg.Double("Metrics Noisy Ground Time Threshold", 0.1),
	}
}

// Metrics counts emitted gestures per kind.
type Metrics struct {
	counts map[types.GestureType]int
	total  int
}

func NewMetrics() *Metrics {
	return &Metrics{counts: make(map[types.GestureType]int)}
}

// Record counts g. A nil gesture is ignored.
func (m *Metrics) Record(g *types.Gesture) {
	if m == nil || g == nil {
		return
	}
	m.counts[g.Type()]++
	m.total++
}

func (m *Metrics) Count(t types.GestureType) int {
	return m.counts[t]
}

func (m *Metrics) Total() int {
	return m.total
}

// Counts returns wire name -> count for every kind seen at least once.
func (m *Metrics) Counts() map[string]int {
	out := make(map[string]int, len(m.counts))
	for t, n := range m.counts {
		out[t.String()] = n
	}
	return out
}

// Reset forgets every count
func (m *Metrics) Reset() {
	m.counts = make(map[types.GestureType]int)
	m.total = 0
}
