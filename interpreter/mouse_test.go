package interpreter

import (
	"math"
	"testing"

	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMouse(t *testing.T, hasWheel, hiRes bool) (*MouseInterpreter, *props.Registry) {
	t.Helper()
	reg := props.NewRegistry()
	mi := NewMouseInterpreter(reg)
	hwprops := types.HardwareProperties{HasWheel: hasWheel, WheelIsHiRes: hiRes}
	mi.Initialize(&hwprops, NewMetrics(), NewMetricsProperties(reg), nil)
	return mi, reg
}

func mouseFrame(ts float64, buttons uint32, relX, relY, wheel, wheelHiRes, hwheel float64) *types.HardwareState {
	return &types.HardwareState{
		Timestamp:     ts,
		ButtonsDown:   buttons,
		RelX:          relX,
		RelY:          relY,
		RelWheel:      wheel,
		RelWheelHiRes: wheelHiRes,
		RelHWheel:     hwheel,
	}
}

func TestMouseInterpreter_Simple(t *testing.T) {
	mi, _ := newMouse(t, true, false)

	gs := mi.SyncInterpret(mouseFrame(200000, 0, 0, 0, 0, 0, 0), nil)
	assert.Nil(t, gs)

	gs = mi.SyncInterpret(mouseFrame(210000, 0, 9, -7, 0, 0, 0), nil)
	require.NotNil(t, gs)
	assert.Equal(t, types.NewMove(200000, 210000, 9, -7), *gs)

	gs = mi.SyncInterpret(mouseFrame(220000, types.ButtonLeft, 0, 0, 0, 0, 0), nil)
	require.NotNil(t, gs)
	assert.Equal(t, types.NewButtonsChange(210000, 220000, types.ButtonLeft, 0, false), *gs)

	gs = mi.SyncInterpret(mouseFrame(230000, 0, 0, 0, 0, 0, 0), nil)
	require.NotNil(t, gs)
	assert.Equal(t, types.NewButtonsChange(220000, 230000, 0, types.ButtonLeft, false), *gs)

	gs = mi.SyncInterpret(mouseFrame(240000, 0, 0, 0, -3, -360, 4), nil)
	require.NotNil(t, gs)
	require.Equal(t, types.GestureTypeMouseWheel, gs.Type())
	wheel := gs.Details.(types.MouseWheel)
	assert.Greater(t, wheel.Dx, 0.0)
	assert.Greater(t, wheel.Dy, 0.0)
	assert.Equal(t, 480, wheel.TickDx120)
	assert.Equal(t, 360, wheel.TickDy120)
	assert.Equal(t, 240000.0, gs.StartTime)
	assert.Equal(t, 240000.0, gs.EndTime)
}

func TestMouseInterpreter_ButtonsTakePriority(t *testing.T) {
	mi, _ := newMouse(t, true, false)
	mi.SyncInterpret(mouseFrame(1, 0, 0, 0, 0, 0, 0), nil)

	gs := mi.SyncInterpret(mouseFrame(2, types.ButtonRight|types.ButtonBack, 5, 5, 1, 0, 1), nil)
	require.NotNil(t, gs)
	assert.Equal(t, types.NewButtonsChange(1, 2, types.ButtonRight|types.ButtonBack, 0, false), *gs)

	// wheel wins over motion
	gs = mi.SyncInterpret(mouseFrame(3, types.ButtonRight|types.ButtonBack, 5, 5, 1, 0, 0), nil)
	require.NotNil(t, gs)
	assert.Equal(t, types.GestureTypeMouseWheel, gs.Type())

	gs = mi.SyncInterpret(mouseFrame(4, types.ButtonRight, 5, 5, 0, 0, 0), nil)
	require.NotNil(t, gs)
	assert.Equal(t, types.NewButtonsChange(3, 4, 0, types.ButtonBack, false), *gs)

	gs = mi.SyncInterpret(mouseFrame(5, types.ButtonRight, 5, 5, 0, 0, 0), nil)
	require.NotNil(t, gs)
	assert.Equal(t, types.NewMove(4, 5, 5, 5), *gs)

	gs = mi.SyncInterpret(mouseFrame(6, types.ButtonRight, 0, 0, 0, 0, 0), nil)
	assert.Nil(t, gs)
}

func TestMouseInterpreter_HighResolutionVerticalScroll(t *testing.T) {
	mi, reg := newMouse(t, true, true)

	gs := mi.SyncInterpret(mouseFrame(200000, 0, 0, 0, 0, 0, 0), nil)
	assert.Nil(t, gs)

	gs = mi.SyncInterpret(mouseFrame(210000, 0, 0, 0, 0, -15, 0), nil)
	require.NotNil(t, gs)
	require.Equal(t, types.GestureTypeMouseWheel, gs.Type())
	eighthNotch := gs.Details.(types.MouseWheel)
	assert.Equal(t, 0.0, eighthNotch.Dx)
	assert.Greater(t, eighthNotch.Dy, 1.0)

	// a low-res value alongside the high-res one does not change the result
	gs = mi.SyncInterpret(mouseFrame(220000, 0, 0, 0, -1, -15, 0), nil)
	require.NotNil(t, gs)
	assert.InDelta(t, eighthNotch.Dy, gs.Details.(types.MouseWheel).Dy, 0.1)

	gs = mi.SyncInterpret(mouseFrame(230000, 0, 0, 0, 0, -120, 0), nil)
	require.NotNil(t, gs)
	highRes := gs.Details.(types.MouseWheel).Dy

	require.NoError(t, reg.Set("Mouse High Resolution Scrolling", false))

	gs = mi.SyncInterpret(mouseFrame(240000, 0, 0, 0, -1, 0, 0), nil)
	require.NotNil(t, gs)
	assert.Equal(t, 0.0, gs.Details.(types.MouseWheel).Dx)
	assert.InDelta(t, highRes, gs.Details.(types.MouseWheel).Dy, 0.1)
}

func TestMouseInterpreter_JankyScroll(t *testing.T) {
	mi, _ := newMouse(t, true, false)

	// the first event uses a one second interval, so its dy is not compared
	gs := mi.SyncInterpret(mouseFrame(200000, 0, 0, 0, -1, 0, 0), nil)
	require.NotNil(t, gs)
	assert.Equal(t, types.GestureTypeMouseWheel, gs.Type())

	gs = mi.SyncInterpret(mouseFrame(200000.008, 0, 0, 0, -1, 0, 0), nil)
	require.NotNil(t, gs)
	offset := gs.Details.(types.MouseWheel).Dy

	gs = mi.SyncInterpret(mouseFrame(200000.0085, 0, 0, 0, -1, 0, 0), nil)
	require.NotNil(t, gs)
	assert.InDelta(t, offset, gs.Details.(types.MouseWheel).Dy, 0.1)
}

func TestMouseInterpreter_WheelTickReporting(t *testing.T) {
	t.Run("high res", func(t *testing.T) {
		mi, _ := newMouse(t, true, true)

		assert.Nil(t, mi.SyncInterpret(mouseFrame(200000, 0, 0, 0, 0, 0, 0), nil))

		gs := mi.SyncInterpret(mouseFrame(210000, 0, 0, 0, 0, -30, 0), nil)
		require.NotNil(t, gs)
		wheel := gs.Details.(types.MouseWheel)
		assert.Equal(t, 0, wheel.TickDx120)
		assert.Equal(t, 30, wheel.TickDy120)
	})

	t.Run("low res", func(t *testing.T) {
		mi, reg := newMouse(t, true, false)
		require.NoError(t, reg.Set("Mouse High Resolution Scrolling", false))

		assert.Nil(t, mi.SyncInterpret(mouseFrame(200000, 0, 0, 0, 0, 0, 0), nil))

		gs := mi.SyncInterpret(mouseFrame(210000, 0, 0, 0, 1, 0, 0), nil)
		require.NotNil(t, gs)
		wheel := gs.Details.(types.MouseWheel)
		assert.Equal(t, 0, wheel.TickDx120)
		assert.Equal(t, -120, wheel.TickDy120)

		gs = mi.SyncInterpret(mouseFrame(210000, 0, 0, 0, 0, 0, 1), nil)
		require.NotNil(t, gs)
		wheel = gs.Details.(types.MouseWheel)
		assert.Equal(t, 120, wheel.TickDx120)
		assert.Equal(t, 0, wheel.TickDy120)
	})
}

func TestMouseInterpreter_WheelAcceleration(t *testing.T) {
	tests := []struct {
		name     string
		interval float64
		accel    bool
		want     float64
	}{
		{"slow", 1, true, -53},
		{"at threshold", 0.1, true, -53},
		// 20 notches/s: 1 + 0.05*(20-10)
		{"fast", 0.05, true, -53 * 1.5},
		{"capped", 0.008, true, -53 * 4},
		{"disabled", 0.008, false, -53},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mi, reg := newMouse(t, true, false)
			require.NoError(t, reg.Set("Mouse Wheel Acceleration", tt.accel))

			mi.SyncInterpret(mouseFrame(100, 0, 0, 0, 0, 0, 0), nil)
			gs := mi.SyncInterpret(mouseFrame(100+tt.interval, 0, 0, 0, 1, 0, 0), nil)
			require.NotNil(t, gs)
			assert.InDelta(t, tt.want, gs.Details.(types.MouseWheel).Dy, 1e-6)
		})
	}
}

func TestMouseInterpreter_ScrollOutput(t *testing.T) {
	mi, reg := newMouse(t, true, false)
	require.NoError(t, reg.Set("Output Mouse Wheel Gestures", false))

	gs := mi.SyncInterpret(mouseFrame(5, 0, 0, 0, 1, 0, 0), nil)
	require.NotNil(t, gs)
	require.Equal(t, types.GestureTypeScroll, gs.Type())
	assert.Equal(t, 5.0, gs.StartTime)
	assert.Equal(t, 5.0, gs.EndTime)
	assert.Equal(t, -53.0, gs.Details.(types.Scroll).Dy)
}

func TestMouseInterpreter_NeverRequestsTimer(t *testing.T) {
	mi, _ := newMouse(t, true, false)

	timeout := 5.0
	mi.SyncInterpret(mouseFrame(1, 0, 1, 0, 0, 0, 0), &timeout)
	assert.Equal(t, NoDeadline, timeout)

	timeout = 5.0
	assert.Nil(t, mi.HandleTimer(2, &timeout))
	assert.Equal(t, NoDeadline, timeout)
}

func TestMouseInterpreter_StartNeverAfterEnd(t *testing.T) {
	tests := []struct {
		name  string
		first *types.HardwareState
		next  *types.HardwareState
		want  types.GestureType
	}{
		{"move backwards", mouseFrame(2, 0, 0, 0, 0, 0, 0), mouseFrame(1.5, 0, 9, -7, 0, 0, 0), types.GestureTypeMove},
		{"button backwards", mouseFrame(2, 0, 0, 0, 0, 0, 0), mouseFrame(1.5, types.ButtonLeft, 0, 0, 0, 0, 0), types.GestureTypeButtonsChange},
		{"wheel backwards", mouseFrame(2, 0, 0, 0, 0, 0, 0), mouseFrame(1.5, 0, 0, 0, 1, 0, 0), types.GestureTypeMouseWheel},
		{"move same time", mouseFrame(2, 0, 0, 0, 0, 0, 0), mouseFrame(2, 0, 1, 0, 0, 0, 0), types.GestureTypeMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mi, _ := newMouse(t, true, false)
			mi.SyncInterpret(tt.first, nil)

			gs := mi.SyncInterpret(tt.next, nil)
			require.NotNil(t, gs)
			assert.Equal(t, tt.want, gs.Type())
			assert.LessOrEqual(t, gs.StartTime, gs.EndTime)
			assert.Equal(t, tt.next.Timestamp, gs.EndTime)
		})
	}
}

func TestMouseInterpreter_WheelWithoutIntervalFloorStaysFinite(t *testing.T) {
	mi, reg := newMouse(t, true, false)
	require.NoError(t, reg.Set("Mouse Wheel Minimum Interval", 0.0))
	require.NoError(t, reg.Set("Mouse Wheel Acceleration Gain", 0.0))

	mi.SyncInterpret(mouseFrame(1, 0, 0, 0, 1, 0, 0), nil)
	gs := mi.SyncInterpret(mouseFrame(1, 0, 0, 0, 1, 0, 0), nil)
	require.NotNil(t, gs)

	dy := gs.Details.(types.MouseWheel).Dy
	assert.False(t, math.IsNaN(dy))
	assert.False(t, math.IsInf(dy, 0))
	assert.Equal(t, -53.0, dy)
}
