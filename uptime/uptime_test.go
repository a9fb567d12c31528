package uptime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softbadge/hal/sim"
	"github.com/ardnew/softbadge/pkg"
)

func initBoard(t *testing.T) *sim.Board {
	t.Helper()
	resetCounter()
	t.Cleanup(resetCounter)

	b := sim.New()
	require.NoError(t, Init(b.UptimeTimer, b.UptimeIRQ))
	return b
}

func TestInit(t *testing.T) {
	b := initBoard(t)
	assert.Equal(t, time.Millisecond, b.UptimeTimer.Period())
	assert.True(t, b.UptimeTimer.InterruptEnabled())
	assert.True(t, b.UptimeIRQ.Enabled())
	assert.Zero(t, Uptime())
}

func TestInit_Once(t *testing.T) {
	b := initBoard(t)
	require.ErrorIs(t, Init(b.UptimeTimer, b.UptimeIRQ), pkg.ErrAlreadyTaken)
}

func TestInit_FailedStartReleases(t *testing.T) {
	resetCounter()
	t.Cleanup(resetCounter)

	b := sim.New()
	b.UptimeTimer.Fail(pkg.ErrPin)
	require.ErrorIs(t, Init(b.UptimeTimer, b.UptimeIRQ), pkg.ErrPin)
	assert.False(t, b.UptimeIRQ.Enabled())

	b.UptimeTimer.Fail(nil)
	require.NoError(t, Init(b.UptimeTimer, b.UptimeIRQ))
	assert.True(t, b.UptimeIRQ.Enabled())
}

func TestUptime_EqualsInterruptCount(t *testing.T) {
	b := initBoard(t)
	for _, step := range []time.Duration{time.Millisecond, 7 * time.Millisecond, 250 * time.Microsecond, time.Second} {
		b.Advance(step)
		assert.Equal(t, Milliseconds(b.UptimeIRQ.Fired()), Uptime())
	}
	assert.Equal(t, Milliseconds(1008), Uptime())
	assert.Equal(t, b.UptimeTimer.Overflows(), b.UptimeTimer.Clears())
}

func TestUptime_ReadHasNoSideEffect(t *testing.T) {
	b := initBoard(t)
	b.Advance(5 * time.Millisecond)
	for range 10 {
		assert.Equal(t, Milliseconds(5), Uptime())
	}
}

func TestUptime_MaskedTicksAreLost(t *testing.T) {
	b := initBoard(t)
	b.Advance(3 * time.Millisecond)
	b.UptimeIRQ.Disable()
	b.Advance(3 * time.Millisecond)
	b.UptimeIRQ.Enable()
	b.Advance(3 * time.Millisecond)
	assert.Equal(t, Milliseconds(6), Uptime())
}

func TestSince_Wraps(t *testing.T) {
	initBoard(t)
	setCount(0xFFFF_FFFE)
	start := Uptime()
	HandleInterrupt()
	HandleInterrupt()
	HandleInterrupt()
	assert.Equal(t, Milliseconds(1), Uptime())
	assert.Equal(t, Milliseconds(3), Since(start))
}

func TestMilliseconds(t *testing.T) {
	m := Milliseconds(1500)
	assert.Equal(t, 1500*time.Millisecond, m.Duration())
	assert.Equal(t, "1500ms", m.String())
	assert.Equal(t, Milliseconds(500), m.Sub(1000))
}
