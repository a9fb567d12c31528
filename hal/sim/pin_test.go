package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPin_SetToggle(t *testing.T) {
	p := NewPin()
	var edges []bool
	p.OnChange(func(high bool) { edges = append(edges, high) })

	require.NoError(t, p.Set(true))
	require.NoError(t, p.Set(true))
	require.NoError(t, p.Toggle())
	require.NoError(t, p.Toggle())

	got, err := p.Get()
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, 2, p.Toggles())
	assert.Equal(t, []bool{true, false, true}, edges)
}

func TestPin_Fail(t *testing.T) {
	p := NewPin()
	boom := errors.New("boom")
	p.Fail(boom)

	assert.ErrorIs(t, p.Set(true), boom)
	assert.ErrorIs(t, p.Toggle(), boom)
	_, err := p.Get()
	assert.ErrorIs(t, err, boom)
	assert.False(t, p.Level())

	p.Fail(nil)
	assert.NoError(t, p.Toggle())
	assert.True(t, p.Level())
}

func TestShiftRegister_SerialOut(t *testing.T) {
	sr := NewShiftRegister()
	sr.SetInputs(0b1010_0110)

	require.NoError(t, sr.Latch().Set(false))
	require.NoError(t, sr.Latch().Set(true))

	var got uint8
	for range 8 {
		require.NoError(t, sr.Clock().Set(false))
		high, err := sr.Data().Get()
		require.NoError(t, err)
		got <<= 1
		if high {
			got |= 1
		}
		require.NoError(t, sr.Clock().Set(true))
	}
	assert.Equal(t, uint8(0b1010_0110), got)
	assert.Equal(t, 8, sr.Shifts())
}

func TestShiftRegister_FirstLoadWithoutFallingEdge(t *testing.T) {
	sr := NewShiftRegister()
	sr.SetInputs(0x40)

	// The latch starts low, so this Set is not an edge.
	require.NoError(t, sr.Latch().Set(false))
	require.NoError(t, sr.Latch().Set(true))
	sr.SetInputs(0x01)

	var got uint8
	for range 8 {
		require.NoError(t, sr.Clock().Set(false))
		high, err := sr.Data().Get()
		require.NoError(t, err)
		got <<= 1
		if high {
			got |= 1
		}
		require.NoError(t, sr.Clock().Set(true))
	}
	assert.Equal(t, uint8(0x40), got, "inputs frozen at the latch rising edge")
}

func TestShiftRegister_PressRelease(t *testing.T) {
	sr := NewShiftRegister()
	sr.Press(0x81)
	sr.Press(0x02)
	sr.Release(0x80)
	assert.Equal(t, uint8(0x03), sr.Inputs())
}

func TestShiftRegister_ClockIgnoredWhileLoading(t *testing.T) {
	sr := NewShiftRegister()
	sr.SetInputs(0x80)
	require.NoError(t, sr.Latch().Set(false))
	require.NoError(t, sr.Clock().Set(true))
	require.NoError(t, sr.Clock().Set(false))
	assert.Zero(t, sr.Shifts())

	high, err := sr.Data().Get()
	require.NoError(t, err)
	assert.True(t, high)
}
