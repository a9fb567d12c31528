package board

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softbadge/buttons"
	"github.com/ardnew/softbadge/flash"
	"github.com/ardnew/softbadge/hal/sim"
	"github.com/ardnew/softbadge/pkg"
	"github.com/ardnew/softbadge/uptime"
	"github.com/ardnew/softbadge/usb"
)

// The drivers behind Take are process-wide, so one test walks the whole
// lifecycle.
func TestTake(t *testing.T) {
	hw := sim.New()
	hw.LED.Set(true)

	b, err := Take(hw.Peripherals())
	require.NoError(t, err)

	t.Run("reset levels", func(t *testing.T) {
		assert.False(t, hw.LED.Level())
		assert.False(t, hw.SpeakerEnable.Level())
	})

	t.Run("vector priorities", func(t *testing.T) {
		assert.Equal(t, uint8(DefaultSoundPriority), hw.SoundIRQ.Priority())
		assert.Equal(t, uint8(DefaultUptimePriority), hw.UptimeIRQ.Priority())
		assert.Equal(t, uint8(DefaultUSBPriority), hw.USBIRQ.Priority())

		b.SetPriority(VectorUSB, 7)
		assert.Equal(t, uint8(7), hw.USBIRQ.Priority())
		b.SetPriority(Vector(9), 3)
	})

	t.Run("led", func(t *testing.T) {
		require.NoError(t, b.LED.On())
		assert.True(t, hw.LED.Level())
		require.NoError(t, b.LED.Toggle())
		assert.False(t, hw.LED.Level())
		require.NoError(t, b.LED.Toggle())
		require.NoError(t, b.LED.Off())
		assert.False(t, hw.LED.Level())
	})

	t.Run("uptime", func(t *testing.T) {
		assert.True(t, hw.UptimeIRQ.Enabled())
		start := b.Uptime()
		hw.Advance(25 * time.Millisecond)
		assert.Equal(t, uptime.Milliseconds(25), b.Uptime().Sub(start))
	})

	t.Run("buttons", func(t *testing.T) {
		hw.Buttons.Press(uint8(buttons.A | buttons.Start))
		require.NoError(t, b.Buttons.Update())
		assert.True(t, b.Buttons.A())
		assert.True(t, b.Buttons.Start())
		assert.False(t, b.Buttons.B())
	})

	t.Run("sound", func(t *testing.T) {
		require.NoError(t, b.Sound.SetFreq(440))
		require.NoError(t, b.Sound.Enable())
		before := hw.Speaker.Toggles()
		hw.Advance(time.Second)
		require.NoError(t, b.Sound.Disable())
		assert.Equal(t, 880, hw.Speaker.Toggles()-before)
	})

	t.Run("flash", func(t *testing.T) {
		_, sr2 := hw.Flash.Status()
		assert.NotZero(t, sr2&sim.StatusQE)
		assert.Equal(t, uint8(flash.ClockDivider), hw.Flash.Divider())

		page := make([]byte, 4)
		require.NoError(t, b.Flash.WritePage(flash.PageAddress(3), []byte{1, 2, 3, 4}))
		require.NoError(t, b.Flash.Read(flash.PageAddress(3), page))
		assert.Equal(t, []byte{1, 2, 3, 4}, page)
	})

	t.Run("usb", func(t *testing.T) {
		assert.False(t, hw.USB.Attached())
		serial, err := b.USB.Product("Badge").Build()
		require.NoError(t, err)
		assert.True(t, hw.USB.Attached())

		require.NoError(t, serial.EnableInterrupt())
		host := sim.NewHost(hw.USB, func() { hw.USBIRQ.Fire() })
		_, err = host.Enumerate(4)
		require.NoError(t, err)
		assert.Equal(t, usb.StateConfigured, serial.State())
	})

	t.Run("second take", func(t *testing.T) {
		_, err := Take(sim.New().Peripherals())
		require.ErrorIs(t, err, pkg.ErrAlreadyTaken)
	})
}

func TestTake_MissingPeripheral(t *testing.T) {
	p := sim.New().Peripherals()
	p.Flash = nil
	_, err := Take(p)
	require.ErrorIs(t, err, pkg.ErrInvalidParameter)
	assert.ErrorContains(t, err, "flash bus")
}

func TestLED_PinError(t *testing.T) {
	pin := sim.NewPin()
	boom := errors.New("port fault")
	pin.Fail(boom)
	led := &LED{pin: pin}

	require.ErrorIs(t, led.On(), boom)
	require.ErrorIs(t, led.Off(), boom)
	require.ErrorIs(t, led.Toggle(), boom)
}

func TestVector_String(t *testing.T) {
	assert.Equal(t, "sound", VectorSound.String())
	assert.Equal(t, "uptime", VectorUptime.String())
	assert.Equal(t, "usb", VectorUSB.String())
	assert.Equal(t, "Vector(5)", Vector(5).String())
}
