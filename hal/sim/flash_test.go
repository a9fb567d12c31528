package sim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

func quadFlash(t *testing.T) *Flash {
	t.Helper()
	f := NewFlash()
	f.ProgramPolls = 0
	f.ErasePolls = 0
	require.NoError(t, f.RunCommand(hal.CommandWriteEnable))
	require.NoError(t, f.WriteCommand(hal.CommandWriteStatus2, []byte{StatusQE}))
	return f
}

func TestFlash_KindMismatch(t *testing.T) {
	f := NewFlash()
	require.ErrorIs(t, f.RunCommand(hal.CommandReadStatus), pkg.ErrCommand)
	require.ErrorIs(t, f.ReadCommand(hal.CommandWriteEnable, make([]byte, 1)), pkg.ErrCommand)
	require.ErrorIs(t, f.WriteCommand(hal.CommandEraseChip, []byte{0}), pkg.ErrCommand)
	require.ErrorIs(t, f.EraseCommand(hal.CommandReset, 0), pkg.ErrCommand)
	assert.Empty(t, f.Trace())
}

func TestFlash_ReadID(t *testing.T) {
	f := NewFlash()
	id := make([]byte, 3)
	require.NoError(t, f.ReadCommand(hal.CommandReadID, id))
	assert.Equal(t, []byte{0xC8, 0x40, 0x15}, id)
}

func TestFlash_QuadRequired(t *testing.T) {
	f := NewFlash()
	require.ErrorIs(t, f.ReadMemory(0, make([]byte, 4)), pkg.ErrCommand)

	f = quadFlash(t)
	buf := make([]byte, 4)
	require.NoError(t, f.ReadMemory(0, buf))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf)
}

func TestFlash_ProgramNeedsWriteEnable(t *testing.T) {
	f := quadFlash(t)
	require.NoError(t, f.WriteMemory(0, []byte{0x00}))
	assert.Equal(t, []byte{0xFF}, f.Peek(0, 1))

	require.NoError(t, f.RunCommand(hal.CommandWriteEnable))
	require.NoError(t, f.WriteMemory(0, []byte{0x00}))
	assert.Equal(t, []byte{0x00}, f.Peek(0, 1))

	sr1, _ := f.Status()
	assert.Zero(t, sr1&StatusWEL, "program clears WEL")
}

func TestFlash_ProgramWrapsWithinPage(t *testing.T) {
	f := quadFlash(t)
	data := bytes.Repeat([]byte{0x5A}, 100)

	require.NoError(t, f.RunCommand(hal.CommandWriteEnable))
	require.NoError(t, f.WriteMemory(3*FlashPageSize+200, data))

	page := f.Peek(3*FlashPageSize, FlashPageSize)
	for i := range FlashPageSize {
		want := byte(0xFF)
		if i >= 200 || i < 44 {
			want = 0x5A
		}
		require.Equalf(t, want, page[i], "page offset %d", i)
	}
	assert.Equal(t, []byte{0xFF}, f.Peek(4*FlashPageSize, 1), "next page untouched")
}

func TestFlash_ProgramKeepsLastPage(t *testing.T) {
	f := quadFlash(t)
	data := make([]byte, FlashPageSize+10)
	for i := range data {
		data[i] = byte(i)
	}

	require.NoError(t, f.RunCommand(hal.CommandWriteEnable))
	require.NoError(t, f.WriteMemory(0, data))

	page := f.Peek(0, FlashPageSize)
	for i := range FlashPageSize {
		// data[k] lands at offset k mod 256 for the last 256 bytes sent.
		k := 10 + (i-10+FlashPageSize)%FlashPageSize
		require.Equalf(t, data[k], page[i], "page offset %d", i)
	}
}

func TestFlash_Busy(t *testing.T) {
	f := quadFlash(t)
	f.Hold(2, 1)

	sr := make([]byte, 1)
	for range 2 {
		require.NoError(t, f.ReadCommand(hal.CommandReadStatus, sr))
		assert.NotZero(t, sr[0]&StatusWIP)
	}
	require.NoError(t, f.ReadCommand(hal.CommandReadStatus, sr))
	assert.Zero(t, sr[0]&StatusWIP)

	require.NoError(t, f.ReadCommand(hal.CommandReadStatus2, sr))
	assert.NotZero(t, sr[0]&StatusSUS)
	require.NoError(t, f.ReadCommand(hal.CommandReadStatus2, sr))
	assert.Zero(t, sr[0]&StatusSUS)
	assert.NotZero(t, sr[0]&StatusQE)
}

func TestFlash_ResetNeedsEnable(t *testing.T) {
	f := quadFlash(t)
	f.Hold(5, 0)
	require.NoError(t, f.RunCommand(hal.CommandReset))
	sr1, _ := f.Status()
	assert.NotZero(t, sr1&StatusWIP, "reset without EnableReset is ignored")

	require.NoError(t, f.RunCommand(hal.CommandEnableReset))
	require.NoError(t, f.RunCommand(hal.CommandReset))
	sr1, sr2 := f.Status()
	assert.Zero(t, sr1&StatusWIP)
	assert.NotZero(t, sr2&StatusQE, "QE is non-volatile")
}

func TestFlash_EraseChip(t *testing.T) {
	f := quadFlash(t)
	require.NoError(t, f.Load([]byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3, 0xFF}, f.Peek(0, 4))

	require.NoError(t, f.RunCommand(hal.CommandWriteEnable))
	require.NoError(t, f.EraseCommand(hal.CommandEraseChip, 0))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, f.Peek(0, 3))
}

func TestFlash_LoadTooLarge(t *testing.T) {
	f := NewFlash()
	require.ErrorIs(t, f.Load(make([]byte, FlashSize+1)), pkg.ErrOutOfRange)
}
