package flashimg

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_XMODEM(t *testing.T) {
	// Standard check value for the ASCII digits.
	assert.Equal(t, uint16(0x31C3), Checksum([]byte("123456789")))
}

func TestWriteRead(t *testing.T) {
	img := bytes.Repeat([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 64)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img))
	require.Equal(t, len(img)+TrailerSize, buf.Len())

	got, err := Read(bytes.NewReader(buf.Bytes()), len(img))
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestRead_Corrupt(t *testing.T) {
	img := make([]byte, 256)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img))
	raw := buf.Bytes()
	raw[17] ^= 0x01

	_, err := Read(bytes.NewReader(raw), len(img))
	require.ErrorIs(t, err, ErrChecksum)
}

func TestRead_Size(t *testing.T) {
	img := make([]byte, 256)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img))

	_, err := Read(bytes.NewReader(buf.Bytes()), 512)
	require.ErrorIs(t, err, ErrSize)

	_, err = Read(bytes.NewReader(buf.Bytes()), 128)
	require.ErrorIs(t, err, ErrSize)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badge.img")

	img, found, err := Load(path, 1024)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 1024), img)

	img[0], img[1023] = 0x00, 0x42
	require.NoError(t, Save(path, img))

	got, found, err := Load(path, 1024)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, img, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[5] = 0x00
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	_, _, err = Load(path, 1024)
	require.ErrorIs(t, err, ErrChecksum)
}
