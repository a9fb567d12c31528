// Package flashimg stores simulator flash images on disk. An image file is
// the raw chip contents followed by a big-endian CRC-16/XMODEM of those
// contents.
package flashimg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sigurn/crc16"
)

// TrailerSize is the length of the checksum trailer.
const TrailerSize = 2

// Image file errors.
var (
	ErrChecksum = errors.New("flash image checksum mismatch")
	ErrSize     = errors.New("flash image size mismatch")
)

var table = crc16.MakeTable(crc16.CRC16_XMODEM)

// Checksum returns the CRC-16/XMODEM of img.
func Checksum(img []byte) uint16 {
	return crc16.Checksum(img, table)
}

// Write writes img and its checksum trailer to w.
func Write(w io.Writer, img []byte) error {
	var trailer [TrailerSize]byte
	binary.BigEndian.PutUint16(trailer[:], Checksum(img))
	if _, err := w.Write(img); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if _, err := w.Write(trailer[:]); err != nil {
		return fmt.Errorf("write image trailer: %w", err)
	}
	return nil
}

// Read reads an image of exactly size bytes plus trailer from r and
// verifies the checksum.
func Read(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size+TrailerSize)
	n, err := io.ReadFull(r, buf)
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF):
		return nil, fmt.Errorf("read %d of %d bytes: %w", n, len(buf), ErrSize)
	case err != nil:
		return nil, fmt.Errorf("read image: %w", err)
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return nil, fmt.Errorf("trailing data after %d bytes: %w", len(buf), ErrSize)
	}

	img, trailer := buf[:size], buf[size:]
	want := binary.BigEndian.Uint16(trailer)
	if got := Checksum(img); got != want {
		return nil, fmt.Errorf("crc 0x%04X, trailer 0x%04X: %w", got, want, ErrChecksum)
	}
	return img, nil
}

// Save writes img to the file at path.
func Save(path string, img []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads an image of size bytes from the file at path. A missing file
// yields an erased image (all 0xFF) and reports false.
func Load(path string, size int) ([]byte, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		img := make([]byte, size)
		for i := range img {
			img[i] = 0xFF
		}
		return img, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	img, err := Read(f, size)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return img, true, nil
}
