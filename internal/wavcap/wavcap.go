// Package wavcap records the simulated speaker pin as 16-bit mono PCM and
// writes it as a WAV file.
package wavcap

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// DefaultSampleRate is the CD sample rate.
	DefaultSampleRate = 44100

	bitDepth  = 16
	pcmFormat = 1

	// Amplitude is the sample value of a high speaker pin. A low pin with
	// the amplifier enabled is -Amplitude; a disabled amplifier is silent.
	Amplitude = 1 << 13
)

// ErrInvalidFile indicates a file that is not a PCM WAV recording.
var ErrInvalidFile = errors.New("not a valid wav file")

// Source is the simulated speaker output.
type Source interface {
	// Advance moves simulated time forward.
	Advance(d time.Duration)

	// Level reports the speaker pin level and whether the amplifier is on.
	Level() (high, enabled bool)
}

// Capture holds recorded samples.
type Capture struct {
	SampleRate int
	Samples    []int
}

// New returns an empty capture at the given sample rate.
func New(sampleRate int) *Capture {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Capture{SampleRate: sampleRate}
}

// Record samples src for d, advancing it one sample period at a time.
func (c *Capture) Record(src Source, d time.Duration) {
	n := int(int64(d) * int64(c.SampleRate) / int64(time.Second))
	c.Samples = slices.Grow(c.Samples, n)
	// Step to exact sample boundaries; a truncated period drifts.
	var at time.Duration
	for i := range n {
		next := time.Duration(int64(i+1) * int64(time.Second) / int64(c.SampleRate))
		src.Advance(next - at)
		at = next
		c.Samples = append(c.Samples, sample(src.Level()))
	}
}

func sample(high, enabled bool) int {
	switch {
	case !enabled:
		return 0
	case high:
		return Amplitude
	default:
		return -Amplitude
	}
}

// Duration returns the recorded length.
func (c *Capture) Duration() time.Duration {
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Frequency estimates the tone frequency from rising edges.
func (c *Capture) Frequency() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	edges := 0
	for i := 1; i < len(c.Samples); i++ {
		if c.Samples[i-1] <= 0 && c.Samples[i] > 0 {
			edges++
		}
	}
	return float64(edges) / c.Duration().Seconds()
}

// Encode writes the capture as a 16-bit mono PCM WAV file.
func (c *Capture) Encode(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, c.SampleRate, bitDepth, 1, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: c.SampleRate},
		Data:           c.Samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav encode: %w", err)
	}
	return nil
}

// Decode reads a mono WAV file written by Encode.
func Decode(r io.ReadSeeker) (*Capture, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode: %w", err)
	}
	if dec.NumChans != 1 {
		return nil, fmt.Errorf("%d channels: %w", dec.NumChans, ErrInvalidFile)
	}
	return &Capture{SampleRate: int(dec.SampleRate), Samples: buf.Data}, nil
}
