// Package audio provides audio file input and waveform conditioning
package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrEmptyWaveform is returned when a decoded file or buffer contains no samples
var ErrEmptyWaveform = errors.New("waveform contains no samples")

// wavFormatPCM is the WAVE_FORMAT_PCM tag; other encodings are rejected
const wavFormatPCM = 1

// Waveform is a mono buffer of samples in [-1, 1] at a fixed sample rate.
// Channels records how many channels the source had before downmixing.
type Waveform struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Duration returns the waveform length in seconds
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Validate checks the waveform invariants: non-empty, positive sample rate
func (w Waveform) Validate() error {
	if w.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", w.SampleRate)
	}
	if len(w.Samples) == 0 {
		return ErrEmptyWaveform
	}
	return nil
}

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	BitDepth   int
}

// ReadFile opens and decodes a WAV file into a mono waveform
func ReadFile(filename string) (Waveform, *Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Waveform{}, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	w, meta, err := Decode(f)
	if err != nil {
		return Waveform{}, nil, fmt.Errorf("%s: %w", filename, err)
	}
	return w, meta, nil
}

// Decode reads a complete WAV stream and downmixes it to mono
func Decode(r io.ReadSeeker) (Waveform, *Metadata, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Waveform{}, nil, errors.New("not a valid WAV file")
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return Waveform{}, nil, fmt.Errorf("unsupported WAV encoding %d (PCM only)", dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, nil, fmt.Errorf("failed to decode PCM data: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return Waveform{}, nil, errors.New("decoder returned no PCM buffer")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	interleaved := normaliseInts(buf, bitDepth)

	w, err := FromInterleaved(interleaved, buf.Format.NumChannels, buf.Format.SampleRate)
	if err != nil {
		return Waveform{}, nil, err
	}

	meta := &Metadata{
		Duration:   w.Duration(),
		SampleRate: w.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   bitDepth,
	}
	return w, meta, nil
}

// normaliseInts converts integer PCM to floats in [-1, 1].
// 8-bit WAV is unsigned and centred on 128.
func normaliseInts(buf *goaudio.IntBuffer, bitDepth int) []float64 {
	out := make([]float64, len(buf.Data))
	if bitDepth == 8 {
		for i, v := range buf.Data {
			out[i] = float64(v-128) / 128.0
		}
		return out
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := math.Pow(2, float64(bitDepth-1))
	for i, v := range buf.Data {
		out[i] = float64(v) / scale
	}
	return out
}

// FromInterleaved builds a mono waveform from interleaved samples by
// averaging all channels of each frame.
func FromInterleaved(samples []float64, channels, sampleRate int) (Waveform, error) {
	if channels <= 0 {
		return Waveform{}, fmt.Errorf("invalid channel count %d", channels)
	}
	if sampleRate <= 0 {
		return Waveform{}, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	frames := len(samples) / channels
	if frames == 0 {
		return Waveform{}, ErrEmptyWaveform
	}

	mono := samples[:frames]
	if channels > 1 {
		mono = make([]float64, frames)
		for i := 0; i < frames; i++ {
			sum := 0.0
			for c := 0; c < channels; c++ {
				sum += samples[i*channels+c]
			}
			mono[i] = sum / float64(channels)
		}
	} else {
		mono = append([]float64(nil), mono...)
	}

	return Waveform{Samples: mono, SampleRate: sampleRate, Channels: channels}, nil
}
