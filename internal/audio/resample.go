package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts the waveform to the target sample rate.
// A target of 0 or the current rate returns the waveform unchanged.
func Resample(w Waveform, targetRate int) (Waveform, error) {
	if targetRate <= 0 || targetRate == w.SampleRate {
		return w, nil
	}
	if err := w.Validate(); err != nil {
		return Waveform{}, err
	}

	config := &resampling.Config{
		InputRate:  float64(w.SampleRate),
		OutputRate: float64(targetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	r, err := resampling.New(config)
	if err != nil {
		return Waveform{}, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := r.Process(w.Samples)
	if err != nil {
		return Waveform{}, fmt.Errorf("resample error: %w", err)
	}
	if len(out) == 0 {
		return Waveform{}, fmt.Errorf("resampling %d Hz -> %d Hz: %w", w.SampleRate, targetRate, ErrEmptyWaveform)
	}

	return Waveform{Samples: out, SampleRate: targetRate, Channels: w.Channels}, nil
}
