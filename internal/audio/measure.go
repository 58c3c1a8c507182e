package audio

import "math"

// SilenceThresholdDB is the block RMS level below which a block counts as silence
const SilenceThresholdDB = -50.0

// ClipLevel is the absolute sample value treated as clipped
const ClipLevel = 0.999

// silenceBlockSecs is the block length used for silence ratio measurement
const silenceBlockSecs = 0.05

// Measurements describes signal-level properties of a recording.
// These feed recording tips; they are not classifier features.
type Measurements struct {
	DurationSecs float64 `json:"duration_secs"`
	PeakDBFS     float64 `json:"peak_dbfs"`     // -Inf for digital silence
	RMSDBFS      float64 `json:"rms_dbfs"`      // -Inf for digital silence
	DCOffset     float64 `json:"dc_offset"`     // mean sample value
	ClippedRatio float64 `json:"clipped_ratio"` // fraction of samples at or beyond ClipLevel
	SilenceRatio float64 `json:"silence_ratio"` // fraction of 50ms blocks below SilenceThresholdDB
	MainsHz      int     `json:"mains_hz"`
	HumRatio     float64 `json:"hum_ratio"` // fraction of energy at mains frequency + 2nd harmonic
}

// Measure computes signal statistics for w. mainsHz may be 0 to skip hum measurement.
func Measure(w Waveform, mainsHz int) Measurements {
	m := Measurements{
		DurationSecs: w.Duration(),
		PeakDBFS:     math.Inf(-1),
		RMSDBFS:      math.Inf(-1),
		MainsHz:      mainsHz,
	}
	if len(w.Samples) == 0 {
		return m
	}

	var peak, sumSq, sum float64
	clipped := 0
	for _, s := range w.Samples {
		a := math.Abs(s)
		if a > peak {
			peak = a
		}
		if a >= ClipLevel {
			clipped++
		}
		sumSq += s * s
		sum += s
	}
	n := float64(len(w.Samples))

	m.PeakDBFS = toDB(peak)
	m.RMSDBFS = toDB(math.Sqrt(sumSq / n))
	m.DCOffset = sum / n
	m.ClippedRatio = float64(clipped) / n
	m.SilenceRatio = silenceRatio(w)
	m.HumRatio = HumRatio(w, mainsHz)

	return m
}

func silenceRatio(w Waveform) float64 {
	block := int(silenceBlockSecs * float64(w.SampleRate))
	if block < 1 {
		block = 1
	}

	blocks, silent := 0, 0
	for start := 0; start < len(w.Samples); start += block {
		end := min(start+block, len(w.Samples))
		sumSq := 0.0
		for _, s := range w.Samples[start:end] {
			sumSq += s * s
		}
		rms := math.Sqrt(sumSq / float64(end-start))
		if toDB(rms) < SilenceThresholdDB {
			silent++
		}
		blocks++
	}
	if blocks == 0 {
		return 0
	}
	return float64(silent) / float64(blocks)
}

// toDB converts a linear amplitude to dBFS, -Inf for zero
func toDB(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(linear)
}
