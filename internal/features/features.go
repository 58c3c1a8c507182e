// Package features turns a speech waveform into the fixed-length acoustic
// feature vector consumed by the risk classifier.
//
// Six families are measured frame by frame and each is reduced to three
// descriptive statistics, giving 18 values in a fixed order:
//
//	cepstral (MFCC aggregate), RMS energy, zero-crossing rate,
//	spectral centroid, spectral rolloff, chroma
//
// each as (mean, std, skew). Skewness is taken on the raw per-frame values,
// before any scaling.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/linuxmatters/voxrisk/internal/audio"
)

// Count is the length of a feature vector
const Count = 18

// ErrExtraction marks any failure to derive features from a waveform.
// Callers must not continue to scaling or inference after it.
var ErrExtraction = errors.New("feature extraction failed")

// Vector is an ordered feature vector; see Names for the layout
type Vector [Count]float64

// Family identifies one of the six acoustic feature families
type Family int

const (
	FamilyCepstral Family = iota
	FamilyEnergy
	FamilyZeroCrossing
	FamilyCentroid
	FamilyRolloff
	FamilyChroma
	numFamilies
)

// Families lists the families in vector order
var Families = [numFamilies]Family{
	FamilyCepstral, FamilyEnergy, FamilyZeroCrossing,
	FamilyCentroid, FamilyRolloff, FamilyChroma,
}

var familyPrefixes = [numFamilies]string{"mfcc", "rms", "zcr", "centroid", "rolloff", "chroma"}

func (f Family) String() string {
	if f < 0 || f >= numFamilies {
		return fmt.Sprintf("Family(%d)", int(f))
	}
	return familyPrefixes[f]
}

// Statistic offsets within a family triple
const (
	StatMean = 0
	StatStd  = 1
	StatSkew = 2
)

// Index returns the vector position of a family statistic
func Index(f Family, stat int) int {
	return int(f)*3 + stat
}

// Names returns the feature names in vector order. The returned slice is a copy.
func Names() []string {
	names := make([]string, 0, Count)
	for _, prefix := range familyPrefixes {
		names = append(names, prefix+"_mean", prefix+"_std", prefix+"_skew")
	}
	return names
}

// Config controls frame analysis parameters. Defaults follow librosa's
// feature defaults so values are comparable with common speech tooling.
type Config struct {
	FrameLength    int     // FFT and frame size in samples (default 2048)
	HopLength      int     // hop between frames in samples (default 512)
	NumMFCC        int     // cepstral coefficients per frame (default 13)
	NumMels        int     // mel bands feeding the DCT (default 128)
	TopDB          float64 // dynamic range clamp for the log-mel spectrogram (default 80)
	RolloffPercent float64 // energy fraction for spectral rolloff (default 0.85)
	ChromaMinHz    float64 // lowest frequency folded into chroma (default 32.7, C1)
}

// DefaultConfig returns the standard extraction parameters
func DefaultConfig() Config {
	return Config{
		FrameLength:    2048,
		HopLength:      512,
		NumMFCC:        13,
		NumMels:        128,
		TopDB:          80,
		RolloffPercent: 0.85,
		ChromaMinHz:    32.70,
	}
}

// Validate reports configuration values that cannot produce features
func (c Config) Validate() error {
	switch {
	case c.FrameLength < 16:
		return fmt.Errorf("frame length %d too small", c.FrameLength)
	case c.HopLength <= 0:
		return fmt.Errorf("hop length must be positive, got %d", c.HopLength)
	case c.NumMels <= 0 || c.NumMFCC <= 0 || c.NumMFCC > c.NumMels:
		return fmt.Errorf("invalid mel/mfcc sizes %d/%d", c.NumMels, c.NumMFCC)
	case c.RolloffPercent <= 0 || c.RolloffPercent > 1:
		return fmt.Errorf("rolloff percent %.2f outside (0, 1]", c.RolloffPercent)
	case c.TopDB <= 0:
		return fmt.Errorf("top dB must be positive, got %.1f", c.TopDB)
	}
	return nil
}

// ProgressFunc receives a callback after each family has been computed
type ProgressFunc func(family Family, done, total int)

// Extractor computes feature vectors. It is safe for concurrent use; the
// filterbanks built for each sample rate are cached.
type Extractor struct {
	cfg   Config
	banks *bankCache
}

// New creates an Extractor with the given config
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("features config: %w", err)
	}
	return &Extractor{cfg: cfg, banks: newBankCache()}, nil
}

// Config returns the extractor's parameters
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract computes the feature vector for a waveform
func (e *Extractor) Extract(w audio.Waveform) (Vector, error) {
	return e.ExtractSamples(w.Samples, w.SampleRate, nil)
}

// ExtractWithProgress is Extract with a per-family progress callback
func (e *Extractor) ExtractWithProgress(w audio.Waveform, progress ProgressFunc) (Vector, error) {
	return e.ExtractSamples(w.Samples, w.SampleRate, progress)
}

// ExtractSamples computes the feature vector for mono samples at sampleRate
func (e *Extractor) ExtractSamples(samples []float64, sampleRate int, progress ProgressFunc) (Vector, error) {
	var v Vector

	if sampleRate <= 0 {
		return v, fmt.Errorf("%w: invalid sample rate %d", ErrExtraction, sampleRate)
	}
	if len(samples) == 0 {
		return v, fmt.Errorf("%w: %w", ErrExtraction, audio.ErrEmptyWaveform)
	}
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return v, fmt.Errorf("%w: non-finite sample at index %d", ErrExtraction, i)
		}
	}

	frames := frameSignal(samples, e.cfg.FrameLength, e.cfg.HopLength)
	sg := computeSpectrogram(frames, e.cfg.FrameLength)
	banks := e.banks.get(sampleRate, e.cfg)

	perFrame := [numFamilies]func() []float64{
		func() []float64 { return cepstralAggregate(sg.power, banks, e.cfg) },
		func() []float64 { return frameRMS(frames) },
		func() []float64 { return frameZeroCrossingRate(frames) },
		func() []float64 { return spectralCentroid(sg.magnitude, sampleRate, e.cfg.FrameLength) },
		func() []float64 { return spectralRolloff(sg.magnitude, sampleRate, e.cfg.FrameLength, e.cfg.RolloffPercent) },
		func() []float64 { return chromaAggregate(sg.power, banks.chromaClass) },
	}

	for i, family := range Families {
		values := perFrame[i]()
		stats := Describe(values)
		base := int(family) * 3
		v[base+StatMean] = stats.Mean
		v[base+StatStd] = stats.Std
		v[base+StatSkew] = stats.Skew

		if progress != nil {
			progress(family, i+1, len(Families))
		}
	}

	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Vector{}, fmt.Errorf("%w: %s is not finite", ErrExtraction, Names()[i])
		}
	}

	return v, nil
}
