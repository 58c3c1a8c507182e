// Package training builds labelled corpora and fits scaler + forest bundles.
package training

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/linuxmatters/voxrisk/internal/audio"
	"github.com/linuxmatters/voxrisk/internal/features"
	"github.com/linuxmatters/voxrisk/internal/model"
)

// Source supplies labelled raw (unscaled) feature vectors
type Source interface {
	Examples(ctx context.Context) ([]model.Example, error)
	Name() string
	// Synthetic reports whether the examples are generated rather than
	// measured from recordings
	Synthetic() bool
}

// SyntheticSource generates standard-normal feature vectors. An example is
// positive when both zero-crossing std and RMS std exceed Threshold.
type SyntheticSource struct {
	Samples   int
	Seed      uint64
	Threshold float64
}

// DefaultSyntheticSource returns 1000 samples seeded with 42 and threshold 1.0
func DefaultSyntheticSource() SyntheticSource {
	return SyntheticSource{Samples: 1000, Seed: 42, Threshold: 1.0}
}

func (s SyntheticSource) Name() string {
	return fmt.Sprintf("synthetic(n=%d, seed=%d)", s.Samples, s.Seed)
}

func (s SyntheticSource) Synthetic() bool { return true }

// Examples draws the corpus row by row; the same seed always yields the
// same corpus
func (s SyntheticSource) Examples(ctx context.Context) ([]model.Example, error) {
	if s.Samples <= 0 {
		return nil, fmt.Errorf("%w: synthetic sample count %d", model.ErrDegenerateCorpus, s.Samples)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(s.Seed, s.Seed)}
	zcrStd := features.Index(features.FamilyZeroCrossing, features.StatStd)
	rmsStd := features.Index(features.FamilyEnergy, features.StatStd)

	out := make([]model.Example, s.Samples)
	for i := range out {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var v features.Vector
		for j := range v {
			v[j] = normal.Rand()
		}
		label := 0
		if v[zcrStd] > s.Threshold && v[rmsStd] > s.Threshold {
			label = 1
		}
		out[i] = model.Example{Features: v, Label: label}
	}
	return out, nil
}

// Class directories under a DirectorySource root
const (
	HealthyDir      = "healthy"
	ParkinsonianDir = "parkinsonian"
)

// DirectorySource extracts features from labelled recordings laid out as
// Root/healthy/*.wav (label 0) and Root/parkinsonian/*.wav (label 1).
// Recordings that cannot be read or analysed are skipped with a warning.
type DirectorySource struct {
	Root       string
	Extractor  *features.Extractor
	SampleRate int // resample target, 0 keeps the native rate
	MainsHz    int // hum notch frequency, 0 disables
	Logger     zerolog.Logger
}

func (d DirectorySource) Name() string { return "directory:" + d.Root }

func (d DirectorySource) Synthetic() bool { return false }

func (d DirectorySource) Examples(ctx context.Context) ([]model.Example, error) {
	if d.Extractor == nil {
		return nil, errors.New("directory source has no extractor")
	}

	var out []model.Example
	for label, dir := range []string{HealthyDir, ParkinsonianDir} {
		files, err := listRecordings(filepath.Join(d.Root, dir))
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v, err := d.extract(path)
			if err != nil {
				d.Logger.Warn().Err(err).Str("file", path).Msg("skipping recording")
				continue
			}
			out = append(out, model.Example{Features: v, Label: label})
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable recordings under %s", model.ErrDegenerateCorpus, d.Root)
	}
	d.Logger.Info().Int("examples", len(out)).Str("root", d.Root).Msg("loaded recordings")
	return out, nil
}

func (d DirectorySource) extract(path string) (features.Vector, error) {
	w, _, err := audio.ReadFile(path)
	if err != nil {
		return features.Vector{}, err
	}
	w, err = audio.Resample(w, d.SampleRate)
	if err != nil {
		return features.Vector{}, err
	}
	w = audio.RemoveHum(w, d.MainsHz)
	return d.Extractor.Extract(w)
}

// listRecordings returns the .wav files in dir in name order. A missing
// class directory contributes no files.
func listRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
