package model

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/linuxmatters/voxrisk/internal/features"
)

// constantStd is the standard deviation below which a column is treated as
// constant and scaled to zero
const constantStd = 1e-12

// Scaler standardises feature vectors to zero mean and unit variance using
// population statistics learned from a training corpus. A fitted Scaler is
// never modified.
type Scaler struct {
	Names    []string  `msgpack:"names"`
	Mean     []float64 `msgpack:"mean"`
	Std      []float64 `msgpack:"std"`
	Constant []bool    `msgpack:"constant"`
}

// FitScaler learns per-column mean and population standard deviation
func FitScaler(names []string, corpus []features.Vector) (*Scaler, error) {
	if len(names) != features.Count {
		return nil, fmt.Errorf("%w: %d feature names, want %d", ErrScalerMismatch, len(names), features.Count)
	}
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: empty corpus", ErrDegenerateCorpus)
	}

	s := &Scaler{
		Names:    slices.Clone(names),
		Mean:     make([]float64, features.Count),
		Std:      make([]float64, features.Count),
		Constant: make([]bool, features.Count),
	}

	column := make([]float64, len(corpus))
	for j := 0; j < features.Count; j++ {
		for i := range corpus {
			column[i] = corpus[i][j]
		}
		mean, variance := stat.PopMeanVariance(column, nil)
		std := math.Sqrt(variance)
		if std < constantStd {
			std = 1
			s.Constant[j] = true
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}

	return s, nil
}

// Check verifies the scaler matches the feature layout in names
func (s *Scaler) Check(names []string) error {
	if s == nil {
		return ErrUntrained
	}
	if len(s.Mean) != features.Count || len(s.Std) != features.Count || len(s.Constant) != features.Count {
		return fmt.Errorf("%w: scaler has %d columns, want %d", ErrScalerMismatch, len(s.Mean), features.Count)
	}
	if !slices.Equal(s.Names, names) {
		return fmt.Errorf("%w: scaler feature names differ", ErrScalerMismatch)
	}
	return nil
}

// Transform applies (x - mean) / std per column. Constant columns emit 0.
func (s *Scaler) Transform(v features.Vector) (features.Vector, error) {
	var out features.Vector
	if err := s.Check(features.Names()); err != nil {
		return out, err
	}

	for j, x := range v {
		if s.Constant[j] {
			continue
		}
		out[j] = (x - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

// TransformAll scales every vector in corpus
func (s *Scaler) TransformAll(corpus []features.Vector) ([]features.Vector, error) {
	out := make([]features.Vector, len(corpus))
	for i, v := range corpus {
		scaled, err := s.Transform(v)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
