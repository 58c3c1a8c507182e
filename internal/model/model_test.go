package model

import (
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"github.com/linuxmatters/voxrisk/internal/features"
)

// separableCorpus draws normal features and labels by the sign of column 7
func separableCorpus(n int, seed uint64) []Example {
	r := rand.New(rand.NewPCG(seed, seed))
	out := make([]Example, n)
	for i := range out {
		var v features.Vector
		for j := range v {
			v[j] = r.NormFloat64()
		}
		label := 0
		if v[7] > 0 {
			label = 1
		}
		out[i] = Example{Features: v, Label: label}
	}
	return out
}

func vectors(examples []Example) []features.Vector {
	out := make([]features.Vector, len(examples))
	for i, ex := range examples {
		out[i] = ex.Features
	}
	return out
}

func smallParams() ForestParams {
	p := DefaultForestParams()
	p.Trees = 20
	return p
}

func TestFitScalerStandardises(t *testing.T) {
	corpus := vectors(separableCorpus(300, 1))
	for i := range corpus {
		corpus[i][0] = corpus[i][0]*5 + 100
		corpus[i][3] = 2.5 // constant column
	}

	s, err := FitScaler(features.Names(), corpus)
	if err != nil {
		t.Fatalf("FitScaler: %v", err)
	}
	scaled, err := s.TransformAll(corpus)
	if err != nil {
		t.Fatalf("TransformAll: %v", err)
	}

	for j := 0; j < features.Count; j++ {
		var sum, sq float64
		for _, v := range scaled {
			sum += v[j]
		}
		mean := sum / float64(len(scaled))
		for _, v := range scaled {
			sq += (v[j] - mean) * (v[j] - mean)
		}
		std := math.Sqrt(sq / float64(len(scaled)))

		if math.Abs(mean) > 1e-9 {
			t.Errorf("column %d mean = %g, want 0", j, mean)
		}
		if j == 3 {
			if std != 0 || !s.Constant[3] {
				t.Errorf("constant column std = %g, constant = %v", std, s.Constant[3])
			}
			continue
		}
		if math.Abs(std-1) > 1e-9 {
			t.Errorf("column %d std = %g, want 1", j, std)
		}
	}

	var probe features.Vector
	probe[3] = 999
	out, err := s.Transform(probe)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if out[3] != 0 {
		t.Errorf("constant column transformed to %g, want 0", out[3])
	}
}

func TestScalerMismatch(t *testing.T) {
	if _, err := FitScaler([]string{"a", "b"}, nil); !errors.Is(err, ErrScalerMismatch) {
		t.Errorf("FitScaler with short names: %v, want ErrScalerMismatch", err)
	}
	if _, err := FitScaler(features.Names(), nil); !errors.Is(err, ErrDegenerateCorpus) {
		t.Errorf("FitScaler with empty corpus: %v, want ErrDegenerateCorpus", err)
	}

	s, err := FitScaler(features.Names(), vectors(separableCorpus(10, 2)))
	if err != nil {
		t.Fatalf("FitScaler: %v", err)
	}
	s.Names[0] = "renamed"
	if _, err := s.Transform(features.Vector{}); !errors.Is(err, ErrScalerMismatch) {
		t.Errorf("Transform with renamed column: %v, want ErrScalerMismatch", err)
	}

	truncated := &Scaler{Names: features.Names(), Mean: []float64{0}, Std: []float64{1}, Constant: []bool{false}}
	if _, err := truncated.Transform(features.Vector{}); !errors.Is(err, ErrScalerMismatch) {
		t.Errorf("Transform with 1-column scaler: %v, want ErrScalerMismatch", err)
	}

	var nilScaler *Scaler
	if _, err := nilScaler.Transform(features.Vector{}); !errors.Is(err, ErrUntrained) {
		t.Errorf("nil scaler Transform: %v, want ErrUntrained", err)
	}
}

func TestTrainForestLearnsRule(t *testing.T) {
	train := separableCorpus(400, 3)
	test := separableCorpus(200, 4)

	p := smallParams()
	p.MaxFeatures = 8
	f, err := TrainForest(train, p)
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}

	acc, err := f.Accuracy(test)
	if err != nil {
		t.Fatalf("Accuracy: %v", err)
	}
	if acc < 0.85 {
		t.Errorf("held-out accuracy = %.3f, want >= 0.85", acc)
	}

	best := 0
	for j, w := range f.Importances {
		if w > f.Importances[best] {
			best = j
		}
	}
	if best != 7 {
		t.Errorf("most important feature = %d, want 7", best)
	}
}

func TestImportancesNormalised(t *testing.T) {
	for _, seed := range []uint64{1, 42, 99} {
		p := smallParams()
		p.Seed = seed
		f, err := TrainForest(separableCorpus(150, seed), p)
		if err != nil {
			t.Fatalf("TrainForest seed %d: %v", seed, err)
		}
		sum := 0.0
		for j, w := range f.Importances {
			if w < 0 {
				t.Errorf("seed %d importance[%d] = %g, negative", seed, j, w)
			}
			sum += w
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("seed %d importances sum = %.12f, want 1", seed, sum)
		}
	}
}

func TestTrainForestReproducible(t *testing.T) {
	corpus := separableCorpus(200, 5)

	serial := smallParams()
	serial.Jobs = 1
	parallel := smallParams()
	parallel.Jobs = 4

	a, err := TrainForest(corpus, serial)
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}
	b, err := TrainForest(corpus, parallel)
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}
	if !reflect.DeepEqual(a.Trees, b.Trees) || !reflect.DeepEqual(a.Importances, b.Importances) {
		t.Error("same seed produced different forests for different job counts")
	}

	other := smallParams()
	other.Seed = 7
	c, err := TrainForest(corpus, other)
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}
	if reflect.DeepEqual(a.Trees, c.Trees) {
		t.Error("different seeds produced identical forests")
	}
}

func TestPredictDeterministic(t *testing.T) {
	f, err := TrainForest(separableCorpus(200, 6), smallParams())
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}

	probe := separableCorpus(1, 77)[0].Features
	first, err := f.Predict(probe)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := f.Predict(probe)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Predict call %d = %+v, want %+v", i, again, first)
		}
	}

	if first.Probability < 0 || first.Probability > 1 {
		t.Errorf("probability %g outside [0, 1]", first.Probability)
	}
	if (first.Probability > 0.5) != (first.Label == 1) {
		t.Errorf("label %d inconsistent with probability %g", first.Label, first.Probability)
	}

	first.Importances[0] = 42
	if f.Importances[0] == 42 {
		t.Error("Prediction shares importances with the forest")
	}
}

func TestTrainForestDegenerate(t *testing.T) {
	allNegative := separableCorpus(50, 8)
	for i := range allNegative {
		allNegative[i].Label = 0
	}

	tests := []struct {
		name     string
		examples []Example
	}{
		{"empty", nil},
		{"single class", allNegative},
		{"non-binary label", []Example{{Label: 0}, {Label: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TrainForest(tt.examples, smallParams()); !errors.Is(err, ErrDegenerateCorpus) {
				t.Errorf("TrainForest error = %v, want ErrDegenerateCorpus", err)
			}
		})
	}
}

func TestForestParamsValidate(t *testing.T) {
	bad := []ForestParams{
		{Trees: 0, MinSamplesSplit: 2, MinSamplesLeaf: 1},
		{Trees: 1, MaxDepth: -1, MinSamplesSplit: 2, MinSamplesLeaf: 1},
		{Trees: 1, MinSamplesSplit: 1, MinSamplesLeaf: 1},
		{Trees: 1, MinSamplesSplit: 2, MinSamplesLeaf: 0},
		{Trees: 1, MinSamplesSplit: 2, MinSamplesLeaf: 1, MaxFeatures: 19},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("params %d accepted: %+v", i, p)
		}
	}
	if err := DefaultForestParams().Validate(); err != nil {
		t.Errorf("default params rejected: %v", err)
	}
	if got := DefaultForestParams().featuresPerSplit(); got != 4 {
		t.Errorf("featuresPerSplit = %d, want 4", got)
	}
}

func TestPredictUntrained(t *testing.T) {
	var f *Forest
	if _, err := f.Predict(features.Vector{}); !errors.Is(err, ErrUntrained) {
		t.Errorf("nil forest Predict: %v, want ErrUntrained", err)
	}
	if _, err := (&Forest{}).Predict(features.Vector{}); !errors.Is(err, ErrUntrained) {
		t.Errorf("empty forest Predict: %v, want ErrUntrained", err)
	}

	var b *Bundle
	if _, err := b.Predict(features.Vector{}); !errors.Is(err, ErrUntrained) {
		t.Errorf("nil bundle Predict: %v, want ErrUntrained", err)
	}
}

func TestPredictLayoutMismatch(t *testing.T) {
	f, err := TrainForest(separableCorpus(100, 9), smallParams())
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}
	f.Names = f.Names[:17]
	if _, err := f.Predict(features.Vector{}); !errors.Is(err, ErrScalerMismatch) {
		t.Errorf("Predict on truncated forest: %v, want ErrScalerMismatch", err)
	}
}

func testBundle(t *testing.T, id string) *Bundle {
	t.Helper()
	corpus := separableCorpus(120, 10)
	s, err := FitScaler(features.Names(), vectors(corpus))
	if err != nil {
		t.Fatalf("FitScaler: %v", err)
	}
	f, err := TrainForest(corpus, smallParams())
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}
	return &Bundle{
		ID:        id,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Scaler:    s,
		Forest:    f,
		Metrics:   Metrics{TrainAccuracy: 1, TestAccuracy: 0.9, Source: "test"},
	}
}

func TestBundleCodecPredictsIdentically(t *testing.T) {
	b := testBundle(t, "bundle-a")
	scaler, classifier, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	loaded, err := DecodeBundle(scaler, classifier)
	if err != nil {
		t.Fatalf("DecodeBundle: %v", err)
	}
	if loaded.ID != b.ID || !loaded.CreatedAt.Equal(b.CreatedAt) || loaded.Metrics != b.Metrics {
		t.Errorf("metadata changed: %+v", loaded)
	}

	for _, ex := range separableCorpus(20, 11) {
		want, err := b.Predict(ex.Features)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		got, err := loaded.Predict(ex.Features)
		if err != nil {
			t.Fatalf("Predict loaded: %v", err)
		}
		if got.Probability != want.Probability || got.Label != want.Label {
			t.Fatalf("loaded bundle predicts %+v, want %+v", got, want)
		}
	}
}

func TestDecodeBundleRejectsMixedPair(t *testing.T) {
	scalerA, _, err := testBundle(t, "a").Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, classifierB, err := testBundle(t, "b").Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := DecodeBundle(scalerA, classifierB); !errors.Is(err, ErrScalerMismatch) {
		t.Errorf("DecodeBundle mixed pair: %v, want ErrScalerMismatch", err)
	}
	if _, err := DecodeBundle([]byte("junk"), classifierB); err == nil {
		t.Error("DecodeBundle accepted junk scaler blob")
	}
}
