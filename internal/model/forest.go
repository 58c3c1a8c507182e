package model

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"
	"sync"

	"github.com/linuxmatters/voxrisk/internal/features"
)

// Example is a labelled feature vector. Label is 1 for the Parkinsonian
// class and 0 otherwise.
type Example struct {
	Features features.Vector `msgpack:"features"`
	Label    int             `msgpack:"label"`
}

// ForestParams configures random forest training
type ForestParams struct {
	Trees           int    `msgpack:"trees"`
	MaxDepth        int    `msgpack:"max_depth"` // 0 = unlimited
	MinSamplesSplit int    `msgpack:"min_samples_split"`
	MinSamplesLeaf  int    `msgpack:"min_samples_leaf"`
	MaxFeatures     int    `msgpack:"max_features"` // 0 = round(sqrt(features))
	Seed            uint64 `msgpack:"seed"`
	Jobs            int    `msgpack:"-"` // tree-building goroutines, 0 = GOMAXPROCS
}

// DefaultForestParams returns 100 trees of depth 10 seeded with 42
func DefaultForestParams() ForestParams {
	return ForestParams{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

// Validate reports parameter values that cannot train a forest
func (p ForestParams) Validate() error {
	switch {
	case p.Trees <= 0:
		return fmt.Errorf("tree count must be positive, got %d", p.Trees)
	case p.MaxDepth < 0:
		return fmt.Errorf("max depth must not be negative, got %d", p.MaxDepth)
	case p.MinSamplesSplit < 2:
		return fmt.Errorf("min samples split must be at least 2, got %d", p.MinSamplesSplit)
	case p.MinSamplesLeaf < 1:
		return fmt.Errorf("min samples leaf must be at least 1, got %d", p.MinSamplesLeaf)
	case p.MaxFeatures < 0 || p.MaxFeatures > features.Count:
		return fmt.Errorf("max features %d outside [0, %d]", p.MaxFeatures, features.Count)
	}
	return nil
}

func (p ForestParams) featuresPerSplit() int {
	if p.MaxFeatures > 0 {
		return p.MaxFeatures
	}
	return int(math.Round(math.Sqrt(features.Count)))
}

// Forest is a bagged ensemble of classification trees with static
// per-feature importances. A trained Forest is never modified.
type Forest struct {
	Names       []string     `msgpack:"names"`
	Params      ForestParams `msgpack:"params"`
	Trees       []Tree       `msgpack:"trees"`
	Importances []float64    `msgpack:"importances"`
}

// Prediction is the classifier output for one scaled vector
type Prediction struct {
	Label       int
	Probability float64
	Importances []float64 // static model importances, in feature order
}

// TrainForest fits a random forest on scaled examples. Both classes must be
// present. Training is reproducible for a given Seed regardless of Jobs.
func TrainForest(examples []Example, params ForestParams) (*Forest, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("forest params: %w", err)
	}

	positives := 0
	for _, ex := range examples {
		switch ex.Label {
		case 0:
		case 1:
			positives++
		default:
			return nil, fmt.Errorf("%w: label %d is not binary", ErrDegenerateCorpus, ex.Label)
		}
	}
	if positives == 0 || positives == len(examples) {
		return nil, fmt.Errorf("%w: %d examples, %d positive; both classes are required",
			ErrDegenerateCorpus, len(examples), positives)
	}

	// Seeds are drawn up front so results do not depend on scheduling
	master := rand.New(rand.NewPCG(params.Seed, params.Seed))
	seeds := make([]uint64, params.Trees)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	jobs := params.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	jobs = min(jobs, params.Trees)

	trees := make([]Tree, params.Trees)
	treeImportances := make([][features.Count]float64, params.Trees)
	maxFeatures := params.featuresPerSplit()

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				trees[i], treeImportances[i] = growTree(examples, params, maxFeatures, seeds[i])
			}
		}()
	}
	for i := range trees {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return &Forest{
		Names:       features.Names(),
		Params:      params,
		Trees:       trees,
		Importances: combineImportances(treeImportances),
	}, nil
}

// combineImportances normalises each tree's impurity decrease, averages over
// trees that split at least once and renormalises to sum 1. A forest with no
// splits at all reports uniform importances.
func combineImportances(perTree [][features.Count]float64) []float64 {
	out := make([]float64, features.Count)
	used := 0
	for _, imp := range perTree {
		sum := 0.0
		for _, v := range imp {
			sum += v
		}
		if sum <= 0 {
			continue
		}
		used++
		for j, v := range imp {
			out[j] += v / sum
		}
	}

	if used == 0 {
		for j := range out {
			out[j] = 1.0 / features.Count
		}
		return out
	}

	total := 0.0
	for _, v := range out {
		total += v
	}
	for j := range out {
		out[j] /= total
	}
	return out
}

// Check verifies the forest is trained and matches the feature layout in names
func (f *Forest) Check(names []string) error {
	if f == nil || len(f.Trees) == 0 {
		return ErrUntrained
	}
	if len(f.Importances) != features.Count || !slices.Equal(f.Names, names) {
		return fmt.Errorf("%w: forest trained on %d features", ErrScalerMismatch, len(f.Importances))
	}
	return nil
}

// Predict classifies a scaled vector. Probability is the mean leaf
// positive fraction across trees; Label is 1 iff Probability > 0.5.
func (f *Forest) Predict(scaled features.Vector) (Prediction, error) {
	if err := f.Check(features.Names()); err != nil {
		return Prediction{}, err
	}

	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].leafValue(&scaled)
	}
	p := sum / float64(len(f.Trees))

	label := 0
	if p > 0.5 {
		label = 1
	}
	return Prediction{
		Label:       label,
		Probability: p,
		Importances: slices.Clone(f.Importances),
	}, nil
}

// Accuracy returns the fraction of examples whose predicted label matches.
// An empty set reports 0.
func (f *Forest) Accuracy(examples []Example) (float64, error) {
	if len(examples) == 0 {
		return 0, nil
	}
	correct := 0
	for _, ex := range examples {
		pred, err := f.Predict(ex.Features)
		if err != nil {
			return 0, err
		}
		if pred.Label == ex.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(examples)), nil
}
