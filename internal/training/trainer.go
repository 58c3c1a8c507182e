package training

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linuxmatters/voxrisk/internal/features"
	"github.com/linuxmatters/voxrisk/internal/model"
)

// State is the trainer lifecycle: Untrained -> Training -> Trained.
// A trained trainer re-enters Training on the next Train call.
type State int32

const (
	StateUntrained State = iota
	StateTraining
	StateTrained
)

func (s State) String() string {
	switch s {
	case StateUntrained:
		return "untrained"
	case StateTraining:
		return "training"
	case StateTrained:
		return "trained"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Saver persists a finished bundle
type Saver interface {
	Save(ctx context.Context, b *model.Bundle) error
}

// Config controls a training run
type Config struct {
	Forest       model.ForestParams
	TestFraction float64 // held-out share for reporting accuracy
	SplitSeed    uint64
}

// DefaultConfig returns the default forest with an 80/20 split seeded with 42
func DefaultConfig() Config {
	return Config{
		Forest:       model.DefaultForestParams(),
		TestFraction: 0.2,
		SplitSeed:    42,
	}
}

// Validate reports settings that cannot train
func (c Config) Validate() error {
	if c.TestFraction < 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test fraction %.2f outside [0, 1)", c.TestFraction)
	}
	return c.Forest.Validate()
}

// Trainer fits and persists bundles. Only one training runs at a time.
type Trainer struct {
	cfg    Config
	saver  Saver
	logger zerolog.Logger

	mu    sync.Mutex
	state atomic.Int32
}

// NewTrainer creates a trainer. saver may be nil, in which case bundles are
// returned but not persisted.
func NewTrainer(cfg Config, saver Saver, logger zerolog.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("training config: %w", err)
	}
	return &Trainer{cfg: cfg, saver: saver, logger: logger}, nil
}

// State returns the current lifecycle state
func (t *Trainer) State() State {
	return State(t.state.Load())
}

// Train fits a scaler on the whole corpus, scales it, splits it into train
// and test sets, fits the forest on the train set and persists the result.
// Accuracy is reported in the bundle metrics but never gates persistence.
// On failure the trainer returns to its previous state.
func (t *Trainer) Train(ctx context.Context, src Source) (*model.Bundle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous := t.State()
	t.state.Store(int32(StateTraining))

	b, err := t.train(ctx, src)
	if err != nil {
		t.state.Store(int32(previous))
		return nil, err
	}

	t.state.Store(int32(StateTrained))
	return b, nil
}

func (t *Trainer) train(ctx context.Context, src Source) (*model.Bundle, error) {
	start := time.Now()
	log := t.logger.With().Str("source", src.Name()).Logger()
	log.Info().Msg("training started")

	examples, err := src.Examples(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus from %s: %w", src.Name(), err)
	}

	raw := make([]features.Vector, len(examples))
	positives := 0
	for i, ex := range examples {
		raw[i] = ex.Features
		positives += ex.Label
	}

	scaler, err := model.FitScaler(features.Names(), raw)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	vectors, err := scaler.TransformAll(raw)
	if err != nil {
		return nil, fmt.Errorf("scale corpus: %w", err)
	}
	scaled := make([]model.Example, len(examples))
	for i, ex := range examples {
		scaled[i] = model.Example{Features: vectors[i], Label: ex.Label}
	}

	train, test := split(scaled, t.cfg.TestFraction, t.cfg.SplitSeed)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	forest, err := model.TrainForest(train, t.cfg.Forest)
	if err != nil {
		return nil, fmt.Errorf("train forest: %w", err)
	}

	trainAcc, err := forest.Accuracy(train)
	if err != nil {
		return nil, err
	}
	testAcc, err := forest.Accuracy(test)
	if err != nil {
		return nil, err
	}

	b := &model.Bundle{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Scaler:    scaler,
		Forest:    forest,
		Metrics: model.Metrics{
			TrainAccuracy: trainAcc,
			TestAccuracy:  testAcc,
			TrainSamples:  len(train),
			TestSamples:   len(test),
			Positives:     positives,
			Source:        src.Name(),
			Synthetic:     src.Synthetic(),
		},
	}

	if t.saver != nil {
		if err := t.saver.Save(ctx, b); err != nil {
			return nil, fmt.Errorf("persist bundle %s: %w", b.ID, err)
		}
	}

	log.Info().
		Str("bundle", b.ID).
		Int("examples", len(examples)).
		Int("positives", positives).
		Float64("train_accuracy", trainAcc).
		Float64("test_accuracy", testAcc).
		Dur("elapsed", time.Since(start)).
		Msg("training complete")

	return b, nil
}

// split shuffles examples under seed and holds out round(n*fraction) of them.
// If the held-out share would leave fewer than two training examples nothing
// is held out.
func split(examples []model.Example, fraction float64, seed uint64) (train, test []model.Example) {
	n := len(examples)
	nTest := int(math.Round(float64(n) * fraction))
	if n-nTest < 2 {
		nTest = 0
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	test = make([]model.Example, 0, nTest)
	train = make([]model.Example, 0, n-nTest)
	for i, idx := range perm {
		if i < nTest {
			test = append(test, examples[idx])
		} else {
			train = append(train, examples[idx])
		}
	}
	return train, test
}
