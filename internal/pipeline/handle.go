package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/linuxmatters/voxrisk/internal/model"
	"github.com/linuxmatters/voxrisk/internal/store"
	"github.com/linuxmatters/voxrisk/internal/training"
)

// Provider supplies the model bundle used for inference
type Provider interface {
	Bundle(ctx context.Context) (*model.Bundle, error)
}

// Loader reads a persisted bundle; store.Store satisfies it
type Loader interface {
	Load(ctx context.Context) (*model.Bundle, error)
}

// Trainer fits and persists a bundle; *training.Trainer satisfies it
type Trainer interface {
	Train(ctx context.Context, src training.Source) (*model.Bundle, error)
}

// Handle is the process-wide model handle. The first Bundle call loads the
// stored bundle or, when none exists, trains one from the bootstrap source.
// Later calls return the resident bundle without locking. Retrain replaces
// the bundle atomically: readers see the old or the new pair, never a mix.
type Handle struct {
	loader    Loader
	trainer   Trainer
	bootstrap training.Source
	logger    zerolog.Logger

	mu      sync.Mutex
	current atomic.Pointer[model.Bundle]
}

// NewHandle creates a handle. trainer and bootstrap may be nil, in which
// case a missing stored model is reported as KindNoModel.
func NewHandle(loader Loader, trainer Trainer, bootstrap training.Source, logger zerolog.Logger) *Handle {
	return &Handle{loader: loader, trainer: trainer, bootstrap: bootstrap, logger: logger}
}

// Bundle returns the resident bundle, loading or bootstrapping it on first use
func (h *Handle) Bundle(ctx context.Context) (*model.Bundle, error) {
	if b := h.current.Load(); b != nil {
		return b, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if b := h.current.Load(); b != nil {
		return b, nil
	}

	b, err := h.loadOrBootstrap(ctx)
	if err != nil {
		return nil, err
	}
	h.current.Store(b)
	return b, nil
}

func (h *Handle) loadOrBootstrap(ctx context.Context) (*model.Bundle, error) {
	if h.loader != nil {
		b, err := h.loader.Load(ctx)
		switch {
		case err == nil:
			h.logger.Debug().Str("bundle", b.ID).Msg("loaded stored model")
			return b, nil
		case errors.Is(err, store.ErrNotFound):
			h.logger.Info().Err(err).Msg("no stored model")
		default:
			return nil, wrap(KindNoModel, "load model", err)
		}
	}

	if h.trainer == nil || h.bootstrap == nil {
		return nil, &Error{Kind: KindNoModel, Op: "load model", Err: model.ErrUntrained}
	}

	h.logger.Info().Str("source", h.bootstrap.Name()).Msg("bootstrapping model")
	b, err := h.trainer.Train(ctx, h.bootstrap)
	if err != nil {
		return nil, &Error{Kind: KindNoModel, Op: "bootstrap model", Err: fmt.Errorf("%w: %w", model.ErrUntrained, err)}
	}
	return b, nil
}

// Retrain trains a new bundle from src and swaps it in. The previous bundle
// stays in service until the new one is complete.
func (h *Handle) Retrain(ctx context.Context, src training.Source) (*model.Bundle, error) {
	if h.trainer == nil {
		return nil, &Error{Kind: KindNoModel, Op: "retrain", Err: errors.New("no trainer configured")}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	b, err := h.trainer.Train(ctx, src)
	if err != nil {
		return nil, &Error{Kind: KindNoModel, Op: "retrain", Err: err}
	}
	h.current.Store(b)
	return b, nil
}

// resident returns the loaded bundle, or nil before the first Bundle call
func (h *Handle) resident() *model.Bundle {
	return h.current.Load()
}

// Static serves a fixed bundle
type Static struct {
	B *model.Bundle
}

func (s Static) Bundle(context.Context) (*model.Bundle, error) {
	if s.B == nil {
		return nil, &Error{Kind: KindNoModel, Op: "load model", Err: model.ErrUntrained}
	}
	return s.B, nil
}
