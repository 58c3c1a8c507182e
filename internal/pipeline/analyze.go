// Package pipeline runs a waveform through extraction, scaling, the
// classifier and the risk interpreter.
package pipeline

import (
	"context"
	"errors"

	"github.com/linuxmatters/voxrisk/internal/audio"
	"github.com/linuxmatters/voxrisk/internal/features"
	"github.com/linuxmatters/voxrisk/internal/model"
	"github.com/linuxmatters/voxrisk/internal/risk"
)

// Stage identifies a step of an analysis
type Stage int

const (
	StageExtracting Stage = iota
	StageLoadingModel
	StageScoring
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageExtracting:
		return "Extracting features"
	case StageLoadingModel:
		return "Loading model"
	case StageScoring:
		return "Scoring"
	case StageDone:
		return "Done"
	}
	return "Unknown"
}

// ProgressFunc receives stage updates. progress is 0.0 to 1.0 within the stage.
type ProgressFunc func(stage Stage, progress float64)

// Options adjust an analysis
type Options struct {
	Advice   risk.AdviceTable // nil uses risk.DefaultAdvice
	Progress ProgressFunc

	// Observe, when set, receives the raw features and the bundle that
	// scored them once scoring succeeds
	Observe func(raw features.Vector, bundle *model.Bundle)
}

// Analyze extracts features from w, scores them with the provider's bundle
// and interprets the result
func Analyze(ctx context.Context, w audio.Waveform, provider Provider, extractor *features.Extractor) (*risk.Report, error) {
	return AnalyzeWith(ctx, w, provider, extractor, Options{})
}

// AnalyzeWith is Analyze with options. Extraction runs first so bad input is
// rejected before any model is loaded or trained.
func AnalyzeWith(ctx context.Context, w audio.Waveform, provider Provider, extractor *features.Extractor, opts Options) (*risk.Report, error) {
	if provider == nil || extractor == nil {
		return nil, &Error{Kind: KindInternal, Op: "analyze", Err: errors.New("pipeline not configured")}
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(Stage, float64) {}
	}

	progress(StageExtracting, 0)
	raw, err := extractor.ExtractWithProgress(w, func(_ features.Family, done, total int) {
		progress(StageExtracting, float64(done)/float64(total))
	})
	if err != nil {
		return nil, &Error{Kind: KindBadInput, Op: "extract features", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindInternal, Op: "analyze", Err: err}
	}

	progress(StageLoadingModel, 0)
	bundle, err := provider.Bundle(ctx)
	if err != nil {
		return nil, wrap(KindNoModel, "load model", err)
	}
	progress(StageLoadingModel, 1)

	progress(StageScoring, 0)
	pred, err := bundle.Predict(raw)
	if err != nil {
		kind := KindInternal
		if errors.Is(err, model.ErrUntrained) {
			kind = KindNoModel
		}
		return nil, &Error{Kind: kind, Op: "score", Err: err}
	}

	report := risk.Interpret(pred, bundle.Forest.Names)
	advice := opts.Advice
	if advice == nil {
		advice = risk.DefaultAdvice()
	}
	report.Advice = risk.Advise(report.RiskScore, advice)
	if bundle.Metrics.Synthetic {
		report.Warning = risk.CalibrationWarning
	}
	if opts.Observe != nil {
		opts.Observe(raw, bundle)
	}
	progress(StageScoring, 1)
	progress(StageDone, 1)

	return &report, nil
}
