package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/voxrisk/internal/audio"
	"github.com/linuxmatters/voxrisk/internal/features"
	"github.com/linuxmatters/voxrisk/internal/logging"
	"github.com/linuxmatters/voxrisk/internal/model"
	"github.com/linuxmatters/voxrisk/internal/pipeline"
	"github.com/linuxmatters/voxrisk/internal/risk"
	"github.com/linuxmatters/voxrisk/internal/ui"
)

// AnalyzeCmd screens one or more recordings
type AnalyzeCmd struct {
	Files  []string `arg:"" name:"files" help:"WAV recordings to analyse" type:"existingfile" optional:""`
	Logs   bool     `help:"Save a detailed report beside each recording"`
	Format string   `short:"f" enum:"text,json,yaml" default:"text" help:"Output format (text, json, yaml)"`
	Dehum  bool     `help:"Notch out mains hum before feature extraction"`
	Plain  bool     `help:"Print results without the terminal UI"`
}

// fileResult is everything learnt about one recording
type fileResult struct {
	Path         string
	Metadata     *audio.Metadata
	Measurements audio.Measurements
	Features     *features.Vector
	Bundle       *model.Bundle
	Report       *risk.Report
	Tips         []logging.RecordingTip
	ReportPath   string
	Err          error
}

func (c *AnalyzeCmd) Run(app *App, ctx context.Context) error {
	if len(c.Files) == 0 {
		return errors.New("no input files specified")
	}

	var results []fileResult
	if app.useTUI(c.Plain, c.Format) {
		var err error
		if results, err = c.runTUI(ctx, app); err != nil {
			return err
		}
		// The alternate screen is gone once the UI exits
		for _, r := range results {
			printResult(r)
		}
	} else {
		results = c.runPlain(ctx, app)
	}

	if c.Format != formatText {
		if err := writeResults(os.Stdout, c.Format, results); err != nil {
			return err
		}
	}

	return failures(results)
}

// runTUI analyses the files in the background while the queue view draws
func (c *AnalyzeCmd) runTUI(ctx context.Context, app *App) ([]fileResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewModel(c.Files, logging.WithComponent("ui")), tea.WithAltScreen())
	results := make([]fileResult, len(c.Files))
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i, inputPath := range c.Files {
			p.Send(ui.FileStartMsg{FileIndex: i, FileName: inputPath})

			progress := func(stage pipeline.Stage, fraction float64) {
				p.Send(ui.StageMsg{FileIndex: i, Stage: stage, Progress: fraction})
			}
			results[i] = c.analyzeFile(ctx, app, inputPath, progress)

			r := results[i]
			p.Send(ui.FileCompleteMsg{
				FileIndex:  i,
				Report:     r.Report,
				TipCount:   len(r.Tips),
				ReportPath: r.ReportPath,
				Error:      r.Err,
			})
			if ctx.Err() != nil {
				break
			}
		}
		p.Send(ui.AllCompleteMsg{})
	}()

	_, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return nil, fmt.Errorf("UI error: %w", err)
	}

	// Files after an interrupt were never started
	analysed := results[:0]
	for _, r := range results {
		if r.Path != "" {
			analysed = append(analysed, r)
		}
	}
	return analysed, nil
}

// runPlain analyses the files in order, printing text results as each finishes
func (c *AnalyzeCmd) runPlain(ctx context.Context, app *App) []fileResult {
	results := make([]fileResult, 0, len(c.Files))
	for i, inputPath := range c.Files {
		app.Logger.Info().Str("file", inputPath).Int("index", i).Msg("analysing")
		r := c.analyzeFile(ctx, app, inputPath, nil)
		results = append(results, r)

		if c.Format == formatText {
			printResult(r)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// printResult writes the text summary of one file
func printResult(r fileResult) {
	if r.Err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n\n", r.Path, r.Err)
		return
	}
	logging.DisplayAnalysisResults(os.Stdout, r.Path, r.Metadata, r.Report, r.Tips)
	if r.ReportPath != "" {
		fmt.Fprintf(os.Stdout, "Report: %s\n\n", r.ReportPath)
	}
}

// analyzeFile reads, measures, prepares and scores one recording
func (c *AnalyzeCmd) analyzeFile(ctx context.Context, app *App, inputPath string, progress pipeline.ProgressFunc) fileResult {
	start := time.Now()
	r := fileResult{Path: inputPath}
	log := app.Logger.With().Str("file", inputPath).Logger()

	w, meta, err := audio.ReadFile(inputPath)
	if err != nil {
		r.Err = &pipeline.Error{Kind: pipeline.KindBadInput, Op: "read", Err: err}
		log.Warn().Err(err).Msg("read failed")
		return r
	}
	r.Metadata = meta

	// Signal measurements describe the recording as captured
	r.Measurements = audio.Measure(w, app.MainsHz)
	r.Tips = logging.GenerateRecordingTips(&r.Measurements)

	if w, err = audio.Resample(w, app.Config.Extract.TargetSampleRate); err != nil {
		r.Err = &pipeline.Error{Kind: pipeline.KindBadInput, Op: "resample", Err: err}
		log.Warn().Err(err).Msg("resample failed")
		return r
	}
	humRemoved := app.dehum(c.Dehum)
	if humRemoved {
		w = audio.RemoveHum(w, app.MainsHz)
	}

	analysisStart := time.Now()
	r.Report, err = pipeline.AnalyzeWith(ctx, w, app.Handle, app.Extractor, pipeline.Options{
		Progress: progress,
		Observe: func(raw features.Vector, bundle *model.Bundle) {
			r.Features = &raw
			r.Bundle = bundle
		},
	})
	if err != nil {
		r.Err = err
		log.Warn().Err(err).Str("kind", string(pipeline.KindOf(err))).Msg("analysis failed")
		return r
	}
	analysisTime := time.Since(analysisStart)
	log.Debug().
		Float64("probability", r.Report.Probability).
		Dur("elapsed", analysisTime).
		Int("tips", len(r.Tips)).
		Msg("analysed")

	if c.Logs {
		path, err := logging.GenerateReport(logging.ReportData{
			InputPath:    inputPath,
			StartTime:    start,
			EndTime:      time.Now(),
			AnalysisTime: analysisTime,
			Metadata:     meta,
			Measurements: &r.Measurements,
			Features:     r.Features,
			Report:       r.Report,
			Bundle:       r.Bundle,
			Tips:         r.Tips,
			HumRemoved:   humRemoved,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to write report")
		} else {
			r.ReportPath = path
		}
	}

	return r
}

// failures summarises failed files, wrapping the first failure so its kind
// decides the exit code. It returns nil when every file was analysed.
func failures(results []fileResult) error {
	var first error
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			if first == nil {
				first = r.Err
			}
			failed++
		}
	}
	if first == nil {
		return nil
	}
	return fmt.Errorf("%d of %d recordings failed: %w", failed, len(results), first)
}
