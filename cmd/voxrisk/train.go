package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/voxrisk/internal/logging"
	"github.com/linuxmatters/voxrisk/internal/model"
	"github.com/linuxmatters/voxrisk/internal/training"
	"github.com/linuxmatters/voxrisk/internal/ui"
)

// TrainCmd trains a bundle, stores it and makes it current
type TrainCmd struct {
	Data    string `type:"existingdir" placeholder:"DIR" help:"Corpus with healthy/ and parkinsonian/ WAV folders (synthetic data when omitted)"`
	Samples int    `help:"Synthetic corpus size (overrides config)"`
	Dehum   bool   `help:"Notch out mains hum before feature extraction"`
	Format  string `short:"f" enum:"text,json,yaml" default:"text" help:"Output format (text, json, yaml)"`
	Plain   bool   `help:"Print results without the terminal UI"`
}

func (c *TrainCmd) Run(app *App, ctx context.Context) error {
	src := c.source(app)
	app.Logger.Info().Str("source", src.Name()).Msg("training")

	var (
		bundle *model.Bundle
		err    error
	)
	if app.useTUI(c.Plain, c.Format) {
		bundle, err = trainWithUI(ctx, app, src)
	} else {
		bundle, err = app.Handle.Retrain(ctx, src)
	}
	if err != nil {
		return err
	}

	if c.Format != formatText {
		return encode(os.Stdout, c.Format, newModelInfo(bundle, defaultTopFeatures))
	}
	fmt.Println()
	printBundle(bundle, defaultTopFeatures)
	return nil
}

// source picks the labelled corpus, or the configured synthetic generator
func (c *TrainCmd) source(app *App) training.Source {
	if c.Data == "" {
		syn := app.Config.SyntheticSource()
		if c.Samples > 0 {
			syn.Samples = c.Samples
		}
		return syn
	}

	mainsHz := 0
	if app.dehum(c.Dehum) {
		mainsHz = app.MainsHz
	}
	return training.DirectorySource{
		Root:       c.Data,
		Extractor:  app.Extractor,
		SampleRate: app.Config.Extract.TargetSampleRate,
		MainsHz:    mainsHz,
		Logger:     logging.WithComponent("corpus"),
	}
}

// trainWithUI retrains behind a spinner. Quitting the UI cancels training.
func trainWithUI(ctx context.Context, app *App, src training.Source) (*model.Bundle, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewTrainingModel(), tea.WithAltScreen())

	var (
		bundle *model.Bundle
		err    error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Send(ui.TrainStartMsg{Source: src.Name()})
		bundle, err = app.Handle.Retrain(ctx, src)
		p.Send(ui.TrainCompleteMsg{Bundle: bundle, Error: err})
	}()

	_, uiErr := p.Run()
	cancel()
	<-done
	if uiErr != nil {
		return nil, fmt.Errorf("UI error: %w", uiErr)
	}
	return bundle, err
}
