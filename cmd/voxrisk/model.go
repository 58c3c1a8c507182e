package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/linuxmatters/voxrisk/internal/cli"
	"github.com/linuxmatters/voxrisk/internal/model"
	"github.com/linuxmatters/voxrisk/internal/pipeline"
	"github.com/linuxmatters/voxrisk/internal/risk"
	"github.com/linuxmatters/voxrisk/internal/store"
)

const defaultTopFeatures = 5

// ModelCmd prints the stored bundle
type ModelCmd struct {
	Top    int    `default:"5" help:"Number of most important features to list"`
	Format string `short:"f" enum:"text,json,yaml" default:"text" help:"Output format (text, json, yaml)"`
}

func (c *ModelCmd) Run(app *App, ctx context.Context) error {
	b, err := app.Store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &pipeline.Error{Kind: pipeline.KindNoModel, Op: "load model", Err: fmt.Errorf("%w; run 'voxrisk train' first", err)}
		}
		return err
	}

	if c.Format != formatText {
		return encode(os.Stdout, c.Format, newModelInfo(b, c.Top))
	}
	printBundle(b, c.Top)
	return nil
}

// modelInfo is the structured form of printBundle
type modelInfo struct {
	Model       *modelOutput         `json:"model" yaml:"model"`
	Trees       int                  `json:"trees" yaml:"trees"`
	MaxDepth    int                  `json:"max_depth" yaml:"max_depth"`
	TopFeatures []risk.FeatureWeight `json:"top_features" yaml:"top_features"`
}

func newModelInfo(b *model.Bundle, top int) modelInfo {
	return modelInfo{
		Model:       newModelOutput(b),
		Trees:       len(b.Forest.Trees),
		MaxDepth:    b.Forest.Params.MaxDepth,
		TopFeatures: risk.TopFeatures(b.Forest.Importances, b.Forest.Names, top),
	}
}

// printBundle writes bundle metadata and the most important features
func printBundle(b *model.Bundle, top int) {
	m := b.Metrics
	fmt.Println(cli.TitleStyle.Render("Model"))
	cli.PrintKeyValue("Bundle", b.ID)
	cli.PrintKeyValue("Trained", b.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	cli.PrintKeyValue("Source", m.Source)
	cli.PrintKeyValue("Synthetic", fmt.Sprintf("%t", m.Synthetic))
	cli.PrintKeyValue("Train accuracy", fmt.Sprintf("%.1f%% (%d samples)", m.TrainAccuracy*100, m.TrainSamples))
	cli.PrintKeyValue("Test accuracy", fmt.Sprintf("%.1f%% (%d samples)", m.TestAccuracy*100, m.TestSamples))
	cli.PrintKeyValue("Positives", fmt.Sprintf("%d", m.Positives))
	cli.PrintKeyValue("Trees", fmt.Sprintf("%d (max depth %d)", len(b.Forest.Trees), b.Forest.Params.MaxDepth))

	weights := risk.TopFeatures(b.Forest.Importances, b.Forest.Names, top)
	if len(weights) > 0 {
		cli.PrintSection("Top features")
		for _, fw := range weights {
			cli.PrintKeyValue(fw.Name, fmt.Sprintf("%.3f", fw.Weight))
		}
	}

	if m.Synthetic {
		cli.PrintNote(os.Stdout, risk.CalibrationWarning)
	}
}
