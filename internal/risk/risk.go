// Package risk turns classifier output into a risk report: the score, three
// overlapping threshold flags, the most influential features and plain
// language descriptions of each flag.
package risk

import (
	"slices"

	"github.com/linuxmatters/voxrisk/internal/model"
)

// Flag thresholds. They overlap: one probability can raise several flags.
const (
	TremorThreshold      = 0.6
	IrregularThreshold   = 0.5
	InstabilityThreshold = 0.7
)

// TopFeatureCount is the number of features listed in a report
const TopFeatureCount = 3

// CalibrationWarning accompanies reports produced by a model trained on
// generated rather than recorded speech
const CalibrationWarning = "Model trained on synthetic data; scores are not clinically calibrated. " +
	"Validate against a labelled recording corpus before relying on them."

// FeatureWeight is one feature's share of the model's importance
type FeatureWeight struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Flags are the threshold-derived risk factors
type Flags struct {
	HighTremor       bool `json:"high_tremor" yaml:"high_tremor"`
	IrregularSpeech  bool `json:"irregular_speech" yaml:"irregular_speech"`
	VoiceInstability bool `json:"voice_instability" yaml:"voice_instability"`
}

// Any reports whether any flag is raised
func (f Flags) Any() bool {
	return f.HighTremor || f.IrregularSpeech || f.VoiceInstability
}

// Patterns describes each flag in words
type Patterns struct {
	Tremor       string `json:"tremor" yaml:"tremor"`
	Irregularity string `json:"irregularity" yaml:"irregularity"`
	Stability    string `json:"stability" yaml:"stability"`
}

// Lines returns the descriptions in display order
func (p Patterns) Lines() []string {
	return []string{p.Tremor, p.Irregularity, p.Stability}
}

// Report is the result of one analysis
type Report struct {
	Probability float64         `json:"probability" yaml:"probability"`
	RiskScore   float64         `json:"risk_score" yaml:"risk_score"`
	Label       int             `json:"label" yaml:"label"`
	TopFeatures []FeatureWeight `json:"top_features" yaml:"top_features"`
	Flags       Flags           `json:"risk_factors" yaml:"risk_factors"`
	Patterns    Patterns        `json:"patterns" yaml:"patterns"`

	Advice  []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Warning string   `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// Interpret builds a report from a prediction. names gives the feature
// name for each importance, in vector order.
func Interpret(pred model.Prediction, names []string) Report {
	p := pred.Probability
	flags := EvaluateFlags(p)
	return Report{
		Probability: p,
		RiskScore:   p,
		Label:       pred.Label,
		TopFeatures: TopFeatures(pred.Importances, names, TopFeatureCount),
		Flags:       flags,
		Patterns:    Describe(flags),
	}
}

// EvaluateFlags applies the fixed thresholds to a probability
func EvaluateFlags(p float64) Flags {
	return Flags{
		HighTremor:       p > TremorThreshold,
		IrregularSpeech:  p > IrregularThreshold,
		VoiceInstability: p > InstabilityThreshold,
	}
}

// TopFeatures returns the n heaviest features, heaviest first. Equal weights
// keep their vector order.
func TopFeatures(importances []float64, names []string, n int) []FeatureWeight {
	count := min(len(importances), len(names))
	ranked := make([]FeatureWeight, count)
	for i := 0; i < count; i++ {
		ranked[i] = FeatureWeight{Name: names[i], Weight: importances[i]}
	}

	slices.SortStableFunc(ranked, func(a, b FeatureWeight) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})

	if n = max(n, 0); len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Describe renders each flag as a short pattern description
func Describe(f Flags) Patterns {
	p := Patterns{
		Tremor:       "Tremor detected: No",
		Irregularity: "Speech irregularity: Low",
		Stability:    "Voice stability: Stable",
	}
	if f.HighTremor {
		p.Tremor = "Tremor detected: Yes"
	}
	if f.IrregularSpeech {
		p.Irregularity = "Speech irregularity: High"
	}
	if f.VoiceInstability {
		p.Stability = "Voice stability: Unstable"
	}
	return p
}
