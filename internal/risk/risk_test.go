package risk

import (
	"reflect"
	"testing"

	"github.com/linuxmatters/voxrisk/internal/features"
	"github.com/linuxmatters/voxrisk/internal/model"
)

func TestEvaluateFlagsMonotone(t *testing.T) {
	tests := []struct {
		p    float64
		want Flags
	}{
		{0.4, Flags{}},
		{0.55, Flags{IrregularSpeech: true}},
		{0.65, Flags{IrregularSpeech: true, HighTremor: true}},
		{0.75, Flags{IrregularSpeech: true, HighTremor: true, VoiceInstability: true}},
		// thresholds are strict
		{0.5, Flags{}},
		{0.6, Flags{IrregularSpeech: true}},
		{0.7, Flags{IrregularSpeech: true, HighTremor: true}},
	}

	for _, tt := range tests {
		if got := EvaluateFlags(tt.p); got != tt.want {
			t.Errorf("EvaluateFlags(%.2f) = %+v, want %+v", tt.p, got, tt.want)
		}
	}
}

func TestInterpret(t *testing.T) {
	names := features.Names()
	importances := make([]float64, features.Count)
	importances[4] = 0.3
	importances[7] = 0.5
	importances[0] = 0.2

	r := Interpret(model.Prediction{Label: 1, Probability: 0.65, Importances: importances}, names)

	if r.RiskScore != 0.65 || r.Probability != 0.65 || r.Label != 1 {
		t.Errorf("score fields = %+v", r)
	}
	want := []FeatureWeight{{"zcr_std", 0.5}, {"rms_std", 0.3}, {"mfcc_mean", 0.2}}
	if !reflect.DeepEqual(r.TopFeatures, want) {
		t.Errorf("TopFeatures = %+v, want %+v", r.TopFeatures, want)
	}
	wantPatterns := []string{"Tremor detected: Yes", "Speech irregularity: High", "Voice stability: Stable"}
	if !reflect.DeepEqual(r.Patterns.Lines(), wantPatterns) {
		t.Errorf("Patterns = %v, want %v", r.Patterns.Lines(), wantPatterns)
	}
}

func TestTopFeaturesStableTies(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e"}
	tests := []struct {
		name        string
		importances []float64
		want        []string
	}{
		{"all equal keeps index order", []float64{0.2, 0.2, 0.2, 0.2, 0.2}, []string{"a", "b", "c"}},
		{"tie behind leader", []float64{0.1, 0.3, 0.3, 0.25, 0.05}, []string{"b", "c", "d"}},
		{"tie at cut", []float64{0.4, 0.1, 0.2, 0.1, 0.2}, []string{"a", "c", "e"}},
		{"fewer than three", []float64{0.3, 0.7}, []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopFeatures(tt.importances, names, 3)
			var gotNames []string
			for _, fw := range got {
				gotNames = append(gotNames, fw.Name)
			}
			if !reflect.DeepEqual(gotNames, tt.want) {
				t.Errorf("TopFeatures = %v, want %v", gotNames, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	calm := Describe(Flags{})
	if calm.Tremor != "Tremor detected: No" || calm.Irregularity != "Speech irregularity: Low" || calm.Stability != "Voice stability: Stable" {
		t.Errorf("Describe(no flags) = %+v", calm)
	}
	all := Describe(Flags{HighTremor: true, IrregularSpeech: true, VoiceInstability: true})
	if all.Stability != "Voice stability: Unstable" {
		t.Errorf("Describe(all flags).Stability = %q", all.Stability)
	}
}

func TestAdvise(t *testing.T) {
	table := DefaultAdvice()

	elevated := Advise(0.8, table)
	if len(elevated) != 3 || elevated[2] != "Consider speech therapy sessions" {
		t.Errorf("Advise(0.8) = %v", elevated)
	}
	typical := Advise(0.5, table)
	if len(typical) != 3 || typical[0] != "Continue monitoring speech patterns" {
		t.Errorf("Advise(0.5) = %v", typical)
	}

	elevated[0] = "changed"
	if table[BandElevated][0] == "changed" {
		t.Error("Advise returned the table's own slice")
	}
	if DefaultAdvice()[BandElevated][0] != "Practice speech exercises regularly" {
		t.Error("DefaultAdvice shares state between calls")
	}

	custom := AdviceTable{BandTypical: {"Hydrate"}}
	if got := Advise(0.1, custom); !reflect.DeepEqual(got, []string{"Hydrate"}) {
		t.Errorf("Advise with custom table = %v", got)
	}
	if got := Advise(0.9, custom); len(got) != 0 {
		t.Errorf("Advise with missing band = %v, want empty", got)
	}
}
