package logging

import (
	"math"
	"strings"
	"testing"

	"github.com/linuxmatters/voxrisk/internal/audio"
)

// cleanMeasurements returns a measurement set that fires no tips
func cleanMeasurements() *audio.Measurements {
	return &audio.Measurements{
		DurationSecs: 30,
		PeakDBFS:     -6,
		RMSDBFS:      -22,
		DCOffset:     0.0001,
		SilenceRatio: 0.2,
		MainsHz:      50,
		HumRatio:     0.01,
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		indent   string
		want     string
	}{
		{
			name:     "short_text_no_wrap",
			text:     "Hello world",
			maxWidth: 20,
			indent:   "  ",
			want:     "Hello world",
		},
		{
			name:     "long_text_wraps",
			text:     "Try moving closer to your microphone for better results",
			maxWidth: 30,
			indent:   "  ",
			want:     "Try moving closer to your\n  microphone for better results",
		},
		{
			name:     "single_long_word",
			text:     "supercalifragilisticexpialidocious",
			maxWidth: 10,
			indent:   "  ",
			want:     "supercalifragilisticexpialidocious",
		},
		{
			name:     "empty_input",
			text:     "",
			maxWidth: 20,
			indent:   "  ",
			want:     "",
		},
		{
			name:     "multiple_wraps",
			text:     "one two three four five six seven eight nine ten",
			maxWidth: 15,
			indent:   "    ",
			want:     "one two three\n    four five six\n    seven eight\n    nine ten",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.text, tt.maxWidth, tt.indent); got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateRecordingTipsClean(t *testing.T) {
	if tips := GenerateRecordingTips(cleanMeasurements()); len(tips) != 0 {
		t.Errorf("clean recording produced tips: %+v", tips)
	}
	if tips := GenerateRecordingTips(nil); tips != nil {
		t.Errorf("nil measurements produced tips: %+v", tips)
	}
}

func TestTipDuration(t *testing.T) {
	tests := []struct {
		name       string
		secs       float64
		wantRuleID string
	}{
		{"one second", 1.0, "recording_too_short"},
		{"boundary 3s", 3.0, "recording_short"},
		{"eight seconds", 8.0, "recording_short"},
		{"boundary 10s", 10.0, ""},
		{"long", 60.0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := cleanMeasurements()
			m.DurationSecs = tt.secs
			tip := tipDuration(m)
			got := ""
			if tip != nil {
				got = tip.RuleID
			}
			if got != tt.wantRuleID {
				t.Errorf("tipDuration(%v) = %q, want %q", tt.secs, got, tt.wantRuleID)
			}
		})
	}
}

func TestTipLevelTooQuiet(t *testing.T) {
	tests := []struct {
		name     string
		rms      float64
		wantTip  bool
		wantGain string
	}{
		{"very quiet -50 dBFS", -50.0, true, "26 dB"},
		{"boundary -42 dBFS", -42.0, false, ""},
		{"normal -20 dBFS", -20.0, false, ""},
		{"digital silence", math.Inf(-1), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := cleanMeasurements()
			m.RMSDBFS = tt.rms
			tip := tipLevelTooQuiet(m)
			if (tip != nil) != tt.wantTip {
				t.Fatalf("tipLevelTooQuiet() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && !strings.Contains(tip.Message, tt.wantGain) {
				t.Errorf("Message %q should contain %q", tip.Message, tt.wantGain)
			}
		})
	}
}

func TestTipLevelQuiet(t *testing.T) {
	tests := []struct {
		name     string
		rms      float64
		wantTip  bool
		wantGain string
	}{
		{"very quiet handled by too_quiet", -50.0, false, ""},
		{"boundary -42 dBFS triggers quiet", -42.0, true, "18 dB"},
		{"moderately quiet -38 dBFS", -38.0, true, "14 dB"},
		{"boundary -36 dBFS no tip", -36.0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := cleanMeasurements()
			m.RMSDBFS = tt.rms
			tip := tipLevelQuiet(m)
			if (tip != nil) != tt.wantTip {
				t.Fatalf("tipLevelQuiet() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && !strings.Contains(tip.Message, tt.wantGain) {
				t.Errorf("Message %q should contain %q", tip.Message, tt.wantGain)
			}
		})
	}
}

func TestTipLevelTooHot(t *testing.T) {
	tests := []struct {
		name       string
		peak       float64
		clipped    float64
		wantRuleID string
	}{
		{"clipped samples", 0.0, 0.01, "level_clipping"},
		{"near clipping -0.5 dBFS", -0.5, 0, "level_near_clipping"},
		{"boundary -1.0 dBFS no tip", -1.0, 0, ""},
		{"safe -6 dBFS", -6.0, 0, ""},
		{"isolated clipped sample", -0.5, 0.0005, "level_near_clipping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := cleanMeasurements()
			m.PeakDBFS = tt.peak
			m.ClippedRatio = tt.clipped
			tip := tipLevelTooHot(m)
			got := ""
			if tip != nil {
				got = tip.RuleID
			}
			if got != tt.wantRuleID {
				t.Errorf("tipLevelTooHot() = %q, want %q", got, tt.wantRuleID)
			}
		})
	}
}

func TestTipMainsHum(t *testing.T) {
	m := cleanMeasurements()
	m.HumRatio = 0.3
	tip := tipMainsHum(m)
	if tip == nil || !strings.Contains(tip.Message, "50 Hz") {
		t.Fatalf("tipMainsHum() = %+v, want 50 Hz hum tip", tip)
	}

	m.MainsHz = 0
	if tip := tipMainsHum(m); tip != nil {
		t.Error("hum tip fired without a mains frequency")
	}
}

func TestNoSignalSuppressesOtherTips(t *testing.T) {
	m := &audio.Measurements{
		DurationSecs: 5,
		PeakDBFS:     math.Inf(-1),
		RMSDBFS:      math.Inf(-1),
		SilenceRatio: 1,
		MainsHz:      60,
	}
	tips := GenerateRecordingTips(m)

	ids := make([]string, len(tips))
	for i, tip := range tips {
		ids[i] = tip.RuleID
	}
	got := strings.Join(ids, ",")
	if got != "no_signal,recording_short" {
		t.Errorf("tips = %s, want no_signal,recording_short", got)
	}
}

func TestClippingSuppressesLevelAdvice(t *testing.T) {
	m := cleanMeasurements()
	m.ClippedRatio = 0.05
	m.PeakDBFS = 0
	m.RMSDBFS = -45 // quiet overall but clipping on peaks

	for _, tip := range GenerateRecordingTips(m) {
		if tip.RuleID == "level_too_quiet" || tip.RuleID == "level_quiet" {
			t.Errorf("level advice %q fired alongside clipping", tip.RuleID)
		}
	}
}

func TestRecordingTipsSortedAndCapped(t *testing.T) {
	m := &audio.Measurements{
		DurationSecs: 1,
		PeakDBFS:     -0.5,
		RMSDBFS:      -45,
		DCOffset:     0.2,
		SilenceRatio: 0.9,
		MainsHz:      50,
		HumRatio:     0.5,
	}
	tips := GenerateRecordingTips(m)

	if len(tips) != MaxRecordingTips {
		t.Fatalf("got %d tips, want %d", len(tips), MaxRecordingTips)
	}
	for i := 1; i < len(tips); i++ {
		if tips[i].Priority > tips[i-1].Priority {
			t.Errorf("tips not sorted by priority: %+v", tips)
		}
	}
	if tips[0].RuleID != "recording_too_short" {
		t.Errorf("first tip = %q, want recording_too_short", tips[0].RuleID)
	}
}
