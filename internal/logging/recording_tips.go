package logging

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/linuxmatters/voxrisk/internal/audio"
)

// RecordingTip represents a single piece of actionable recording advice
// derived from signal measurements.
type RecordingTip struct {
	Priority int    `json:"priority" yaml:"priority"` // Higher = more important (1-10)
	Message  string `json:"message" yaml:"message"`   // Human-readable advice (1-2 sentences)
	RuleID   string `json:"rule" yaml:"rule"`         // Identifier for testing/logging (e.g., "level_too_quiet")
}

// MaxRecordingTips is the maximum number of tips to return.
const MaxRecordingTips = 5

// Rule thresholds
const (
	minDurationSecs         = 3.0
	recommendedDurationSecs = 10.0
	noSignalPeakDBFS        = -60.0
	nearClippingPeakDBFS    = -1.0
	clippedRatioLimit       = 0.001
	tooQuietRMSDBFS         = -42.0
	quietRMSDBFS            = -36.0
	targetRMSDBFS           = -24.0
	mostlySilenceRatio      = 0.5
	humRatioLimit           = 0.1
	dcOffsetLimit           = 0.01
)

// GenerateRecordingTips analyses signal measurements and returns prioritised
// suggestions for a better recording.
func GenerateRecordingTips(m *audio.Measurements) []RecordingTip {
	if m == nil {
		return nil
	}

	var tips []RecordingTip
	firedRules := make(map[string]bool)

	rules := []func(*audio.Measurements) *RecordingTip{
		tipNoSignal,
		tipDuration,
		tipLevelTooHot,
		tipLevelTooQuiet,
		tipLevelQuiet,
		tipMostlySilence,
		tipMainsHum,
		tipDCOffset,
	}

	for _, rule := range rules {
		if tip := rule(m); tip != nil {
			tips = append(tips, *tip)
			firedRules[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, firedRules)

	// Stable so equal priorities keep rule order
	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxRecordingTips {
		tips = tips[:MaxRecordingTips]
	}

	return tips
}

// applyExclusions removes tips made redundant by a more specific one. A
// recording with no signal only gets the no-signal and duration tips, and
// level advice is dropped when the recording clips.
func applyExclusions(tips []RecordingTip, fired map[string]bool) []RecordingTip {
	var result []RecordingTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "no_signal", "recording_too_short", "recording_short":
		case "level_too_quiet", "level_quiet":
			if fired["no_signal"] || fired["level_clipping"] || fired["level_near_clipping"] {
				continue
			}
		default:
			if fired["no_signal"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipNoSignal fires when the peak never rises above -60 dBFS.
func tipNoSignal(m *audio.Measurements) *RecordingTip {
	if !math.IsInf(m.PeakDBFS, -1) && m.PeakDBFS >= noSignalPeakDBFS {
		return nil
	}
	return &RecordingTip{
		Priority: 10,
		RuleID:   "no_signal",
		Message:  "The recording is silent or almost silent - check that the right microphone is selected and not muted.",
	}
}

// tipDuration fires for recordings too short for stable frame statistics.
// Under 3 seconds is critical; under 10 seconds is a gentle nudge.
func tipDuration(m *audio.Measurements) *RecordingTip {
	switch {
	case m.DurationSecs < minDurationSecs:
		return &RecordingTip{
			Priority: 10,
			RuleID:   "recording_too_short",
			Message:  fmt.Sprintf("The recording is only %.1f seconds long - record at least %.0f seconds of continuous speech.", m.DurationSecs, recommendedDurationSecs),
		}
	case m.DurationSecs < recommendedDurationSecs:
		return &RecordingTip{
			Priority: 5,
			RuleID:   "recording_short",
			Message:  fmt.Sprintf("Longer recordings give steadier results - aim for at least %.0f seconds of speech, such as reading a short paragraph aloud.", recommendedDurationSecs),
		}
	}
	return nil
}

// tipLevelTooHot fires when samples reach full scale or the peak is
// within 1 dB of it.
func tipLevelTooHot(m *audio.Measurements) *RecordingTip {
	if m.ClippedRatio > clippedRatioLimit {
		return &RecordingTip{
			Priority: 9,
			RuleID:   "level_clipping",
			Message:  fmt.Sprintf("%.1f%% of samples are clipped - turn your microphone gain down by 6-10 dB to prevent distortion.", m.ClippedRatio*100),
		}
	}
	if m.PeakDBFS <= nearClippingPeakDBFS {
		return nil
	}
	return &RecordingTip{
		Priority: 8,
		RuleID:   "level_near_clipping",
		Message:  "Your recording is very close to clipping - turn your microphone gain down by 3-6 dB to give yourself some headroom.",
	}
}

// tipLevelTooQuiet fires when overall RMS is below -42 dBFS.
// Gain target is -24 dBFS.
func tipLevelTooQuiet(m *audio.Measurements) *RecordingTip {
	if math.IsInf(m.RMSDBFS, -1) || m.RMSDBFS >= tooQuietRMSDBFS {
		return nil
	}
	return &RecordingTip{
		Priority: 9,
		RuleID:   "level_too_quiet",
		Message:  fmt.Sprintf("Your microphone gain is too low - try increasing it by about %.0f dB.", targetRMSDBFS-m.RMSDBFS),
	}
}

// tipLevelQuiet fires when overall RMS is between -42 and -36 dBFS.
func tipLevelQuiet(m *audio.Measurements) *RecordingTip {
	if m.RMSDBFS < tooQuietRMSDBFS || m.RMSDBFS >= quietRMSDBFS {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "level_quiet",
		Message:  fmt.Sprintf("Your recording is a bit quiet - increasing your microphone gain by about %.0f dB would improve the measurement.", targetRMSDBFS-m.RMSDBFS),
	}
}

// tipMostlySilence fires when more than half of the 50 ms blocks are
// below the silence threshold; pauses dominate the frame statistics.
func tipMostlySilence(m *audio.Measurements) *RecordingTip {
	if m.SilenceRatio <= mostlySilenceRatio {
		return nil
	}
	return &RecordingTip{
		Priority: 6,
		RuleID:   "mostly_silence",
		Message:  fmt.Sprintf("%.0f%% of the recording is silence - trim long pauses or speak continuously for the whole take.", m.SilenceRatio*100),
	}
}

// tipMainsHum fires when more than 10% of the energy sits at the mains
// frequency and its second harmonic.
func tipMainsHum(m *audio.Measurements) *RecordingTip {
	if m.MainsHz == 0 || m.HumRatio <= humRatioLimit {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "mains_hum",
		Message:  fmt.Sprintf("There's a constant %d Hz hum in your recording - move away from power supplies and chargers, or analyse with --dehum.", m.MainsHz),
	}
}

// tipDCOffset fires when the mean sample value is far from zero, usually
// a faulty interface or cable.
func tipDCOffset(m *audio.Measurements) *RecordingTip {
	if math.Abs(m.DCOffset) <= dcOffsetLimit {
		return nil
	}
	return &RecordingTip{
		Priority: 4,
		RuleID:   "dc_offset",
		Message:  "The signal has a DC offset - check your audio interface and cables, as this skews the energy features.",
	}
}
