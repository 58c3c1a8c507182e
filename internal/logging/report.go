// Package logging handles generation of analysis reports for analysed recordings

package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/voxrisk/internal/audio"
	"github.com/linuxmatters/voxrisk/internal/features"
	"github.com/linuxmatters/voxrisk/internal/model"
	"github.com/linuxmatters/voxrisk/internal/risk"
)

// ReportSuffix replaces the input extension in report file names
const ReportSuffix = ".voxrisk.log"

// ============================================================================
// Feature Interpretation Functions
// ============================================================================
// These describe per-frame feature means in words for the report tables.

// interpretCentroid describes spectral "brightness" based on centre of gravity.
//
// Reference values for speech:
// - Male voiced speech: 500-2500 Hz
// - Female voiced speech: 800-3500 Hz
// - Unvoiced consonants: 3000-8000+ Hz
func interpretCentroid(hz float64) string {
	switch {
	case hz < 500:
		return "very dark, bass-heavy"
	case hz < 1500:
		return "warm, full-bodied"
	case hz < 2500:
		return "balanced, natural voice"
	case hz < 4000:
		return "present, forward"
	case hz < 6000:
		return "bright, crisp"
	default:
		return "very bright, potentially harsh"
	}
}

// interpretRolloff describes effective bandwidth via the 85% energy threshold.
func interpretRolloff(hz float64) string {
	switch {
	case hz < 2000:
		return "dark, muffled, heavy filtering"
	case hz < 4000:
		return "warm, controlled high frequencies"
	case hz < 7000:
		return "balanced brightness, natural speech"
	case hz < 11000:
		return "bright, airy, good articulation"
	default:
		return "very bright, significant sibilance"
	}
}

// interpretZeroCrossing describes the share of sign changes per frame.
// Voiced speech sits low; fricatives and noise push it up.
func interpretZeroCrossing(rate float64) string {
	switch {
	case rate < 0.02:
		return "very low, tonal or near silent"
	case rate < 0.1:
		return "voiced speech dominant"
	case rate < 0.25:
		return "mixed voiced and unvoiced"
	default:
		return "noise-like, unvoiced dominant"
	}
}

// interpretVariability describes the spread of a per-frame feature relative
// to its mean. Steady phonation keeps this low.
func interpretVariability(mean, std float64) string {
	if mean == 0 || math.IsNaN(mean) {
		return ""
	}
	cv := std / math.Abs(mean)
	switch {
	case cv < 0.25:
		return "steady"
	case cv < 0.75:
		return "moderately variable"
	default:
		return "highly variable"
	}
}

// interpretHum describes the share of energy at the mains frequency
func interpretHum(ratio float64) string {
	switch {
	case ratio < 0.01:
		return "no audible hum"
	case ratio < humRatioLimit:
		return "slight hum"
	default:
		return "strong hum"
	}
}

// interpretPeak describes headroom below full scale
func interpretPeak(dbfs float64) string {
	switch {
	case isDigitalSilence(dbfs):
		return "digital silence"
	case dbfs > nearClippingPeakDBFS:
		return "no headroom"
	case dbfs > -6:
		return "hot"
	case dbfs > -20:
		return "healthy headroom"
	default:
		return "low level"
	}
}

// =============================================================================
// Report Section Formatting Helpers
// =============================================================================

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to generate an analysis report
type ReportData struct {
	InputPath    string
	StartTime    time.Time
	EndTime      time.Time
	AnalysisTime time.Duration // extraction and scoring
	Metadata     *audio.Metadata
	Measurements *audio.Measurements
	Features     *features.Vector // raw, unscaled
	Report       *risk.Report
	Bundle       *model.Bundle
	Tips         []RecordingTip
	HumRemoved   bool
}

// ReportPath returns the report file name for an input recording:
// presenter1.wav -> presenter1.voxrisk.log
func ReportPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ReportSuffix
}

// GenerateReport writes the analysis report next to the input file and
// returns its path.
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - timings
// 3. Recording - signal measurements
// 4. Acoustic Features - mean/std/skew per feature family
// 5. Risk Assessment - score, flags, patterns, top features
// 6. Recommendations and recording tips
// 7. Model - bundle provenance and accuracy
func GenerateReport(data ReportData) (string, error) {
	logPath := ReportPath(data.InputPath)

	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)
	return logPath, nil
}

// WriteReport renders the report sections to w
func WriteReport(w io.Writer, data ReportData) {
	writeReportHeader(w, data)
	writeProcessingSummary(w, data)
	writeRecordingTable(w, data.Measurements, data.HumRemoved)
	writeFeatureTable(w, data.Features)
	writeRiskAssessment(w, data.Report)
	writeRecommendations(w, data.Report, data.Tips)
	writeModelSummary(w, data.Bundle)
}

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Voxrisk Speech Analysis Report")
	fmt.Fprintln(w, "==============================")
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(w, "Analysed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	if data.Metadata != nil {
		fmt.Fprintf(w, "Duration: %s\n", formatDuration(time.Duration(data.Metadata.Duration*float64(time.Second))))
		fmt.Fprintf(w, "Format: %d Hz, %d-bit, %s\n", data.Metadata.SampleRate, data.Metadata.BitDepth, channelName(data.Metadata.Channels))
	}
	fmt.Fprintln(w, "")
}

// writeProcessingSummary outputs the processing times.
func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	fmt.Fprintf(w, "Analysis: %s\n", formatDuration(data.AnalysisTime))

	totalTime := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Total:    %s", formatDuration(totalTime))

	if data.Metadata != nil && data.Metadata.Duration > 0 && totalTime > 0 {
		audioDuration := time.Duration(data.Metadata.Duration * float64(time.Second))
		rtf := float64(audioDuration) / float64(totalTime)
		fmt.Fprintf(w, " (%.0fx real-time)", rtf)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
}

// writeRecordingTable outputs signal-level measurements of the input.
func writeRecordingTable(w io.Writer, m *audio.Measurements, humRemoved bool) {
	if m == nil {
		return
	}
	writeSection(w, "Recording")

	table := NewMetricTable("Value")
	table.AddRow("Peak level", []string{formatMetricDB(m.PeakDBFS, 1)}, "dBFS", interpretPeak(m.PeakDBFS))
	table.AddRow("RMS level", []string{formatMetricDB(m.RMSDBFS, 1)}, "dBFS", "")
	table.AddRow("DC offset", []string{formatMetric(m.DCOffset, 4)}, "", "")
	table.AddRow("Clipped samples", []string{formatPercent(m.ClippedRatio, 2)}, "", "")
	table.AddRow("Silence", []string{formatPercent(m.SilenceRatio, 0)}, "", "")
	if m.MainsHz > 0 {
		hum := interpretHum(m.HumRatio)
		if humRemoved {
			hum += " (notch applied)"
		}
		table.AddRow(fmt.Sprintf("Hum at %d Hz", m.MainsHz), []string{formatPercent(m.HumRatio, 1)}, "", hum)
	}
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

// familyLabels names the feature families for display
var familyLabels = map[features.Family]struct {
	label string
	unit  string
}{
	features.FamilyCepstral:     {"MFCC (aggregate)", ""},
	features.FamilyEnergy:       {"RMS energy", ""},
	features.FamilyZeroCrossing: {"Zero-crossing rate", ""},
	features.FamilyCentroid:     {"Spectral centroid", "Hz"},
	features.FamilyRolloff:      {"Spectral rolloff", "Hz"},
	features.FamilyChroma:       {"Chroma (aggregate)", ""},
}

// writeFeatureTable outputs the raw feature vector as one row per family.
func writeFeatureTable(w io.Writer, v *features.Vector) {
	if v == nil {
		return
	}
	writeSection(w, "Acoustic Features")

	table := NewStatsTable()
	for _, family := range features.Families {
		mean := v[features.Index(family, features.StatMean)]
		std := v[features.Index(family, features.StatStd)]
		skew := v[features.Index(family, features.StatSkew)]

		var interpretation string
		switch family {
		case features.FamilyCentroid:
			interpretation = interpretCentroid(mean)
		case features.FamilyRolloff:
			interpretation = interpretRolloff(mean)
		case features.FamilyZeroCrossing:
			interpretation = interpretZeroCrossing(mean)
		case features.FamilyEnergy:
			interpretation = interpretVariability(mean, std)
		}

		decimals := 4
		if familyLabels[family].unit == "Hz" {
			decimals = 1
		}
		table.AddRow(familyLabels[family].label, []string{
			formatMetric(mean, decimals),
			formatMetric(std, decimals),
			formatMetric(skew, 2),
		}, familyLabels[family].unit, interpretation)
	}
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

// writeRiskAssessment outputs the score, flags and most influential features.
func writeRiskAssessment(w io.Writer, r *risk.Report) {
	if r == nil {
		return
	}
	writeSection(w, "Risk Assessment")

	fmt.Fprintf(w, "Risk score:  %.1f%%\n", r.RiskScore*100)
	fmt.Fprintf(w, "Probability: %.4f\n", r.Probability)
	fmt.Fprintf(w, "Band:        %s\n", risk.BandFor(r.Probability))
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, "Risk factors:")
	fmt.Fprintf(w, "  High tremor:       %s\n", yesNo(r.Flags.HighTremor))
	fmt.Fprintf(w, "  Irregular speech:  %s\n", yesNo(r.Flags.IrregularSpeech))
	fmt.Fprintf(w, "  Voice instability: %s\n", yesNo(r.Flags.VoiceInstability))
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, "Speech patterns:")
	for _, line := range r.Patterns.Lines() {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w, "")

	if len(r.TopFeatures) > 0 {
		table := NewMetricTable("Importance")
		for _, fw := range r.TopFeatures {
			table.AddRow(fw.Name, []string{formatMetric(fw.Weight, 4)}, "", "")
		}
		fmt.Fprintln(w, "Top features:")
		fmt.Fprint(w, table.String())
		fmt.Fprintln(w, "")
	}

	if r.Warning != "" {
		fmt.Fprintf(w, "Note: %s\n", wrapText(r.Warning, 70, "      "))
		fmt.Fprintln(w, "")
	}
}

// writeRecommendations outputs speech practice advice and recording tips.
func writeRecommendations(w io.Writer, r *risk.Report, tips []RecordingTip) {
	if r != nil && len(r.Advice) > 0 {
		writeSection(w, "Recommendations")
		for _, advice := range r.Advice {
			fmt.Fprintf(w, "- %s\n", wrapText(advice, 70, "  "))
		}
		fmt.Fprintln(w, "")
	}

	if len(tips) > 0 {
		writeSection(w, "Recording Tips")
		for _, tip := range tips {
			fmt.Fprintf(w, "- %s\n", wrapText(tip.Message, 70, "  "))
		}
		fmt.Fprintln(w, "")
	}
}

// writeModelSummary outputs which bundle scored the recording.
func writeModelSummary(w io.Writer, b *model.Bundle) {
	if b == nil {
		return
	}
	writeSection(w, "Model")

	fmt.Fprintf(w, "Bundle:         %s\n", b.ID)
	fmt.Fprintf(w, "Trained:        %s\n", b.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Source:         %s\n", b.Metrics.Source)
	fmt.Fprintf(w, "Synthetic:      %s\n", yesNo(b.Metrics.Synthetic))
	fmt.Fprintf(w, "Train accuracy: %s (%d samples)\n", formatPercent(b.Metrics.TrainAccuracy, 1), b.Metrics.TrainSamples)
	if b.Metrics.TestSamples > 0 {
		fmt.Fprintf(w, "Test accuracy:  %s (%d samples)\n", formatPercent(b.Metrics.TestAccuracy, 1), b.Metrics.TestSamples)
	} else {
		fmt.Fprintln(w, "Test accuracy:  not measured")
	}
	if b.Forest != nil {
		fmt.Fprintf(w, "Trees:          %d (max depth %d)\n", len(b.Forest.Trees), b.Forest.Params.MaxDepth)
	}
	fmt.Fprintln(w, "")
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
