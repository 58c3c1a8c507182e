// This file provides console display of analysis results when the
// terminal UI is not in use.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/voxrisk/internal/audio"
	"github.com/linuxmatters/voxrisk/internal/risk"
)

// DisplayAnalysisResults writes a compact summary of one analysed recording
func DisplayAnalysisResults(w io.Writer, inputPath string, metadata *audio.Metadata, report *risk.Report, tips []RecordingTip) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "ANALYSIS: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if metadata != nil {
		fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(metadata.Duration))
		fmt.Fprintf(w, "Sample Rate: %d Hz\n", metadata.SampleRate)
		fmt.Fprintf(w, "Channels:    %s\n", channelName(metadata.Channels))
		fmt.Fprintln(w)
	}

	if report == nil {
		return
	}

	writeAnalysisSection(w, "RISK")
	fmt.Fprintf(w, "  Score:          %.1f%% (%s)\n", report.RiskScore*100, risk.BandFor(report.Probability))
	for _, line := range report.Patterns.Lines() {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)

	if len(report.TopFeatures) > 0 {
		writeAnalysisSection(w, "TOP FEATURES")
		for i, fw := range report.TopFeatures {
			fmt.Fprintf(w, "  %d. %-14s %.3f\n", i+1, fw.Name, fw.Weight)
		}
		fmt.Fprintln(w)
	}

	if len(report.Advice) > 0 {
		writeAnalysisSection(w, "RECOMMENDATIONS")
		for _, advice := range report.Advice {
			fmt.Fprintf(w, "  - %s\n", wrapText(advice, 66, "    "))
		}
		fmt.Fprintln(w)
	}

	if len(tips) > 0 {
		writeAnalysisSection(w, "RECORDING TIPS")
		for _, tip := range tips {
			fmt.Fprintf(w, "  - %s\n", wrapText(tip.Message, 66, "    "))
		}
		fmt.Fprintln(w)
	}

	if report.Warning != "" {
		fmt.Fprintf(w, "Note: %s\n\n", wrapText(report.Warning, 64, "      "))
	}
}

// writeAnalysisSection writes a section header for analysis output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
