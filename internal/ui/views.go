package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/voxrisk/internal/pipeline"
	"github.com/linuxmatters/voxrisk/internal/risk"
)

const panelWidth = 60

var (
	accentColor   = lipgloss.Color("#6A3FA0")
	mutedColor    = lipgloss.Color("#888888")
	activeColor   = lipgloss.Color("#FFA500")
	okColor       = lipgloss.Color("#00AA00")
	elevatedColor = lipgloss.Color("#D7263D")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	mutedStyle  = lipgloss.NewStyle().Italic(true).Foreground(mutedColor)
	strongStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
)

// statusIcons maps a file status to its queue marker
var statusIcons = map[FileStatus]string{
	StatusQueued:    lipgloss.NewStyle().Foreground(mutedColor).Render("○"),
	StatusAnalyzing: lipgloss.NewStyle().Foreground(activeColor).Render("⚙"),
	StatusComplete:  lipgloss.NewStyle().Foreground(okColor).Render("✓"),
	StatusError:     lipgloss.NewStyle().Foreground(elevatedColor).Render("✗"),
}

func panel(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(panelWidth)
}

func renderAnalysisView(m Model) string {
	header := titleStyle.Render("Voxrisk 🗣 - Speech Risk Screening") + "\n" +
		mutedStyle.Render(fmt.Sprintf("Analysing %d recording(s)", m.TotalFiles))

	entries := make([]string, len(m.Files))
	for i, file := range m.Files {
		entries[i] = renderFileEntry(file)
	}

	return strings.Join([]string{header, strings.Join(entries, "\n"), renderFooter(m)}, "\n\n")
}

// renderFileEntry renders one queue line with its status detail underneath
func renderFileEntry(file FileProgress) string {
	var detail string
	switch file.Status {
	case StatusComplete:
		detail = "   " + scoreSummary(file.Report)
	case StatusAnalyzing:
		detail = renderStagePanel(file)
	case StatusError:
		detail = fmt.Sprintf("   Error: %v", file.Error)
	default:
		detail = "   Queued..."
	}
	return fmt.Sprintf(" %s %s\n%s", statusIcons[file.Status], filepath.Base(file.InputPath), detail)
}

// renderStagePanel shows the active file's pipeline stage and progress
func renderStagePanel(file FileProgress) string {
	step := min(int(file.Stage)+1, scoredStages)
	lines := []string{
		fmt.Sprintf("Stage %d/%d: %s", step, scoredStages, file.Stage),
		renderProgressBar(file.Overall(), 40),
		"",
	}

	timing := fmt.Sprintf("⏱  Elapsed: %.1fs", file.ElapsedTime.Seconds())
	if file.Stage == pipeline.StageLoadingModel {
		timing += " | first run trains the model"
	}
	lines = append(lines, timing)

	return panel(accentColor).Render(strings.Join(lines, "\n"))
}

// renderProgressBar draws a fixed-width bar with a percentage, clamping
// progress to [0, 1]
func renderProgressBar(progress float64, width int) string {
	progress = max(0, min(progress, 1))
	filled := int(progress * float64(width))
	return fmt.Sprintf("%s%s %d%%",
		strings.Repeat("█", filled), strings.Repeat("░", width-filled), int(progress*100))
}

func renderFooter(m Model) string {
	status := fmt.Sprintf("Overall Progress: %d/%d complete", m.CompletedFiles, m.TotalFiles)
	if m.valid(m.CurrentIndex) {
		status = fmt.Sprintf("Analysing file %d of %d (%d complete)", m.CurrentIndex+1, m.TotalFiles, m.CompletedFiles)
	}
	return panel(mutedColor).Render(status)
}

// renderCompletionSummary lists every finished file with its score and
// patterns, then the totals and caveats
func renderCompletionSummary(m Model) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(okColor).Render("✨ Analysis Complete!"))
	b.WriteString("\n\n")

	var warning string
	for _, file := range m.Files {
		switch file.Status {
		case StatusComplete:
			b.WriteString(renderCompletedFile(file))
			if file.Report != nil && file.Report.Warning != "" {
				warning = file.Report.Warning
			}
		case StatusError:
			b.WriteString(renderFileEntry(file))
		default:
			continue
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s\n", strings.Repeat("─", panelWidth))
	fmt.Fprintf(&b, "%d analysed, %d failed\n", m.CompletedFiles, m.FailedFiles)
	if warning != "" {
		b.WriteString(mutedStyle.Width(panelWidth).Render(warning))
		b.WriteString("\n")
	}
	b.WriteString("Screening only - this is not a diagnosis.\n")

	return b.String()
}

func renderCompletedFile(file FileProgress) string {
	lines := []string{
		fmt.Sprintf(" %s %s %s", statusIcons[StatusComplete], filepath.Base(file.InputPath),
			mutedStyle.Render(fmt.Sprintf("(%.1fs)", file.ElapsedTime.Seconds()))),
		"   " + scoreSummary(file.Report),
	}
	if file.Report != nil {
		lines = append(lines, "   "+strings.Join(file.Report.Patterns.Lines(), " | "))
	}

	report := ""
	if file.ReportPath != "" {
		report = filepath.Base(file.ReportPath)
	}
	switch {
	case file.TipCount > 0 && report != "":
		lines = append(lines, fmt.Sprintf("   %d recording tip(s) in %s", file.TipCount, report))
	case file.TipCount > 0:
		lines = append(lines, fmt.Sprintf("   %d recording tip(s)", file.TipCount))
	case report != "":
		lines = append(lines, "   Report: "+report)
	}
	return strings.Join(lines, "\n")
}

// scoreSummary renders the risk score coloured by band
func scoreSummary(r *risk.Report) string {
	if r == nil {
		return "No result"
	}
	band := risk.BandFor(r.Probability)
	color := okColor
	if band == risk.BandElevated {
		color = elevatedColor
	}
	score := lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("%.1f%%", r.RiskScore*100))
	return fmt.Sprintf("Risk score: %s (%s)", score, band)
}
