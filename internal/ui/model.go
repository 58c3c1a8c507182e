// Package ui provides the Bubbletea terminal user interface for voxrisk
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/linuxmatters/voxrisk/internal/pipeline"
	"github.com/linuxmatters/voxrisk/internal/risk"
)

// FileStatus represents the analysis state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusAnalyzing
	StatusComplete
	StatusError
)

// scoredStages is the number of stages shown in the progress bar;
// StageDone is not counted
const scoredStages = int(pipeline.StageDone)

// FileProgress tracks progress for a single recording
type FileProgress struct {
	InputPath string
	Status    FileStatus

	// Stage tracking
	Stage    pipeline.Stage
	Progress float64 // 0.0 to 1.0 within Stage

	StartTime   time.Time
	ElapsedTime time.Duration

	// Completion results
	Report     *risk.Report
	TipCount   int
	ReportPath string

	Error error
}

// Overall returns progress across all stages, 0.0 to 1.0
func (fp FileProgress) Overall() float64 {
	if fp.Status == StatusComplete || fp.Stage >= pipeline.StageDone {
		return 1
	}
	return (float64(fp.Stage) + fp.Progress) / float64(scoredStages)
}

// Model is the Bubbletea model for the analysis UI
type Model struct {
	// File queue
	Files          []FileProgress
	CurrentIndex   int
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	// Global state
	StartTime time.Time
	Done      bool

	// Terminal dimensions
	Width  int
	Height int

	log zerolog.Logger
}

// NewModel queues inputFiles for analysis
func NewModel(inputFiles []string, logger zerolog.Logger) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{InputPath: path}
	}

	return Model{
		Files:        files,
		CurrentIndex: -1,
		TotalFiles:   len(inputFiles),
		StartTime:    time.Now(),
		log:          logger,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update applies analysis messages from the background worker and key input
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key := msg.String(); key == "q" || key == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height

	case FileStartMsg:
		m.start(msg)

	case StageMsg:
		if m.valid(msg.FileIndex) {
			m.Files[msg.FileIndex] = m.Files[msg.FileIndex].advance(msg)
		}

	case FileCompleteMsg:
		m.complete(msg)

	case AllCompleteMsg:
		m.log.Debug().Int("complete", m.CompletedFiles).Int("failed", m.FailedFiles).
			Dur("elapsed", time.Since(m.StartTime)).Msg("queue finished")
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) start(msg FileStartMsg) {
	if !m.valid(msg.FileIndex) {
		m.log.Warn().Int("index", msg.FileIndex).Msg("start for unknown file")
		return
	}
	m.CurrentIndex = msg.FileIndex
	fp := &m.Files[msg.FileIndex]
	fp.Status = StatusAnalyzing
	fp.StartTime = time.Now()
}

func (m *Model) complete(msg FileCompleteMsg) {
	if !m.valid(msg.FileIndex) {
		m.log.Warn().Int("index", msg.FileIndex).Msg("result for unknown file")
		return
	}
	fp := &m.Files[msg.FileIndex]
	fp.Report = msg.Report
	fp.TipCount = msg.TipCount
	fp.ReportPath = msg.ReportPath
	fp.Error = msg.Error
	fp.ElapsedTime = time.Since(fp.StartTime)

	if msg.Error != nil {
		fp.Status = StatusError
		m.FailedFiles++
		return
	}
	fp.Status = StatusComplete
	m.CompletedFiles++
}

func (m Model) View() string {
	switch {
	case m.Width == 0:
		return fmt.Sprintf("Initializing...\nFiles: %d\n", len(m.Files))
	case m.Done:
		return renderCompletionSummary(m)
	}
	return renderAnalysisView(m)
}

func (m Model) valid(index int) bool {
	return index >= 0 && index < len(m.Files)
}

// advance records a stage update, marking a queued file as started
func (fp FileProgress) advance(msg StageMsg) FileProgress {
	fp.Stage = msg.Stage
	fp.Progress = msg.Progress
	fp.ElapsedTime = time.Since(fp.StartTime)
	if fp.Status == StatusQueued {
		fp.Status = StatusAnalyzing
	}
	return fp
}
