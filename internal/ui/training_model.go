package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/voxrisk/internal/model"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// TrainingModel is the Bubbletea model for the train command
type TrainingModel struct {
	// Corpus being trained on
	Source    string
	StartTime time.Time

	spinnerIndex int

	// Results (populated when complete)
	Bundle *model.Bundle
	Error  error
	Done   bool

	// Terminal dimensions
	Width  int
	Height int
}

// TrainStartMsg signals training has started
type TrainStartMsg struct {
	Source string
}

// TrainCompleteMsg signals training has finished
type TrainCompleteMsg struct {
	Bundle *model.Bundle
	Error  error
}

// tickMsg is sent for spinner/timer animation
type tickMsg time.Time

// NewTrainingModel creates a new training UI model
func NewTrainingModel() TrainingModel {
	return TrainingModel{
		StartTime: time.Now(),
	}
}

// Init initializes the model
func (m TrainingModel) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m TrainingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if !m.Done {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}
		return m, nil

	case TrainStartMsg:
		m.Source = msg.Source
		m.StartTime = time.Now()
		return m, nil

	case TrainCompleteMsg:
		m.Bundle = msg.Bundle
		m.Error = msg.Error
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m TrainingModel) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Voxrisk") + " " + mutedStyle.Render("Training"))
	b.WriteString("\n\n")

	if m.Source == "" {
		b.WriteString("Waiting...")
		return b.String()
	}

	b.WriteString("Corpus: ")
	b.WriteString(strongStyle.Render(m.Source))
	b.WriteString("\n\n")

	if !m.Done {
		spinner := lipgloss.NewStyle().Foreground(accentColor).Render(spinnerFrames[m.spinnerIndex])
		b.WriteString(spinner)
		b.WriteString(" Extracting features and growing trees...")
		b.WriteString(fmt.Sprintf(" [%s]", formatElapsed(time.Since(m.StartTime))))
		b.WriteString("\n")
	}

	return b.String()
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
