package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/linuxmatters/voxrisk/internal/model"
	"github.com/linuxmatters/voxrisk/internal/pipeline"
	"github.com/linuxmatters/voxrisk/internal/risk"
)

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelFileLifecycle(t *testing.T) {
	m := NewModel([]string{"a.wav", "b.wav"}, zerolog.Nop())
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	m = step(t, m, FileStartMsg{FileIndex: 0, FileName: "a.wav"})
	if m.CurrentIndex != 0 || m.Files[0].Status != StatusAnalyzing {
		t.Fatalf("after start: index %d status %v", m.CurrentIndex, m.Files[0].Status)
	}

	m = step(t, m, StageMsg{FileIndex: 0, Stage: pipeline.StageScoring, Progress: 0.5})
	if got := m.Files[0].Overall(); got < 0.8 || got > 0.9 {
		t.Errorf("overall progress = %f, want 2.5/3", got)
	}
	if !strings.Contains(m.View(), "Scoring") {
		t.Error("view does not show the active stage")
	}

	report := risk.Interpret(model.Prediction{Probability: 0.8, Label: 1}, nil)
	m = step(t, m, FileCompleteMsg{FileIndex: 0, Report: &report, TipCount: 2})
	m = step(t, m, FileStartMsg{FileIndex: 1, FileName: "b.wav"})
	m = step(t, m, FileCompleteMsg{FileIndex: 1, Error: errors.New("not a WAV file")})

	if m.CompletedFiles != 1 || m.FailedFiles != 1 {
		t.Errorf("completed %d failed %d, want 1 and 1", m.CompletedFiles, m.FailedFiles)
	}

	next, cmd := m.Update(AllCompleteMsg{})
	m = next.(Model)
	if !m.Done || cmd == nil {
		t.Fatal("AllCompleteMsg did not finish the program")
	}
	view := m.View()
	for _, want := range []string{"Analysis Complete", "80.0%", "Tremor detected: Yes", "2 recording tip(s)", "not a WAV file"} {
		if !strings.Contains(view, want) {
			t.Errorf("summary missing %q:\n%s", want, view)
		}
	}
}

func TestModelIgnoresOutOfRangeIndex(t *testing.T) {
	m := NewModel([]string{"a.wav"}, zerolog.Nop())
	m = step(t, m, FileStartMsg{FileIndex: 3})
	m = step(t, m, StageMsg{FileIndex: -1, Stage: pipeline.StageScoring})
	m = step(t, m, FileCompleteMsg{FileIndex: 5})
	if m.CurrentIndex != -1 || m.CompletedFiles != 0 {
		t.Errorf("out of range messages changed state: %+v", m)
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		progress float64
		want     string
	}{
		{0, "░░░░░░░░░░ 0%"},
		{0.5, "█████░░░░░ 50%"},
		{1, "██████████ 100%"},
		{1.7, "██████████ 100%"},
	}
	for _, tt := range tests {
		if got := renderProgressBar(tt.progress, 10); got != tt.want {
			t.Errorf("renderProgressBar(%v) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}

func TestTrainingModel(t *testing.T) {
	m := NewTrainingModel()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.Update(TrainStartMsg{Source: "synthetic"})
	if !strings.Contains(next.View(), "synthetic") {
		t.Error("view does not name the corpus")
	}

	next, cmd := next.Update(TrainCompleteMsg{Bundle: &model.Bundle{ID: "b1"}})
	tm := next.(TrainingModel)
	if !tm.Done || tm.Bundle.ID != "b1" || cmd == nil {
		t.Errorf("completion not recorded: done=%v", tm.Done)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{65 * time.Second, "01:05"},
		{3*time.Hour + 2*time.Second, "03:00:02"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
