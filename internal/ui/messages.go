package ui

import (
	"github.com/linuxmatters/voxrisk/internal/pipeline"
	"github.com/linuxmatters/voxrisk/internal/risk"
)

// StageMsg reports progress within an analysis stage of the current file
type StageMsg struct {
	FileIndex int
	Stage     pipeline.Stage
	Progress  float64 // 0.0 to 1.0 within the stage
}

// FileStartMsg indicates a new file has started analysis
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished analysis
type FileCompleteMsg struct {
	FileIndex  int
	Report     *risk.Report
	TipCount   int
	ReportPath string // empty unless --logs
	Error      error
}

// AllCompleteMsg indicates all files have been analysed
type AllCompleteMsg struct{}
