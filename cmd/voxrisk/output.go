package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/linuxmatters/voxrisk/internal/logging"
	"github.com/linuxmatters/voxrisk/internal/model"
	"github.com/linuxmatters/voxrisk/internal/pipeline"
	"github.com/linuxmatters/voxrisk/internal/risk"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// recordingOutput carries signal measurements. Levels are nil for digital
// silence, which has no finite dBFS value.
type recordingOutput struct {
	DurationSecs float64  `json:"duration_secs" yaml:"duration_secs"`
	SampleRate   int      `json:"sample_rate" yaml:"sample_rate"`
	Channels     int      `json:"channels" yaml:"channels"`
	PeakDBFS     *float64 `json:"peak_dbfs" yaml:"peak_dbfs"`
	RMSDBFS      *float64 `json:"rms_dbfs" yaml:"rms_dbfs"`
	ClippedRatio float64  `json:"clipped_ratio" yaml:"clipped_ratio"`
	SilenceRatio float64  `json:"silence_ratio" yaml:"silence_ratio"`
	MainsHz      int      `json:"mains_hz" yaml:"mains_hz"`
	HumRatio     float64  `json:"hum_ratio" yaml:"hum_ratio"`
}

type modelOutput struct {
	ID        string        `json:"id" yaml:"id"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Metrics   model.Metrics `json:"metrics" yaml:"metrics"`
}

type fileOutput struct {
	File       string                 `json:"file" yaml:"file"`
	Recording  *recordingOutput       `json:"recording,omitempty" yaml:"recording,omitempty"`
	Report     *risk.Report           `json:"report,omitempty" yaml:"report,omitempty"`
	Model      *modelOutput           `json:"model,omitempty" yaml:"model,omitempty"`
	Tips       []logging.RecordingTip `json:"recording_tips,omitempty" yaml:"recording_tips,omitempty"`
	ReportPath string                 `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	Error      string                 `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind  string                 `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func newModelOutput(b *model.Bundle) *modelOutput {
	if b == nil {
		return nil
	}
	return &modelOutput{ID: b.ID, CreatedAt: b.CreatedAt, Metrics: b.Metrics}
}

func newFileOutput(r fileResult) fileOutput {
	out := fileOutput{
		File:       r.Path,
		Report:     r.Report,
		Model:      newModelOutput(r.Bundle),
		Tips:       r.Tips,
		ReportPath: r.ReportPath,
	}
	if r.Metadata != nil {
		m := r.Measurements
		out.Recording = &recordingOutput{
			DurationSecs: m.DurationSecs,
			SampleRate:   r.Metadata.SampleRate,
			Channels:     r.Metadata.Channels,
			PeakDBFS:     finite(m.PeakDBFS),
			RMSDBFS:      finite(m.RMSDBFS),
			ClippedRatio: m.ClippedRatio,
			SilenceRatio: m.SilenceRatio,
			MainsHz:      m.MainsHz,
			HumRatio:     m.HumRatio,
		}
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
		out.ErrorKind = string(pipeline.KindOf(r.Err))
	}
	return out
}

// writeResults encodes the results as a JSON array or a YAML sequence
func writeResults(w io.Writer, format string, results []fileResult) error {
	out := make([]fileOutput, len(results))
	for i, r := range results {
		out[i] = newFileOutput(r)
	}
	return encode(w, format, out)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unsupported output format %q", format)
}
