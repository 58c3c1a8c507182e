package audio

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV encodes interleaved 16-bit samples to a temporary WAV file
func writeTestWAV(t *testing.T, samples []int, sampleRate, channels int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		t.Fatalf("failed to write WAV data: %v", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		t.Fatalf("failed to finalise WAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close WAV: %v", err)
	}
	return path
}

func TestReadFileMono(t *testing.T) {
	samples := make([]int, 8000)
	for i := range samples {
		samples[i] = int(16384 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	path := writeTestWAV(t, samples, 16000, 1)

	w, meta, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if w.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", w.SampleRate)
	}
	if len(w.Samples) != len(samples) {
		t.Fatalf("len(Samples) = %d, want %d", len(w.Samples), len(samples))
	}
	if meta.Channels != 1 || meta.BitDepth != 16 {
		t.Errorf("metadata = %+v, want mono 16-bit", meta)
	}
	if math.Abs(meta.Duration-0.5) > 1e-9 {
		t.Errorf("Duration = %f, want 0.5", meta.Duration)
	}
	for i := 0; i < 100; i++ {
		want := float64(samples[i]) / 32768.0
		if math.Abs(w.Samples[i]-want) > 1e-12 {
			t.Fatalf("sample %d = %f, want %f", i, w.Samples[i], want)
		}
	}
}

func TestReadFileStereoDownmix(t *testing.T) {
	// Left channel +0.5, right channel -0.25; mono average is +0.125
	frames := 1000
	samples := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		samples[i*2] = 16384
		samples[i*2+1] = -8192
	}
	path := writeTestWAV(t, samples, 8000, 2)

	w, meta, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if meta.Channels != 2 || w.Channels != 2 {
		t.Errorf("channels = %d/%d, want 2", meta.Channels, w.Channels)
	}
	if len(w.Samples) != frames {
		t.Fatalf("len(Samples) = %d, want %d", len(w.Samples), frames)
	}
	for i, s := range w.Samples {
		if math.Abs(s-0.125) > 1e-9 {
			t.Fatalf("sample %d = %f, want 0.125", i, s)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("definitely not a RIFF file")))
	if err == nil {
		t.Fatal("expected error for invalid WAV data")
	}
}

func TestFromInterleaved(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float64
		channels   int
		sampleRate int
		want       []float64
		wantErr    error
	}{
		{"mono copy", []float64{0.1, -0.2, 0.3}, 1, 8000, []float64{0.1, -0.2, 0.3}, nil},
		{"stereo average", []float64{1, 0, 0.5, 0.5}, 2, 8000, []float64{0.5, 0.5}, nil},
		{"three channels", []float64{0.3, 0.3, 0.3}, 3, 8000, []float64{0.3}, nil},
		{"partial frame dropped", []float64{1, 1, 1}, 2, 8000, []float64{1}, nil},
		{"empty", nil, 1, 8000, nil, ErrEmptyWaveform},
		{"fewer samples than channels", []float64{1}, 2, 8000, nil, ErrEmptyWaveform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := FromInterleaved(tt.samples, tt.channels, tt.sampleRate)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(w.Samples) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(w.Samples), len(tt.want))
			}
			for i := range tt.want {
				if math.Abs(w.Samples[i]-tt.want[i]) > 1e-12 {
					t.Errorf("sample %d = %f, want %f", i, w.Samples[i], tt.want[i])
				}
			}
		})
	}
}

func TestFromInterleavedInvalidParams(t *testing.T) {
	if _, err := FromInterleaved([]float64{1}, 0, 8000); err == nil {
		t.Error("expected error for zero channels")
	}
	if _, err := FromInterleaved([]float64{1}, 1, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestFromInterleavedDoesNotAlias(t *testing.T) {
	src := []float64{0.1, 0.2}
	w, err := FromInterleaved(src, 1, 8000)
	if err != nil {
		t.Fatal(err)
	}
	w.Samples[0] = 9
	if src[0] != 0.1 {
		t.Error("mono waveform aliases caller's slice")
	}
}

func TestWaveformValidate(t *testing.T) {
	if err := (Waveform{Samples: []float64{0}, SampleRate: 8000}).Validate(); err != nil {
		t.Errorf("valid waveform rejected: %v", err)
	}
	if err := (Waveform{SampleRate: 8000}).Validate(); !errors.Is(err, ErrEmptyWaveform) {
		t.Errorf("empty waveform: err = %v, want ErrEmptyWaveform", err)
	}
	if err := (Waveform{Samples: []float64{0}}).Validate(); err == nil {
		t.Error("zero sample rate accepted")
	}
}
