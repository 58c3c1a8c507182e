package mains

import "testing"

func TestForTimezone(t *testing.T) {
	tests := []struct {
		timezone   string
		wantHz     int
		wantSource Source
	}{
		{"Europe/London", Hz50, SourceTimezone},
		{"Europe/Berlin", Hz50, SourceTimezone},
		{"Australia/Sydney", Hz50, SourceTimezone},
		{"Asia/Tokyo", Hz50, SourceTimezone},
		{"America/New_York", Hz60, SourceTimezone},
		{"America/Toronto", Hz60, SourceTimezone},
		{"America/Mexico_City", Hz60, SourceTimezone},
		{"America/Sao_Paulo", Hz60, SourceTimezone},
		{"Asia/Seoul", Hz60, SourceTimezone},
		{"Asia/Manila", Hz60, SourceTimezone},
		{"UTC", Hz50, SourceFallback},
		{"Etc/GMT+5", Hz50, SourceFallback},
		{"Not/AZone", Hz50, SourceFallback},
	}

	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			d := ForTimezone(tt.timezone)
			if d.Hz != tt.wantHz || d.Source != tt.wantSource {
				t.Errorf("ForTimezone(%q) = %d Hz from %s, want %d Hz from %s",
					tt.timezone, d.Hz, d.Source, tt.wantHz, tt.wantSource)
			}
			if d.Timezone != tt.timezone {
				t.Errorf("Timezone = %q", d.Timezone)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	if d := Resolve(Hz60); d.Hz != Hz60 || d.Source != SourceConfig {
		t.Errorf("Resolve(60) = %+v", d)
	}
	// Unsupported values fall through to detection
	if d := Resolve(55); d.Source == SourceConfig {
		t.Errorf("Resolve(55) kept the configured value: %+v", d)
	}
	if d := Resolve(0); d.Hz != Hz50 && d.Hz != Hz60 {
		t.Errorf("Resolve(0) = %d Hz", d.Hz)
	}
}
