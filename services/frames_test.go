package services

import (
	"testing"

	"video-analysis/models"
)

func TestFrameTimestamps(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		interval float64
		want     []float64
	}{
		{"25s at 10s steps", 25, 10, []float64{0, 10, 20}},
		{"exact multiple stops short", 20, 10, []float64{0, 10}},
		{"shorter than interval", 4, 10, []float64{0}},
		{"zero duration", 0, 10, nil},
		{"zero interval", 30, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := frameTimestamps(tt.duration, tt.interval)
			if len(got) != len(tt.want) {
				t.Fatalf("frameTimestamps(%v, %v) = %v, want %v", tt.duration, tt.interval, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("timestamp %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestClosestFrame(t *testing.T) {
	frames := []models.Frame{
		{ID: 1, Timestamp: 0},
		{ID: 2, Timestamp: 10},
		{ID: 3, Timestamp: 20},
	}

	tests := []struct {
		name   string
		frames []models.Frame
		target float64
		wantID uint
	}{
		{"exact hit", frames, 10, 2},
		{"rounds to nearest", frames, 13, 2},
		{"nearest above", frames, 17, 3},
		{"before first", frames, -3, 1},
		{"tie keeps earlier frame", frames, 15, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := closestFrame(tt.frames, tt.target)
			if got == nil {
				t.Fatalf("closestFrame(%v) = nil, want frame %d", tt.target, tt.wantID)
			}
			if got.ID != tt.wantID {
				t.Errorf("closestFrame(%v) = frame %d, want frame %d", tt.target, got.ID, tt.wantID)
			}
		})
	}

	if got := closestFrame(nil, 10); got != nil {
		t.Errorf("closestFrame with no frames = %+v, want nil", got)
	}
}

func TestHasVideoExt(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"video_abc.mp4", true},
		{"video_abc.WEBM", true},
		{"video_abc.mkv", true},
		{"video_abc.jpg", false},
		{"video_abc.part", false},
	}
	for _, tt := range tests {
		if got := hasVideoExt(tt.name); got != tt.want {
			t.Errorf("hasVideoExt(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
