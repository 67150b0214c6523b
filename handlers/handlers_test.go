package handlers

import (
	"strings"
	"testing"
)

func TestSafeStoragePath(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		wantErr   bool
	}{
		{"plain frame path", "frames/1/frame_000001_10.00s.jpg", false},
		{"nested path", "embeddings/video_3/frame_embeddings.json", false},
		{"parent traversal", "../secrets.txt", true},
		{"hidden traversal", "frames/../../etc/passwd", true},
		{"root itself", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safeStoragePath("storage", tt.requested)
			if (err != nil) != tt.wantErr {
				t.Fatalf("safeStoragePath(%q) error = %v, wantErr %v", tt.requested, err, tt.wantErr)
			}
			if err == nil && !strings.Contains(got, "storage") {
				t.Errorf("resolved path %q is not under storage", got)
			}
		})
	}
}

func TestTruncateContext(t *testing.T) {
	if got := truncateContext("short answer", 200); got != "short answer" {
		t.Errorf("short context changed: %q", got)
	}
	long := strings.Repeat("a", 250)
	got := truncateContext(long, 200)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("long context not truncated to 200+ellipsis, got len %d", len(got))
	}
}
