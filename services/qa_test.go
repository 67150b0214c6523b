package services

import (
	"math"
	"testing"
)

func TestParseSectionTitles(t *testing.T) {
	answer := `1. Introduction and Overview
2. Main Topic Discussion
- Key Examples and Case Studies
• Practical Applications

ok
3. Summary and Conclusions`

	titles := parseSectionTitles(answer)
	want := []string{
		"Introduction and Overview",
		"Main Topic Discussion",
		"Key Examples and Case Studies",
		"Practical Applications",
		"Summary and Conclusions",
	}
	if len(titles) != len(want) {
		t.Fatalf("got %d titles %v, want %d", len(titles), titles, len(want))
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("title %d = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestParseSectionTitlesDropsImplausibleLines(t *testing.T) {
	long := "1. " + string(makeRepeated('x', 120))
	answer := "1. abc\n" + long + "\n2. A Plausible Section Title\n"

	titles := parseSectionTitles(answer)
	if len(titles) != 1 || titles[0] != "A Plausible Section Title" {
		t.Fatalf("got %v, want only the plausible title", titles)
	}
}

func TestParseSectionTitlesEmptyAnswer(t *testing.T) {
	if titles := parseSectionTitles(""); len(titles) != 0 {
		t.Errorf("empty answer produced titles: %v", titles)
	}
}

func makeRepeated(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestDistributeSectionTimes(t *testing.T) {
	titles := []string{"One", "Two", "Three", "Four"}
	sections := distributeSectionTimes(titles, 300)

	if len(sections) != 4 {
		t.Fatalf("got %d sections", len(sections))
	}
	if sections[0].StartTime != 0 {
		t.Errorf("first section starts at %v", sections[0].StartTime)
	}
	if math.Abs(sections[len(sections)-1].EndTime-300) > 1e-9 {
		t.Errorf("last section ends at %v, want 300", sections[len(sections)-1].EndTime)
	}
	for i := 1; i < len(sections); i++ {
		if sections[i].EndTime <= sections[i-1].EndTime {
			t.Errorf("end times not monotonically increasing at %d", i)
		}
		if sections[i].StartTime != sections[i-1].EndTime {
			t.Errorf("section %d does not start where %d ends", i, i-1)
		}
	}
}

func TestFallbackSectionsShape(t *testing.T) {
	sections := fallbackSections()
	if len(sections) < 3 || len(sections) > 5 {
		t.Fatalf("fallback must yield 3-5 sections, got %d", len(sections))
	}
	for i := 1; i < len(sections); i++ {
		if sections[i].EndTime <= sections[i-1].EndTime {
			t.Errorf("fallback end times not increasing at %d", i)
		}
	}
	if sections[0].StartTime != 0 || sections[len(sections)-1].EndTime != assumedVideoDuration {
		t.Errorf("fallback does not span the assumed duration: %+v", sections)
	}
}

func TestApproximateChunkStart(t *testing.T) {
	tests := []struct {
		index, total int
		lastStart    float64
		want         float64
	}{
		{0, 10, 600, 0},
		{5, 10, 600, 300},
		{9, 10, 600, 540},
		{0, 0, 600, 0},
	}
	for _, tt := range tests {
		got := approximateChunkStart(tt.index, tt.total, tt.lastStart)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("approximateChunkStart(%d, %d, %v) = %v, want %v",
				tt.index, tt.total, tt.lastStart, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{65, "01:05"},
		{600, "10:00"},
		{3599, "59:59"},
	}
	for _, tt := range tests {
		if got := formatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 200); got != "short" {
		t.Errorf("truncate left short string as %q", got)
	}
	long := string(makeRepeated('a', 250))
	got := truncate(long, 200)
	if len(got) != 203 {
		t.Errorf("truncated length = %d, want 203", len(got))
	}
	if got[200:] != "..." {
		t.Errorf("truncation marker missing: %q", got[195:])
	}
}
