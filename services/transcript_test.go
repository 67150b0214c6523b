package services

import "testing"

func TestParseCaptionTracks(t *testing.T) {
	page := []byte(`{"playerConfig":{},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"https://example.com/timedtext?v=abc&lang=en","languageCode":"en","kind":"asr"},{"baseUrl":"https://example.com/timedtext?v=abc&lang=de","languageCode":"de"}]}}}`)

	tracks := parseCaptionTracks(page)
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].LanguageCode != "en" || tracks[0].Kind != "asr" {
		t.Errorf("first track = %+v", tracks[0])
	}
	if tracks[1].LanguageCode != "de" {
		t.Errorf("second track = %+v", tracks[1])
	}
}

func TestParseCaptionTracksAbsent(t *testing.T) {
	if tracks := parseCaptionTracks([]byte(`{"playerConfig":{}}`)); tracks != nil {
		t.Errorf("expected nil for page without captions, got %v", tracks)
	}
}

func TestParseCaptionTracksBracketInString(t *testing.T) {
	page := []byte(`"captionTracks":[{"baseUrl":"https://example.com/t?q=[1]","languageCode":"en"}] trailing`)
	tracks := parseCaptionTracks(page)
	if len(tracks) != 1 || tracks[0].LanguageCode != "en" {
		t.Fatalf("got %+v", tracks)
	}
}

func TestPickCaptionTrack(t *testing.T) {
	manual := captionTrack{BaseURL: "manual", LanguageCode: "en"}
	auto := captionTrack{BaseURL: "auto", LanguageCode: "en", Kind: "asr"}
	german := captionTrack{BaseURL: "german", LanguageCode: "de"}

	tests := []struct {
		name   string
		tracks []captionTrack
		want   string
	}{
		{"manual beats auto", []captionTrack{auto, manual}, "manual"},
		{"auto when only auto", []captionTrack{german, auto}, "auto"},
		{"first track when no english", []captionTrack{german}, "german"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickCaptionTrack(tt.tracks, preferredLanguages)
			if got == nil || got.BaseURL != tt.want {
				t.Errorf("pickCaptionTrack = %+v, want %s", got, tt.want)
			}
		})
	}

	if got := pickCaptionTrack(nil, preferredLanguages); got != nil {
		t.Errorf("expected nil for empty track list, got %+v", got)
	}
}

func TestParseTimedText(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0" dur="2.5">Hello world</text>
  <text start="2.5" dur="3.1">it&amp;#39;s a test</text>
  <text start="5.6" dur="1">   </text>
</transcript>`)

	segments, err := parseTimedText(body)
	if err != nil {
		t.Fatalf("parseTimedText failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2 (blank cue dropped)", len(segments))
	}
	if segments[0].Text != "Hello world" || segments[0].Start != 0 || segments[0].Duration != 2.5 {
		t.Errorf("segment 0 = %+v", segments[0])
	}
	if segments[1].Text != "it's a test" {
		t.Errorf("double-escaped entity not unescaped: %q", segments[1].Text)
	}
	if segments[1].Start != 2.5 {
		t.Errorf("segment 1 start = %v", segments[1].Start)
	}
}

func TestParseTimedTextInvalid(t *testing.T) {
	if _, err := parseTimedText([]byte("not xml at all <")); err == nil {
		t.Fatal("expected error for malformed XML")
	}
}
