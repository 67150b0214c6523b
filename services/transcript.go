package services

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	"video-analysis/apperr"
)

// TranscriptSegment is one caption cue: its text, start offset and duration,
// all in seconds.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TranscriptClient fetches captions for a YouTube video. It reads the
// caption track list embedded in the watch page and pulls the timedtext XML
// for the best English track.
type TranscriptClient struct {
	httpClient *http.Client
}

func NewTranscriptClient() *TranscriptClient {
	return &TranscriptClient{httpClient: http.DefaultClient}
}

var preferredLanguages = []string{"en", "en-US", "en-GB"}

// FetchTranscript returns the ordered caption segments for videoURL, or an
// empty slice when the video has no usable captions. Callers treat an empty
// transcript as an expected outcome, not a failure.
func (c *TranscriptClient) FetchTranscript(videoURL string) ([]TranscriptSegment, error) {
	ytID, err := ExtractYouTubeID(videoURL)
	if err != nil {
		return nil, err
	}

	watchURL := "https://www.youtube.com/watch?v=" + url.QueryEscape(ytID)
	page, err := c.get(watchURL)
	if err != nil {
		return nil, err
	}

	tracks := parseCaptionTracks(page)
	track := pickCaptionTrack(tracks, preferredLanguages)
	if track == nil {
		return []TranscriptSegment{}, nil
	}

	body, err := c.get(track.BaseURL)
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

func (c *TranscriptClient) get(rawURL string) ([]byte, error) {
	resp, err := c.httpClient.Get(rawURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "transcript fetch failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.Upstream, fmt.Sprintf("transcript fetch failed: status %d", resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

// parseCaptionTracks extracts the "captionTracks" JSON array embedded in the
// watch page player config.
func parseCaptionTracks(page []byte) []captionTrack {
	const marker = `"captionTracks":`
	idx := strings.Index(string(page), marker)
	if idx < 0 {
		return nil
	}
	rest := page[idx+len(marker):]

	// The array is well-formed JSON; find its closing bracket by depth.
	depth := 0
	end := -1
	inString := false
	escaped := false
	for i := 0; i < len(rest) && end < 0; i++ {
		b := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
	}
	if end < 0 {
		return nil
	}

	var tracks []captionTrack
	if err := json.Unmarshal(rest[:end], &tracks); err != nil {
		return nil
	}
	return tracks
}

// pickCaptionTrack prefers manual tracks in the given language order, then
// auto-generated ones, then anything available.
func pickCaptionTrack(tracks []captionTrack, languages []string) *captionTrack {
	if len(tracks) == 0 {
		return nil
	}
	for _, lang := range languages {
		for i, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return &tracks[i]
			}
		}
	}
	for _, lang := range languages {
		for i, t := range tracks {
			if t.LanguageCode == lang {
				return &tracks[i]
			}
		}
	}
	return &tracks[0]
}

type timedText struct {
	Texts []struct {
		Start    float64 `xml:"start,attr"`
		Duration float64 `xml:"dur,attr"`
		Body     string  `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(body []byte) ([]TranscriptSegment, error) {
	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "could not parse timedtext response", err)
	}

	segments := make([]TranscriptSegment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text == "" {
			continue
		}
		segments = append(segments, TranscriptSegment{
			Text:     text,
			Start:    t.Start,
			Duration: t.Duration,
		})
	}
	return segments, nil
}
