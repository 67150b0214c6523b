package services

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	ts := NewTextSplitter()

	if got := ts.SplitText(""); got != nil {
		t.Errorf("empty input: got %v, want nil", got)
	}

	short := "a short transcript"
	got := ts.SplitText(short)
	if len(got) != 1 || got[0] != short {
		t.Errorf("short input should pass through unchanged, got %v", got)
	}
}

func TestSplitTextChunkSizeBound(t *testing.T) {
	ts := NewTextSplitter()

	var b strings.Builder
	for i := 0; i < 800; i++ {
		fmt.Fprintf(&b, "word%03d ", i)
	}
	chunks := ts.SplitText(b.String())

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for %d chars, got %d", b.Len(), len(chunks))
	}
	bound := ts.ChunkSize + ts.ChunkOverlap
	for i, chunk := range chunks {
		if len(chunk) > bound {
			t.Errorf("chunk %d has %d chars, exceeds bound %d", i, len(chunk), bound)
		}
		if len(chunk) == 0 {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplitTextOverlap(t *testing.T) {
	ts := NewTextSplitter()

	var b strings.Builder
	for i := 0; i < 800; i++ {
		fmt.Fprintf(&b, "word%03d ", i)
	}
	chunks := ts.SplitText(b.String())
	if len(chunks) < 2 {
		t.Fatalf("need at least 2 chunks, got %d", len(chunks))
	}

	// Each chunk should open with content carried over from its predecessor.
	for i := 1; i < len(chunks); i++ {
		firstWord := strings.Fields(chunks[i])[0]
		if !strings.Contains(chunks[i-1], firstWord) {
			t.Errorf("chunk %d starts with %q, which does not appear in chunk %d", i, firstWord, i-1)
		}
	}
}

func TestSplitTextPrefersParagraphBreaks(t *testing.T) {
	ts := NewTextSplitter()

	paragraph := strings.Repeat("sentence one. sentence two. ", 15) // ~420 chars
	text := paragraph + "\n\n" + paragraph + "\n\n" + paragraph

	chunks := ts.SplitText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	bound := ts.ChunkSize + ts.ChunkOverlap
	for i, chunk := range chunks {
		if len(chunk) > bound {
			t.Errorf("chunk %d has %d chars, exceeds bound %d", i, len(chunk), bound)
		}
	}
}

func TestSplitTextOversizedSingleRun(t *testing.T) {
	ts := NewTextSplitter()

	// No separators at all: forces the hard character cut.
	text := strings.Repeat("x", 2500)
	chunks := ts.SplitText(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var total int
	for i, chunk := range chunks {
		if len(chunk) > ts.ChunkSize+ts.ChunkOverlap {
			t.Errorf("chunk %d has %d chars", i, len(chunk))
		}
		total += len(chunk)
	}
	if total < len(text) {
		t.Errorf("chunks cover %d chars of %d input chars", total, len(text))
	}
}
