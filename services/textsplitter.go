package services

import "strings"

// TextSplitter splits long text into overlapping chunks for retrieval,
// preferring to break at paragraph boundaries, then sentences, then words,
// before falling back to a hard character cut.
type TextSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewTextSplitter returns the splitter used for transcripts: 1000-character
// chunks with 100 characters of overlap.
func NewTextSplitter() *TextSplitter {
	return &TextSplitter{
		ChunkSize:    1000,
		ChunkOverlap: 100,
		Separators:   []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""},
	}
}

// SplitText breaks text into chunks of at most ChunkSize characters, with
// adjacent chunks sharing roughly ChunkOverlap characters of context.
func (ts *TextSplitter) SplitText(text string) []string {
	return ts.split(text, ts.Separators)
}

func (ts *TextSplitter) split(text string, separators []string) []string {
	if len(text) == 0 {
		return nil
	}
	if len(text) <= ts.ChunkSize {
		return []string{text}
	}

	separator, remaining := ts.pickSeparator(text, separators)
	splits := splitKeepingSeparator(text, separator)

	var chunks []string
	var pending []string
	for _, piece := range splits {
		if len(piece) > ts.ChunkSize {
			// Flush what we have, then recurse with finer separators.
			if len(pending) > 0 {
				chunks = append(chunks, ts.merge(pending)...)
				pending = nil
			}
			chunks = append(chunks, ts.split(piece, remaining)...)
			continue
		}
		pending = append(pending, piece)
	}
	if len(pending) > 0 {
		chunks = append(chunks, ts.merge(pending)...)
	}
	return chunks
}

// pickSeparator chooses the coarsest separator that actually occurs in text
// and returns the finer ones for recursion.
func (ts *TextSplitter) pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

func splitKeepingSeparator(text, separator string) []string {
	if separator == "" {
		// Hard cut into single characters; merge reassembles windows.
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, separator)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += separator
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// merge greedily packs pieces into chunks up to ChunkSize, carrying the tail
// of each chunk into the next as overlap.
func (ts *TextSplitter) merge(pieces []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > ts.ChunkSize {
			flush()
			tail := overlapTail(current.String(), ts.ChunkOverlap)
			current.Reset()
			current.WriteString(tail)
		}
		current.WriteString(piece)
	}
	flush()
	return chunks
}

// overlapTail returns the last n characters of s, extended left to the
// nearest space so the overlap starts on a word boundary when possible.
func overlapTail(s string, n int) string {
	if n <= 0 || len(s) == 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	tail := s[len(s)-n:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}
