// Package chunk splits normalized document text into overlapping fixed-size
// windows for independent embedding.
package chunk

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned when the splitter parameters are invalid.
// It is raised before any I/O happens, so ingestion callers see it as an
// immediate, synchronous failure.
var ErrConfiguration = errors.New("invalid chunking configuration")

// Chunk is a contiguous span of document text.
type Chunk struct {
	// Text is the chunk content. Its length is at most the configured size.
	Text string

	// Index is the 0-based sequence index of the chunk within its document.
	Index int

	// Source identifies the document this chunk was split from.
	Source string
}

// Splitter produces overlapping fixed-size chunks from text.
// Consecutive chunks overlap by exactly Overlap runes except the final
// chunk, which is truncated to the remaining text.
type Splitter struct {
	// Size is the window length in runes.
	Size int

	// Overlap is the number of runes shared between consecutive chunks.
	// Must satisfy 0 <= Overlap < Size.
	Overlap int
}

// NewSplitter validates the parameters and returns a Splitter.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrConfiguration, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", ErrConfiguration, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrConfiguration, overlap, size)
	}

	return &Splitter{Size: size, Overlap: overlap}, nil
}

// Split advances a window of length Size across the text with stride
// Size-Overlap. The final window is truncated rather than padded. Empty
// input yields zero chunks. Split performs no normalization of its own;
// the document loader normalizes line endings before text reaches here.
func (s *Splitter) Split(text, source string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	stride := s.Size - s.Overlap
	chunks := make([]Chunk, 0, (len(runes)+stride-1)/stride)

	for start, idx := 0, 0; start < len(runes); start, idx = start+stride, idx+1 {
		end := start + s.Size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, Chunk{
			Text:   string(runes[start:end]),
			Index:  idx,
			Source: source,
		})

		// The last window consumed the remaining text; a further advance
		// would only re-emit a suffix already covered by this chunk.
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Texts returns just the chunk contents, preserving order.
func Texts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
