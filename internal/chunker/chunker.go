// Package chunker splits long documents into overlapping, sentence-boundary-aware chunks.
package chunker

import (
	"errors"
	"strings"

	"github.com/mentora/mentora/internal/models"
)

var (
	// ErrInvalidChunkSize is returned when chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	// ErrInvalidOverlap is returned when overlap is negative or >= chunk size.
	ErrInvalidOverlap = errors.New("overlap must be non-negative and smaller than chunk size")
)

// Chunker splits text into character windows of at most chunkSize,
// preferring to end a window right after a sentence terminator when one
// falls in the window's second half. Consecutive windows overlap by
// overlap characters.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a chunker. chunkSize must be positive and overlap must
// satisfy 0 <= overlap < chunkSize.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, ErrInvalidOverlap
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into chunks. Leading/trailing whitespace is trimmed
// from each chunk and empty chunks are dropped. Text shorter than the
// chunk size yields a single chunk.
func (c *Chunker) Chunk(text string) []models.Chunk {
	runes := []rune(text)
	var chunks []models.Chunk
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Prefer a sentence boundary in the second half of the window
			// so chunks do not cut mid-sentence.
			if p := lastTerminator(runes[start:end]); p >= c.chunkSize/2 {
				end = start + p + 1
			}
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, models.Chunk{Text: piece, Index: len(chunks)})
		}
		if end >= len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			// Overlap would revisit the same window near the end of the
			// text; jump to end to guarantee termination.
			next = end
		}
		start = next
	}
	return chunks
}

// lastTerminator returns the index of the last '.' in window, or -1.
func lastTerminator(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' {
			return i
		}
	}
	return -1
}
