package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestNew_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		overlap   int
		wantError error
	}{
		{"zero size", 0, 0, ErrInvalidChunkSize},
		{"negative size", -1, 0, ErrInvalidChunkSize},
		{"negative overlap", 10, -1, ErrInvalidOverlap},
		{"overlap equals size", 10, 10, ErrInvalidOverlap},
		{"overlap exceeds size", 10, 20, ErrInvalidOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.size, tt.overlap); !errors.Is(err, tt.wantError) {
				t.Errorf("New(%d, %d) error = %v, want %v", tt.size, tt.overlap, err, tt.wantError)
			}
		})
	}
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	c, err := New(100, 10)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk("  a short note about goroutines  ")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "a short note about goroutines" {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("chunk index = %d", chunks[0].Index)
	}
}

func TestChunk_EmptyText(t *testing.T) {
	c, _ := New(10, 2)
	if chunks := c.Chunk("   \n\t  "); chunks != nil {
		t.Errorf("whitespace-only text should yield no chunks, got %v", chunks)
	}
}

func TestChunk_SentenceBoundary(t *testing.T) {
	c, _ := New(20, 5)
	chunks := c.Chunk("Sentence one. Sentence two. Sentence three.")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "Sentence one." {
		t.Errorf("first chunk should end at sentence boundary, got %q", chunks[0].Text)
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
		if len([]rune(ch.Text)) > 20 {
			t.Errorf("chunk %d longer than chunk size: %q", i, ch.Text)
		}
	}
}

func TestChunk_NoTerminatorUsesFullWindow(t *testing.T) {
	c, _ := New(10, 0)
	text := strings.Repeat("a", 25)
	chunks := c.Chunk(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != strings.Repeat("a", 10) {
		t.Errorf("first chunk = %q", chunks[0].Text)
	}
	if chunks[2].Text != strings.Repeat("a", 5) {
		t.Errorf("last chunk = %q", chunks[2].Text)
	}
}

func TestChunk_TerminatorBeforeMidpointIgnored(t *testing.T) {
	c, _ := New(20, 0)
	// The only '.' is at offset 3, before the window midpoint, so the
	// window must not be shortened there.
	chunks := c.Chunk("abc. defghijklmnopqrstuvwxyz")
	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	if chunks[0].Text == "abc." {
		t.Errorf("window shortened at a terminator before the midpoint")
	}
}

func TestChunk_Terminates(t *testing.T) {
	// Large overlap relative to size stresses the forced-progress guard
	// near the end of the text.
	for _, tt := range []struct{ size, overlap int }{
		{10, 9}, {5, 4}, {50, 25}, {3, 0},
	} {
		c, err := New(tt.size, tt.overlap)
		if err != nil {
			t.Fatal(err)
		}
		text := "The quick brown fox. Jumps over the lazy dog. Again and again until done."
		chunks := c.Chunk(text)
		if len(chunks) == 0 {
			t.Errorf("size=%d overlap=%d: no chunks", tt.size, tt.overlap)
		}
		for _, ch := range chunks {
			if len([]rune(ch.Text)) > tt.size {
				t.Errorf("size=%d overlap=%d: oversized chunk %q", tt.size, tt.overlap, ch.Text)
			}
		}
	}
}

func TestChunk_CoversWholeText(t *testing.T) {
	c, _ := New(12, 4)
	text := "First part. Second part. Third part. Fourth part."
	chunks := c.Chunk(text)
	var joined strings.Builder
	for _, ch := range chunks {
		joined.WriteString(ch.Text)
		joined.WriteString(" ")
	}
	for _, want := range []string{"First", "Second", "Third", "Fourth"} {
		if !strings.Contains(joined.String(), want) {
			t.Errorf("chunks do not cover %q: %v", want, chunks)
		}
	}
}
