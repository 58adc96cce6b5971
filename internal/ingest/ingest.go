// Package ingest feeds extracted text into the retriever, chunking
// oversized documents first.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mentora/mentora/internal/chunker"
	"github.com/mentora/mentora/internal/models"
	"github.com/mentora/mentora/internal/retriever"
	"github.com/mentora/mentora/pkg/utils"
)

// DefaultChunkThreshold is the document length above which text is split
// into chunks before embedding.
const DefaultChunkThreshold = 5000

// Source types stamped into chunk metadata.
const (
	TypeText = "text"
	TypeFile = "file"
)

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets a logger for ingest events.
func WithLogger(l *zap.Logger) Option {
	return func(i *Ingestor) { i.logger = l }
}

// Ingestor applies the chunk-if-long policy and stamps source metadata
// before handing texts to the retriever.
type Ingestor struct {
	retriever *retriever.Retriever
	chunker   *chunker.Chunker
	threshold int
	logger    *zap.Logger
}

// New creates an ingestor. threshold <= 0 selects the default.
func New(r *retriever.Retriever, c *chunker.Chunker, threshold int, opts ...Option) *Ingestor {
	if threshold <= 0 {
		threshold = DefaultChunkThreshold
	}
	ing := &Ingestor{
		retriever: r,
		chunker:   c,
		threshold: threshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// IngestText stores one document. Text longer than the threshold is split
// into sentence-aware chunks; shorter text is stored whole. Returns the
// number of stored chunks. source may be empty; a generated id is used.
func (i *Ingestor) IngestText(ctx context.Context, text, source, sourceType string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	if source == "" {
		source = "text:" + uuid.New().String()[:8]
	}
	if sourceType == "" {
		sourceType = TypeText
	}

	var chunks []models.Chunk
	if len([]rune(text)) > i.threshold {
		chunks = i.chunker.Chunk(text)
	} else {
		chunks = []models.Chunk{{Text: text, Index: 0}}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))
	for j, ch := range chunks {
		texts[j] = ch.Text
		metadatas[j] = map[string]interface{}{
			models.MetaKeySource: source,
			models.MetaKeyType:   sourceType,
			"chunk_index":        ch.Index,
		}
	}
	if err := i.retriever.AddKnowledge(ctx, texts, metadatas); err != nil {
		return 0, fmt.Errorf("ingest %s: %w", source, err)
	}
	i.logger.Debug("document ingested",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)),
		zap.String("preview", utils.Truncate(text, 80)),
	)
	return len(chunks), nil
}

// IngestFile reads a plain-text file and stores its contents. The
// absolute path becomes the source metadata.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}
	return i.IngestText(ctx, string(data), absPath, TypeFile)
}
