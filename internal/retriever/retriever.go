// Package retriever ties the embedder, vector store, and answer generator
// into the retrieval-augmented question answering façade.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mentora/mentora/internal/embedding"
	"github.com/mentora/mentora/internal/llm"
	"github.com/mentora/mentora/internal/models"
	"github.com/mentora/mentora/internal/store"
)

// DefaultTopK is used when a caller passes a non-positive top-k.
const DefaultTopK = 3

// InsufficientKnowledgeMessage is the terminal answer when retrieval
// finds nothing. It is a normal outcome, not an error.
const InsufficientKnowledgeMessage = "I don't have enough information to answer that yet. " +
	"Try adding some knowledge to my database first!"

// Option configures a Retriever.
type Option func(*Retriever)

// WithGenerator sets an answer generator. Without one the retriever runs
// in retrieval-only mode and Answer returns a formatted context listing.
func WithGenerator(g llm.Generator) Option {
	return func(r *Retriever) { r.generator = g }
}

// WithLogger sets a logger for retrieval events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// Retriever embeds queries and knowledge, delegates storage and ranking
// to the vector store, and assembles answers.
type Retriever struct {
	embedder  embedding.Embedder
	store     *store.VectorStore
	generator llm.Generator
	logger    *zap.Logger
}

// New creates a retriever over the given embedder and store.
func New(embedder embedding.Embedder, s *store.VectorStore, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		store:    s,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddKnowledge batch-embeds texts and stores them. metadatas is optional;
// when present it must have one entry per text. An embedding failure
// aborts the call before anything is written.
func (r *Retriever) AddKnowledge(ctx context.Context, texts []string, metadatas []map[string]interface{}) error {
	if len(texts) == 0 {
		return nil
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed knowledge: %w", err)
	}
	if err := r.store.InsertMany(ctx, texts, vectors, metadatas); err != nil {
		return err
	}
	r.logger.Debug("knowledge added",
		zap.Int("texts", len(texts)),
		zap.Int("total", r.store.Count()),
	)
	return nil
}

// Query embeds the query text once and returns the top-k results, already
// ranked by the store.
func (r *Retriever) Query(ctx context.Context, text string, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.store.Search(ctx, vec, topK)
}

// Answer retrieves context for the question and produces a response. With
// an available generator the answer is generated from the retrieved
// passages; otherwise a deterministic listing of the passages is
// returned. Empty retrieval yields the insufficient-knowledge message.
func (r *Retriever) Answer(ctx context.Context, question string, topK int) (string, error) {
	results, err := r.Query(ctx, question, topK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return InsufficientKnowledgeMessage, nil
	}
	if r.generator != nil && r.generator.Available(ctx) {
		answer, err := r.generator.Generate(ctx, question, contextText(results))
		if err == nil {
			return answer, nil
		}
		r.logger.Warn("answer generation failed, returning retrieved context", zap.Error(err))
	}
	return formatResults(results), nil
}

// Stats reports the knowledge base size, dimension, and active backend.
func (r *Retriever) Stats() models.StoreStats {
	return r.store.Stats()
}

// Clear removes all stored knowledge.
func (r *Retriever) Clear() {
	r.store.Clear()
}

// contextText joins result passages into the block handed to the generator.
func contextText(results []models.SearchResult) string {
	var b strings.Builder
	for i, res := range results {
		fmt.Fprintf(&b, "[%d]", i+1)
		if src, ok := res.Metadata[models.MetaKeySource].(string); ok && src != "" {
			fmt.Fprintf(&b, " (source: %s)", src)
		}
		fmt.Fprintf(&b, " %s\n\n", res.Text)
	}
	return strings.TrimSpace(b.String())
}

// formatResults renders the retrieval-only answer, one passage per entry
// with its similarity score, in ranked order.
func formatResults(results []models.SearchResult) string {
	var b strings.Builder
	b.WriteString("Based on what I know, here's the relevant information:\n\n")
	for i, res := range results {
		fmt.Fprintf(&b, "%d. [Relevance: %.2f]\n   %s\n\n", i+1, res.Score, res.Text)
	}
	return strings.TrimSpace(b.String())
}
