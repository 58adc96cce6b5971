// Package llm provides the answer-generation boundary for the retriever.
package llm

import "context"

// Generator produces a natural-language answer from a prompt and optional
// retrieved context. The retriever works in retrieval-only mode when no
// generator is available.
type Generator interface {
	// Generate answers the prompt. contextText, when non-empty, is the
	// retrieved passages the answer must be grounded in.
	Generate(ctx context.Context, prompt, contextText string) (string, error)
	// Available reports whether the generator can serve requests right now.
	Available(ctx context.Context) bool
}
