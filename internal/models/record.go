// Package models defines core data structures for chunks, vector records, and search results.
package models

// Conventional metadata keys. They are documented, not enforced; callers
// may attach any string-keyed values.
const (
	MetaKeySource = "source"
	MetaKeyType   = "type"
)

// Chunk is a contiguous slice of a source document with a stable extraction order.
type Chunk struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// VectorRecord is the unit stored and searched. The vector length must equal
// the owning index's dimension; the text is kept for result hydration.
type VectorRecord struct {
	ID       string                 `json:"id"`
	Vector   []float32              `json:"vector"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// KnowledgeInput is the input for adding knowledge. Metadatas is optional;
// when present it must have one entry per text.
type KnowledgeInput struct {
	Texts     []string                 `json:"texts"`
	Metadatas []map[string]interface{} `json:"metadatas,omitempty"`
}
