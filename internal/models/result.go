package models

// SearchResult is a single search hit. Score is cosine similarity in [-1, 1];
// higher is better.
type SearchResult struct {
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// StoreStats describes the state of a vector store.
type StoreStats struct {
	Count      int    `json:"count"`
	Dimension  int    `json:"dimension"`
	Backend    string `json:"backend"`
	Persistent bool   `json:"persistent"`
}
