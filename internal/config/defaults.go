package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.VectorDB.URL == "" {
		cfg.VectorDB.URL = "http://localhost:8081"
	}
	if cfg.VectorDB.IndexName == "" {
		cfg.VectorDB.IndexName = "mentora_knowledge"
	}
	if cfg.VectorDB.Quantization == "" {
		cfg.VectorDB.Quantization = "FLOAT32"
	}
	if cfg.VectorDB.AuthTokenEnv == "" {
		cfg.VectorDB.AuthTokenEnv = "VECTORDB_AUTH_TOKEN"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama3.2"
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 3
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 50
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 100
	}
	if cfg.Ingest.ChunkThreshold == 0 {
		cfg.Ingest.ChunkThreshold = 5000
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
