package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want localhost", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.VectorDB.Quantization != "FLOAT32" {
		t.Errorf("VectorDB.Quantization = %q, want FLOAT32", cfg.VectorDB.Quantization)
	}
	if cfg.VectorDB.IndexName != "mentora_knowledge" {
		t.Errorf("VectorDB.IndexName = %q", cfg.VectorDB.IndexName)
	}
	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("Embedding.Provider = %q, want ollama", cfg.Embedding.Provider)
	}
	if cfg.Retrieval.DefaultTopK != 3 {
		t.Errorf("Retrieval.DefaultTopK = %d, want 3", cfg.Retrieval.DefaultTopK)
	}
	if cfg.Ingest.ChunkSize != 1000 || cfg.Ingest.ChunkOverlap != 100 {
		t.Errorf("Ingest chunking = %d/%d, want 1000/100", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Ingest.ChunkThreshold != 5000 {
		t.Errorf("Ingest.ChunkThreshold = %d, want 5000", cfg.Ingest.ChunkThreshold)
	}
	if len(cfg.Watch.Extensions) == 0 {
		t.Error("Watch.Extensions should have defaults")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Retrieval.DefaultTopK = 7
	cfg.VectorDB.Enabled = true
	ApplyDefaults(cfg)

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Retrieval.DefaultTopK != 7 {
		t.Errorf("Retrieval.DefaultTopK = %d, want 7", cfg.Retrieval.DefaultTopK)
	}
	if !cfg.VectorDB.Enabled {
		t.Error("VectorDB.Enabled should stay true")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
vectordb:
  enabled: true
  url: http://vecdb:8081
  index_name: study_notes
embedding:
  provider: mock
  dimensions: 8
llm:
  enabled: true
watch:
  directories:
    - ./notes
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, defaults should still apply", cfg.Server.Host)
	}
	if !cfg.VectorDB.Enabled || cfg.VectorDB.URL != "http://vecdb:8081" {
		t.Errorf("VectorDB = %+v", cfg.VectorDB)
	}
	if cfg.VectorDB.IndexName != "study_notes" {
		t.Errorf("VectorDB.IndexName = %q, want study_notes", cfg.VectorDB.IndexName)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimensions != 8 {
		t.Errorf("Embedding = %+v", cfg.Embedding)
	}
	if !cfg.LLM.Enabled || cfg.LLM.Model != "llama3.2" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}

	want := filepath.Join(dir, "notes")
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != want {
		t.Errorf("Watch.Directories = %v, want [%s]", cfg.Watch.Directories, want)
	}
	if !cfg.Watch.RecursiveOrDefault() {
		t.Error("Recursive should default to true when directories configured")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Server.Port = 8181
	cfg.Watch.Directories = []string{"/tmp/study"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181", loaded.Server.Port)
	}
	if len(loaded.Watch.Directories) != 1 || loaded.Watch.Directories[0] != "/tmp/study" {
		t.Errorf("Watch.Directories = %v", loaded.Watch.Directories)
	}
}

func TestRecursiveOrDefault(t *testing.T) {
	w := &WatchConfig{}
	if !w.RecursiveOrDefault() {
		t.Error("unset should default to true")
	}
	f := false
	w.Recursive = &f
	if w.RecursiveOrDefault() {
		t.Error("explicit false should be honored")
	}
}
