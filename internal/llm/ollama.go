package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"

	availableTimeout = 2 * time.Second
	generateTimeout  = 60 * time.Second
)

// ragPromptTemplate grounds the model in the retrieved passages and
// instructs it to admit when they are insufficient.
const ragPromptTemplate = `You are a helpful AI assistant. Use the provided context information to answer the user's question accurately.

CONTEXT FROM DOCUMENTS:
%s

USER QUESTION: %s

INSTRUCTIONS:
- Answer ONLY using information from the context above
- If the context contains relevant information, provide a detailed answer
- Be specific and reference the source document
- If the context lacks information, clearly state "The uploaded documents don't contain information about this"

ANSWER:`

// OllamaGenerator generates answers via a local Ollama server.
type OllamaGenerator struct {
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewOllamaGenerator creates a generator for the given Ollama server and model.
func NewOllamaGenerator(baseURL, model string) *OllamaGenerator {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaGenerator{
		baseURL:     baseURL,
		model:       model,
		maxTokens:   500,
		temperature: 0.7,
		client:      &http.Client{Timeout: generateTimeout},
	}
}

// Available reports whether the Ollama server responds to a tags probe.
func (g *OllamaGenerator) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availableTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Generate answers the prompt, grounded in contextText when provided.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt, contextText string) (string, error) {
	fullPrompt := prompt
	if contextText != "" {
		fullPrompt = fmt.Sprintf(ragPromptTemplate, contextText, prompt)
	}
	body, _ := json.Marshal(map[string]interface{}{
		"model":  g.model,
		"prompt": fullPrompt,
		"stream": false,
		"options": map[string]interface{}{
			"num_predict": g.maxTokens,
			"temperature": g.temperature,
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama generate: status %d", resp.StatusCode)
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama generate decode: %w", err)
	}
	return out.Response, nil
}
