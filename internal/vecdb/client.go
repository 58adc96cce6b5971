// Package vecdb is a REST client for the remote vector database service.
package vecdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mentora/mentora/internal/models"
)

// Per-operation timeouts. Health checks stay short so an unreachable
// backend is detected quickly; bulk inserts get the most time.
const (
	healthTimeout = 2 * time.Second
	createTimeout = 10 * time.Second
	insertTimeout = 30 * time.Second
	searchTimeout = 10 * time.Second
	deleteTimeout = 10 * time.Second
)

// Result is a single remote search hit. The id is resolved back to its
// text through the caller's local record map.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Client is a thin HTTP client for the vector database API. It does not
// retry; retry and fallback policy belong to the vector store.
type Client struct {
	baseURL   string
	authToken string
	client    *http.Client
}

// New creates a client for the service at baseURL. authToken is optional.
func New(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		client:    &http.Client{},
	}
}

// HealthCheck reports whether the service is reachable and healthy.
// It never returns an error; any failure resolves to false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	c.setHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// CreateIndex ensures an index with the given name and dimension exists.
// The server returns 200 both on creation and when the index already
// exists, so the call is idempotent.
func (c *Client) CreateIndex(ctx context.Context, name string, dimension int, quantization string) error {
	ctx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()
	body := map[string]interface{}{
		"index_name":   name,
		"dimension":    dimension,
		"quantization": quantization,
	}
	return c.post(ctx, "/index/create", body, nil)
}

// Insert stores the records' ids and vectors in the named index.
func (c *Client) Insert(ctx context.Context, name string, records []models.VectorRecord) error {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()
	payload := make([]map[string]interface{}, len(records))
	for i, r := range records {
		payload[i] = map[string]interface{}{
			"id":     r.ID,
			"vector": r.Vector,
		}
	}
	return c.post(ctx, fmt.Sprintf("/index/%s/vector/insert", name), payload, nil)
}

// Search returns the top-k nearest ids with scores. A response that
// cannot be parsed into the expected shape is a search failure.
func (c *Client) Search(ctx context.Context, name string, vector []float32, k int) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	body := map[string]interface{}{
		"vector":          vector,
		"k":               k,
		"include_vectors": false,
	}
	var resp struct {
		Results []Result `json:"results"`
	}
	if err := c.post(ctx, fmt.Sprintf("/index/%s/search", name), body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// DeleteIndex removes the named index.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/index/"+name, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vecdb DELETE /index/%s: status %d", name, resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vecdb POST %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("vecdb POST %s: decode response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}
}
