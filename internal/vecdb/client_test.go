package vecdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mentora/mentora/internal/models"
)

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if !c.HealthCheck(context.Background()) {
		t.Error("expected healthy")
	}
}

func TestHealthCheck_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	if c.HealthCheck(context.Background()) {
		t.Error("expected unhealthy for unreachable server")
	}
}

func TestHealthCheck_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if New(srv.URL, "").HealthCheck(context.Background()) {
		t.Error("expected unhealthy for non-200 status")
	}
}

func TestCreateIndex(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/index/create" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "token123")
	if err := c.CreateIndex(context.Background(), "study", 384, "FLOAT32"); err != nil {
		t.Fatal(err)
	}
	if got["index_name"] != "study" || got["dimension"] != float64(384) || got["quantization"] != "FLOAT32" {
		t.Errorf("create payload = %v", got)
	}
}

func TestInsert(t *testing.T) {
	var auth string
	var got []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/index/study/vector/insert" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "token123")
	records := []models.VectorRecord{
		{ID: "r1", Vector: []float32{1, 0}, Text: "not sent"},
		{ID: "r2", Vector: []float32{0, 1}},
	}
	if err := c.Insert(context.Background(), "study", records); err != nil {
		t.Fatal(err)
	}
	if auth != "token123" {
		t.Errorf("authorization = %q", auth)
	}
	if len(got) != 2 || got[0]["id"] != "r1" {
		t.Errorf("insert payload = %v", got)
	}
	if _, hasText := got[0]["text"]; hasText {
		t.Error("insert payload must carry only id and vector")
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Vector         []float32 `json:"vector"`
			K              int       `json:"k"`
			IncludeVectors bool      `json:"include_vectors"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.K != 3 || req.IncludeVectors {
			t.Errorf("search request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": "a", "score": 0.99},
				{"id": "b", "score": 0.42},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	results, err := c.Search(context.Background(), "study", []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].ID != "a" || results[0].Score != 0.99 {
		t.Errorf("results = %v", results)
	}
}

func TestSearch_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not json"))
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "").Search(context.Background(), "study", []float32{1}, 1); err == nil {
		t.Error("expected error for unparseable response")
	}
}

func TestInsert_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "dimension mismatch", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := New(srv.URL, "").Insert(context.Background(), "study", []models.VectorRecord{{ID: "x", Vector: []float32{1}}})
	if err == nil {
		t.Error("expected error for 400 status")
	}
}

func TestDeleteIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/index/study" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := New(srv.URL, "").DeleteIndex(context.Background(), "study"); err != nil {
		t.Fatal(err)
	}
}
