package vector

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/mentora/mentora/internal/models"
)

func TestLocalIndex_InsertSearch(t *testing.T) {
	idx, err := NewLocalIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	records := []models.VectorRecord{
		{ID: "a", Vector: []float32{1, 0, 0}, Text: "alpha"},
		{ID: "b", Vector: []float32{0, 1, 0}, Text: "beta"},
		{ID: "c", Vector: []float32{0.9, 0.1, 0}, Text: "gamma"},
	}
	if err := idx.InsertMany(records); err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 3 {
		t.Fatalf("Len = %d", idx.Len())
	}

	results, err := idx.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "alpha" || results[1].Text != "gamma" {
		t.Errorf("order = [%s, %s], want [alpha, gamma]", results[0].Text, results[1].Text)
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("self-similarity = %f, want 1.0", results[0].Score)
	}
	if math.Abs(results[1].Score-0.9938837) > 1e-4 {
		t.Errorf("score(gamma) = %f, want ~0.994", results[1].Score)
	}
}

func TestLocalIndex_SelfQueryTopResult(t *testing.T) {
	idx, _ := NewLocalIndex(4)
	_ = idx.InsertMany([]models.VectorRecord{
		{ID: "x", Vector: []float32{0.3, -0.2, 0.9, 0.1}, Text: "x"},
		{ID: "y", Vector: []float32{-0.5, 0.5, 0, 0.7}, Text: "y"},
	})
	results, err := idx.Search([]float32{0.3, -0.2, 0.9, 0.1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Text != "x" || math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("self query: got %s score %f", results[0].Text, results[0].Score)
	}
}

func TestLocalIndex_EmptySearch(t *testing.T) {
	idx, _ := NewLocalIndex(2)
	results, err := idx.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty index should return empty results, got %v", results)
	}
}

func TestLocalIndex_RejectsDimensionMismatch(t *testing.T) {
	idx, _ := NewLocalIndex(3)
	err := idx.Insert(models.VectorRecord{ID: "bad", Vector: []float32{1, 0}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("error = %v, want ErrDimensionMismatch", err)
	}
	if idx.Len() != 0 {
		t.Error("rejected insert must not mutate the index")
	}
	if _, err := idx.Search([]float32{1}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("search error = %v, want ErrDimensionMismatch", err)
	}
}

func TestLocalIndex_RejectsZeroVector(t *testing.T) {
	idx, _ := NewLocalIndex(2)
	err := idx.Insert(models.VectorRecord{ID: "z", Vector: []float32{0, 0}})
	if !errors.Is(err, ErrZeroVector) {
		t.Errorf("error = %v, want ErrZeroVector", err)
	}
	if idx.Len() != 0 {
		t.Error("rejected insert must not mutate the index")
	}
}

func TestLocalIndex_BatchValidationIsAtomic(t *testing.T) {
	idx, _ := NewLocalIndex(2)
	err := idx.InsertMany([]models.VectorRecord{
		{ID: "ok", Vector: []float32{1, 0}},
		{ID: "bad", Vector: []float32{1, 0, 0}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if idx.Len() != 0 {
		t.Errorf("partially applied batch: Len = %d", idx.Len())
	}
}

func TestLocalIndex_TieBreakInsertionOrder(t *testing.T) {
	idx, _ := NewLocalIndex(2)
	// Identical vectors under different ids: scores tie exactly, so
	// ranking must follow insertion order.
	_ = idx.InsertMany([]models.VectorRecord{
		{ID: "first", Vector: []float32{1, 1}, Text: "first"},
		{ID: "second", Vector: []float32{2, 2}, Text: "second"},
		{ID: "third", Vector: []float32{0.5, 0.5}, Text: "third"},
	})
	results, err := idx.Search([]float32{1, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if results[i].Text != w {
			t.Errorf("rank %d = %s, want %s", i, results[i].Text, w)
		}
	}
}

func TestLocalIndex_ScoresUnnormalizedInput(t *testing.T) {
	idx, _ := NewLocalIndex(2)
	// Stored vectors are normalized at insert, so magnitude must not
	// affect ranking.
	_ = idx.InsertMany([]models.VectorRecord{
		{ID: "big", Vector: []float32{100, 0}, Text: "big"},
		{ID: "small", Vector: []float32{0, 0.001}, Text: "small"},
	})
	results, _ := idx.Search([]float32{3, 0}, 2)
	if results[0].Text != "big" || math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("got %s score %f", results[0].Text, results[0].Score)
	}
}

func TestLocalIndex_Get(t *testing.T) {
	idx, _ := NewLocalIndex(2)
	meta := map[string]interface{}{"source": "notes.txt"}
	_ = idx.Insert(models.VectorRecord{ID: "r1", Vector: []float32{1, 0}, Text: "hello", Metadata: meta})
	rec, ok := idx.Get("r1")
	if !ok || rec.Text != "hello" || rec.Metadata["source"] != "notes.txt" {
		t.Errorf("Get = %v, %v", rec, ok)
	}
	if _, ok := idx.Get("missing"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestLocalIndex_Clear(t *testing.T) {
	idx, _ := NewLocalIndex(2)
	_ = idx.Insert(models.VectorRecord{ID: "r1", Vector: []float32{1, 0}})
	idx.Clear()
	if idx.Len() != 0 {
		t.Errorf("Len after Clear = %d", idx.Len())
	}
	if _, ok := idx.Get("r1"); ok {
		t.Error("Get should miss after Clear")
	}
}

func TestLocalIndex_ConcurrentInsertSearch(t *testing.T) {
	idx, _ := NewLocalIndex(4)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = idx.Insert(models.VectorRecord{
					ID:     string(rune('a'+n)) + string(rune('0'+j%10)),
					Vector: []float32{1, float32(n), float32(j), 1},
					Text:   "t",
				})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := idx.Search([]float32{1, 1, 1, 1}, 5); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestInnerProduct(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical unit vectors", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"unnormalized", []float32{2, 3}, []float32{4, 5}, 23},
		{"mismatched length", []float32{1}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InnerProduct(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("InnerProduct = %f, want %f", got, tt.want)
			}
		})
	}
}
