// Package vector provides the in-memory fallback index with exact cosine search.
package vector

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mentora/mentora/internal/models"
	"github.com/mentora/mentora/pkg/utils"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrZeroVector is returned for all-zero vectors, which cannot be normalized.
	ErrZeroVector = errors.New("zero vector cannot be normalized")
)

// LocalIndex is an exact in-memory vector index. Records are kept in
// insertion order with an id map for O(1) lookups; a single lock covers
// insert and search so a scan never observes a partial append.
type LocalIndex struct {
	dimension int
	records   []models.VectorRecord
	norms     [][]float32 // unit-normalized copies, parallel to records
	idToPos   map[string]int
	mu        sync.RWMutex
}

// NewLocalIndex creates an empty index with the given dimension.
func NewLocalIndex(dimension int) (*LocalIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return &LocalIndex{
		dimension: dimension,
		idToPos:   make(map[string]int),
	}, nil
}

// Insert adds one record.
func (l *LocalIndex) Insert(record models.VectorRecord) error {
	return l.InsertMany([]models.VectorRecord{record})
}

// InsertMany adds records in order. All records are validated before any
// is stored, so a rejected batch never mutates the index.
func (l *LocalIndex) InsertMany(records []models.VectorRecord) error {
	for _, r := range records {
		if len(r.Vector) != l.dimension {
			return fmt.Errorf("%w: record %s has %d, index expects %d", ErrDimensionMismatch, r.ID, len(r.Vector), l.dimension)
		}
		if isZero(r.Vector) {
			return fmt.Errorf("%w: record %s", ErrZeroVector, r.ID)
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range records {
		norm := make([]float32, l.dimension)
		copy(norm, r.Vector)
		utils.NormalizeL2(norm)
		l.idToPos[r.ID] = len(l.records)
		l.records = append(l.records, r)
		l.norms = append(l.norms, norm)
	}
	return nil
}

// Validate reports whether vec can serve as a query against this index:
// it must match the index dimension and must not be all zeros.
func (l *LocalIndex) Validate(vec []float32) error {
	if len(vec) != l.dimension {
		return fmt.Errorf("%w: query has %d, index expects %d", ErrDimensionMismatch, len(vec), l.dimension)
	}
	if isZero(vec) {
		return fmt.Errorf("%w: query", ErrZeroVector)
	}
	return nil
}

// Search returns the top-k records by cosine similarity, most similar
// first. Ties are broken by insertion order, earliest first. An empty
// index yields an empty result list.
func (l *LocalIndex) Search(query []float32, k int) ([]models.SearchResult, error) {
	if err := l.Validate(query); err != nil {
		return nil, err
	}
	q := make([]float32, l.dimension)
	copy(q, query)
	utils.NormalizeL2(q)

	l.mu.RLock()
	defer l.mu.RUnlock()
	if k <= 0 || len(l.records) == 0 {
		return []models.SearchResult{}, nil
	}
	scores := make([]float64, len(l.norms))
	for i, vec := range l.norms {
		scores[i] = InnerProduct(q, vec)
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})
	if k > len(order) {
		k = len(order)
	}
	results := make([]models.SearchResult, k)
	for i := 0; i < k; i++ {
		pos := order[i]
		results[i] = models.SearchResult{
			Text:     l.records[pos].Text,
			Score:    scores[pos],
			Metadata: l.records[pos].Metadata,
		}
	}
	return results, nil
}

// Get returns the record with the given id, if present.
func (l *LocalIndex) Get(id string) (models.VectorRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.idToPos[id]
	if !ok {
		return models.VectorRecord{}, false
	}
	return l.records[pos], true
}

// Len returns the number of stored records.
func (l *LocalIndex) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Dimension returns the fixed vector dimension of the index.
func (l *LocalIndex) Dimension() int {
	return l.dimension
}

// Clear removes all records.
func (l *LocalIndex) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.norms = nil
	l.idToPos = make(map[string]int)
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
