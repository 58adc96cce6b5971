// Package store coordinates the local fallback index and the remote
// vector database behind one insert/search contract.
package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mentora/mentora/internal/models"
	"github.com/mentora/mentora/internal/vecdb"
	"github.com/mentora/mentora/internal/vector"
)

// BackendState tracks the remote backend's availability. It is probed at
// construction and downgraded on the first remote failure; there is no
// mid-session reconnection.
type BackendState int32

const (
	// StateUnavailable means all operations use only the local index.
	StateUnavailable BackendState = iota
	// StateConnected means the remote backend participates in inserts and searches.
	StateConnected
)

// Backend names reported by Stats.
const (
	backendRemote = "vecdb"
	backendLocal  = "local"
)

// DefaultQuantization is the vector precision requested at index creation.
const DefaultQuantization = "FLOAT32"

// ErrCountMismatch is returned when texts, vectors, and metadatas differ in length.
var ErrCountMismatch = errors.New("texts, vectors, and metadatas must have equal length")

// RemoteIndex is the capability the store needs from a remote backend.
// *vecdb.Client implements it.
type RemoteIndex interface {
	HealthCheck(ctx context.Context) bool
	CreateIndex(ctx context.Context, name string, dimension int, quantization string) error
	Insert(ctx context.Context, name string, records []models.VectorRecord) error
	Search(ctx context.Context, name string, vector []float32, k int) ([]vecdb.Result, error)
}

// Config configures a VectorStore.
type Config struct {
	IndexName    string
	Dimension    int
	Quantization string
	Remote       RemoteIndex // nil disables the remote backend
}

// Option configures a VectorStore.
type Option func(*VectorStore)

// WithLogger sets a logger for backend transitions and skipped ids.
func WithLogger(l *zap.Logger) Option {
	return func(s *VectorStore) { s.logger = l }
}

// VectorStore presents one insert/search contract over two backends. The
// local index is written unconditionally and is the source of truth for
// id-to-text hydration; the remote index is best effort.
type VectorStore struct {
	local     *vector.LocalIndex
	remote    RemoteIndex
	indexName string
	logger    *zap.Logger

	mu        sync.Mutex
	state     BackendState
	idCounter uint64
}

// New creates a vector store. When a remote backend is configured, it is
// probed once: a passing health check followed by a successful index
// creation connects it. Any failure leaves the store local-only; the
// store never fails to construct because the remote is down.
func New(ctx context.Context, cfg Config, opts ...Option) (*VectorStore, error) {
	if cfg.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	local, err := vector.NewLocalIndex(cfg.Dimension)
	if err != nil {
		return nil, err
	}
	if cfg.Quantization == "" {
		cfg.Quantization = DefaultQuantization
	}
	s := &VectorStore{
		local:     local,
		remote:    cfg.Remote,
		indexName: cfg.IndexName,
		logger:    zap.NewNop(),
		state:     StateUnavailable,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.remote != nil {
		if s.remote.HealthCheck(ctx) {
			if err := s.remote.CreateIndex(ctx, cfg.IndexName, cfg.Dimension, cfg.Quantization); err != nil {
				s.logger.Warn("remote index creation failed, using local index only",
					zap.String("index", cfg.IndexName), zap.Error(err))
			} else {
				s.state = StateConnected
				s.logger.Info("connected to remote vector backend", zap.String("index", cfg.IndexName))
			}
		} else {
			s.logger.Warn("remote vector backend not responding, using local index only",
				zap.String("index", cfg.IndexName))
		}
	}
	return s, nil
}

// Insert stores one text with its embedding.
func (s *VectorStore) Insert(ctx context.Context, text string, vec []float32, metadata map[string]interface{}) error {
	return s.InsertMany(ctx, []string{text}, [][]float32{vec}, []map[string]interface{}{metadata})
}

// InsertMany stores texts with their embeddings. The local write is
// unconditional and synchronous; when the remote backend is connected the
// records are additionally written there, and a remote failure degrades
// the backend without undoing the local write or failing the call.
// metadatas may be nil.
func (s *VectorStore) InsertMany(ctx context.Context, texts []string, vectors [][]float32, metadatas []map[string]interface{}) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("%w: %d texts, %d vectors", ErrCountMismatch, len(texts), len(vectors))
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return fmt.Errorf("%w: %d texts, %d metadatas", ErrCountMismatch, len(texts), len(metadatas))
	}
	records := make([]models.VectorRecord, len(texts))
	for i, text := range texts {
		var meta map[string]interface{}
		if metadatas != nil {
			meta = metadatas[i]
		}
		records[i] = models.VectorRecord{
			ID:       s.nextID(text),
			Vector:   vectors[i],
			Text:     text,
			Metadata: meta,
		}
	}
	if err := s.local.InsertMany(records); err != nil {
		return err
	}
	if s.State() == StateConnected {
		if err := s.remote.Insert(ctx, s.indexName, records); err != nil {
			s.degrade("insert", err)
		}
	}
	return nil
}

// Search returns the top-k most similar records. When connected, the
// remote backend ranks and the results are hydrated from the local id
// map; a remote failure or an unusable response falls back to the local
// index within the same call.
func (s *VectorStore) Search(ctx context.Context, query []float32, topK int) ([]models.SearchResult, error) {
	// Reject bad queries up front so an invalid vector behaves the same
	// regardless of backend state.
	if err := s.local.Validate(query); err != nil {
		return nil, err
	}
	if s.State() == StateConnected {
		remoteResults, err := s.remote.Search(ctx, s.indexName, query, topK)
		if err != nil {
			s.degrade("search", err)
		} else {
			results := s.hydrate(remoteResults, topK)
			if len(results) > 0 {
				return results, nil
			}
			if s.local.Len() > 0 {
				s.logger.Debug("remote search returned no usable results, falling back to local index")
			}
		}
	}
	return s.local.Search(query, topK)
}

// hydrate maps remote ids back to local records. Ids with no local
// mapping (stale remote entries) are skipped.
func (s *VectorStore) hydrate(remoteResults []vecdb.Result, topK int) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(remoteResults))
	for _, r := range remoteResults {
		if len(results) == topK {
			break
		}
		rec, ok := s.local.Get(r.ID)
		if !ok {
			s.logger.Debug("remote id has no local mapping, skipping", zap.String("id", r.ID))
			continue
		}
		results = append(results, models.SearchResult{
			Text:     rec.Text,
			Score:    r.Score,
			Metadata: rec.Metadata,
		})
	}
	return results
}

// State returns the current backend state.
func (s *VectorStore) State() BackendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote == nil {
		return StateUnavailable
	}
	return s.state
}

// Count returns the number of records in the store.
func (s *VectorStore) Count() int {
	return s.local.Len()
}

// Dimension returns the fixed vector dimension.
func (s *VectorStore) Dimension() int {
	return s.local.Dimension()
}

// Stats reports the store's size and active backend.
func (s *VectorStore) Stats() models.StoreStats {
	connected := s.State() == StateConnected
	backend := backendLocal
	if connected {
		backend = backendRemote
	}
	return models.StoreStats{
		Count:      s.local.Len(),
		Dimension:  s.local.Dimension(),
		Backend:    backend,
		Persistent: connected,
	}
}

// Clear removes all local records and resets the id counter. The remote
// index is left untouched; subsequent remote hits against cleared ids are
// skipped during hydration.
func (s *VectorStore) Clear() {
	s.local.Clear()
	s.mu.Lock()
	s.idCounter = 0
	s.mu.Unlock()
}

func (s *VectorStore) degrade(op string, err error) {
	s.mu.Lock()
	already := s.state == StateUnavailable
	s.state = StateUnavailable
	s.mu.Unlock()
	if !already {
		s.logger.Warn("remote vector backend failed, degrading to local index",
			zap.String("op", op), zap.Error(err))
	}
}

// nextID derives a unique record id from the text and a monotonic
// counter. Uniqueness only needs to hold for this store's lifetime.
func (s *VectorStore) nextID(text string) string {
	s.mu.Lock()
	n := s.idCounter
	s.idCounter++
	s.mu.Unlock()
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", text, n)))
	return hex.EncodeToString(sum[:])[:16]
}
