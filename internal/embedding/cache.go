package embedding

import (
	"container/list"
	"context"
	"sync"
)

// EmbeddingCache is an LRU cache for embeddings keyed by text. Every hit
// moves the entry to the front of the eviction list, so reads mutate the
// list too; one mutex covers Get and Set.
type EmbeddingCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value []float32
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached embedding for key if present.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Set stores the embedding for key, evicting the oldest entry if at capacity.
func (c *EmbeddingCache) Set(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	entry := &cacheEntry{key: key, value: value}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// CachedEmbedder wraps an Embedder with an LRU cache so repeated texts
// (duplicate chunks, repeated queries) are embedded once.
type CachedEmbedder struct {
	inner Embedder
	cache *EmbeddingCache
}

// NewCachedEmbedder wraps inner with a cache of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int) *CachedEmbedder {
	if capacity <= 0 {
		capacity = 10000
	}
	return &CachedEmbedder{inner: inner, cache: NewEmbeddingCache(capacity)}
}

// Embed returns the cached embedding for text, embedding and caching on a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if emb, ok := c.cache.Get(text); ok {
		return emb, nil
	}
	emb, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, emb)
	return emb, nil
}

// EmbedBatch embeds only the texts missing from the cache, preserving order.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if emb, ok := c.cache.Get(text); ok {
			embeddings[i] = emb
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return embeddings, nil
	}
	fresh, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, emb := range fresh {
		c.cache.Set(missing[j], emb)
		embeddings[missingIdx[j]] = emb
	}
	return embeddings, nil
}

// Dimensions returns the wrapped embedder's dimension.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the wrapped embedder.
func (c *CachedEmbedder) Close() error {
	return c.inner.Close()
}
