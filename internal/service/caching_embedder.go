package service

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingEmbedder keeps recent query embeddings in memory.
// Batch calls pass straight through since record tables are embedded once.
type CachingEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachingEmbedder wraps inner with an LRU of the given size
func NewCachingEmbedder(inner Embedder, size int) (*CachingEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	return &CachingEmbedder{inner: inner, cache: cache}, nil
}

// Dimensions returns the wrapped embedder's vector length
func (c *CachingEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// EmbedText returns the cached vector for text or embeds and caches it
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := c.cache.Get(text); ok {
		return vector, nil
	}

	vector, err := c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, vector)
	return vector, nil
}

// EmbedTexts delegates to the wrapped embedder
func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.EmbedTexts(ctx, texts)
}

// Len returns the number of cached queries
func (c *CachingEmbedder) Len() int {
	return c.cache.Len()
}
