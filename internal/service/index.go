package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"
)

// EmbeddingStore persists record embeddings between runs, keyed by model and text hash
type EmbeddingStore interface {
	Lookup(ctx context.Context, model string, hashes []string) (map[string][]float32, error)
	Store(ctx context.Context, model string, vectors map[string][]float32) error
}

// VectorIndex holds one precomputed vector per record, in record order
type VectorIndex struct {
	vectors [][]float32
}

// NewVectorIndex wraps vectors that were computed elsewhere
func NewVectorIndex(vectors [][]float32) *VectorIndex {
	return &VectorIndex{vectors: vectors}
}

// Len returns the number of indexed records
func (v *VectorIndex) Len() int {
	return len(v.vectors)
}

// Vectors returns the indexed vectors. Callers must not modify them.
func (v *VectorIndex) Vectors() [][]float32 {
	return v.vectors
}

type indexOptions struct {
	store  EmbeddingStore
	model  string
	logger zerolog.Logger
}

// IndexOption configures BuildIndex
type IndexOption func(*indexOptions)

// WithEmbeddingStore reuses vectors for texts already embedded by model
func WithEmbeddingStore(store EmbeddingStore, model string) IndexOption {
	return func(o *indexOptions) {
		o.store = store
		o.model = model
	}
}

// WithIndexLogger sets the logger used while building
func WithIndexLogger(logger zerolog.Logger) IndexOption {
	return func(o *indexOptions) {
		o.logger = logger
	}
}

// BuildIndex embeds every text once. Duplicate texts are embedded a single time,
// and with a store only texts it has not seen are sent to the embedder.
// Store failures are logged and never fail the build.
func BuildIndex(ctx context.Context, embedder Embedder, texts []string, opts ...IndexOption) (*VectorIndex, error) {
	o := indexOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	hashes := make([]string, len(texts))
	var unique []string
	seen := make(map[string]bool, len(texts))
	for i, text := range texts {
		hashes[i] = HashText(text)
		if !seen[hashes[i]] {
			seen[hashes[i]] = true
			unique = append(unique, hashes[i])
		}
	}

	known := map[string][]float32{}
	if o.store != nil && len(unique) > 0 {
		found, err := o.store.Lookup(ctx, o.model, unique)
		if err != nil {
			o.logger.Warn().Err(err).Msg("embedding cache lookup failed, embedding all records")
		} else {
			known = found
		}
	}

	var missingTexts []string
	var missingHashes []string
	for i, text := range texts {
		if _, ok := known[hashes[i]]; ok {
			continue
		}
		known[hashes[i]] = nil
		missingTexts = append(missingTexts, text)
		missingHashes = append(missingHashes, hashes[i])
	}

	if len(missingTexts) > 0 {
		vectors, err := embedder.EmbedTexts(ctx, missingTexts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed records: %w", err)
		}
		if len(vectors) != len(missingTexts) {
			return nil, fmt.Errorf("%w: requested %d, got %d", ErrEmbeddingCount, len(missingTexts), len(vectors))
		}

		fresh := make(map[string][]float32, len(vectors))
		for j, vector := range vectors {
			known[missingHashes[j]] = vector
			fresh[missingHashes[j]] = vector
		}

		if o.store != nil {
			if err := o.store.Store(ctx, o.model, fresh); err != nil {
				o.logger.Warn().Err(err).Msg("failed to cache record embeddings")
			}
		}
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = known[hashes[i]]
	}

	o.logger.Info().
		Int("records", len(texts)).
		Int("embedded", len(missingTexts)).
		Int("cached", len(unique)-len(missingTexts)).
		Msg("vector index built")

	return NewVectorIndex(vectors), nil
}

// HashText returns the hex SHA-256 of text, used as the embedding cache key
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
