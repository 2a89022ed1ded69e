package service

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic bag-of-words embedder. Each token is hashed
// into one of dim buckets and the result is L2-normalised, so texts sharing
// words score a positive cosine similarity. It needs no network access.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder producing vectors of length dim
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim < 1 {
		dim = 1
	}
	return &HashEmbedder{dim: dim}
}

// Dimensions returns the vector length
func (e *HashEmbedder) Dimensions() int {
	return e.dim
}

// EmbedText embeds one text. Text without tokens yields the zero vector.
func (e *HashEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

// EmbedTexts embeds texts in order
func (e *HashEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vector := make([]float32, e.dim)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return vector
	}

	h := fnv.New32a()
	for _, token := range tokens {
		h.Reset()
		h.Write([]byte(token))
		vector[h.Sum32()%uint32(e.dim)]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}
