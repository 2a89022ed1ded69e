package service

import (
	"math"
	"sort"

	"estatebot/internal/model"
)

// DefaultTopK is the number of matches kept by a ranker built with a non-positive k
const DefaultTopK = 5

// Ranker orders candidate vectors by cosine similarity to a query vector
type Ranker struct {
	topK int
}

// NewRanker creates a ranker keeping the best topK candidates
func NewRanker(topK int) *Ranker {
	if topK < 1 {
		topK = DefaultTopK
	}
	return &Ranker{topK: topK}
}

// K returns how many matches the ranker keeps
func (r *Ranker) K() int {
	return r.topK
}

// TopK returns the indices of the min(K, len(candidates)) most similar
// candidates, best first. Equal scores keep their original index order.
func (r *Ranker) TopK(query []float32, candidates [][]float32) []model.ScoredMatch {
	if len(candidates) == 0 {
		return []model.ScoredMatch{}
	}

	scored := make([]model.ScoredMatch, len(candidates))
	for i, candidate := range candidates {
		scored[i] = model.ScoredMatch{Index: i, Score: CosineSimilarity(query, candidate)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}
	return scored
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|). Vectors of different
// length, with a zero norm, or with non-finite components have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}
