package similarity

import (
	"math"
	"sort"
)

// CosineSimilarity computes dot(a,b)/(|a||b|). It returns 0 for vectors of
// different or zero length and when either vector has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}
	return dot / denominator
}

// Similarities returns every materialized edge of the current generation.
func (idx *Index) Similarities() []Edge {
	return idx.Snapshot().Similarities
}

// Above returns the edges whose score is strictly greater than min.
// Consumers use it to apply their own display cutoff.
func (s *Snapshot) Above(min float64) []Edge {
	out := make([]Edge, 0, len(s.Similarities))
	for _, e := range s.Similarities {
		if e.Score > min {
			out = append(out, e)
		}
	}
	return out
}

// HasDocument checks if a document has a vector in this generation.
func (s *Snapshot) HasDocument(id int64) bool {
	_, ok := s.Vectors[id]
	return ok
}

// Neighbors returns the materialized edges touching id.
func (s *Snapshot) Neighbors(id int64) []Edge {
	var out []Edge
	for _, e := range s.Similarities {
		if e.IDA == id || e.IDB == id {
			out = append(out, e)
		}
	}
	return out
}

// FindSimilar ranks every other indexed document by similarity to id,
// regardless of threshold. The source document is excluded.
func (s *Snapshot) FindSimilar(id int64, limit int) ([]Edge, error) {
	vec, ok := s.Vectors[id]
	if !ok {
		return nil, ErrDocumentNotIndexed
	}

	results := make([]Edge, 0, len(s.Order))
	for _, other := range s.Order {
		if other == id {
			continue
		}
		results = append(results, Edge{
			IDA:   id,
			IDB:   other,
			Score: clampScore(CosineSimilarity(vec, s.Vectors[other])),
		})
	}

	// Sort by score descending, ties by id for stable output
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].IDB < results[j].IDB
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
