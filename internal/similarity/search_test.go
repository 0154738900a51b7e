package similarity

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float64{1, 0, 0},
			b:        []float64{1, 0, 0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float64{1, 0},
			b:        []float64{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float64{1, 0},
			b:        []float64{-1, 0},
			expected: -1.0,
		},
		{
			name:     "similar vectors",
			a:        []float64{1, 1},
			b:        []float64{1, 0},
			expected: math.Sqrt2 / 2,
		},
		{
			name:     "empty vectors",
			a:        []float64{},
			b:        []float64{},
			expected: 0.0,
		},
		{
			name:     "different lengths",
			a:        []float64{1, 0},
			b:        []float64{1, 0, 0},
			expected: 0.0,
		},
		{
			name:     "zero vector b",
			a:        []float64{1, 0, 0},
			b:        []float64{0, 0, 0},
			expected: 0.0,
		},
		{
			name:     "both zero",
			a:        []float64{0, 0},
			b:        []float64{0, 0},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.expected)
			}
			reverse := CosineSimilarity(tt.b, tt.a)
			if got != reverse {
				t.Errorf("CosineSimilarity not symmetric: %v vs %v", got, reverse)
			}
		})
	}
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	vectors := [][]float64{
		{0.3, 1.7, 0, 2.2},
		{1e-6, 0, 0},
		{5, 5, 5, 5, 5},
	}
	for _, v := range vectors {
		if got := CosineSimilarity(v, v); math.Abs(got-1) > 1e-12 {
			t.Errorf("CosineSimilarity(v, v) = %v, want 1", got)
		}
	}
}

func TestFindSimilar(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]Document{
		{ID: 1, Content: "lighthouse keeper storm"},
		{ID: 2, Content: "storm lighthouse wreck"},
		{ID: 3, Content: "garden party gossip"},
		{ID: 4, Content: "keeper storm"},
	})
	snap := idx.Snapshot()

	t.Run("ranks by score and excludes source", func(t *testing.T) {
		results, err := snap.FindSimilar(1, 0)
		if err != nil {
			t.Fatalf("FindSimilar failed: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		for i, r := range results {
			if r.IDB == 1 {
				t.Error("source document should be excluded")
			}
			if i > 0 && results[i-1].Score < r.Score {
				t.Error("results not sorted by score descending")
			}
		}
		if results[len(results)-1].IDB != 3 {
			t.Errorf("unrelated document should rank last, got %d", results[len(results)-1].IDB)
		}
	})

	t.Run("applies limit", func(t *testing.T) {
		results, err := snap.FindSimilar(1, 2)
		if err != nil {
			t.Fatalf("FindSimilar failed: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("expected 2 results, got %d", len(results))
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		if _, err := snap.FindSimilar(99, 5); err != ErrDocumentNotIndexed {
			t.Errorf("expected ErrDocumentNotIndexed, got %v", err)
		}
	})
}

func TestSnapshot_AboveAndNeighbors(t *testing.T) {
	snap := &Snapshot{Similarities: []Edge{
		{IDA: 1, IDB: 2, Score: 0.08},
		{IDA: 1, IDB: 3, Score: 0.5},
		{IDA: 2, IDB: 3, Score: 0.1},
	}}

	above := snap.Above(0.1)
	if len(above) != 1 || above[0].IDB != 3 || above[0].IDA != 1 {
		t.Errorf("Above(0.1) = %v, want only 1-3", above)
	}

	n := snap.Neighbors(3)
	if len(n) != 2 {
		t.Errorf("Neighbors(3) returned %d edges, want 2", len(n))
	}
	if got := n[0].Other(3); got != 1 {
		t.Errorf("Other(3) = %d, want 1", got)
	}
}
