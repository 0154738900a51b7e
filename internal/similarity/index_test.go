package similarity

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoreBetween(edges []Edge, a, b int64) (float64, bool) {
	for _, e := range edges {
		if (e.IDA == a && e.IDB == b) || (e.IDA == b && e.IDB == a) {
			return e.Score, true
		}
	}
	return 0, false
}

func TestRebuild_SharedTermsAreLinked(t *testing.T) {
	idx := NewIndex()
	snap, stats := idx.Rebuild([]Document{
		{ID: 1, Content: "The cat chased the", Tags: []string{"mouse"}},
		{ID: 2, Content: "A dog chased the too", Tags: []string{"mouse"}},
		{ID: 3, Content: "Completely unrelated sentence about weather"},
	})

	score, ok := scoreBetween(snap.Similarities, 1, 2)
	require.True(t, ok, "documents sharing chased/mouse should be linked")
	assert.Greater(t, score, 0.05)

	_, ok = scoreBetween(snap.Similarities, 1, 3)
	assert.False(t, ok)
	_, ok = scoreBetween(snap.Similarities, 2, 3)
	assert.False(t, ok)

	ranked, err := snap.FindSimilar(3, 0)
	require.NoError(t, err)
	for _, r := range ranked {
		assert.InDelta(t, 0, r.Score, 1e-12)
	}

	assert.Equal(t, 3, stats.Documents)
	assert.Equal(t, 3, stats.Indexed)
	assert.Equal(t, 1, stats.Edges)
}

func TestRebuild_EmptyCorpus(t *testing.T) {
	idx := NewIndex()
	snap, stats := idx.Rebuild(nil)

	assert.Empty(t, snap.Vocabulary)
	assert.Empty(t, snap.IDF)
	assert.Empty(t, snap.Vectors)
	assert.Empty(t, snap.Similarities)
	assert.Equal(t, 0, snap.TotalDocs)
	assert.Equal(t, 0, stats.Edges)
}

func TestRebuild_StopWordOnlyDocument(t *testing.T) {
	idx := NewIndex()
	snap, _ := idx.Rebuild([]Document{
		{ID: 1, Content: "the and of it was"},
		{ID: 2, Content: "the and of it was"},
		{ID: 3, Content: "whale hunt"},
	})

	require.True(t, snap.HasDocument(1))
	for _, v := range snap.Vectors[1] {
		assert.Equal(t, 0.0, v)
	}
	_, ok := scoreBetween(snap.Similarities, 1, 2)
	assert.False(t, ok, "all-zero vectors are never similar")
}

func TestRebuild_Invariants(t *testing.T) {
	docs := []Document{
		{ID: 10, Content: "river crossing at dawn"},
		{ID: 11, Content: "dawn patrol along the river"},
		{ID: 12, Content: "the river remembers"},
		{ID: 13, Content: "crossing swords at the duel"},
		{ID: 14, Content: "a letter never sent"},
		{ID: 15, Content: "letter from the river"},
	}
	idx := NewIndex()
	snap, _ := idx.Rebuild(docs)

	require.NotEmpty(t, snap.Similarities)
	for _, e := range snap.Similarities {
		assert.NotEqual(t, e.IDA, e.IDB, "self-similarity must never be materialized")
		assert.Greater(t, e.Score, DefaultThreshold)
		assert.LessOrEqual(t, e.Score, 1.0)
	}
	for term := range snap.Vocabulary {
		_, ok := snap.IDF[term]
		assert.True(t, ok, "term %q missing idf", term)
	}
	for id, vec := range snap.Vectors {
		assert.Len(t, vec, len(snap.Terms), "vector for %d has wrong length", id)
	}
}

func TestRebuild_CustomThreshold(t *testing.T) {
	docs := []Document{
		{ID: 1, Content: "moon tide harbour"},
		{ID: 2, Content: "moon festival lantern parade music"},
		{ID: 3, Content: "moon tide harbour"},
	}
	loose := NewIndex(WithThreshold(0.0))
	strict := NewIndex(WithThreshold(0.9))

	looseSnap, _ := loose.Rebuild(docs)
	strictSnap, _ := strict.Rebuild(docs)

	assert.Len(t, looseSnap.Similarities, 3)
	require.Len(t, strictSnap.Similarities, 1)
	assert.Equal(t, int64(1), strictSnap.Similarities[0].IDA)
	assert.Equal(t, int64(3), strictSnap.Similarities[0].IDB)
	assert.InDelta(t, 1.0, strictSnap.Similarities[0].Score, 1e-12)
}

func TestRebuild_Idempotent(t *testing.T) {
	docs := []Document{
		{ID: 1, Content: "old house on the hill", Tags: []string{"setting"}},
		{ID: 2, Content: "the hill burns in summer"},
		{ID: 3, Content: "house of cards"},
	}
	idx := NewIndex()
	first, _ := idx.Rebuild(docs)
	second, _ := idx.Rebuild(docs)

	assert.Equal(t, first.Vocabulary, second.Vocabulary)
	assert.Equal(t, first.IDF, second.IDF)
	assert.Equal(t, first.Terms, second.Terms)
	assert.Equal(t, first.Vectors, second.Vectors)
	assert.Equal(t, first.Similarities, second.Similarities)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Greater(t, second.Generation, first.Generation)
}

func TestAddAndRemoveMatchRebuild(t *testing.T) {
	base := []Document{
		{ID: 1, Content: "ship in a bottle"},
		{ID: 2, Content: "bottle of ink spilled"},
	}
	added := Document{ID: 3, Content: "ink stains on the ship log"}
	all := append(append([]Document{}, base...), added)

	inc := NewIndex()
	inc.Rebuild(base)
	afterAdd := inc.AddToIndex(added, all)

	full := NewIndex()
	expected, _ := full.Rebuild(all)
	assert.Equal(t, expected.Similarities, afterAdd.Similarities)
	assert.Equal(t, expected.Vectors, afterAdd.Vectors)

	afterRemove := inc.RemoveFromIndex(3, base)
	baseline, _ := NewIndex().Rebuild(base)
	assert.Equal(t, baseline.Similarities, afterRemove.Similarities)
	assert.False(t, afterRemove.HasDocument(3))
}

func TestRebuild_SkipsUnassignedIDs(t *testing.T) {
	idx := NewIndex()
	snap, stats := idx.Rebuild([]Document{
		{ID: 0, Content: "draft without id"},
		{ID: 5, Content: "draft with id"},
	})
	assert.Equal(t, 2, snap.TotalDocs, "unassigned documents still count toward corpus size")
	assert.False(t, snap.HasDocument(0))
	assert.True(t, snap.HasDocument(5))
	assert.Equal(t, 1, stats.Skipped)
}

func TestReset(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]Document{{ID: 1, Content: "alpha beta"}, {ID: 2, Content: "alpha gamma"}})
	require.NotEmpty(t, idx.Similarities())

	idx.Reset()
	assert.Empty(t, idx.Similarities())
	assert.Empty(t, idx.Snapshot().Vectors)
}

func TestConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	idx := NewIndex()
	small := []Document{{ID: 1, Content: "alpha beta"}, {ID: 2, Content: "alpha beta"}}
	large := []Document{
		{ID: 1, Content: "alpha beta"}, {ID: 2, Content: "alpha beta"},
		{ID: 3, Content: "alpha beta"}, {ID: 4, Content: "alpha beta"},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if i%2 == 0 {
				idx.Rebuild(small)
			} else {
				idx.Rebuild(large)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := idx.Snapshot()
			n := len(snap.Order)
			// every pair of identical documents is linked
			if len(snap.Similarities) != n*(n-1)/2 {
				t.Errorf("observed partial snapshot: %d docs, %d edges", n, len(snap.Similarities))
				return
			}
		}
	}()
	wg.Wait()
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "similarity.gob")

	idx := NewIndex()
	snap, _ := idx.Rebuild([]Document{
		{ID: 1, Content: "paper boats"},
		{ID: 2, Content: "paper lanterns"},
	})
	require.NoError(t, snap.Save(path))
	assert.True(t, Exists(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Fingerprint, loaded.Fingerprint)
	assert.Equal(t, snap.Terms, loaded.Terms)
	assert.Equal(t, snap.Similarities, loaded.Similarities)
	assert.Equal(t, snap.Vectors, loaded.Vectors)

	other := NewIndex()
	require.NoError(t, other.Restore(loaded))
	assert.Equal(t, snap.Similarities, other.Similarities())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.gob"))
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "similarity.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "similarity.gob")
	snap := emptySnapshot(1, DefaultThreshold)
	snap.Version = CurrentIndexVersion + 1
	require.NoError(t, snap.Save(path))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestFingerprint(t *testing.T) {
	a := []Document{{ID: 1, Content: "x"}}
	b := []Document{{ID: 1, Content: "y"}}
	c := []Document{{ID: 1, Content: "x", Tags: []string{"t"}}}
	assert.Equal(t, Fingerprint(a), Fingerprint(a))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}
