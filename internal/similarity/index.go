package similarity

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matsen/sutra/internal/text"
	"github.com/matsen/sutra/internal/tfidf"
	"go.uber.org/zap"
)

// Errors returned by index operations.
var (
	ErrIndexNotFound      = errors.New("similarity index not found")
	ErrDocumentNotIndexed = errors.New("document not in similarity index")
	ErrUnsupportedVersion = errors.New("unsupported index version")
)

const (
	// DefaultThreshold is the minimum score (exclusive) for an edge to be kept.
	DefaultThreshold = 0.05

	// CurrentIndexVersion is bumped on breaking changes to the cache format.
	CurrentIndexVersion = 1
)

// Index holds the latest similarity snapshot. Rebuilds are serialized and
// publish a complete snapshot atomically, so readers never see partial state.
type Index struct {
	threshold float64
	logger    *zap.Logger

	mu         sync.Mutex // serializes rebuilds
	generation uint64
	current    atomic.Pointer[Snapshot]
}

// Option configures an Index.
type Option func(*Index)

// WithThreshold sets the materialization threshold.
func WithThreshold(t float64) Option {
	return func(idx *Index) { idx.threshold = t }
}

// WithLogger sets the logger used for rebuild diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Index) {
		if l != nil {
			idx.logger = l
		}
	}
}

// NewIndex creates an empty index.
func NewIndex(opts ...Option) *Index {
	idx := &Index{
		threshold: DefaultThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.current.Store(emptySnapshot(0, idx.threshold))
	return idx
}

func emptySnapshot(gen uint64, threshold float64) *Snapshot {
	return &Snapshot{
		Version:      CurrentIndexVersion,
		Generation:   gen,
		Threshold:    threshold,
		BuiltAt:      time.Now(),
		Vocabulary:   map[string]int{},
		IDF:          map[string]float64{},
		Terms:        []string{},
		Vectors:      map[int64][]float64{},
		Order:        []int64{},
		Similarities: []Edge{},
	}
}

// Threshold returns the materialization threshold.
func (idx *Index) Threshold() float64 {
	return idx.threshold
}

// Snapshot returns the current generation. The returned value must be
// treated as read-only.
func (idx *Index) Snapshot() *Snapshot {
	return idx.current.Load()
}

// Rebuild recomputes vocabulary, IDF, vectors and pairwise similarities from
// scratch and replaces the current snapshot.
func (idx *Index) Rebuild(docs []Document) (*Snapshot, BuildStats) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	start := time.Now()
	idx.generation++
	snap := build(docs, idx.threshold, idx.generation)
	idx.current.Store(snap)

	stats := BuildStats{
		Documents:  len(docs),
		Indexed:    len(snap.Vectors),
		Skipped:    len(docs) - len(snap.Order),
		Terms:      len(snap.Terms),
		Edges:      len(snap.Similarities),
		Generation: snap.Generation,
		Duration:   time.Since(start),
	}
	idx.logger.Debug("similarity index rebuilt",
		zap.Int("documents", stats.Documents),
		zap.Int("terms", stats.Terms),
		zap.Int("edges", stats.Edges),
		zap.Uint64("generation", stats.Generation),
		zap.Duration("duration", stats.Duration),
	)
	return snap, stats
}

// AddToIndex has the same effect as Rebuild(all); all must already contain doc.
func (idx *Index) AddToIndex(doc Document, all []Document) *Snapshot {
	snap, _ := idx.Rebuild(all)
	return snap
}

// RemoveFromIndex has the same effect as Rebuild(all); all must no longer
// contain id.
func (idx *Index) RemoveFromIndex(id int64, all []Document) *Snapshot {
	snap, _ := idx.Rebuild(all)
	return snap
}

// Restore publishes a previously saved snapshot as a new generation.
func (idx *Index) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if snap.Version != CurrentIndexVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, snap.Version, CurrentIndexVersion)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.generation++
	restored := *snap
	restored.Generation = idx.generation
	idx.current.Store(&restored)
	return nil
}

// Reset discards all derived state.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.generation++
	idx.current.Store(emptySnapshot(idx.generation, idx.threshold))
}

// build is the pure rebuild computation.
func build(docs []Document, threshold float64, gen uint64) *Snapshot {
	if len(docs) == 0 {
		return emptySnapshot(gen, threshold)
	}

	tokenized := make([][]string, len(docs))
	for i, d := range docs {
		tokenized[i] = Tokens(d)
	}
	model := tfidf.Build(tokenized)

	snap := emptySnapshot(gen, threshold)
	snap.TotalDocs = model.N
	snap.Vocabulary = model.DocFreq
	snap.IDF = model.IDF
	snap.Terms = model.Terms
	snap.Fingerprint = Fingerprint(docs)

	for i, d := range docs {
		if d.ID == 0 {
			continue
		}
		if _, dup := snap.Vectors[d.ID]; !dup {
			snap.Order = append(snap.Order, d.ID)
		}
		snap.Vectors[d.ID] = model.Vector(tokenized[i])
	}

	for i := 0; i < len(snap.Order); i++ {
		for j := i + 1; j < len(snap.Order); j++ {
			a, b := snap.Order[i], snap.Order[j]
			score := clampScore(CosineSimilarity(snap.Vectors[a], snap.Vectors[b]))
			if score > threshold {
				snap.Similarities = append(snap.Similarities, Edge{IDA: a, IDB: b, Score: score})
			}
		}
	}
	return snap
}

// Tokens returns the indexed terms of a document: its content followed by
// its tags.
func Tokens(d Document) []string {
	tokens := text.Tokenize(d.Content)
	if len(d.Tags) > 0 {
		tokens = append(tokens, text.Tokenize(strings.Join(d.Tags, " "))...)
	}
	return tokens
}

// Fingerprint hashes ids, content and tags so callers can tell whether a
// cached snapshot still matches the corpus.
func Fingerprint(docs []Document) string {
	h := sha256.New()
	for _, d := range docs {
		io.WriteString(h, strconv.FormatInt(d.ID, 10))
		io.WriteString(h, "\x00")
		io.WriteString(h, d.Content)
		io.WriteString(h, "\x00")
		io.WriteString(h, strings.Join(d.Tags, "\x1f"))
		io.WriteString(h, "\x1e")
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
