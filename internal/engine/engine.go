// Package engine composes the similarity index and layout simulations over
// a project's documents. It is the single owner of derived state: callers
// mutate the store, then ask the engine to refresh.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/sutra/internal/character"
	"github.com/matsen/sutra/internal/idea"
	"github.com/matsen/sutra/internal/layout"
	"github.com/matsen/sutra/internal/similarity"
)

// DefaultDisplayThreshold is the minimum score for a similarity edge to be
// drawn in the constellation.
const DefaultDisplayThreshold = 0.1

// Source is the external store the engine reads from.
type Source interface {
	ListIdeas(ctx context.Context, projectID int64) ([]idea.Idea, error)
	ListCharacters(ctx context.Context, projectID int64) ([]character.Character, error)
	ListRelationships(ctx context.Context, projectID int64) ([]character.Relationship, error)
}

// VectorSink is implemented by sources that persist idea vectors.
type VectorSink interface {
	UpdateIdeaVectors(ctx context.Context, projectID int64, vectors map[int64][]float64) error
}

// Result describes one refresh.
type Result struct {
	ProjectID int64                 `json:"project_id"`
	Stats     similarity.BuildStats `json:"stats"`
	FromCache bool                  `json:"from_cache"`
}

// Engine owns one similarity index and at most one running layout session.
type Engine struct {
	source           Source
	index            *similarity.Index
	logger           *zap.Logger
	cachePath        string
	displayThreshold float64
	indexThreshold   float64
	seed             uint64
	frameRate        float64
	maxTicks         int

	mu         sync.Mutex
	session    *Session
	debouncers []*Debouncer
	closed     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger shared with the index and runners.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIndexThreshold sets the minimum score for an edge to be stored.
func WithIndexThreshold(t float64) Option {
	return func(e *Engine) { e.indexThreshold = t }
}

// WithDisplayThreshold sets the minimum score for an edge to become a
// layout link.
func WithDisplayThreshold(t float64) Option {
	return func(e *Engine) { e.displayThreshold = t }
}

// WithCachePath enables the on-disk index cache.
func WithCachePath(path string) Option {
	return func(e *Engine) { e.cachePath = path }
}

// WithSeed makes layouts reproducible. Zero seeds from the clock.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithFrameRate sets the tick rate of layout runners.
func WithFrameRate(fps float64) Option {
	return func(e *Engine) { e.frameRate = fps }
}

// WithMaxTicks bounds layout runs. Zero means no bound.
func WithMaxTicks(n int) Option {
	return func(e *Engine) { e.maxTicks = n }
}

// New creates an engine reading from source.
func New(source Source, opts ...Option) *Engine {
	e := &Engine{
		source:           source,
		logger:           zap.NewNop(),
		displayThreshold: DefaultDisplayThreshold,
		indexThreshold:   similarity.DefaultThreshold,
		frameRate:        layout.DefaultFrameRate,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.index = similarity.NewIndex(
		similarity.WithThreshold(e.indexThreshold),
		similarity.WithLogger(e.logger.Named("index")),
	)
	return e
}

// Index returns the engine's similarity index.
func (e *Engine) Index() *similarity.Index {
	return e.index
}

// DisplayThreshold returns the minimum score for a drawn edge.
func (e *Engine) DisplayThreshold() float64 {
	return e.displayThreshold
}

// Refresh loads the project's ideas and brings the index up to date. A
// cached snapshot is reused when it was built from the same documents with
// the same threshold; otherwise the index is rebuilt and the cache
// rewritten. Cache problems are logged and never fail a refresh.
func (e *Engine) Refresh(ctx context.Context, projectID int64) (Result, error) {
	ideas, err := e.source.ListIdeas(ctx, projectID)
	if err != nil {
		return Result{}, fmt.Errorf("loading ideas: %w", err)
	}
	docs := idea.Documents(ideas)
	res := Result{ProjectID: projectID}

	if cached := e.loadCache(docs); cached != nil {
		if err := e.index.Restore(cached); err == nil {
			cur := e.index.Snapshot()
			res.FromCache = true
			res.Stats = similarity.BuildStats{
				Documents:  len(docs),
				Indexed:    len(cur.Vectors),
				Skipped:    len(docs) - len(cur.Order),
				Terms:      len(cur.Terms),
				Edges:      len(cur.Similarities),
				Generation: cur.Generation,
			}
			if err := e.storeVectors(ctx, projectID, cur); err != nil {
				return res, err
			}
			e.logger.Info("index restored from cache",
				zap.Int64("project", projectID),
				zap.Int("edges", res.Stats.Edges),
			)
			return res, nil
		}
	}

	snap, stats := e.index.Rebuild(docs)
	res.Stats = stats

	if e.cachePath != "" {
		if err := snap.Save(e.cachePath); err != nil {
			e.logger.Warn("saving index cache", zap.String("path", e.cachePath), zap.Error(err))
		}
	}
	if err := e.storeVectors(ctx, projectID, snap); err != nil {
		return res, err
	}

	e.logger.Info("index rebuilt",
		zap.Int64("project", projectID),
		zap.Int("documents", stats.Documents),
		zap.Int("edges", stats.Edges),
		zap.Uint64("generation", stats.Generation),
	)
	return res, nil
}

// storeVectors hands snap's vectors to the source when it persists them.
func (e *Engine) storeVectors(ctx context.Context, projectID int64, snap *similarity.Snapshot) error {
	sink, ok := e.source.(VectorSink)
	if !ok {
		return nil
	}
	if err := sink.UpdateIdeaVectors(ctx, projectID, snap.Vectors); err != nil {
		return fmt.Errorf("storing idea vectors: %w", err)
	}
	return nil
}

// loadCache returns the cached snapshot if it matches docs, or nil.
func (e *Engine) loadCache(docs []similarity.Document) *similarity.Snapshot {
	if e.cachePath == "" {
		return nil
	}
	snap, err := similarity.Load(e.cachePath)
	if err != nil {
		if !errors.Is(err, similarity.ErrIndexNotFound) {
			e.logger.Warn("ignoring index cache", zap.String("path", e.cachePath), zap.Error(err))
		}
		return nil
	}
	if snap.Fingerprint != similarity.Fingerprint(docs) || snap.Threshold != e.index.Threshold() {
		e.logger.Debug("index cache is stale", zap.String("path", e.cachePath))
		return nil
	}
	return snap
}

// Reset drops the index and its cache file, stops any layout session and
// discards pending debounced refreshes.
func (e *Engine) Reset() error {
	e.mu.Lock()
	e.stopSessionLocked()
	for _, d := range e.debouncers {
		d.Cancel()
	}
	e.mu.Unlock()

	e.index.Reset()
	if e.cachePath != "" {
		if err := os.Remove(e.cachePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing index cache: %w", err)
		}
	}
	return nil
}

// Close stops the layout session and every debouncer. The engine must not
// be used afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.stopSessionLocked()
	for _, d := range e.debouncers {
		d.Stop()
	}
	e.debouncers = nil
	return nil
}

func (e *Engine) rng() *rand.Rand {
	seed := e.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
