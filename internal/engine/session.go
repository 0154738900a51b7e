package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/sutra/internal/idea"
	"github.com/matsen/sutra/internal/layout"
)

// ErrClosed is returned when starting a session on a closed engine.
var ErrClosed = errors.New("engine is closed")

// Session is one layout simulation and the runner that animates it.
type Session struct {
	Kind   string
	Sim    *layout.Simulation
	runner *layout.Runner
}

// Run animates the session until it settles, is stopped, or ctx ends.
func (s *Session) Run(ctx context.Context, out chan<- layout.Snapshot) error {
	return s.runner.Run(ctx, out)
}

// Settle runs the simulation synchronously and returns the final snapshot.
func (s *Session) Settle(maxTicks int) layout.Snapshot {
	layout.Settle(s.Sim, maxTicks)
	return s.Sim.Snapshot()
}

// Stop ends the session.
func (s *Session) Stop() {
	s.runner.Stop()
}

// IdeaLayout starts a constellation session from the current index. Any
// previous session is stopped first; Refresh should run before this so the
// index reflects the store.
func (e *Engine) IdeaLayout(ctx context.Context, projectID int64) (*Session, error) {
	ideas, err := e.source.ListIdeas(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading ideas: %w", err)
	}
	snap := e.index.Snapshot()
	nodes, links := layout.IdeaGraph(idea.Documents(ideas), snap.Similarities, e.displayThreshold)
	return e.startSession("ideas", nodes, links, layout.IdeaParams())
}

// CharacterLayout starts a character-web session. Any previous session is
// stopped first.
func (e *Engine) CharacterLayout(ctx context.Context, projectID int64) (*Session, error) {
	chars, err := e.source.ListCharacters(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading characters: %w", err)
	}
	rels, err := e.source.ListRelationships(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading relationships: %w", err)
	}
	nodes, links := layout.CharacterGraph(chars, rels)
	return e.startSession("characters", nodes, links, layout.CharacterParams())
}

// Session returns the active layout session, or nil.
func (e *Engine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

func (e *Engine) startSession(kind string, nodes []layout.Node, links []layout.Link, params layout.Params) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	e.stopSessionLocked()

	sim := layout.New(nodes, links, params, e.rng())
	s := &Session{
		Kind: kind,
		Sim:  sim,
		runner: layout.NewRunner(sim,
			layout.WithFrameRate(e.frameRate),
			layout.WithMaxTicks(e.maxTicks),
			layout.WithLogger(e.logger.Named("layout")),
		),
	}
	e.session = s
	e.logger.Debug("layout session started",
		zap.String("kind", kind),
		zap.Int("nodes", len(nodes)),
		zap.Int("links", len(links)),
	)
	return s, nil
}

func (e *Engine) stopSessionLocked() {
	if e.session != nil {
		e.session.Stop()
		e.session = nil
	}
}
