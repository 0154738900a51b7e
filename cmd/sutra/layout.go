package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/sutra/internal/engine"
	"github.com/matsen/sutra/internal/layout"
)

func init() {
	rootCmd.AddCommand(layoutCmd)
	for _, c := range []*cobra.Command{layoutIdeasCmd, layoutCharactersCmd} {
		c.Flags().Bool("stream", false, "Print one compact JSON snapshot per animation frame until the layout settles")
		layoutCmd.AddCommand(c)
	}
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Run the force-directed layouts",
	Long: `Run a force-directed layout and print node positions in world units.

By default the layout is settled synchronously and the final snapshot is
printed. With --stream, the simulation is animated at the configured frame
rate and every frame is printed as one line of JSON.`,
}

var layoutIdeasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Lay out the idea constellation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLayout(cmd, layoutIdeas)
	},
}

var layoutCharactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "Lay out the character web",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLayout(cmd, layoutCharacters)
	},
}

// layoutKind selects which graph a layout command builds.
type layoutKind int

const (
	layoutIdeas layoutKind = iota
	layoutCharacters
)

// mustStartSession builds a fresh layout session for kind. The idea
// constellation refreshes the index first so edges match the store.
func mustStartSession(cmd *cobra.Command, p *project, kind layoutKind) *engine.Session {
	var s *engine.Session
	var err error
	switch kind {
	case layoutIdeas:
		p.refresh(cmd)
		s, err = p.eng.IdeaLayout(cmd.Context(), p.cfg.ProjectID)
	default:
		s, err = p.eng.CharacterLayout(cmd.Context(), p.cfg.ProjectID)
	}
	if err != nil {
		exitWithError(ExitDataError, "starting layout: %v", err)
	}
	return s
}

// NodePosition is one node of a settled layout.
type NodePosition struct {
	ID    int64   `json:"id"`
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// LayoutResult is the response for the layout commands.
type LayoutResult struct {
	Kind  string                `json:"kind"`
	Ticks int                   `json:"ticks"`
	Alpha float64               `json:"alpha"`
	State layout.State          `json:"state"`
	Nodes []NodePosition        `json:"nodes"`
	Edges []layout.ResolvedEdge `json:"edges"`
}

func runLayout(cmd *cobra.Command, kind layoutKind) error {
	stream, _ := cmd.Flags().GetBool("stream")
	p := mustOpenProject()
	defer p.close()

	session := mustStartSession(cmd, p, kind)
	if stream {
		return streamLayout(cmd, session)
	}

	snap := session.Settle(p.gcfg.MaxTicks)
	result := layoutResult(session.Kind, snap)

	if humanOutput {
		headingColor.Printf("%s layout: %d nodes, %d edges after %d ticks (%s)\n",
			result.Kind, len(result.Nodes), len(result.Edges), result.Ticks, result.State)
		for _, n := range result.Nodes {
			fmt.Printf("%4d  %8.1f %8.1f  %s\n", n.ID, n.X, n.Y, truncateString(n.Label, ListContentMaxLen))
		}
	} else {
		outputJSON(result)
	}
	return nil
}

// streamLayout animates session, printing each frame, until it settles or
// the process is interrupted.
func streamLayout(cmd *cobra.Command, session *engine.Session) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	frames := make(chan layout.Snapshot)
	g, ctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		defer close(frames)
		return session.Run(ctx, frames)
	})
	g.Go(func() error {
		for snap := range frames {
			if err := outputJSONCompact(layoutResult(session.Kind, snap)); err != nil {
				session.Stop()
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil && sigCtx.Err() == nil {
		exitWithError(ExitError, "streaming layout: %v", err)
	}
	return nil
}

func layoutResult(kind string, snap layout.Snapshot) LayoutResult {
	nodes := make([]NodePosition, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes = append(nodes, NodePosition{ID: n.ID, Label: n.Label, X: n.X, Y: n.Y})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return LayoutResult{
		Kind:  kind,
		Ticks: snap.Tick,
		Alpha: snap.Alpha,
		State: snap.State,
		Nodes: nodes,
		Edges: snap.Edges,
	}
}
