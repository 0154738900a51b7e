package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/sutra/internal/overlay"
	"github.com/matsen/sutra/internal/viz"
)

var vizOutput string
var vizWidth float64
var vizHover int64
var vizSelect string

func init() {
	vizCmd.PersistentFlags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.PersistentFlags().Float64Var(&vizWidth, "width", viz.DefaultOptions().Width, "Element width in screen pixels")
	vizCmd.PersistentFlags().Int64Var(&vizHover, "hover", 0, "Draw node id as hovered")
	vizCmd.PersistentFlags().StringVar(&vizSelect, "select", "", "Comma-separated node ids to draw as selected")
	addContainerFlags(vizTimelineCmd)

	vizCmd.AddCommand(vizConstellationCmd)
	vizCmd.AddCommand(vizWebCmd)
	vizCmd.AddCommand(vizTimelineCmd)
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Render views as self-contained HTML",
	Long: `Render the idea constellation, character web or story timeline as a
self-contained HTML page with an inline SVG.

Examples:
  # Constellation to stdout
  sutra viz constellation > ideas.html

  # Character web to a file, with Mara (id 1) selected
  sutra viz web --select 1 --output web.html

  # Timeline for a wide window
  sutra viz timeline --view-width 1600 -o timeline.html`,
}

var vizConstellationCmd = &cobra.Command{
	Use:   "constellation",
	Short: "Render the idea constellation",
	RunE:  runVizConstellation,
}

var vizWebCmd = &cobra.Command{
	Use:   "web",
	Short: "Render the character web",
	RunE:  runVizWeb,
}

var vizTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Render the fortune timeline",
	RunE:  runVizTimeline,
}

// vizOptions builds scene options from the shared flags.
func vizOptions() viz.Options {
	opts := viz.DefaultOptions()
	opts.Width = vizWidth
	opts.Hovered = vizHover
	if vizSelect != "" {
		sel := &overlay.Selection{}
		for _, s := range parseTags(vizSelect) {
			sel.Toggle(mustParseID(s))
		}
		opts.Selected = sel
	}
	return opts
}

func runVizConstellation(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	snap := mustStartSession(cmd, p, layoutIdeas).Settle(p.gcfg.MaxTicks)
	ideas, err := p.db.ListIdeas(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying ideas: %v", err)
	}

	opts := vizOptions()
	opts.Title = p.cfg.Title + " - ideas"
	writeScene(viz.Constellation(snap, ideas, opts))
	return nil
}

func runVizWeb(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	snap := mustStartSession(cmd, p, layoutCharacters).Settle(p.gcfg.MaxTicks)
	chars, err := p.db.ListCharacters(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying characters: %v", err)
	}

	opts := vizOptions()
	opts.Title = p.cfg.Title + " - characters"
	writeScene(viz.CharacterWeb(snap, chars, opts))
	return nil
}

func runVizTimeline(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	ctx := cmd.Context()
	chars, err := p.db.ListCharacters(ctx, p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying characters: %v", err)
	}
	apps, err := p.db.ListAppearances(ctx, p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying appearances: %v", err)
	}
	events, err := p.db.ListEvents(ctx, p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying events: %v", err)
	}

	opts := vizOptions()
	opts.Title = p.cfg.Title + " - timeline"
	writeScene(viz.Timeline(viz.TimelineInput{
		Characters:  chars,
		Appearances: apps,
		Events:      events,
		Chapters:    p.cfg.Chapters,
		Container:   containerSize(cmd),
	}, opts))
	return nil
}

// VizResult is the response when a scene is written to a file.
type VizResult struct {
	Output string `json:"output"`
	Kind   string `json:"kind"`
	Empty  bool   `json:"empty"`
}

// writeScene renders scene to stdout or --output.
func writeScene(scene *viz.Scene) {
	html, err := viz.GenerateHTML(scene)
	if err != nil {
		exitWithError(ExitError, "generating HTML: %v", err)
	}

	if vizOutput == "" {
		fmt.Print(html)
		return
	}
	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		exitWithError(ExitError, "writing output file: %v", err)
	}
	if humanOutput {
		fmt.Printf("Visualization written to %s\n", vizOutput)
	} else {
		outputJSON(VizResult{Output: vizOutput, Kind: scene.Kind, Empty: scene.IsEmpty()})
	}
}
