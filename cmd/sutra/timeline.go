package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/sutra/internal/character"
	"github.com/matsen/sutra/internal/config"
	"github.com/matsen/sutra/internal/overlay"
	"github.com/matsen/sutra/internal/storage"
	"github.com/matsen/sutra/internal/timeline"
	"github.com/matsen/sutra/internal/viewport"
)

// Default container for commands that map pointer coordinates onto the
// timeline plot.
const (
	DefaultTimelineWidth  = 1200
	DefaultTimelineHeight = 600
)

func init() {
	rootCmd.AddCommand(eventCmd)
	eventAddCmd.Flags().Float64P("position", "p", 0.5, "Story position between 0 and 1")
	eventAddCmd.Flags().Float64P("width", "w", timeline.DefaultEventWidth, "Span on the story axis (0.01-0.3)")
	eventAddCmd.Flags().StringP("color", "c", timeline.DefaultEventColor, "Hex color")
	eventAddCmd.Flags().StringP("description", "d", "", "Description text")
	eventCmd.AddCommand(eventAddCmd)
	eventCmd.AddCommand(eventListCmd)
	eventCmd.AddCommand(eventMoveCmd)

	rootCmd.AddCommand(appearanceCmd)
	appearanceAddCmd.Flags().Float64P("position", "p", 0.5, "Story position between 0 and 1")
	appearanceAddCmd.Flags().Float64P("fortune", "f", timeline.NeutralFortune, "Fortune between 0 (ill) and 1 (good)")
	appearanceAddCmd.Flags().String("at", "", "Place at a plot pixel x,y instead of --position/--fortune")
	appearanceAddCmd.Flags().Int64("event", 0, "Timeline event id")
	appearanceAddCmd.Flags().Int64("scene", 0, "Scene id")
	appearanceAddCmd.Flags().StringP("note", "n", "", "Note")
	appearanceAddCmd.Flags().Bool("death", false, "Mark the character's death")
	addContainerFlags(appearanceAddCmd)
	appearanceCmd.AddCommand(appearanceAddCmd)
	appearanceListCmd.Flags().Int64("character", 0, "Only this character's appearances")
	appearanceCmd.AddCommand(appearanceListCmd)
	appearanceCmd.AddCommand(appearanceMoveCmd)

	rootCmd.AddCommand(chapterCmd)
	chapterAddCmd.Flags().IntP("scenes", "s", 1, "Number of scenes in the chapter")
	chapterCmd.AddCommand(chapterAddCmd)
	chapterCmd.AddCommand(chapterListCmd)

	rootCmd.AddCommand(timelineCmd)
	timelineDragCmd.Flags().Int64("event", 0, "Drag a timeline event")
	timelineDragCmd.Flags().Int64("appearance", 0, "Drag a character appearance")
	timelineDragCmd.Flags().String("path", "", "Pointer path in plot pixels: \"x,y x,y ...\" (first point is the press)")
	timelineDragCmd.Flags().Float64("threshold", overlay.DefaultDragThreshold, "Pixels the pointer must travel before a press becomes a drag")
	timelineDragCmd.MarkFlagRequired("path")
	addContainerFlags(timelineDragCmd)
	timelineCmd.AddCommand(timelineDragCmd)
}

func addContainerFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("view-width", DefaultTimelineWidth, "Visible timeline width in pixels")
	cmd.Flags().Float64("view-height", DefaultTimelineHeight, "Visible timeline height in pixels")
}

func containerSize(cmd *cobra.Command) viewport.Size {
	w, _ := cmd.Flags().GetFloat64("view-width")
	h, _ := cmd.Flags().GetFloat64("view-height")
	return viewport.Size{W: w, H: h}
}

// timelineGeometry sizes the plot the same way the timeline view does.
func timelineGeometry(chars []character.Character, chapters []timeline.Chapter, container viewport.Size) timeline.Geometry {
	names := make([]string, len(chars))
	for i, c := range chars {
		names[i] = c.Name
	}
	return timeline.NewGeometry(names, timeline.TotalScenes(chapters), container)
}

func mustParseUnit(s, name string) float64 {
	v, err := parseUnit(s)
	if err != nil {
		exitWithError(ExitDataError, "%s must be a number between 0 and 1, got %q", name, s)
	}
	return v
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage story events on the timeline",
}

// EventResult is the response for event add and move.
type EventResult struct {
	Status string         `json:"status"`
	Event  timeline.Event `json:"event"`
}

var eventAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a story event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventAdd,
}

func runEventAdd(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	path := config.EventsPath(p.root)
	events, err := storage.ReadAllEvents(path)
	if err != nil {
		exitWithError(ExitDataError, "reading events: %v", err)
	}

	e := timeline.Event{
		ID:        storage.NextEventID(events),
		ProjectID: p.cfg.ProjectID,
		Title:     args[0],
	}
	e.Position, _ = cmd.Flags().GetFloat64("position")
	e.Width, _ = cmd.Flags().GetFloat64("width")
	e.Color, _ = cmd.Flags().GetString("color")
	e.Description, _ = cmd.Flags().GetString("description")
	e.ApplyDefaults()

	if err := e.ValidateForCreate(); err != nil {
		exitWithError(ExitDataError, "invalid event: %v", err)
	}
	if err := storage.AppendEvent(path, e); err != nil {
		exitWithError(ExitDataError, "writing event: %v", err)
	}
	mustRebuild(p.db, p.root)

	if humanOutput {
		fmt.Printf("Added event %d: %s at %.3f\n", e.ID, e.Title, e.Position)
	} else {
		outputJSON(EventResult{Status: "created", Event: e})
	}
	return nil
}

// EventListResult is the response for the event list command.
type EventListResult struct {
	Events []timeline.Event `json:"events"`
	Count  int              `json:"count"`
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List story events by position",
	RunE:  runEventList,
}

func runEventList(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	events, err := p.db.ListEvents(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying events: %v", err)
	}

	if humanOutput {
		if len(events) == 0 {
			fmt.Println("No events yet")
			return nil
		}
		for _, e := range events {
			fmt.Printf("%4d  %.3f  %s\n", e.ID, e.Position, e.Title)
		}
	} else {
		if events == nil {
			events = []timeline.Event{}
		}
		outputJSON(EventListResult{Events: events, Count: len(events)})
	}
	return nil
}

var eventMoveCmd = &cobra.Command{
	Use:   "move <id> <position>",
	Short: "Move an event along the story axis",
	Args:  cobra.ExactArgs(2),
	RunE:  runEventMove,
}

func runEventMove(cmd *cobra.Command, args []string) error {
	id := mustParseID(args[0])
	pos := mustParseUnit(args[1], "position")
	p := mustOpenProject()
	defer p.close()

	e := mustUpdateEvent(p, id, func(e *timeline.Event) { e.MoveTo(pos) })

	if humanOutput {
		fmt.Printf("Moved event %d to %.3f\n", e.ID, e.Position)
	} else {
		outputJSON(EventResult{Status: "moved", Event: e})
	}
	return nil
}

// mustUpdateEvent applies fn to event id and persists the result.
func mustUpdateEvent(p *project, id int64, fn func(*timeline.Event)) timeline.Event {
	path := config.EventsPath(p.root)
	events, err := storage.ReadAllEvents(path)
	if err != nil {
		exitWithError(ExitDataError, "reading events: %v", err)
	}
	idx, found := storage.FindEventByID(events, id)
	if !found {
		exitWithError(ExitNotFound, "event %d not found", id)
	}
	fn(&events[idx])
	if err := storage.WriteAllEvents(path, events); err != nil {
		exitWithError(ExitDataError, "writing events: %v", err)
	}
	mustRebuild(p.db, p.root)
	return events[idx]
}

var appearanceCmd = &cobra.Command{
	Use:   "appearance",
	Short: "Manage character appearances on the timeline",
}

// AppearanceResult is the response for appearance add and move.
type AppearanceResult struct {
	Status     string              `json:"status"`
	Appearance timeline.Appearance `json:"appearance"`
}

var appearanceAddCmd = &cobra.Command{
	Use:   "add <character-id>",
	Short: "Plot a character at a point of the story",
	Long: `Plot a character at a story position with a fortune between 0 (ill)
and 1 (good). With --at, the point is given in plot pixels of a timeline
--view-width by --view-height, as a double-click on the view would.`,
	Args: cobra.ExactArgs(1),
	RunE: runAppearanceAdd,
}

func runAppearanceAdd(cmd *cobra.Command, args []string) error {
	charID := mustParseID(args[0])
	p := mustOpenProject()
	defer p.close()

	chars, err := p.db.ListCharacters(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying characters: %v", err)
	}
	if _, found := storage.FindCharacterByID(chars, charID); !found {
		exitWithError(ExitNotFound, "character %d not found", charID)
	}

	position, _ := cmd.Flags().GetFloat64("position")
	fortune, _ := cmd.Flags().GetFloat64("fortune")
	if at, _ := cmd.Flags().GetString("at"); at != "" {
		pt, err := parsePoint(at)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		g := timelineGeometry(chars, p.cfg.Chapters, containerSize(cmd))
		v := overlay.PlaceAt(g.Axes(), pt)
		position, fortune = v.Position, v.Fortune
	}

	path := config.AppearancesPath(p.root)
	apps, err := storage.ReadAllAppearances(path)
	if err != nil {
		exitWithError(ExitDataError, "reading appearances: %v", err)
	}
	a := timeline.Appearance{
		ID:          storage.NextAppearanceID(apps),
		ProjectID:   p.cfg.ProjectID,
		CharacterID: charID,
		Position:    position,
		Fortune:     fortune,
	}
	a.EventID, _ = cmd.Flags().GetInt64("event")
	a.SceneID, _ = cmd.Flags().GetInt64("scene")
	a.Note, _ = cmd.Flags().GetString("note")
	a.IsDeath, _ = cmd.Flags().GetBool("death")

	if err := a.ValidateForCreate(); err != nil {
		exitWithError(ExitDataError, "invalid appearance: %v", err)
	}
	if err := storage.AppendAppearance(path, a); err != nil {
		exitWithError(ExitDataError, "writing appearance: %v", err)
	}
	mustRebuild(p.db, p.root)

	if humanOutput {
		fmt.Printf("Plotted character %d at position %.3f, fortune %.3f\n", a.CharacterID, a.Position, a.Fortune)
	} else {
		outputJSON(AppearanceResult{Status: "created", Appearance: a})
	}
	return nil
}

// AppearanceListResult is the response for the appearance list command.
type AppearanceListResult struct {
	Appearances []timeline.Appearance `json:"appearances"`
	Count       int                   `json:"count"`
}

var appearanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List appearances by character and position",
	RunE:  runAppearanceList,
}

func runAppearanceList(cmd *cobra.Command, args []string) error {
	charID, _ := cmd.Flags().GetInt64("character")
	p := mustOpenProject()
	defer p.close()

	all, err := p.db.ListAppearances(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying appearances: %v", err)
	}
	apps := make([]timeline.Appearance, 0, len(all))
	for _, a := range all {
		if charID == 0 || a.CharacterID == charID {
			apps = append(apps, a)
		}
	}

	if humanOutput {
		if len(apps) == 0 {
			fmt.Println("No appearances yet")
			return nil
		}
		for _, a := range apps {
			fmt.Printf("%4d  character %d  position %.3f  fortune %.3f", a.ID, a.CharacterID, a.Position, a.Fortune)
			if a.IsDeath {
				warnColor.Print("  death")
			}
			fmt.Println()
		}
	} else {
		outputJSON(AppearanceListResult{Appearances: apps, Count: len(apps)})
	}
	return nil
}

var appearanceMoveCmd = &cobra.Command{
	Use:   "move <id> <position> <fortune>",
	Short: "Move an appearance",
	Args:  cobra.ExactArgs(3),
	RunE:  runAppearanceMove,
}

func runAppearanceMove(cmd *cobra.Command, args []string) error {
	id := mustParseID(args[0])
	pos := mustParseUnit(args[1], "position")
	fortune := mustParseUnit(args[2], "fortune")
	p := mustOpenProject()
	defer p.close()

	a := mustUpdateAppearance(p, id, func(a *timeline.Appearance) { a.MoveTo(pos, fortune) })

	if humanOutput {
		fmt.Printf("Moved appearance %d to position %.3f, fortune %.3f\n", a.ID, a.Position, a.Fortune)
	} else {
		outputJSON(AppearanceResult{Status: "moved", Appearance: a})
	}
	return nil
}

// mustUpdateAppearance applies fn to appearance id and persists the result.
func mustUpdateAppearance(p *project, id int64, fn func(*timeline.Appearance)) timeline.Appearance {
	path := config.AppearancesPath(p.root)
	apps, err := storage.ReadAllAppearances(path)
	if err != nil {
		exitWithError(ExitDataError, "reading appearances: %v", err)
	}
	idx, found := storage.FindAppearanceByID(apps, id)
	if !found {
		exitWithError(ExitNotFound, "appearance %d not found", id)
	}
	fn(&apps[idx])
	if err := storage.WriteAllAppearances(path, apps); err != nil {
		exitWithError(ExitDataError, "writing appearances: %v", err)
	}
	mustRebuild(p.db, p.root)
	return apps[idx]
}

var chapterCmd = &cobra.Command{
	Use:   "chapter",
	Short: "Manage chapters shown as timeline divisions",
}

// ChapterListResult is the response for chapter commands.
type ChapterListResult struct {
	Chapters    []timeline.Chapter `json:"chapters"`
	TotalScenes int                `json:"total_scenes"`
}

var chapterAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Append a chapter",
	Args:  cobra.ExactArgs(1),
	RunE:  runChapterAdd,
}

func runChapterAdd(cmd *cobra.Command, args []string) error {
	scenes, _ := cmd.Flags().GetInt("scenes")
	if scenes < 0 {
		exitWithError(ExitDataError, "scenes cannot be negative")
	}
	root := mustFindRepository()
	cfg := mustLoadConfig(root)

	cfg.Chapters = append(cfg.Chapters, timeline.Chapter{Title: args[0], Scenes: scenes})
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Added chapter %d: %s (%d scenes)\n", len(cfg.Chapters), args[0], scenes)
	} else {
		outputJSON(ChapterListResult{Chapters: cfg.Chapters, TotalScenes: timeline.TotalScenes(cfg.Chapters)})
	}
	return nil
}

var chapterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chapters",
	RunE:  runChapterList,
}

func runChapterList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(mustFindRepository())
	chapters := cfg.Chapters
	if chapters == nil {
		chapters = []timeline.Chapter{}
	}

	if humanOutput {
		for i, ch := range chapters {
			fmt.Printf("%3d  %-30s %d scenes\n", i+1, ch.Title, ch.Scenes)
		}
	} else {
		outputJSON(ChapterListResult{Chapters: chapters, TotalScenes: timeline.TotalScenes(chapters)})
	}
	return nil
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Direct manipulation of the timeline",
}

// TimelineDragResult is the response for the timeline drag command.
type TimelineDragResult struct {
	Result     overlay.Result       `json:"result"`
	Event      *timeline.Event      `json:"event,omitempty"`
	Appearance *timeline.Appearance `json:"appearance,omitempty"`
}

var timelineDragCmd = &cobra.Command{
	Use:   "drag",
	Short: "Replay a pointer gesture on an event or appearance",
	Long: `Replay a pointer gesture on the timeline plot. The first point of --path
is the press and the last is the release. A gesture that never travels
past the threshold is a click and changes nothing; otherwise the element
moves to where it was released. Events move along the story axis only.`,
	RunE: runTimelineDrag,
}

func runTimelineDrag(cmd *cobra.Command, args []string) error {
	eventID, _ := cmd.Flags().GetInt64("event")
	appID, _ := cmd.Flags().GetInt64("appearance")
	if (eventID == 0) == (appID == 0) {
		exitWithError(ExitError, "exactly one of --event or --appearance is required")
	}
	pathFlag, _ := cmd.Flags().GetString("path")
	points, err := parsePath(pathFlag)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if len(points) == 0 {
		exitWithError(ExitError, "--path needs at least one point")
	}
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if !isFinite(threshold) || threshold < 0 {
		exitWithError(ExitError, "--threshold must be a non-negative number")
	}

	p := mustOpenProject()
	defer p.close()

	chars, err := p.db.ListCharacters(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying characters: %v", err)
	}
	g := timelineGeometry(chars, p.cfg.Chapters, containerSize(cmd))
	drag := overlay.NewDrag(g.Axes(), overlay.WithThreshold(threshold))

	var out TimelineDragResult
	if eventID != 0 {
		events, err := storage.ReadAllEvents(config.EventsPath(p.root))
		if err != nil {
			exitWithError(ExitDataError, "reading events: %v", err)
		}
		idx, found := storage.FindEventByID(events, eventID)
		if !found {
			exitWithError(ExitNotFound, "event %d not found", eventID)
		}
		target := overlay.Target{ID: eventID, Axis: overlay.AxisX}
		persisted := overlay.Value{Position: events[idx].Position, Fortune: timeline.NeutralFortune}
		out.Result = replayGesture(drag, target, persisted, points)
		if out.Result.Kind == overlay.Commit {
			e := mustUpdateEvent(p, eventID, func(e *timeline.Event) { e.MoveTo(out.Result.Value.Position) })
			out.Event = &e
		} else {
			out.Event = &events[idx]
		}
	} else {
		apps, err := storage.ReadAllAppearances(config.AppearancesPath(p.root))
		if err != nil {
			exitWithError(ExitDataError, "reading appearances: %v", err)
		}
		idx, found := storage.FindAppearanceByID(apps, appID)
		if !found {
			exitWithError(ExitNotFound, "appearance %d not found", appID)
		}
		target := overlay.Target{ID: appID, Axis: overlay.AxisXY}
		persisted := overlay.Value{Position: apps[idx].Position, Fortune: apps[idx].Fortune}
		out.Result = replayGesture(drag, target, persisted, points)
		if out.Result.Kind == overlay.Commit {
			v := out.Result.Value
			a := mustUpdateAppearance(p, appID, func(a *timeline.Appearance) { a.MoveTo(v.Position, v.Fortune) })
			out.Appearance = &a
		} else {
			out.Appearance = &apps[idx]
		}
	}

	if humanOutput {
		switch out.Result.Kind {
		case overlay.Commit:
			fmt.Printf("Moved %d to position %.3f, fortune %.3f\n", out.Result.ID, out.Result.Value.Position, out.Result.Value.Fortune)
		case overlay.Click:
			fmt.Printf("Clicked %d (no change)\n", out.Result.ID)
		default:
			fmt.Println("No gesture")
		}
	} else {
		outputJSON(out)
	}
	return nil
}

// replayGesture feeds a press at path[0], moves through the rest of path
// and a release into d.
func replayGesture(d *overlay.Drag, target overlay.Target, persisted overlay.Value, path []viewport.Point) overlay.Result {
	if len(path) == 0 {
		return overlay.Result{Kind: overlay.None}
	}
	d.PointerDown(target, path[0], persisted)
	for _, pt := range path[1:] {
		d.PointerMove(pt)
	}
	return d.PointerUp()
}
