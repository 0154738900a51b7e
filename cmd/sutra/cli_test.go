package main

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

var (
	sutraBinary     string
	sutraBinaryOnce sync.Once
	sutraBinaryErr  error
)

// getSutraBinary builds the sutra binary once and returns its path.
func getSutraBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}
	sutraBinaryOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			sutraBinaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "sutra-test-*")
		if err != nil {
			sutraBinaryErr = err
			return
		}
		sutraBinary = filepath.Join(tmpDir, "sutra")

		cmd := exec.Command("go", "build", "-o", sutraBinary, "./cmd/sutra")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			sutraBinaryErr = &buildError{output: string(output), err: err}
		}
	})
	if sutraBinaryErr != nil {
		t.Fatalf("failed to build sutra: %v", sutraBinaryErr)
	}
	return sutraBinary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

// setupProject initializes a project in a temp dir and returns the dir.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runSutraOK(t, dir, "init", "--title", "The Lighthouse")
	return dir
}

// runSutra runs sutra in dir with an isolated global config and returns
// stdout and the exit code.
func runSutra(t *testing.T, dir string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(getSutraBinary(t), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(dir, "config"),
		"SUTRA_ROOT=",
		"NO_COLOR=1",
	)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	if err != nil {
		t.Fatalf("running sutra %v: %v", args, err)
	}
	return string(out), 0
}

// runSutraOK runs sutra and fails the test on a non-zero exit.
func runSutraOK(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, code := runSutra(t, dir, args...)
	if code != 0 {
		t.Fatalf("sutra %v exited %d\nOutput: %s", args, code, out)
	}
	return out
}

// layoutOutput and dragOutput mirror the JSON of LayoutResult and
// TimelineDragResult, whose enum fields only marshal to text.
type layoutOutput struct {
	Kind  string         `json:"kind"`
	State string         `json:"state"`
	Nodes []NodePosition `json:"nodes"`
	Edges []struct {
		Source int64  `json:"source"`
		Target int64  `json:"target"`
		Kind   string `json:"kind"`
	} `json:"edges"`
}

type dragOutput struct {
	Result struct {
		Kind string `json:"kind"`
	} `json:"result"`
	Event *struct {
		Position float64 `json:"position"`
	} `json:"event"`
}

func decode(t *testing.T, out string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, out)
	}
}

func TestIdeaWorkflow(t *testing.T) {
	dir := setupProject(t)

	var added IdeaAddResult
	decode(t, runSutraOK(t, dir, "idea", "add", "The lighthouse keeper climbs the lighthouse stairs #plot"), &added)
	if added.Idea.ID != 1 || added.Idea.Content != "The lighthouse keeper climbs the lighthouse stairs" {
		t.Errorf("first idea = %+v", added.Idea)
	}
	if len(added.Idea.Tags) != 1 || added.Idea.Tags[0] != "plot" {
		t.Errorf("tags = %v, want [plot]", added.Idea.Tags)
	}

	decode(t, runSutraOK(t, dir, "idea", "add", "The keeper polishes the lighthouse lamp"), &added)
	if len(added.Neighbors) != 1 || added.Neighbors[0].Other(2) != 1 {
		t.Errorf("neighbors of idea 2 = %+v, want a link to idea 1", added.Neighbors)
	}
	runSutraOK(t, dir, "idea", "add", "Bread recipes from the bakery")

	var similar IdeaSimilarResult
	decode(t, runSutraOK(t, dir, "idea", "similar", "1"), &similar)
	if len(similar.Similar) != 2 || similar.Similar[0].ID != 2 {
		t.Fatalf("similar to 1 = %+v, want idea 2 first", similar.Similar)
	}
	if similar.Similar[0].Score <= similar.Similar[1].Score {
		t.Errorf("similar results not ranked: %+v", similar.Similar)
	}

	var list IdeaListResult
	decode(t, runSutraOK(t, dir, "idea", "list", "--search", "lamp"), &list)
	if list.Count != 1 || list.Ideas[0].ID != 2 {
		t.Errorf("search lamp = %+v, want idea 2", list.Ideas)
	}

	var check IndexCheckResult
	decode(t, runSutraOK(t, dir, "index", "check"), &check)
	if !check.Fresh || check.Indexed != 3 {
		t.Errorf("index check = %+v, want fresh with 3 ideas", check)
	}

	var lay layoutOutput
	decode(t, runSutraOK(t, dir, "layout", "ideas"), &lay)
	if len(lay.Nodes) != 3 || len(lay.Edges) != 1 {
		t.Errorf("idea layout = %d nodes, %d edges, want 3 and 1", len(lay.Nodes), len(lay.Edges))
	}

	runSutraOK(t, dir, "idea", "delete", "3")
	decode(t, runSutraOK(t, dir, "idea", "list"), &list)
	if list.Count != 2 {
		t.Errorf("after delete, %d ideas, want 2", list.Count)
	}

	if _, code := runSutra(t, dir, "idea", "delete", "9"); code != ExitNotFound {
		t.Errorf("deleting a missing idea exited %d, want %d", code, ExitNotFound)
	}
	decode(t, runSutraOK(t, dir, "idea", "add", "#lighthouse #storm"), &added)
	if added.Idea.Content != "" || len(added.Idea.Tags) != 2 || len(added.Neighbors) == 0 {
		t.Errorf("tag-only idea = %+v, neighbors %+v", added.Idea, added.Neighbors)
	}
	if _, code := runSutra(t, dir, "idea", "add", "   "); code != ExitDataError {
		t.Errorf("blank idea exited %d, want %d", code, ExitDataError)
	}
}

func TestCastAndTimelineWorkflow(t *testing.T) {
	dir := setupProject(t)

	runSutraOK(t, dir, "character", "add", "Mara")
	runSutraOK(t, dir, "character", "add", "Tobias", "--color", "#c4915e")
	runSutraOK(t, dir, "relation", "add", "1", "2", "mentor")

	if _, code := runSutra(t, dir, "relation", "add", "1", "2", "nemesis"); code != ExitDataError {
		t.Errorf("unknown relationship type exited %d, want %d", code, ExitDataError)
	}
	if _, code := runSutra(t, dir, "relation", "add", "1", "7", "ally"); code != ExitNotFound {
		t.Errorf("relationship to a missing character exited %d, want %d", code, ExitNotFound)
	}

	var lay layoutOutput
	decode(t, runSutraOK(t, dir, "layout", "characters"), &lay)
	if len(lay.Nodes) != 2 || len(lay.Edges) != 1 || lay.Edges[0].Kind != "mentor" {
		t.Errorf("character layout = %+v", lay)
	}

	var ev EventResult
	decode(t, runSutraOK(t, dir, "event", "add", "Climax", "--position", "0.8"), &ev)
	if ev.Event.Width != 0.05 || ev.Event.Color != "#c4915e" {
		t.Errorf("event defaults = %+v", ev.Event)
	}

	// Names "Mara" and "Tobias" give a left margin of 85 and a plot
	// 1111 wide in a 1200 px view, so x = 640.5 is position 0.5.
	var drag dragOutput
	decode(t, runSutraOK(t, dir, "timeline", "drag", "--event", "1", "--path", "973.8,500 900,500 640.5,480"), &drag)
	if drag.Result.Kind != "commit" || drag.Event == nil || drag.Event.Position != 0.5 {
		t.Errorf("event drag = %+v, event %+v", drag.Result, drag.Event)
	}
	drag = dragOutput{}
	decode(t, runSutraOK(t, dir, "timeline", "drag", "--event", "1", "--path", "640.5,480 642,481"), &drag)
	if drag.Result.Kind != "click" || drag.Event == nil || drag.Event.Position != 0.5 {
		t.Errorf("event click = %+v, event %+v", drag.Result, drag.Event)
	}

	if _, code := runSutra(t, dir, "timeline", "drag", "--event", "1", "--path", "640.5,480 NaN,480"); code != ExitError {
		t.Errorf("non-finite path exited %d, want %d", code, ExitError)
	}
	if _, code := runSutra(t, dir, "event", "move", "1", "NaN"); code != ExitDataError {
		t.Errorf("NaN position exited %d, want %d", code, ExitDataError)
	}

	var app AppearanceResult
	decode(t, runSutraOK(t, dir, "appearance", "add", "1", "--position", "0.2", "--fortune", "0.9"), &app)
	if app.Appearance.ID != 1 || app.Appearance.Fortune != 0.9 {
		t.Errorf("appearance = %+v", app.Appearance)
	}
	decode(t, runSutraOK(t, dir, "appearance", "move", "1", "0.25", "1.0"), &app)
	if app.Appearance.Position != 0.25 || app.Appearance.Fortune != 1 {
		t.Errorf("moved appearance = %+v", app.Appearance)
	}

	out := filepath.Join(dir, "timeline.html")
	var vr VizResult
	decode(t, runSutraOK(t, dir, "viz", "timeline", "-o", out), &vr)
	if vr.Kind != "timeline" || vr.Empty {
		t.Errorf("viz result = %+v", vr)
	}
	html, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading %s: %v", out, err)
	}
	if !strings.Contains(string(html), "<svg") || !strings.Contains(string(html), "Climax") {
		t.Error("timeline HTML should contain an svg with the event label")
	}

	var del CharacterDeleteResult
	decode(t, runSutraOK(t, dir, "character", "delete", "1"), &del)
	if del.RelationshipsRemoved != 1 || del.AppearancesRemoved != 1 {
		t.Errorf("character delete = %+v, want 1 relationship and 1 appearance removed", del)
	}
	var rels RelationListResult
	decode(t, runSutraOK(t, dir, "relation", "list"), &rels)
	if rels.Count != 0 {
		t.Errorf("relationships after delete = %d, want 0", rels.Count)
	}
}

func TestConfigCommands(t *testing.T) {
	dir := setupProject(t)

	var values map[string]string
	decode(t, runSutraOK(t, dir, "config", "get"), &values)
	if values["index_threshold"] != "0.05" || values["display_threshold"] != "0.1" {
		t.Errorf("defaults = %v", values)
	}

	runSutraOK(t, dir, "config", "set", "display-threshold", "0.2")
	decode(t, runSutraOK(t, dir, "config", "get", "display_threshold"), &values)
	if values["display_threshold"] != "0.2" {
		t.Errorf("display_threshold = %q, want 0.2", values["display_threshold"])
	}

	if _, code := runSutra(t, dir, "config", "set", "index_threshold", "1.5"); code != ExitConfigError {
		t.Errorf("out-of-range threshold exited %d, want %d", code, ExitConfigError)
	}
	if _, code := runSutra(t, dir, "config", "set", "colour", "red"); code != ExitConfigError {
		t.Errorf("unknown key exited %d, want %d", code, ExitConfigError)
	}
}

func TestNoProject(t *testing.T) {
	dir := t.TempDir()
	if _, code := runSutra(t, dir, "idea", "list"); code != ExitConfigError {
		t.Errorf("idea list outside a project exited %d, want %d", code, ExitConfigError)
	}
}
