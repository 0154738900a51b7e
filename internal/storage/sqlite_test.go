package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/sutra/internal/character"
	"github.com/matsen/sutra/internal/idea"
	"github.com/matsen/sutra/internal/timeline"
)

// setupTestDB creates a test database rebuilt from JSONL files with test data
func setupTestDB(t *testing.T) (*DB, SourcePaths) {
	t.Helper()

	tmpDir := t.TempDir()
	paths := SourcePaths{
		Ideas:         filepath.Join(tmpDir, "ideas.jsonl"),
		Characters:    filepath.Join(tmpDir, "characters.jsonl"),
		Relationships: filepath.Join(tmpDir, "relationships.jsonl"),
		Events:        filepath.Join(tmpDir, "events.jsonl"),
		Appearances:   filepath.Join(tmpDir, "appearances.jsonl"),
	}
	created := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

	ideas := []idea.Idea{
		{ID: 1, ProjectID: 1, Content: "The keeper hears a mouse in the lamp room", Tags: []string{"mouse"}, CreatedAt: created},
		{ID: 2, ProjectID: 1, Content: "A storm strands the supply boat", Tags: []string{"weather", "plot"}, LinkedSceneID: 3, CreatedAt: created},
		{ID: 3, ProjectID: 2, Content: "Unrelated project note", CreatedAt: created},
	}
	chars := []character.Character{
		{ID: 1, ProjectID: 1, Name: "Mara", Color: "#5a9e9e", Role: "protagonist"},
		{ID: 2, ProjectID: 1, Name: "Tobias", Color: "#c4915e"},
	}
	rels := []character.Relationship{
		{ID: 1, ProjectID: 1, CharacterA: 1, CharacterB: 2, Type: character.Mentor, Label: "taught her the lamp"},
	}
	events := []timeline.Event{
		{ID: 1, ProjectID: 1, Title: "Climax", Position: 0.8, Width: 0.05, Color: "#c4915e"},
		{ID: 2, ProjectID: 1, Title: "Inciting incident", Position: 0.1, Width: 0.05, Color: "#c4915e", Description: "The letter"},
	}
	apps := []timeline.Appearance{
		{ID: 1, ProjectID: 1, CharacterID: 2, Position: 0.3, Fortune: 0.4},
		{ID: 2, ProjectID: 1, CharacterID: 1, Position: 0.7, Fortune: 0.9, EventID: 1},
		{ID: 3, ProjectID: 1, CharacterID: 1, Position: 0.2, Fortune: 0.1, Note: "loses the key"},
	}

	if err := WriteAllIdeas(paths.Ideas, ideas); err != nil {
		t.Fatal(err)
	}
	if err := WriteAllCharacters(paths.Characters, chars); err != nil {
		t.Fatal(err)
	}
	if err := WriteAllRelationships(paths.Relationships, rels); err != nil {
		t.Fatal(err)
	}
	if err := WriteAllEvents(paths.Events, events); err != nil {
		t.Fatal(err)
	}
	if err := WriteAllAppearances(paths.Appearances, apps); err != nil {
		t.Fatal(err)
	}

	db, err := OpenDB(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.RebuildAll(paths); err != nil {
		t.Fatalf("Failed to rebuild DB: %v", err)
	}

	return db, paths
}

func TestRebuildAll(t *testing.T) {
	db, paths := setupTestDB(t)

	counts, err := db.RebuildAll(paths)
	if err != nil {
		t.Fatalf("RebuildAll() error = %v", err)
	}
	want := RebuildCounts{Ideas: 3, Characters: 2, Relationships: 1, Events: 2, Appearances: 3}
	if counts != want {
		t.Errorf("RebuildAll() = %+v, want %+v", counts, want)
	}

	// Rebuilding twice does not duplicate rows
	n, err := db.CountIdeas(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountIdeas(1) = %d, want 2", n)
	}
}

func TestRebuildAll_MissingFiles(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := OpenDB(filepath.Join(tmpDir, "empty.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	counts, err := db.RebuildAll(SourcePaths{
		Ideas:         filepath.Join(tmpDir, "none1.jsonl"),
		Characters:    filepath.Join(tmpDir, "none2.jsonl"),
		Relationships: filepath.Join(tmpDir, "none3.jsonl"),
		Events:        filepath.Join(tmpDir, "none4.jsonl"),
		Appearances:   filepath.Join(tmpDir, "none5.jsonl"),
	})
	if err != nil {
		t.Fatalf("RebuildAll() error = %v", err)
	}
	if counts != (RebuildCounts{}) {
		t.Errorf("RebuildAll() = %+v, want zero counts", counts)
	}
}

func TestListIdeas(t *testing.T) {
	db, _ := setupTestDB(t)

	ideas, err := db.ListIdeas(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListIdeas() error = %v", err)
	}
	if len(ideas) != 2 {
		t.Fatalf("ListIdeas() returned %d ideas, want 2", len(ideas))
	}
	if ideas[0].ID != 1 || ideas[0].Tags[0] != "mouse" {
		t.Errorf("first idea = %+v", ideas[0])
	}
	if ideas[1].LinkedSceneID != 3 || len(ideas[1].Tags) != 2 {
		t.Errorf("second idea = %+v", ideas[1])
	}
	if ideas[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not restored")
	}
	if ideas[0].Vector != nil {
		t.Error("freshly rebuilt ideas should have no vector")
	}
}

func TestUpdateIdeaVectors(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	err := db.UpdateIdeaVectors(ctx, 1, map[int64][]float64{
		1: {0.5, 0, 0.25},
		2: {0, 1, 0},
	})
	if err != nil {
		t.Fatalf("UpdateIdeaVectors() error = %v", err)
	}

	ideas, err := db.ListIdeas(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ideas[0].Vector) != 3 || ideas[0].Vector[2] != 0.25 {
		t.Errorf("idea 1 vector = %v", ideas[0].Vector)
	}

	// A later generation without idea 2 clears its stale vector
	if err := db.UpdateIdeaVectors(ctx, 1, map[int64][]float64{1: {1}}); err != nil {
		t.Fatal(err)
	}
	ideas, err = db.ListIdeas(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if ideas[1].Vector != nil {
		t.Errorf("idea 2 vector = %v, want nil", ideas[1].Vector)
	}
}

func TestListIdeas_MalformedVectorIgnored(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.db.Exec(`UPDATE ideas SET tfidf_vector = ? WHERE id = 1`, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	ideas, err := db.ListIdeas(ctx, 1)
	if err != nil {
		t.Fatalf("ListIdeas() error = %v, want malformed vector ignored", err)
	}
	if ideas[0].Vector != nil {
		t.Errorf("malformed vector decoded to %v, want nil", ideas[0].Vector)
	}
}

func TestSearchIdeas(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		query   string
		wantIDs []int64
	}{
		{"content word", "storm", []int64{2}},
		{"tag", "mouse", []int64{1}},
		{"other project excluded", "unrelated", nil},
		{"hash tag is quoted", "#plot", []int64{2}},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.SearchIdeas(ctx, 1, tt.query, 10)
			if err != nil {
				t.Fatalf("SearchIdeas(%q) error = %v", tt.query, err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("SearchIdeas(%q) returned %d ideas, want %d", tt.query, len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("result %d id = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestListCharactersAndRelationships(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	chars, err := db.ListCharacters(ctx, 1)
	if err != nil {
		t.Fatalf("ListCharacters() error = %v", err)
	}
	if len(chars) != 2 || chars[0].Name != "Mara" || chars[0].Role != "protagonist" {
		t.Errorf("ListCharacters() = %+v", chars)
	}

	rels, err := db.ListRelationships(ctx, 1)
	if err != nil {
		t.Fatalf("ListRelationships() error = %v", err)
	}
	if len(rels) != 1 || rels[0].Type != character.Mentor || rels[0].Label != "taught her the lamp" {
		t.Errorf("ListRelationships() = %+v", rels)
	}

	none, err := db.ListCharacters(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("ListCharacters(2) = %+v, want empty", none)
	}
}

func TestListEventsAndAppearances(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	events, err := db.ListEvents(ctx, 1)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 2 || events[0].Title != "Inciting incident" || events[0].Description != "The letter" {
		t.Errorf("ListEvents() = %+v, want ordered by position", events)
	}

	apps, err := db.ListAppearances(ctx, 1)
	if err != nil {
		t.Fatalf("ListAppearances() error = %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("ListAppearances() returned %d, want 3", len(apps))
	}
	// character 1 first, by position
	if apps[0].ID != 3 || apps[1].ID != 2 || apps[2].ID != 1 {
		t.Errorf("ListAppearances() order = %d,%d,%d, want 3,2,1", apps[0].ID, apps[1].ID, apps[2].ID)
	}
	if apps[1].EventID != 1 || apps[0].Note != "loses the key" {
		t.Errorf("appearance fields = %+v / %+v", apps[0], apps[1])
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"storm", "storm"},
		{"  storm boat ", "storm boat"},
		{"#plot", `"#plot"`},
		{`say "hi"`, `"say ""hi"""`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := prepareFTSQuery(tt.input); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
