package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matsen/sutra/internal/timeline"
)

// RebuildEventsFromJSONL clears the timeline_events table and rebuilds it from a JSONL file.
func (d *DB) RebuildEventsFromJSONL(jsonlPath string) (int, error) {
	events, err := ReadAllEvents(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading events JSONL: %w", err)
	}

	err = d.replaceTable([]string{"timeline_events"}, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO timeline_events (id, project_id, title, position, width, color, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing events insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range events {
			_, err := stmt.Exec(e.ID, e.ProjectID, e.Title, e.Position, e.Width, e.Color, nullableStringValue(e.Description))
			if err != nil {
				return fmt.Errorf("inserting event %d: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(events), nil
}

// RebuildAppearancesFromJSONL clears the appearances table and rebuilds it from a JSONL file.
func (d *DB) RebuildAppearancesFromJSONL(jsonlPath string) (int, error) {
	apps, err := ReadAllAppearances(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading appearances JSONL: %w", err)
	}

	err = d.replaceTable([]string{"appearances"}, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO appearances (id, project_id, character_id, scene_id, timeline_event_id, position, fortune, note, is_death)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing appearances insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range apps {
			_, err := stmt.Exec(
				a.ID, a.ProjectID, a.CharacterID, nullableID(a.SceneID), nullableID(a.EventID),
				a.Position, a.Fortune, nullableStringValue(a.Note), a.IsDeath,
			)
			if err != nil {
				return fmt.Errorf("inserting appearance %d: %w", a.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(apps), nil
}

// ListEvents returns a project's timeline events ordered by position.
func (d *DB) ListEvents(ctx context.Context, projectID int64) ([]timeline.Event, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, project_id, title, position, width, color, description
		FROM timeline_events WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []timeline.Event
	for rows.Next() {
		var e timeline.Event
		var description sql.NullString
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Title, &e.Position, &e.Width, &e.Color, &description); err != nil {
			return nil, err
		}
		e.Description = description.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListAppearances returns a project's appearances ordered by character then position.
func (d *DB) ListAppearances(ctx context.Context, projectID int64) ([]timeline.Appearance, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, project_id, character_id, scene_id, timeline_event_id, position, fortune, note, is_death
		FROM appearances WHERE project_id = ? ORDER BY character_id, position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing appearances: %w", err)
	}
	defer rows.Close()

	var apps []timeline.Appearance
	for rows.Next() {
		var a timeline.Appearance
		var sceneID, eventID sql.NullInt64
		var note sql.NullString
		err := rows.Scan(&a.ID, &a.ProjectID, &a.CharacterID, &sceneID, &eventID,
			&a.Position, &a.Fortune, &note, &a.IsDeath)
		if err != nil {
			return nil, err
		}
		a.SceneID = sceneID.Int64
		a.EventID = eventID.Int64
		a.Note = note.String
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
