package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/sutra/internal/idea"
)

const selectIdeaFields = `id, project_id, content, tags_json, linked_scene_id, created_at, tfidf_vector`

// RebuildIdeasFromJSONL clears the ideas tables and rebuilds them from a JSONL file.
func (d *DB) RebuildIdeasFromJSONL(jsonlPath string) (int, error) {
	ideas, err := ReadAllIdeas(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading ideas JSONL: %w", err)
	}

	err = d.replaceTable([]string{"ideas", "ideas_fts"}, func(tx *sql.Tx) error {
		ideasStmt, err := tx.Prepare(`
			INSERT INTO ideas (id, project_id, content, tags_json, linked_scene_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing ideas insert: %w", err)
		}
		defer ideasStmt.Close()

		ftsStmt, err := tx.Prepare(`
			INSERT INTO ideas_fts (id, content, tags_text)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing ideas_fts insert: %w", err)
		}
		defer ftsStmt.Close()

		for _, i := range ideas {
			var tagsJSON string
			if len(i.Tags) > 0 {
				data, err := json.Marshal(i.Tags)
				if err != nil {
					return fmt.Errorf("marshaling tags for idea %d: %w", i.ID, err)
				}
				tagsJSON = string(data)
			}

			_, err := ideasStmt.Exec(
				i.ID, i.ProjectID, i.Content, nullableStringValue(tagsJSON),
				nullableID(i.LinkedSceneID), i.CreatedAt.UTC().Format(time.RFC3339Nano),
			)
			if err != nil {
				return fmt.Errorf("inserting idea %d: %w", i.ID, err)
			}

			_, err = ftsStmt.Exec(strconv.FormatInt(i.ID, 10), i.Content, strings.Join(i.Tags, " "))
			if err != nil {
				return fmt.Errorf("inserting fts for idea %d: %w", i.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(ideas), nil
}

// ListIdeas returns a project's ideas ordered by id. Persisted vectors that
// fail to decode are dropped.
func (d *DB) ListIdeas(ctx context.Context, projectID int64) ([]idea.Idea, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+selectIdeaFields+`
		FROM ideas WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}
	defer rows.Close()

	return scanIdeas(rows)
}

// SearchIdeas performs a full-text search over idea content and tags.
func (d *DB) SearchIdeas(ctx context.Context, projectID int64, query string, limit int) ([]idea.Idea, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+selectIdeaFields+`
		FROM ideas
		WHERE project_id = ?
		  AND CAST(id AS TEXT) IN (SELECT id FROM ideas_fts WHERE ideas_fts MATCH ?)
		ORDER BY id
		LIMIT ?`, projectID, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching ideas: %w", err)
	}
	defer rows.Close()

	return scanIdeas(rows)
}

// UpdateIdeaVectors stores the vectors of one index generation. Ideas of
// the project missing from vectors get their vector cleared, since vectors
// from different generations are not comparable.
func (d *DB) UpdateIdeaVectors(ctx context.Context, projectID int64, vectors map[int64][]float64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE ideas SET tfidf_vector = NULL WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clearing idea vectors: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE ideas SET tfidf_vector = ? WHERE id = ? AND project_id = ?`)
	if err != nil {
		return fmt.Errorf("preparing vector update: %w", err)
	}
	defer stmt.Close()

	for id, vec := range vectors {
		if _, err := stmt.ExecContext(ctx, EncodeVector(vec), id, projectID); err != nil {
			return fmt.Errorf("updating vector for idea %d: %w", id, err)
		}
	}

	return tx.Commit()
}

// CountIdeas returns the number of ideas in a project.
func (d *DB) CountIdeas(ctx context.Context, projectID int64) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ideas WHERE project_id = ?", projectID).Scan(&count)
	return count, err
}

func scanIdea(s scanner) (idea.Idea, error) {
	var i idea.Idea
	var tagsJSON sql.NullString
	var sceneID sql.NullInt64
	var createdAt string
	var blob []byte

	if err := s.Scan(&i.ID, &i.ProjectID, &i.Content, &tagsJSON, &sceneID, &createdAt, &blob); err != nil {
		return i, err
	}

	i.LinkedSceneID = sceneID.Int64
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &i.Tags); err != nil {
			return i, fmt.Errorf("parsing tags JSON for idea %d: %w", i.ID, err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		i.CreatedAt = t
	}
	if vec, err := DecodeVector(blob); err == nil {
		i.Vector = vec
	}

	return i, nil
}

func scanIdeas(rows *sql.Rows) ([]idea.Idea, error) {
	var ideas []idea.Idea
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, i)
	}
	return ideas, rows.Err()
}
