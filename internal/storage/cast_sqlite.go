package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matsen/sutra/internal/character"
)

// RebuildCharactersFromJSONL clears the characters table and rebuilds it from a JSONL file.
func (d *DB) RebuildCharactersFromJSONL(jsonlPath string) (int, error) {
	chars, err := ReadAllCharacters(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading characters JSONL: %w", err)
	}

	err = d.replaceTable([]string{"characters"}, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO characters (id, project_id, name, color, description, role, motivation, goal, conflict, epiphany)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing characters insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range chars {
			_, err := stmt.Exec(
				c.ID, c.ProjectID, c.Name, c.Color,
				nullableStringValue(c.Description), nullableStringValue(c.Role),
				nullableStringValue(c.Motivation), nullableStringValue(c.Goal),
				nullableStringValue(c.Conflict), nullableStringValue(c.Epiphany),
			)
			if err != nil {
				return fmt.Errorf("inserting character %d: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(chars), nil
}

// RebuildRelationshipsFromJSONL clears the relationships table and rebuilds it from a JSONL file.
func (d *DB) RebuildRelationshipsFromJSONL(jsonlPath string) (int, error) {
	rels, err := ReadAllRelationships(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading relationships JSONL: %w", err)
	}

	err = d.replaceTable([]string{"relationships"}, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO relationships (id, project_id, character_a_id, character_b_id, type, label)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing relationships insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rels {
			_, err := stmt.Exec(r.ID, r.ProjectID, r.CharacterA, r.CharacterB, string(r.Type), nullableStringValue(r.Label))
			if err != nil {
				return fmt.Errorf("inserting relationship %d: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(rels), nil
}

// ListCharacters returns a project's characters ordered by id.
func (d *DB) ListCharacters(ctx context.Context, projectID int64) ([]character.Character, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, project_id, name, color, description, role, motivation, goal, conflict, epiphany
		FROM characters WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	var chars []character.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// ListRelationships returns a project's relationships ordered by id.
func (d *DB) ListRelationships(ctx context.Context, projectID int64) ([]character.Relationship, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, project_id, character_a_id, character_b_id, type, label
		FROM relationships WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	defer rows.Close()

	var rels []character.Relationship
	for rows.Next() {
		var r character.Relationship
		var typ string
		var label sql.NullString
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.CharacterA, &r.CharacterB, &typ, &label); err != nil {
			return nil, err
		}
		r.Type = character.RelationshipType(typ)
		r.Label = label.String
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

func scanCharacter(s scanner) (character.Character, error) {
	var c character.Character
	var description, role, motivation, goal, conflict, epiphany sql.NullString

	err := s.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Color,
		&description, &role, &motivation, &goal, &conflict, &epiphany)
	if err != nil {
		return c, err
	}

	c.Description = description.String
	c.Role = role.String
	c.Motivation = motivation.String
	c.Goal = goal.String
	c.Conflict = conflict.String
	c.Epiphany = epiphany.String
	return c, nil
}
