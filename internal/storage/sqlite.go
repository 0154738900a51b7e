package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// SourcePaths names the JSONL files a rebuild reads.
type SourcePaths struct {
	Ideas         string
	Characters    string
	Relationships string
	Events        string
	Appearances   string
}

// RebuildCounts reports how many records each table received.
type RebuildCounts struct {
	Ideas         int `json:"ideas"`
	Characters    int `json:"characters"`
	Relationships int `json:"relationships"`
	Events        int `json:"events"`
	Appearances   int `json:"appearances"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	// Create schema if needed
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS ideas (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			tags_json TEXT,
			linked_scene_id INTEGER,
			created_at TEXT NOT NULL,
			tfidf_vector BLOB
		);

		CREATE INDEX IF NOT EXISTS idx_ideas_project ON ideas(project_id);

		-- Full-text search over idea content and tags
		CREATE VIRTUAL TABLE IF NOT EXISTS ideas_fts USING fts5(
			id,
			content,
			tags_text
		);

		CREATE TABLE IF NOT EXISTS characters (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			description TEXT,
			role TEXT,
			motivation TEXT,
			goal TEXT,
			conflict TEXT,
			epiphany TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_characters_project ON characters(project_id);

		CREATE TABLE IF NOT EXISTS relationships (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL,
			character_a_id INTEGER NOT NULL,
			character_b_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			label TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_relationships_project ON relationships(project_id);

		CREATE TABLE IF NOT EXISTS timeline_events (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			position REAL NOT NULL,
			width REAL NOT NULL,
			color TEXT NOT NULL,
			description TEXT
		);

		CREATE TABLE IF NOT EXISTS appearances (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL,
			character_id INTEGER NOT NULL,
			scene_id INTEGER,
			timeline_event_id INTEGER,
			position REAL NOT NULL,
			fortune REAL NOT NULL,
			note TEXT,
			is_death INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_appearances_character ON appearances(character_id);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildAll clears every table and reloads it from the JSONL sources.
// Derived idea vectors are dropped; the next index refresh restores them.
func (d *DB) RebuildAll(paths SourcePaths) (RebuildCounts, error) {
	var counts RebuildCounts
	var err error

	if counts.Ideas, err = d.RebuildIdeasFromJSONL(paths.Ideas); err != nil {
		return counts, err
	}
	if counts.Characters, err = d.RebuildCharactersFromJSONL(paths.Characters); err != nil {
		return counts, err
	}
	if counts.Relationships, err = d.RebuildRelationshipsFromJSONL(paths.Relationships); err != nil {
		return counts, err
	}
	if counts.Events, err = d.RebuildEventsFromJSONL(paths.Events); err != nil {
		return counts, err
	}
	if counts.Appearances, err = d.RebuildAppearancesFromJSONL(paths.Appearances); err != nil {
		return counts, err
	}
	return counts, nil
}

// replaceTable runs fn inside a transaction after clearing tables.
func (d *DB) replaceTable(tables []string, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if _, err := tx.Exec("DELETE FROM " + t); err != nil {
			return fmt.Errorf("clearing %s table: %w", t, err)
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableID converts an optional reference to sql.NullInt64, treating 0 as NULL.
func nullableID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	// For simple queries, just quote the terms
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~#") {
		// Escape internal quotes and wrap in quotes
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
