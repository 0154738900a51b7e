package storage

import (
	"github.com/matsen/sutra/internal/character"
)

func characterID(c *character.Character) int64       { return c.ID }
func relationshipID(r *character.Relationship) int64 { return r.ID }

// ReadAllCharacters reads all characters from a JSONL file.
// Returns an error if any character fails validation (fail-fast).
func ReadAllCharacters(path string) ([]character.Character, error) {
	return readJSONL(path, "character", (*character.Character).ValidateForCreate)
}

// AppendCharacter adds a character to the end of a JSONL file.
func AppendCharacter(path string, c character.Character) error {
	return appendJSONL(path, "character", c)
}

// WriteAllCharacters writes all characters to a JSONL file, replacing existing content.
func WriteAllCharacters(path string, chars []character.Character) error {
	return writeAllJSONL(path, "character", chars)
}

// FindCharacterByID searches for a character by its ID.
func FindCharacterByID(chars []character.Character, id int64) (int, bool) {
	idx := indexByID(chars, id, characterID)
	return idx, idx >= 0
}

// DeleteCharacterFromSlice removes a character, preserving order.
func DeleteCharacterFromSlice(chars []character.Character, id int64) ([]character.Character, bool) {
	return deleteByID(chars, id, characterID)
}

// NextCharacterID returns the id the next character should get.
func NextCharacterID(chars []character.Character) int64 {
	return nextID(chars, characterID)
}

// ReadAllRelationships reads all relationships from a JSONL file.
// Returns an error if any relationship fails validation (fail-fast).
func ReadAllRelationships(path string) ([]character.Relationship, error) {
	return readJSONL(path, "relationship", (*character.Relationship).ValidateForCreate)
}

// AppendRelationship adds a relationship to the end of a JSONL file.
func AppendRelationship(path string, r character.Relationship) error {
	return appendJSONL(path, "relationship", r)
}

// WriteAllRelationships writes all relationships to a JSONL file, replacing existing content.
func WriteAllRelationships(path string, rels []character.Relationship) error {
	return writeAllJSONL(path, "relationship", rels)
}

// NextRelationshipID returns the id the next relationship should get.
func NextRelationshipID(rels []character.Relationship) int64 {
	return nextID(rels, relationshipID)
}

// RemoveRelationshipsFor drops every relationship touching the character.
// Returns the remaining relationships and how many were removed.
func RemoveRelationshipsFor(rels []character.Relationship, characterID int64) ([]character.Relationship, int) {
	kept := rels[:0]
	for _, r := range rels {
		if !r.Involves(characterID) {
			kept = append(kept, r)
		}
	}
	return kept, len(rels) - len(kept)
}
