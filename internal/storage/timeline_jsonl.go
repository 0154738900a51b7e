package storage

import (
	"github.com/matsen/sutra/internal/timeline"
)

func eventID(e *timeline.Event) int64           { return e.ID }
func appearanceID(a *timeline.Appearance) int64 { return a.ID }

// ReadAllEvents reads all timeline events from a JSONL file.
// Returns an error if any event fails validation (fail-fast).
func ReadAllEvents(path string) ([]timeline.Event, error) {
	return readJSONL(path, "event", (*timeline.Event).ValidateForCreate)
}

// AppendEvent adds an event to the end of a JSONL file.
func AppendEvent(path string, e timeline.Event) error {
	return appendJSONL(path, "event", e)
}

// WriteAllEvents writes all events to a JSONL file, replacing existing content.
func WriteAllEvents(path string, events []timeline.Event) error {
	return writeAllJSONL(path, "event", events)
}

// FindEventByID searches for an event by its ID.
func FindEventByID(events []timeline.Event, id int64) (int, bool) {
	idx := indexByID(events, id, eventID)
	return idx, idx >= 0
}

// NextEventID returns the id the next event should get.
func NextEventID(events []timeline.Event) int64 {
	return nextID(events, eventID)
}

// ReadAllAppearances reads all character appearances from a JSONL file.
// Returns an error if any appearance fails validation (fail-fast).
func ReadAllAppearances(path string) ([]timeline.Appearance, error) {
	return readJSONL(path, "appearance", (*timeline.Appearance).ValidateForCreate)
}

// AppendAppearance adds an appearance to the end of a JSONL file.
func AppendAppearance(path string, a timeline.Appearance) error {
	return appendJSONL(path, "appearance", a)
}

// WriteAllAppearances writes all appearances to a JSONL file, replacing existing content.
func WriteAllAppearances(path string, apps []timeline.Appearance) error {
	return writeAllJSONL(path, "appearance", apps)
}

// FindAppearanceByID searches for an appearance by its ID.
func FindAppearanceByID(apps []timeline.Appearance, id int64) (int, bool) {
	idx := indexByID(apps, id, appearanceID)
	return idx, idx >= 0
}

// NextAppearanceID returns the id the next appearance should get.
func NextAppearanceID(apps []timeline.Appearance) int64 {
	return nextID(apps, appearanceID)
}

// RemoveAppearancesFor drops every appearance of the character.
// Returns the remaining appearances and how many were removed.
func RemoveAppearancesFor(apps []timeline.Appearance, characterID int64) ([]timeline.Appearance, int) {
	kept := apps[:0]
	for _, a := range apps {
		if a.CharacterID != characterID {
			kept = append(kept, a)
		}
	}
	return kept, len(apps) - len(kept)
}
