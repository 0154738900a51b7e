package storage

import (
	"github.com/matsen/sutra/internal/idea"
)

func ideaID(i *idea.Idea) int64 { return i.ID }

// ReadAllIdeas reads all ideas from a JSONL file.
// Returns an error if any idea fails validation (fail-fast).
func ReadAllIdeas(path string) ([]idea.Idea, error) {
	return readJSONL(path, "idea", (*idea.Idea).ValidateForCreate)
}

// AppendIdea adds an idea to the end of a JSONL file.
func AppendIdea(path string, i idea.Idea) error {
	return appendJSONL(path, "idea", i)
}

// WriteAllIdeas writes all ideas to a JSONL file, replacing existing content.
func WriteAllIdeas(path string, ideas []idea.Idea) error {
	return writeAllJSONL(path, "idea", ideas)
}

// FindIdeaByID searches for an idea by its ID in an in-memory slice.
// Returns the index and true if found, -1 and false otherwise.
func FindIdeaByID(ideas []idea.Idea, id int64) (int, bool) {
	idx := indexByID(ideas, id, ideaID)
	return idx, idx >= 0
}

// DeleteIdeaFromSlice removes an idea from an in-memory slice, preserving order.
func DeleteIdeaFromSlice(ideas []idea.Idea, id int64) ([]idea.Idea, bool) {
	return deleteByID(ideas, id, ideaID)
}

// NextIdeaID returns the id the next captured idea should get.
func NextIdeaID(ideas []idea.Idea) int64 {
	return nextID(ideas, ideaID)
}

// IdeasForProject filters ideas to one project, keeping file order.
func IdeasForProject(ideas []idea.Idea, projectID int64) []idea.Idea {
	var out []idea.Idea
	for _, i := range ideas {
		if i.ProjectID == projectID {
			out = append(out, i)
		}
	}
	return out
}
