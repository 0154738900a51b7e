// Package idea defines captured ideas and the quick-capture parser.
package idea

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/matsen/sutra/internal/similarity"
)

// Idea is a short note captured into a project. Ideas are indexed for
// similarity by content and tags; an idea may carry only tags.
type Idea struct {
	ID            int64     `json:"id"`
	ProjectID     int64     `json:"project_id" validate:"gt=0"`
	Content       string    `json:"content"`
	Tags          []string  `json:"tags" validate:"dive,required"`
	LinkedSceneID int64     `json:"linked_scene_id,omitempty" validate:"gte=0"`
	CreatedAt     time.Time `json:"created_at"`

	// Vector is the TF-IDF vector from the last index build. It is
	// derived data and only lives in the query database.
	Vector []float64 `json:"-"`
}

// Validation errors.
var (
	ErrEmptyContent     = errors.New("content or a tag is required")
	ErrInvalidProjectID = errors.New("project_id must be positive")
	ErrEmptyTag         = errors.New("tags cannot be empty strings")
	ErrInvalidSceneID   = errors.New("linked_scene_id cannot be negative")
	ErrIdeaNotFound     = errors.New("idea not found")
	ErrDuplicateID      = errors.New("idea with this id already exists")
)

var validate = validator.New()

// tagPattern matches #word tags in captured text.
var tagPattern = regexp.MustCompile(`#(\w+)`)

// ValidateForCreate validates an idea for creation.
// Returns an error if any required field is missing or invalid.
func (i *Idea) ValidateForCreate() error {
	if strings.TrimSpace(i.Content) == "" && len(i.Tags) == 0 {
		return ErrEmptyContent
	}
	if err := validate.Struct(i); err != nil {
		return fieldError(err)
	}
	return nil
}

func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Field() {
	case "ProjectID":
		return ErrInvalidProjectID
	case "Tags":
		return ErrEmptyTag
	case "LinkedSceneID":
		return ErrInvalidSceneID
	}
	return err
}

// SetCreatedAt sets CreatedAt to the current time if not already set.
func (i *Idea) SetCreatedAt() {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
}

// ParseCapture splits quick-capture text into content and tags. Every #word
// becomes a tag and is removed from the content, which is then trimmed.
// Text with tags but no other words yields empty content.
func ParseCapture(text string) (content string, tags []string, err error) {
	tags = []string{}
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		tags = append(tags, m[1])
	}
	content = strings.TrimSpace(tagPattern.ReplaceAllString(text, ""))
	if content == "" && len(tags) == 0 {
		return "", nil, ErrEmptyContent
	}
	return content, tags, nil
}

// ToDocument returns the view of the idea used by the similarity index.
func (i *Idea) ToDocument() similarity.Document {
	return similarity.Document{
		ID:        i.ID,
		Content:   i.Content,
		Tags:      i.Tags,
		CreatedAt: i.CreatedAt,
	}
}

// Label returns the content, or the tags for a tag-only idea.
func (i *Idea) Label() string {
	return i.ToDocument().Label()
}

// Documents converts ideas for indexing, preserving order.
func Documents(ideas []Idea) []similarity.Document {
	docs := make([]similarity.Document, len(ideas))
	for k := range ideas {
		docs[k] = ideas[k].ToDocument()
	}
	return docs
}
