// Package timeline models the story-arc timeline: events placed along the
// story axis and character appearances plotted by position and fortune.
package timeline

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matsen/sutra/internal/viewport"
)

// Defaults for new events and appearances.
const (
	DefaultEventColor = "#c4915e"
	DefaultEventWidth = 0.05
	NeutralFortune    = 0.5
)

// Event is a span on the story axis (inciting incident, midpoint, ...).
type Event struct {
	ID          int64   `json:"id"`
	ProjectID   int64   `json:"project_id" validate:"gt=0"`
	Title       string  `json:"title" validate:"required"`
	Position    float64 `json:"position" validate:"gte=0,lte=1"`
	Width       float64 `json:"width" validate:"gte=0.01,lte=0.3"`
	Color       string  `json:"color" validate:"required,hexcolor"`
	Description string  `json:"description,omitempty"`
}

// Appearance places a character at a point of the story with a fortune
// between 0 (ill) and 1 (good).
type Appearance struct {
	ID          int64   `json:"id"`
	ProjectID   int64   `json:"project_id" validate:"gt=0"`
	CharacterID int64   `json:"character_id" validate:"gt=0"`
	SceneID     int64   `json:"scene_id,omitempty" validate:"gte=0"`
	EventID     int64   `json:"timeline_event_id,omitempty" validate:"gte=0"`
	Position    float64 `json:"position" validate:"gte=0,lte=1"`
	Fortune     float64 `json:"fortune" validate:"gte=0,lte=1"`
	Note        string  `json:"note,omitempty"`
	IsDeath     bool    `json:"is_death,omitempty"`
}

// Chapter is a named run of consecutive scenes, used for division lines.
type Chapter struct {
	Title  string `json:"title"`
	Scenes int    `json:"scenes"`
}

// Validation errors.
var (
	ErrEmptyTitle         = errors.New("title is required")
	ErrInvalidProjectID   = errors.New("project_id must be positive")
	ErrInvalidCharacterID = errors.New("character_id must be positive")
	ErrInvalidPosition    = errors.New("position must be between 0 and 1")
	ErrInvalidFortune     = errors.New("fortune must be between 0 and 1")
	ErrInvalidWidth       = errors.New("width must be between 0.01 and 0.3")
	ErrInvalidColor       = errors.New("color must be a hex color like #c4915e")
	ErrInvalidReference   = errors.New("scene and event references cannot be negative")
	ErrEventNotFound      = errors.New("timeline event not found")
	ErrAppearanceNotFound = errors.New("appearance not found")
)

var validate = validator.New()

// ValidateForCreate validates an event for creation.
func (e *Event) ValidateForCreate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if err := validate.Struct(e); err != nil {
		return fieldError(err)
	}
	return nil
}

// ValidateForCreate validates an appearance for creation.
func (a *Appearance) ValidateForCreate() error {
	if err := validate.Struct(a); err != nil {
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
	case "CharacterID":
		return ErrInvalidCharacterID
	case "Title":
		return ErrEmptyTitle
	case "Position":
		return ErrInvalidPosition
	case "Fortune":
		return ErrInvalidFortune
	case "Width":
		return ErrInvalidWidth
	case "Color":
		return ErrInvalidColor
	case "SceneID", "EventID":
		return ErrInvalidReference
	}
	return err
}

// ApplyDefaults fills in width and color for events created without them.
func (e *Event) ApplyDefaults() {
	if e.Width == 0 {
		e.Width = DefaultEventWidth
	}
	if e.Color == "" {
		e.Color = DefaultEventColor
	}
}

// MoveTo sets the story position, clamped and rounded to the persisted
// precision.
func (e *Event) MoveTo(position float64) {
	e.Position = viewport.Round3(viewport.Clamp01(position))
}

// MoveTo sets position and fortune, clamped and rounded to the persisted
// precision.
func (a *Appearance) MoveTo(position, fortune float64) {
	a.Position = viewport.Round3(viewport.Clamp01(position))
	a.Fortune = viewport.Round3(viewport.Clamp01(fortune))
}
