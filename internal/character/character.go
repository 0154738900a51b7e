// Package character defines characters and the typed relationships between
// them.
package character

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultColor is used for characters created without an explicit color.
const DefaultColor = "#5a9e9e"

// Character is a named member of a project's cast.
type Character struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id" validate:"gt=0"`
	Name        string `json:"name" validate:"required"`
	Color       string `json:"color" validate:"required,hexcolor"`
	Description string `json:"description,omitempty"`
	Role        string `json:"role,omitempty"`
	Motivation  string `json:"motivation,omitempty"`
	Goal        string `json:"goal,omitempty"`
	Conflict    string `json:"conflict,omitempty"`
	Epiphany    string `json:"epiphany,omitempty"`
}

// RelationshipType classifies the link between two characters.
type RelationshipType string

// Relationship types.
const (
	Ally   RelationshipType = "ally"
	Rival  RelationshipType = "rival"
	Mentor RelationshipType = "mentor"
	Love   RelationshipType = "love"
	Family RelationshipType = "family"
	Enemy  RelationshipType = "enemy"
	Other  RelationshipType = "other"
)

// RelationshipTypes lists every valid type in display order.
var RelationshipTypes = []RelationshipType{Ally, Rival, Mentor, Love, Family, Enemy, Other}

var relationshipColors = map[RelationshipType]string{
	Ally:   "#5a9e9e",
	Rival:  "#e55555",
	Mentor: "#c4915e",
	Love:   "#d46a9e",
	Family: "#7ab85e",
	Enemy:  "#e55555",
	Other:  "#888888",
}

// Color returns the stroke color for a relationship type. Unknown types
// render grey.
func (t RelationshipType) Color() string {
	if c, ok := relationshipColors[t]; ok {
		return c
	}
	return "#888"
}

// Relationship is an undirected, typed link between two characters.
type Relationship struct {
	ID         int64            `json:"id"`
	ProjectID  int64            `json:"project_id" validate:"gt=0"`
	CharacterA int64            `json:"character_a_id" validate:"gt=0"`
	CharacterB int64            `json:"character_b_id" validate:"gt=0"`
	Type       RelationshipType `json:"type" validate:"oneof=ally rival mentor love family enemy other"`
	Label      string           `json:"label,omitempty"`
}

// Validation errors.
var (
	ErrEmptyName               = errors.New("name is required")
	ErrInvalidColor            = errors.New("color must be a hex color like #5a9e9e")
	ErrInvalidProjectID        = errors.New("project_id must be positive")
	ErrInvalidCharacterID      = errors.New("character ids must be positive")
	ErrInvalidRelationshipType = errors.New("type must be one of: ally, rival, mentor, love, family, enemy, other")
	ErrSelfRelationship        = errors.New("a character cannot be related to itself")
	ErrCharacterNotFound       = errors.New("character not found")
	ErrRelationshipNotFound    = errors.New("relationship not found")
)

var validate = validator.New()

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3}([0-9a-fA-F]{3})?$`)

// ValidateForCreate validates a character for creation.
func (c *Character) ValidateForCreate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if err := validate.Struct(c); err != nil {
		return fieldError(err)
	}
	return nil
}

// ValidateForCreate validates a relationship for creation.
func (r *Relationship) ValidateForCreate() error {
	if err := validate.Struct(r); err != nil {
		return fieldError(err)
	}
	if r.CharacterA == r.CharacterB {
		return ErrSelfRelationship
	}
	return nil
}

func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Field() {
	case "Name":
		return ErrEmptyName
	case "Color":
		return ErrInvalidColor
	case "ProjectID":
		return ErrInvalidProjectID
	case "CharacterA", "CharacterB":
		return ErrInvalidCharacterID
	case "Type":
		return ErrInvalidRelationshipType
	}
	return err
}

// ParseRelationshipType parses s case-insensitively.
func ParseRelationshipType(s string) (RelationshipType, error) {
	t := RelationshipType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := relationshipColors[t]; !ok {
		return "", ErrInvalidRelationshipType
	}
	return t, nil
}

// NormalizeColor returns DefaultColor for an empty value and otherwise
// checks that c is a hex color.
func NormalizeColor(c string) (string, error) {
	if c == "" {
		return DefaultColor, nil
	}
	if !hexColor.MatchString(c) {
		return "", ErrInvalidColor
	}
	return c, nil
}

// Initials returns the badge text drawn inside a character node: the first
// three letters of the name, upper-cased.
func Initials(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > 3 {
		r = r[:3]
	}
	return strings.ToUpper(string(r))
}

// Involves reports whether the relationship touches character id.
func (r *Relationship) Involves(id int64) bool {
	return r.CharacterA == id || r.CharacterB == id
}
