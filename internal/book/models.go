package book

import (
	"strings"
	"time"
)

// LengthPreset is the per-chapter target length hint folded into prompts.
type LengthPreset string

const (
	PresetShort  LengthPreset = "short"
	PresetMedium LengthPreset = "medium"
	PresetLong   LengthPreset = "long"
)

// Chapter is the unit of authoring. Content holds the editor's rich text;
// use PlainText for anything word-count or prompt related.
type Chapter struct {
	ID           string       `json:"id"`
	BookID       string       `json:"book_id"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	LengthPreset LengthPreset `json:"length_preset"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PlainText strips the rich-text markup from the chapter content.
func (c Chapter) PlainText() string {
	return StripMarkup(c.Content)
}

// WordCount counts words in the chapter's plain text.
func (c Chapter) WordCount() int {
	return CountWords(c.PlainText())
}

// Snapshot is an immutable pre-mutation copy of a chapter. Versions are
// strictly increasing per chapter and never reused.
type Snapshot struct {
	ID        string    `json:"id"`
	ChapterID string    `json:"chapter_id"`
	Version   int       `json:"version"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	Chapter   Chapter   `json:"chapter"`
}

// EntityKind distinguishes the two story-bible record types.
type EntityKind string

const (
	KindCharacter EntityKind = "character"
	KindLocation  EntityKind = "location"
)

// Entity is a story-bible record (character or location) used as grounding
// context for generation. Read-only input to the context selector.
type Entity struct {
	ID          string     `json:"id"`
	BookID      string     `json:"book_id"`
	Kind        EntityKind `json:"kind"`
	Name        string     `json:"name"`
	Aliases     string     `json:"aliases"`
	Description string     `json:"description"`
	Notes       string     `json:"notes"`
}

// AliasList splits the delimited alias field into trimmed, non-empty names.
func (e Entity) AliasList() []string {
	if strings.TrimSpace(e.Aliases) == "" {
		return nil
	}
	parts := strings.FieldsFunc(e.Aliases, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DescriptiveText joins every free-text field of the entity for
// bag-of-tokens scoring.
func (e Entity) DescriptiveText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{e.Name, e.Aliases, e.Description, e.Notes} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
