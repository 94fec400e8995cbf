package bible

import (
	"context"
	"fmt"
	"strings"

	"writewme/internal/book"
	"writewme/internal/llm"
	"writewme/internal/storage"
)

// Syncer scans a chapter for characters and locations missing from the
// story bible and registers them. Proposals that collide with a known name
// or alias are dropped; existing records are never modified.
type Syncer struct {
	store   storage.Store
	client  llm.Client
	prompts *llm.PromptBuilder
	genOpts llm.Options
}

func NewSyncer(store storage.Store, client llm.Client, genOpts llm.Options) *Syncer {
	return &Syncer{
		store:   store,
		client:  client,
		prompts: &llm.PromptBuilder{},
		genOpts: genOpts,
	}
}

// Sync extracts new story entities from a chapter and persists them,
// returning the records it added.
func (s *Syncer) Sync(ctx context.Context, chapterID string) ([]book.Entity, error) {
	ch, err := s.store.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	known, err := s.store.ListEntities(ctx, ch.BookID)
	if err != nil {
		return nil, err
	}

	prompt := s.prompts.BuildBibleSyncPrompt(ch.PlainText(), known)
	raw, err := s.client.Generate(ctx, prompt, s.genOpts)
	if err != nil {
		return nil, fmt.Errorf("bible sync generation failed: %w", err)
	}

	proposals := parseProposals(llm.CleanOutput(raw), ch.BookID)

	seen := knownNames(known)
	var added []book.Entity
	for _, p := range proposals {
		key := book.Normalize(p.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		saved, err := s.store.SaveEntity(ctx, p)
		if err != nil {
			return added, fmt.Errorf("failed to save entity %q: %w", p.Name, err)
		}
		added = append(added, saved)
	}
	return added, nil
}

// knownNames indexes every existing name and alias in normalized form.
func knownNames(known []book.Entity) map[string]bool {
	seen := make(map[string]bool, len(known))
	for _, e := range known {
		seen[book.Normalize(e.Name)] = true
		for _, alias := range e.AliasList() {
			seen[book.Normalize(alias)] = true
		}
	}
	return seen
}

// parseProposals reads the PERSONAJE/LUGAR lines of a sync response. Lines
// that do not match the format are ignored.
func parseProposals(raw, bookID string) []book.Entity {
	var out []book.Entity
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "NINGUNO") {
			continue
		}

		var kind book.EntityKind
		switch {
		case strings.HasPrefix(strings.ToUpper(line), "PERSONAJE:"):
			kind = book.KindCharacter
		case strings.HasPrefix(strings.ToUpper(line), "LUGAR:"):
			kind = book.KindLocation
		default:
			continue
		}

		rest := strings.TrimSpace(line[strings.Index(line, ":")+1:])
		name, desc := rest, ""
		if i := strings.Index(rest, "|"); i >= 0 {
			name = strings.TrimSpace(rest[:i])
			desc = strings.TrimSpace(rest[i+1:])
		}
		if name == "" {
			continue
		}

		out = append(out, book.Entity{
			BookID:      bookID,
			Kind:        kind,
			Name:        name,
			Description: desc,
		})
	}
	return out
}
