package retrieval

import (
	"sort"
	"strings"

	"writewme/internal/book"
)

// Scoring weights for relevance ranking. Name and alias hits dominate;
// token overlap only separates entities nothing else distinguishes.
const (
	nameMatchWeight   = 60.0
	aliasMatchWeight  = 40.0
	queryTokenWeight  = 4.0
	recentTokenWeight = 6.0
)

// Options controls how story entities are ranked and truncated.
type Options struct {
	MaxCharacters int
	MaxLocations  int
	RecencyWeight float64
}

func DefaultOptions() Options {
	return Options{
		MaxCharacters: 6,
		MaxLocations:  4,
		RecencyWeight: 1.0,
	}
}

// Select returns the bounded story-entity context for a prompt: a greedy
// top-k relevance filter over the book's characters and locations, scored
// against the query text and a recency window. Deterministic for identical
// inputs; never returns an empty context while entities exist.
func Select(entities []book.Entity, queryText, recentText string, opts Options) []book.Entity {
	if opts.MaxCharacters <= 0 {
		opts.MaxCharacters = DefaultOptions().MaxCharacters
	}
	if opts.MaxLocations <= 0 {
		opts.MaxLocations = DefaultOptions().MaxLocations
	}
	if opts.RecencyWeight < 0 {
		opts.RecencyWeight = 0
	}
	if opts.RecencyWeight > 2 {
		opts.RecencyWeight = 2
	}

	var characters, locations []book.Entity
	for _, e := range entities {
		if e.Kind == book.KindLocation {
			locations = append(locations, e)
		} else {
			characters = append(characters, e)
		}
	}

	q := newScoringInput(queryText, recentText, opts.RecencyWeight)
	selected := selectTop(characters, opts.MaxCharacters, q)
	selected = append(selected, selectTop(locations, opts.MaxLocations, q)...)
	return selected
}

type scoringInput struct {
	queryNorm     string
	recentNorm    string
	queryTokens   map[string]bool
	recentTokens  map[string]bool
	recencyWeight float64
}

func newScoringInput(queryText, recentText string, recencyWeight float64) scoringInput {
	return scoringInput{
		queryNorm:     book.Normalize(queryText),
		recentNorm:    book.Normalize(recentText),
		queryTokens:   book.Tokenize(queryText),
		recentTokens:  book.Tokenize(recentText),
		recencyWeight: recencyWeight,
	}
}

type scoredEntity struct {
	entity book.Entity
	score  float64
	index  int
}

func selectTop(entities []book.Entity, max int, in scoringInput) []book.Entity {
	// Within the cap nothing needs ranking; input order is preserved.
	if len(entities) <= max {
		return entities
	}

	scored := make([]scoredEntity, len(entities))
	anyPositive := false
	for i, e := range entities {
		s := scoreEntity(e, in)
		if s > 0 {
			anyPositive = true
		}
		scored[i] = scoredEntity{entity: e, score: s, index: i}
	}

	// Nothing matched: keep the first entities in input order rather than
	// silently dropping all context.
	if !anyPositive {
		return append([]book.Entity(nil), entities[:max]...)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score == scored[j].score {
			return scored[i].index < scored[j].index
		}
		return scored[i].score > scored[j].score
	})

	out := make([]book.Entity, 0, max)
	for _, se := range scored[:max] {
		out = append(out, se.entity)
	}
	return out
}

func scoreEntity(e book.Entity, in scoringInput) float64 {
	score := 0.0

	name := book.Normalize(e.Name)
	if name != "" {
		if in.queryNorm != "" && strings.Contains(in.queryNorm, name) {
			score += nameMatchWeight
		}
		if in.recentNorm != "" && strings.Contains(in.recentNorm, name) {
			score += nameMatchWeight * in.recencyWeight
		}
	}

	for _, alias := range e.AliasList() {
		a := book.Normalize(alias)
		if a == "" {
			continue
		}
		if in.queryNorm != "" && strings.Contains(in.queryNorm, a) {
			score += aliasMatchWeight
		}
		if in.recentNorm != "" && strings.Contains(in.recentNorm, a) {
			score += aliasMatchWeight * in.recencyWeight
		}
	}

	for token := range book.Tokenize(e.DescriptiveText()) {
		if in.queryTokens[token] {
			score += queryTokenWeight
		}
		if in.recentTokens[token] {
			score += recentTokenWeight * in.recencyWeight
		}
	}

	return score
}
