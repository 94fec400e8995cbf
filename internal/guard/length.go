package guard

import (
	"regexp"
	"strconv"
	"strings"

	"writewme/internal/book"
)

// Action identifies the kind of authoring operation that produced a
// candidate. Explicit actions override free-text intent detection.
type Action string

const (
	ActionRewrite  Action = "rewrite"
	ActionExpand   Action = "expand"
	ActionLengthen Action = "lengthen"
	ActionContinue Action = "continue"
	ActionDevelop  Action = "develop"
	ActionShorten  Action = "shorten"
)

var expansionActions = map[Action]bool{
	ActionExpand:   true,
	ActionLengthen: true,
	ActionContinue: true,
	ActionDevelop:  true,
}

// Intent patterns run over normalized (lowercased, accent-folded) text, in
// both product languages.
var (
	expandIntentRe = regexp.MustCompile(`\b(alarga\w*|expand\w*|ampli\w*|extiende|extender|desarroll\w*|agranda\w*|enriquece\w*|lengthen\w*|extend\w*|develop\w*|enrich\w*|longer)\b|mas largo`)

	shortenIntentRe = regexp.MustCompile(`\b(acorta\w*|recorta\w*|resum\w*|condens\w*|abrevia\w*|reduce\w*|reducir|shorten\w*|trim\w*|summari\w*|shorter)\b|mas corto`)

	numericTargetRe = regexp.MustCompile(`(\d[\d.,]*)\s*(palabras|words)`)
)

// Bounds accepted for an explicit numeric word target.
const (
	minWordTarget = 30
	maxWordTarget = 50000
)

// LengthPolicy classifies instructions as expand/shorten/neutral and
// computes the minimum acceptable word count for a candidate.
type LengthPolicy struct{}

// ShouldEnforceExpansion reports whether the length floor applies. An
// explicit shorten action never enforces; the fixed expansion actions
// always do; otherwise free-text intent decides, with shorten intent
// winning when both match.
func (LengthPolicy) ShouldEnforceExpansion(action Action, instruction string) bool {
	if action == ActionShorten {
		return false
	}
	if expansionActions[action] {
		return true
	}

	norm := book.Normalize(instruction)
	if shortenIntentRe.MatchString(norm) {
		return false
	}
	return expandIntentRe.MatchString(norm)
}

// ResolveMinimumWords returns the larger of the explicit numeric target in
// the instruction and the original text's word count: expansion never
// licenses a net shrink.
func (LengthPolicy) ResolveMinimumWords(instruction, originalText string) int {
	min := book.CountWords(originalText)
	if target := parseWordTarget(instruction); target > min {
		min = target
	}
	return min
}

func parseWordTarget(instruction string) int {
	m := numericTargetRe.FindStringSubmatch(book.Normalize(instruction))
	if m == nil {
		return 0
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])
	n, err := strconv.Atoi(digits)
	if err != nil || n < minWordTarget || n > maxWordTarget {
		return 0
	}
	return n
}
