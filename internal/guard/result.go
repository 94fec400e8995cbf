package guard

import (
	"strings"

	"writewme/internal/llm"
)

// Result is the outcome of a guard stage. Corrected signals that Text
// differs from the unverified candidate that entered the guard.
type Result struct {
	Text        string
	SummaryText string
	Corrected   bool
}

// SplitChangeSummary separates a generation into the chapter body and the
// optional trailing change-summary block.
func SplitChangeSummary(text string) (body, summary string) {
	for _, marker := range []string{"\n" + llm.ChangeSummaryMarker, llm.ChangeSummaryMarker} {
		if idx := strings.Index(text, marker); idx >= 0 {
			return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+len(marker):])
		}
	}
	return strings.TrimSpace(text), ""
}
