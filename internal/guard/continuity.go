package guard

import (
	"context"
	"fmt"
	"strings"

	"writewme/internal/book"
	"writewme/internal/llm"
	"writewme/internal/retrieval"
)

// ContinuityGuard sends original and candidate through one verification
// round. A PASS keeps the candidate byte-identical; a FAIL substitutes the
// model's corrected text. It never re-queries itself.
type ContinuityGuard struct {
	client  llm.Client
	prompts *llm.PromptBuilder
	enabled bool
	selOpts retrieval.Options
	genOpts llm.Options
}

func NewContinuityGuard(client llm.Client, enabled bool, selOpts retrieval.Options, genOpts llm.Options) *ContinuityGuard {
	return &ContinuityGuard{
		client:  client,
		prompts: &llm.PromptBuilder{},
		enabled: enabled,
		selOpts: selOpts,
		genOpts: genOpts,
	}
}

// Enforce verifies candidateText against the original chapter text and the
// story bible. entities is the full book bible; the guard bounds it itself,
// scoring against instruction, title, original and candidate, weighted
// toward the recent conversational window.
func (g *ContinuityGuard) Enforce(ctx context.Context, originalText, candidateText, instruction, chapterTitle, recentText string, entities []book.Entity) (Result, error) {
	res := Result{Text: candidateText}
	if !g.enabled || strings.TrimSpace(candidateText) == "" {
		return res, nil
	}
	// Without any document context there is nothing to verify against.
	if strings.TrimSpace(originalText) == "" && strings.TrimSpace(chapterTitle) == "" {
		return res, nil
	}

	query := strings.Join([]string{instruction, chapterTitle, originalText, candidateText}, "\n")
	bounded := retrieval.Select(entities, query, recentText, g.selOpts)

	prompt := g.prompts.BuildContinuityPrompt(instruction, chapterTitle, originalText, candidateText, bounded)
	raw, err := g.client.Generate(ctx, prompt, g.genOpts)
	if err != nil {
		return Result{}, fmt.Errorf("continuity verification: %w", err)
	}

	verdict := ParseVerdict(llm.CleanOutput(raw))
	if verdict.Status == VerdictPass {
		// Not permitted to silently alter text it judged acceptable.
		return res, nil
	}

	corrected := strings.TrimSpace(verdict.Text)
	if corrected == "" {
		// FAIL without a usable correction falls back to the candidate.
		return res, nil
	}
	return Result{Text: corrected, Corrected: true}, nil
}
