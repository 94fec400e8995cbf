package guard

import (
	"context"
	"fmt"

	"writewme/internal/book"
	"writewme/internal/llm"
)

// ExpansionGuard enforces the length floor on a candidate generation. It
// issues at most one recovery generation per invocation, then falls back:
// recovery text if it meets the floor, the original text if that does,
// else the best candidate available.
type ExpansionGuard struct {
	client  llm.Client
	prompts *llm.PromptBuilder
	policy  LengthPolicy
	genOpts llm.Options
}

func NewExpansionGuard(client llm.Client, genOpts llm.Options) *ExpansionGuard {
	return &ExpansionGuard{
		client:  client,
		prompts: &llm.PromptBuilder{},
		genOpts: genOpts,
	}
}

// Enforce checks candidateText against the length policy for this
// instruction and repairs it if needed. Model failures during the recovery
// call are fatal for the round and propagate.
func (g *ExpansionGuard) Enforce(ctx context.Context, candidateText, originalText, instruction string, action Action) (Result, error) {
	body, summary := SplitChangeSummary(candidateText)
	res := Result{Text: body, SummaryText: summary}

	if !g.policy.ShouldEnforceExpansion(action, instruction) {
		return res, nil
	}
	min := g.policy.ResolveMinimumWords(instruction, originalText)
	if min == 0 || book.CountWords(body) >= min {
		return res, nil
	}

	// Single bounded recovery: one dedicated generation stating the floor,
	// never a loop.
	prompt := g.prompts.BuildRecoveryPrompt(min, originalText, body, instruction)
	raw, err := g.client.Generate(ctx, prompt, g.genOpts)
	if err != nil {
		return Result{}, fmt.Errorf("length recovery generation: %w", err)
	}

	recovered, recoveredSummary := SplitChangeSummary(llm.CleanOutput(raw))
	if book.CountWords(recovered) >= min {
		if recoveredSummary == "" {
			recoveredSummary = summary
		}
		return Result{Text: recovered, SummaryText: recoveredSummary, Corrected: true}, nil
	}

	// Recovery still short. Keeping the original beats losing content when
	// the original already met the floor.
	if book.CountWords(originalText) >= min {
		return Result{Text: originalText, SummaryText: summary, Corrected: true}, nil
	}

	// Nothing meets the floor: accept the best effort rather than blocking
	// the pipeline.
	return res, nil
}
