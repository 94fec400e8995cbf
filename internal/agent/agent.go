package agent

import (
	"context"
	"fmt"
	"strings"

	"writewme/internal/book"
	"writewme/internal/guard"
	"writewme/internal/llm"
	"writewme/internal/pipeline"
	"writewme/internal/retrieval"
)

// Round bounds for an autonomous run. Requests outside the range are
// clamped, never rejected.
const (
	minRounds = 1
	maxRounds = 12
)

// State reports how an autonomous run ended.
type State string

const (
	// StateDone means the model declared the chapter finished.
	StateDone State = "done"

	// StateMaxRounds means the round budget ran out first.
	StateMaxRounds State = "max_rounds"

	// StateCancelledByReview means a safe-mode rejection stopped the run.
	// Rounds persisted before the rejection stay persisted.
	StateCancelledByReview State = "cancelled_by_review"
)

// RunResult summarizes an autonomous continuation run.
type RunResult struct {
	State   State
	Rounds  int
	Chapter book.Chapter
}

// ContinuationAgent drives multi-round autonomous chapter development. Each
// round re-reads the chapter, generates a continuation, and pushes it through
// the full guard pipeline before the next round sees it.
type ContinuationAgent struct {
	session *pipeline.Session
	client  llm.Client
	prompts *llm.PromptBuilder
}

func NewContinuationAgent(session *pipeline.Session, client llm.Client) *ContinuationAgent {
	return &ContinuationAgent{
		session: session,
		client:  client,
		prompts: &llm.PromptBuilder{},
	}
}

// Run executes up to rounds continuation rounds on a chapter. In continuous
// mode the model may end the run early by reporting the chapter done; in
// fixed mode every round runs. The chapter is locked for the whole run.
func (a *ContinuationAgent) Run(ctx context.Context, chapterID, instruction string, rounds int, continuous bool, recentText string) (*RunResult, error) {
	if rounds < minRounds {
		rounds = minRounds
	}
	if rounds > maxRounds {
		rounds = maxRounds
	}

	unlock := a.session.LockChapter(chapterID)
	defer unlock()

	store := a.session.Store()
	result := &RunResult{State: StateMaxRounds}
	prevSummary := ""

	for round := 1; round <= rounds; round++ {
		ch, err := store.GetChapter(ctx, chapterID)
		if err != nil {
			return nil, err
		}
		result.Chapter = ch

		entities, err := store.ListEntities(ctx, ch.BookID)
		if err != nil {
			return nil, err
		}
		query := strings.Join([]string{instruction, ch.Title, ch.PlainText()}, "\n")
		selected := retrieval.Select(entities, query, recentText, a.session.SelectorOptions())

		prompt := a.prompts.BuildContinuationPrompt(ch, instruction, prevSummary, round, rounds, continuous, selected)
		raw, err := a.client.Generate(ctx, prompt, a.session.GenerateOptions())
		if err != nil {
			return nil, fmt.Errorf("continuation round %d: %w", round, err)
		}
		raw = llm.CleanOutput(raw)

		text := raw
		summary := ""
		done := false
		if continuous {
			parsed := guard.ParseRound(raw)
			text = parsed.Text
			summary = parsed.Summary
			done = parsed.Status == guard.RoundDone
		}

		if strings.TrimSpace(text) != "" {
			out, err := a.session.ApplyCandidate(ctx, pipeline.Mutation{
				Chapter:     ch,
				Candidate:   text,
				Instruction: instruction,
				Action:      guard.ActionContinue,
				Reason:      fmt.Sprintf("continuation round %d", round),
				RecentText:  recentText,
				Entities:    entities,
			})
			if err != nil {
				return nil, err
			}
			if out.Rejected {
				result.State = StateCancelledByReview
				return result, nil
			}
			result.Chapter = out.Chapter
			result.Rounds = round
			if summary == "" {
				summary = out.Guard.SummaryText
			}
		}
		prevSummary = summary

		if done {
			result.State = StateDone
			break
		}
	}
	return result, nil
}
