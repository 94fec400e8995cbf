package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"writewme/internal/book"
	"writewme/internal/config"
	"writewme/internal/guard"
	"writewme/internal/history"
	"writewme/internal/llm"
	"writewme/internal/retrieval"
	"writewme/internal/review"
	"writewme/internal/storage"
)

// Session owns one guard-pipeline flow: context selection, generation,
// expansion and continuity guards, safe-mode review, snapshot and persist.
// All state is explicit on the session; nothing ambient. Exactly one
// pipeline may mutate a given chapter at a time, enforced by per-chapter
// locks.
type Session struct {
	store  storage.Store
	ledger *history.Ledger
	client llm.Client
	gate   *review.Gate

	prompts    *llm.PromptBuilder
	expansion  *guard.ExpansionGuard
	continuity *guard.ContinuityGuard
	selOpts    retrieval.Options
	genOpts    llm.Options

	locks sync.Map // chapterID -> *sync.Mutex
}

func NewSession(cfg *config.Config, store storage.Store, client llm.Client, gate *review.Gate) *Session {
	selOpts := retrieval.Options{
		MaxCharacters: cfg.Guard.MaxCharacters,
		MaxLocations:  cfg.Guard.MaxLocations,
		RecencyWeight: cfg.Guard.RecencyWeight,
	}
	prompts := &llm.PromptBuilder{}
	genOpts := llm.Options{
		Model:        cfg.AI.Model,
		Temperature:  cfg.AI.Temperature,
		SystemPrompt: prompts.SystemPrompt(),
	}

	return &Session{
		store:      store,
		ledger:     history.NewLedger(store),
		client:     client,
		gate:       gate,
		prompts:    prompts,
		expansion:  guard.NewExpansionGuard(client, genOpts),
		continuity: guard.NewContinuityGuard(client, cfg.Guard.ContinuityEnabled, selOpts, genOpts),
		selOpts:    selOpts,
		genOpts:    genOpts,
	}
}

// Ledger exposes the session's snapshot ledger for undo/redo surfaces.
func (s *Session) Ledger() *history.Ledger { return s.ledger }

// Autosaver returns an editor-save coordinator bound to this session's
// store and snapshot ledger, so editor saves participate in the
// redo-invalidation rules.
func (s *Session) Autosaver() *Autosaver {
	return NewAutosaver(s.store, s.ledger)
}

// Store exposes the session's persistence collaborator.
func (s *Session) Store() storage.Store { return s.store }

// SelectorOptions returns the configured context-selection bounds.
func (s *Session) SelectorOptions() retrieval.Options { return s.selOpts }

// GenerateOptions returns the configured generation options.
func (s *Session) GenerateOptions() llm.Options { return s.genOpts }

// LockChapter takes the single-flight lock for a chapter and returns the
// unlock func. Callers running multiple guarded mutations (the continuation
// agent) hold it across the whole run.
func (s *Session) LockChapter(chapterID string) func() {
	v, _ := s.locks.LoadOrStore(chapterID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Outcome reports one guarded mutation.
type Outcome struct {
	Chapter  book.Chapter
	Guard    guard.Result
	Rejected bool
	Reviewed bool
}

// Mutation describes a candidate to push through the guard sequence. The
// caller must hold the chapter lock.
type Mutation struct {
	Chapter     book.Chapter
	Candidate   string
	Instruction string
	Action      guard.Action
	Reason      string
	RecentText  string
	Entities    []book.Entity
}

// Rewrite runs one full guarded mutation for a free-form instruction.
func (s *Session) Rewrite(ctx context.Context, chapterID, instruction, recentText string, action guard.Action) (*Outcome, error) {
	unlock := s.LockChapter(chapterID)
	defer unlock()

	ch, err := s.store.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	entities, err := s.store.ListEntities(ctx, ch.BookID)
	if err != nil {
		return nil, err
	}

	query := strings.Join([]string{instruction, ch.Title, ch.PlainText()}, "\n")
	selected := retrieval.Select(entities, query, recentText, s.selOpts)

	prompt := s.prompts.BuildRewritePrompt(ch, instruction, selected, recentText)
	raw, err := s.client.Generate(ctx, prompt, s.genOpts)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	candidate := llm.CleanOutput(raw)

	return s.ApplyCandidate(ctx, Mutation{
		Chapter:     ch,
		Candidate:   candidate,
		Instruction: instruction,
		Action:      action,
		Reason:      "before rewrite",
		RecentText:  recentText,
		Entities:    entities,
	})
}

// ApplyCandidate pushes a raw candidate through the guard sequence and, if
// it survives, snapshots and persists it. A safe-mode rejection aborts the
// mutation without touching stored content.
func (s *Session) ApplyCandidate(ctx context.Context, m Mutation) (*Outcome, error) {
	originalText := m.Chapter.PlainText()

	expRes, err := s.expansion.Enforce(ctx, m.Candidate, originalText, m.Instruction, m.Action)
	if err != nil {
		return nil, err
	}

	conRes, err := s.continuity.Enforce(ctx, originalText, expRes.Text, m.Instruction, m.Chapter.Title, m.RecentText, m.Entities)
	if err != nil {
		return nil, err
	}

	final := guard.Result{
		Text:        conRes.Text,
		SummaryText: expRes.SummaryText,
		Corrected:   expRes.Corrected || conRes.Corrected,
	}

	outcome := &Outcome{Guard: final}
	if s.gate.RequiresApproval(originalText, final.Text) {
		outcome.Reviewed = true
		approved, err := s.gate.RequestReview(ctx, &review.Request{
			Title:      m.Chapter.Title,
			Subtitle:   m.Reason,
			BeforeText: originalText,
			AfterText:  final.Text,
		})
		if err != nil {
			return nil, fmt.Errorf("safe-mode review: %w", err)
		}
		if !approved {
			outcome.Chapter = m.Chapter
			outcome.Rejected = true
			return outcome, nil
		}
	}

	// Snapshot the pre-mutation chapter before writing anything. Snapshot
	// and save failures propagate: silently losing a write is worse than
	// surfacing a failure.
	if _, err := s.ledger.RecordSnapshot(ctx, m.Chapter, m.Reason); err != nil {
		return nil, err
	}

	updated := m.Chapter
	updated.Content = book.WrapMarkup(final.Text)
	saved, err := s.store.SaveChapter(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to persist guarded chapter: %w", err)
	}

	outcome.Chapter = saved
	return outcome, nil
}

// SearchReplace is the destructive literal search/replace: it snapshots the
// chapter, rewrites its content, and reports the number of replacements.
func (s *Session) SearchReplace(ctx context.Context, chapterID, find, replaceWith string) (book.Chapter, int, error) {
	unlock := s.LockChapter(chapterID)
	defer unlock()

	ch, err := s.store.GetChapter(ctx, chapterID)
	if err != nil {
		return book.Chapter{}, 0, err
	}
	if find == "" {
		return ch, 0, nil
	}

	count := strings.Count(ch.Content, find)
	if count == 0 {
		return ch, 0, nil
	}

	if _, err := s.ledger.RecordSnapshot(ctx, ch, fmt.Sprintf("search/replace %q", find)); err != nil {
		return book.Chapter{}, 0, err
	}

	ch.Content = strings.ReplaceAll(ch.Content, find, replaceWith)
	saved, err := s.store.SaveChapter(ctx, ch)
	if err != nil {
		return book.Chapter{}, 0, fmt.Errorf("failed to persist replacement: %w", err)
	}
	return saved, count, nil
}

// Undo restores the previous snapshot of a chapter. Returns false when
// there is nothing to undo.
func (s *Session) Undo(ctx context.Context, chapterID string) (book.Chapter, bool, error) {
	unlock := s.LockChapter(chapterID)
	defer unlock()

	ch, err := s.store.GetChapter(ctx, chapterID)
	if err != nil {
		return book.Chapter{}, false, err
	}

	restored, ok, err := s.ledger.Undo(ctx, ch)
	if err != nil || !ok {
		return book.Chapter{}, false, err
	}

	// Restoring is not a forward edit: the redo stack survives.
	saved, err := s.store.SaveChapter(ctx, restored)
	if err != nil {
		return book.Chapter{}, false, fmt.Errorf("failed to persist undo: %w", err)
	}
	return saved, true, nil
}

// Redo re-applies the chapter state popped by the last undo.
func (s *Session) Redo(ctx context.Context, chapterID string) (book.Chapter, bool, error) {
	unlock := s.LockChapter(chapterID)
	defer unlock()

	redone, ok := s.ledger.Redo(chapterID)
	if !ok {
		return book.Chapter{}, false, nil
	}

	saved, err := s.store.SaveChapter(ctx, redone)
	if err != nil {
		return book.Chapter{}, false, fmt.Errorf("failed to persist redo: %w", err)
	}
	return saved, true, nil
}
