package history

import (
	"context"
	"fmt"
	"sync"

	"writewme/internal/book"
	"writewme/internal/storage"
)

// Ledger versions chapters before destructive operations and exposes
// undo/redo over the per-chapter snapshot sequence. The undo cursor and the
// redo stack live here and are only mutated through Ledger methods, so the
// redo-clears-on-edit invariant is enforced in one place.
type Ledger struct {
	store storage.SnapshotStore

	mu     sync.Mutex
	arenas map[string]*arena
}

// arena is the per-chapter undo state. cursor indexes the snapshot
// sequence; len(snapshots) means "no undo performed yet".
type arena struct {
	cursor    int
	hasCursor bool
	redoStack []book.Chapter
}

func NewLedger(store storage.SnapshotStore) *Ledger {
	return &Ledger{
		store:  store,
		arenas: make(map[string]*arena),
	}
}

func (l *Ledger) arenaFor(chapterID string) *arena {
	a, ok := l.arenas[chapterID]
	if !ok {
		a = &arena{}
		l.arenas[chapterID] = a
	}
	return a
}

// RecordSnapshot persists a pre-mutation copy of the chapter. Like any
// forward edit it invalidates the chapter's redo history and resets the
// undo cursor to the end of the sequence.
func (l *Ledger) RecordSnapshot(ctx context.Context, ch book.Chapter, reason string) (book.Snapshot, error) {
	snap, err := l.store.SaveSnapshot(ctx, ch, reason)
	if err != nil {
		return book.Snapshot{}, fmt.Errorf("failed to record snapshot: %w", err)
	}

	l.mu.Lock()
	a := l.arenaFor(ch.ID)
	a.hasCursor = false
	a.redoStack = nil
	l.mu.Unlock()

	return snap, nil
}

// NoteEdit marks a manual forward edit: redo history does not survive it.
func (l *Ledger) NoteEdit(chapterID string) {
	l.mu.Lock()
	a := l.arenaFor(chapterID)
	a.hasCursor = false
	a.redoStack = nil
	l.mu.Unlock()
}

// Undo moves the chapter's cursor one snapshot back, pushing the current
// (pre-undo) state onto the redo stack. Returns false when there is nothing
// to undo.
func (l *Ledger) Undo(ctx context.Context, current book.Chapter) (book.Chapter, bool, error) {
	snaps, err := l.store.ListSnapshots(ctx, current.ID)
	if err != nil {
		return book.Chapter{}, false, fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return book.Chapter{}, false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.arenaFor(current.ID)
	cursor := len(snaps)
	if a.hasCursor {
		cursor = a.cursor
	}
	if cursor <= 0 {
		return book.Chapter{}, false, nil
	}

	cursor--
	a.cursor = cursor
	a.hasCursor = true
	a.redoStack = append(a.redoStack, current)

	restored := snaps[cursor].Chapter
	restored.ID = current.ID
	return restored, true, nil
}

// Redo pops the chapter's redo stack and advances the cursor. Returns false
// when the stack is empty (including after any forward edit cleared it).
func (l *Ledger) Redo(chapterID string) (book.Chapter, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.arenaFor(chapterID)
	if len(a.redoStack) == 0 {
		return book.Chapter{}, false
	}

	ch := a.redoStack[len(a.redoStack)-1]
	a.redoStack = a.redoStack[:len(a.redoStack)-1]
	if a.hasCursor {
		a.cursor++
	}
	return ch, true
}
