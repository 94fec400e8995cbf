package pipeline

import (
	"context"
	"errors"
	"sync"

	"writewme/internal/book"
	"writewme/internal/history"
	"writewme/internal/storage"
)

// Autosaver debounces editor saves per chapter. It skips a save when one is
// already in flight for the chapter, and drops stale bases so that a guarded
// mutation committed after the editor captured its copy is never clobbered.
// Every save it commits is a forward edit, so it notifies the ledger to
// invalidate the chapter's redo history.
type Autosaver struct {
	store  storage.ChapterStore
	ledger *history.Ledger

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewAutosaver(store storage.ChapterStore, ledger *history.Ledger) *Autosaver {
	return &Autosaver{
		store:    store,
		ledger:   ledger,
		inFlight: make(map[string]bool),
	}
}

// Save persists an editor copy of the chapter. It returns false without
// error when the save was skipped: either another save for the same chapter
// is in flight, or the stored chapter was updated after this copy was taken.
func (a *Autosaver) Save(ctx context.Context, ch book.Chapter) (bool, error) {
	a.mu.Lock()
	if a.inFlight[ch.ID] {
		a.mu.Unlock()
		return false, nil
	}
	a.inFlight[ch.ID] = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.inFlight, ch.ID)
		a.mu.Unlock()
	}()

	stored, err := a.store.GetChapter(ctx, ch.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}
	if err == nil && stored.UpdatedAt.After(ch.UpdatedAt) {
		// A newer write (a guard pipeline, most likely) landed since the
		// editor took this copy.
		return false, nil
	}

	if _, err := a.store.SaveChapter(ctx, ch); err != nil {
		return false, err
	}
	// A committed editor save is a forward edit: stale redo content must
	// never be able to overwrite it.
	a.ledger.NoteEdit(ch.ID)
	return true, nil
}
