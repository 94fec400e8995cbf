package storage

import (
	"context"
	"errors"

	"writewme/internal/book"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store combines chapter, snapshot and story-bible persistence.
type Store interface {
	ChapterStore
	SnapshotStore
	EntityStore
	Close() error
}

// ChapterStore persists chapters.
type ChapterStore interface {
	// SaveChapter upserts a chapter and refreshes its updated_at stamp.
	SaveChapter(ctx context.Context, ch book.Chapter) (book.Chapter, error)

	// GetChapter retrieves a chapter by id.
	GetChapter(ctx context.Context, id string) (book.Chapter, error)

	// ListChapters retrieves every chapter of a book, oldest first.
	ListChapters(ctx context.Context, bookID string) ([]book.Chapter, error)
}

// SnapshotStore persists the append-only snapshot sequences.
type SnapshotStore interface {
	// SaveSnapshot appends a full pre-mutation copy of the chapter,
	// assigning the next version for that chapter.
	SaveSnapshot(ctx context.Context, ch book.Chapter, reason string) (book.Snapshot, error)

	// ListSnapshots returns a chapter's snapshots ordered by version
	// ascending.
	ListSnapshots(ctx context.Context, chapterID string) ([]book.Snapshot, error)
}

// EntityStore persists story-bible records.
type EntityStore interface {
	// ListEntities retrieves every story entity of a book.
	ListEntities(ctx context.Context, bookID string) ([]book.Entity, error)

	// SaveEntity upserts a story entity.
	SaveEntity(ctx context.Context, e book.Entity) (book.Entity, error)
}
