package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"writewme/internal/book"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS chapters (
			id TEXT PRIMARY KEY,
			book_id TEXT,
			title TEXT,
			content TEXT,
			length_preset TEXT,
			updated_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			chapter_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			reason TEXT,
			created_at TIMESTAMP,
			title TEXT,
			content TEXT,
			length_preset TEXT,
			UNIQUE (chapter_id, version)
		);`,
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			book_id TEXT,
			kind TEXT,
			name TEXT,
			aliases TEXT,
			description TEXT,
			notes TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_chapter ON snapshots(chapter_id, version);`,
		`CREATE INDEX IF NOT EXISTS idx_entities_book ON entities(book_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- ChapterStore Implementation ---

func (s *SQLiteStore) SaveChapter(ctx context.Context, ch book.Chapter) (book.Chapter, error) {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	ch.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chapters (id, book_id, title, content, length_preset, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book_id=excluded.book_id,
			title=excluded.title,
			content=excluded.content,
			length_preset=excluded.length_preset,
			updated_at=excluded.updated_at
	`, ch.ID, ch.BookID, ch.Title, ch.Content, string(ch.LengthPreset), ch.UpdatedAt)
	if err != nil {
		return book.Chapter{}, fmt.Errorf("failed to save chapter: %w", err)
	}
	return ch, nil
}

func (s *SQLiteStore) GetChapter(ctx context.Context, id string) (book.Chapter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, book_id, title, content, length_preset, updated_at
		FROM chapters WHERE id = ?
	`, id)

	ch, err := scanChapter(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Chapter{}, fmt.Errorf("chapter %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return book.Chapter{}, fmt.Errorf("failed to load chapter: %w", err)
	}
	return ch, nil
}

func (s *SQLiteStore) ListChapters(ctx context.Context, bookID string) ([]book.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, title, content, length_preset, updated_at
		FROM chapters WHERE book_id = ? ORDER BY updated_at ASC, id ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	var chapters []book.Chapter
	for rows.Next() {
		ch, err := scanChapter(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}

func scanChapter(scan func(dest ...any) error) (book.Chapter, error) {
	var ch book.Chapter
	var preset string
	if err := scan(&ch.ID, &ch.BookID, &ch.Title, &ch.Content, &preset, &ch.UpdatedAt); err != nil {
		return book.Chapter{}, err
	}
	ch.LengthPreset = book.LengthPreset(preset)
	return ch, nil
}

// --- SnapshotStore Implementation ---

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, ch book.Chapter, reason string) (book.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return book.Snapshot{}, err
	}
	defer tx.Rollback()

	// Versions are assigned inside the transaction so they are strictly
	// increasing per chapter and never reused.
	var version int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE chapter_id = ?
	`, ch.ID).Scan(&version); err != nil {
		return book.Snapshot{}, fmt.Errorf("failed to assign snapshot version: %w", err)
	}

	snap := book.Snapshot{
		ID:        uuid.NewString(),
		ChapterID: ch.ID,
		Version:   version,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
		Chapter:   ch,
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, chapter_id, version, reason, created_at, title, content, length_preset)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.ChapterID, snap.Version, snap.Reason, snap.CreatedAt,
		ch.Title, ch.Content, string(ch.LengthPreset)); err != nil {
		return book.Snapshot{}, fmt.Errorf("failed to save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return book.Snapshot{}, err
	}
	return snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, chapterID string) ([]book.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.chapter_id, s.version, s.reason, s.created_at, s.title, s.content, s.length_preset, c.book_id, c.updated_at
		FROM snapshots s
		LEFT JOIN chapters c ON c.id = s.chapter_id
		WHERE s.chapter_id = ? ORDER BY s.version ASC
	`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []book.Snapshot
	for rows.Next() {
		var snap book.Snapshot
		var preset string
		var bookID sql.NullString
		var updatedAt sql.NullTime
		if err := rows.Scan(&snap.ID, &snap.ChapterID, &snap.Version, &snap.Reason, &snap.CreatedAt,
			&snap.Chapter.Title, &snap.Chapter.Content, &preset, &bookID, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Chapter.ID = snap.ChapterID
		snap.Chapter.BookID = bookID.String
		snap.Chapter.LengthPreset = book.LengthPreset(preset)
		if updatedAt.Valid {
			snap.Chapter.UpdatedAt = updatedAt.Time
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// --- EntityStore Implementation ---

func (s *SQLiteStore) ListEntities(ctx context.Context, bookID string) ([]book.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, kind, name, aliases, description, notes
		FROM entities WHERE book_id = ? ORDER BY kind ASC, name ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []book.Entity
	for rows.Next() {
		var e book.Entity
		var kind string
		if err := rows.Scan(&e.ID, &e.BookID, &kind, &e.Name, &e.Aliases, &e.Description, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.Kind = book.EntityKind(kind)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (s *SQLiteStore) SaveEntity(ctx context.Context, e book.Entity) (book.Entity, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, book_id, kind, name, aliases, description, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book_id=excluded.book_id,
			kind=excluded.kind,
			name=excluded.name,
			aliases=excluded.aliases,
			description=excluded.description,
			notes=excluded.notes
	`, e.ID, e.BookID, string(e.Kind), e.Name, e.Aliases, e.Description, e.Notes)
	if err != nil {
		return book.Entity{}, fmt.Errorf("failed to save entity: %w", err)
	}
	return e, nil
}
