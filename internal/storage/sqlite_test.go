package storage

import (
	"context"
	"path/filepath"
	"testing"

	"writewme/internal/book"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_ChapterRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveChapter(ctx, book.Chapter{
		BookID:       "b1",
		Title:        "Capitulo 1",
		Content:      "<p>Ana camina sola.</p>",
		LengthPreset: book.PresetMedium,
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	loaded, err := store.GetChapter(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Title, loaded.Title)
	assert.Equal(t, saved.Content, loaded.Content)
	assert.Equal(t, book.PresetMedium, loaded.LengthPreset)

	_, err = store.GetChapter(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SnapshotVersionsAreMonotonic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ch, err := store.SaveChapter(ctx, book.Chapter{BookID: "b1", Title: "Cap", Content: "v1"})
	require.NoError(t, err)

	s1, err := store.SaveSnapshot(ctx, ch, "before rewrite")
	require.NoError(t, err)
	ch.Content = "v2"
	s2, err := store.SaveSnapshot(ctx, ch, "before continuation (round 1)")
	require.NoError(t, err)

	assert.Equal(t, 1, s1.Version)
	assert.Equal(t, 2, s2.Version)

	snaps, err := store.ListSnapshots(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "v1", snaps[0].Chapter.Content)
	assert.Equal(t, "v2", snaps[1].Chapter.Content)
	assert.Equal(t, "before rewrite", snaps[0].Reason)
	assert.Equal(t, ch.ID, snaps[1].Chapter.ID)
}

func TestSQLiteStore_EntityUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	e, err := store.SaveEntity(ctx, book.Entity{
		BookID:      "b1",
		Kind:        book.KindCharacter,
		Name:        "Ana",
		Aliases:     "Anita",
		Description: "Protagonista.",
	})
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)

	e.Description = "Protagonista; detective."
	_, err = store.SaveEntity(ctx, e)
	require.NoError(t, err)

	entities, err := store.ListEntities(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Protagonista; detective.", entities[0].Description)
	assert.Equal(t, book.KindCharacter, entities[0].Kind)
}
