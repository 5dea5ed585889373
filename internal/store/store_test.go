package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolbeat/internal/models"
)

func event(name, date string) models.GeneralEvent {
	return models.GeneralEvent{
		Date:      date,
		Time:      "All Day",
		Name:      name,
		CreatedBy: "School Calendar",
		CreatedAt: time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC),
	}
}

func TestMemoryInsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[models.GeneralEvent]()

	require.NoError(t, m.Insert(ctx, event("Picture Day", "01/12/2026")))
	require.NoError(t, m.Insert(ctx, event("Picture Day", "01/12/2026")))

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := m.Exists(ctx, event("Picture Day", "01/12/2026"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[models.GeneralEvent]()

	names := []string{"First", "Second", "Third"}
	for i, name := range names {
		require.NoError(t, m.Insert(ctx, event(name, "01/1"+string(rune('0'+i))+"/2026")))
	}

	got, err := m.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, name := range names {
		assert.Equal(t, name, got[i].Name)
	}
}

func TestMemoryReplaceAll(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[models.GeneralEvent]()
	require.NoError(t, m.InsertAll(ctx, []models.GeneralEvent{event("Old", "01/05/2026")}))

	require.NoError(t, m.ReplaceAll(ctx, []models.GeneralEvent{
		event("New A", "02/01/2026"),
		event("New B", "02/02/2026"),
	}))

	got, err := m.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "New A", got[0].Name)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "events.json")

	f, err := OpenFile[models.GeneralEvent](path)
	require.NoError(t, err)
	require.NoError(t, f.InsertAll(ctx, []models.GeneralEvent{
		event("Picture Day", "01/12/2026"),
		event("Pep Rally", "01/16/2026"),
	}))

	// Reopen and confirm persistence and order.
	reopened, err := OpenFile[models.GeneralEvent](path)
	require.NoError(t, err)

	got, err := reopened.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Picture Day", got[0].Name)
	assert.Equal(t, "Pep Rally", got[1].Name)

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nothing.json")
	f, err := OpenFile[models.GeneralEvent](path)
	require.NoError(t, err)

	n, err := f.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Nothing should be written until the first mutation.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStoreDropAll(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.json")

	f, err := OpenFile[models.GeneralEvent](path)
	require.NoError(t, err)
	require.NoError(t, f.Insert(ctx, event("Picture Day", "01/12/2026")))
	require.NoError(t, f.DropAll(ctx))

	reopened, err := OpenFile[models.GeneralEvent](path)
	require.NoError(t, err)
	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
