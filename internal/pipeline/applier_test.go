package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

// countingEntryStore records writes; the applier must not touch the store when
// nothing changed.
type countingEntryStore struct {
	updates int
}

func (c *countingEntryStore) SaveEntry(entry *model.Entry) error { return nil }
func (c *countingEntryStore) GetEntry(id int64) (*model.Entry, error) {
	return nil, nil
}
func (c *countingEntryStore) UpdateEntry(entry *model.Entry) error {
	c.updates++
	return nil
}
func (c *countingEntryStore) UpdateEntryStatus(id int64, status model.ProcessingStatus) error {
	return nil
}
func (c *countingEntryStore) EntriesByDay(day time.Time, loc *time.Location) ([]*model.Entry, error) {
	return nil, nil
}
func (c *countingEntryStore) CountByStatus() (map[model.ProcessingStatus]int, error) {
	return nil, nil
}

func stagedAsset(t *testing.T, assets *storage.AssetStore, name string) string {
	t.Helper()

	dir, err := assets.TypedDir(model.EntryTypeUnknown)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("image"), 0644))
	return path
}

func TestApplyReclassifiesAndConvertsPayload(t *testing.T) {
	store := &countingEntryStore{}
	assets := newTestAssets(t)
	applier := NewApplier(store, assets)

	blob := stagedAsset(t, assets, "photo.jpg")
	entry := &model.Entry{
		ID:       1,
		Type:     model.EntryTypeUnknown,
		BlobPath: blob,
		Payload:  &model.PendingPayload{Note: "lunch"},
	}

	require.NoError(t, applier.Apply(entry, model.EntryTypeMeal))

	assert.Equal(t, model.EntryTypeMeal, entry.Type)
	assert.Equal(t, model.CurrentSchemaVersion, entry.SchemaVersion)
	assert.Equal(t, 1, store.updates)

	meal, ok := entry.Payload.(*model.MealPayload)
	require.True(t, ok)
	assert.Equal(t, "lunch", meal.Note)

	// The photo moved into the new type's directory.
	assert.Contains(t, entry.BlobPath, string(filepath.Separator)+"meal"+string(filepath.Separator))
	_, err := os.Stat(entry.BlobPath)
	assert.NoError(t, err)
	_, err = os.Stat(blob)
	assert.True(t, os.IsNotExist(err), "source must be gone after relocation")
}

func TestApplySecondCallIsNoOp(t *testing.T) {
	store := &countingEntryStore{}
	assets := newTestAssets(t)
	applier := NewApplier(store, assets)

	entry := &model.Entry{
		ID:      2,
		Type:    model.EntryTypeUnknown,
		Payload: &model.PendingPayload{Note: "dinner"},
	}

	require.NoError(t, applier.Apply(entry, model.EntryTypeMeal))
	require.Equal(t, 1, store.updates)

	// Same detected type again: type unchanged, payload already typed.
	require.NoError(t, applier.Apply(entry, model.EntryTypeMeal))
	assert.Equal(t, 1, store.updates, "a repeated apply must not write")
	assert.Equal(t, model.EntryTypeMeal, entry.Type)
}

func TestApplySleepKeepsPendingPayload(t *testing.T) {
	store := &countingEntryStore{}
	applier := NewApplier(store, newTestAssets(t))

	entry := &model.Entry{
		ID:      3,
		Type:    model.EntryTypeUnknown,
		Payload: &model.PendingPayload{Note: "slept well"},
	}

	require.NoError(t, applier.Apply(entry, model.EntryTypeSleep))

	assert.Equal(t, model.EntryTypeSleep, entry.Type)
	assert.Equal(t, 0, entry.SchemaVersion, "no typed variant, version stays 0")
	_, stillPending := entry.Payload.(*model.PendingPayload)
	assert.True(t, stillPending)
	assert.Equal(t, 1, store.updates, "the type change alone is persisted")
}

func TestApplyMissingAssetDoesNotBlock(t *testing.T) {
	store := &countingEntryStore{}
	applier := NewApplier(store, newTestAssets(t))

	missing := filepath.Join(t.TempDir(), "gone.jpg")
	entry := &model.Entry{
		ID:       4,
		Type:     model.EntryTypeUnknown,
		BlobPath: missing,
		Payload:  &model.PendingPayload{},
	}

	require.NoError(t, applier.Apply(entry, model.EntryTypeExercise))

	assert.Equal(t, model.EntryTypeExercise, entry.Type)
	assert.Equal(t, missing, entry.BlobPath, "path stays as-is when the file is missing")
	assert.Equal(t, 1, store.updates)
}

func TestApplyRelocatesDistinctPreview(t *testing.T) {
	store := &countingEntryStore{}
	assets := newTestAssets(t)
	applier := NewApplier(store, assets)

	blob := stagedAsset(t, assets, "photo.jpg")
	preview := stagedAsset(t, assets, "preview.jpg")
	entry := &model.Entry{
		ID:       5,
		Type:     model.EntryTypeUnknown,
		BlobPath: blob,
		Payload:  &model.PendingPayload{PreviewPath: preview},
	}

	require.NoError(t, applier.Apply(entry, model.EntryTypeMeal))

	newPreview := model.PreviewPath(entry.Payload)
	assert.NotEqual(t, preview, newPreview)
	assert.Contains(t, newPreview, string(filepath.Separator)+"meal"+string(filepath.Separator))
	_, err := os.Stat(newPreview)
	assert.NoError(t, err)
}
