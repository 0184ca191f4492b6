package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/model"
)

func TestRecoverStaleEntries(t *testing.T) {
	st := newTestStore(t)

	stale := seedEntry(t, st, model.EntryTypeMeal, model.StatusProcessing)
	pending := seedEntry(t, st, model.EntryTypeMeal, model.StatusPending)
	completed := seedEntry(t, st, model.EntryTypeMeal, model.StatusCompleted)
	failed := seedEntry(t, st, model.EntryTypeExercise, model.StatusFailed)

	recovered, err := RecoverStaleEntries(st, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	wantStatuses := map[int64]model.ProcessingStatus{
		stale.ID:     model.StatusPending,
		pending.ID:   model.StatusPending,
		completed.ID: model.StatusCompleted,
		failed.ID:    model.StatusFailed,
	}
	for id, want := range wantStatuses {
		got, err := st.GetEntry(id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "entry %d", id)
	}
}

func TestRecoverStaleEntriesNothingToDo(t *testing.T) {
	st := newTestStore(t)

	seedEntry(t, st, model.EntryTypeMeal, model.StatusPending)

	recovered, err := RecoverStaleEntries(st, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 0, recovered)
}
