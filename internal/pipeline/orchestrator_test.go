package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/model"
)

func TestCorrectionSendsPriorResult(t *testing.T) {
	st := newTestStore(t)
	client := &fakeClient{analysis: mealDocument}
	s := newTestScheduler(t, st, client, testSettings, nil)

	entry := seedEntry(t, st, model.EntryTypeMeal, model.StatusCompleted)
	seedAnalysis(t, st, entry.ID, `{"entry_type":"meal","summary":"prior result"}`)

	s.EnqueueCorrection(context.Background(), entry.ID, "it was a salad, not a burger")
	s.Wait()

	assert.Equal(t, "it was a salad, not a burger", client.lastAnalysis.CorrectionText)
	assert.Contains(t, client.lastAnalysis.ExistingResultJSON, "prior result")
}

func TestPlainAnalysisOmitsPriorResult(t *testing.T) {
	st := newTestStore(t)
	client := &fakeClient{analysis: mealDocument}
	s := newTestScheduler(t, st, client, testSettings, nil)

	entry := seedEntry(t, st, model.EntryTypeUnknown, model.StatusPending)
	prior := &model.Analysis{EntryID: entry.ID, Document: `{"summary":"stale"}`}
	require.NoError(t, st.InsertAnalysis(prior))

	s.EnqueueAnalysis(context.Background(), entry.ID)
	s.Wait()

	assert.Empty(t, client.lastAnalysis.ExistingResultJSON, "a plain re-analysis starts fresh")

	// The result replaced the prior row instead of stacking a new one.
	row, err := st.LatestAnalysisByEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, prior.ID, row.ID)
	assert.Contains(t, row.Document, "Grilled chicken salad")
}

func TestUnknownDeclaredTypeKeepsStoredType(t *testing.T) {
	st := newTestStore(t)
	client := &fakeClient{analysis: `{"entry_type":"snack","summary":"something small"}`}
	s := newTestScheduler(t, st, client, testSettings, nil)

	entry := seedEntry(t, st, model.EntryTypeUnknown, model.StatusPending)

	s.EnqueueAnalysis(context.Background(), entry.ID)
	s.Wait()

	got, err := st.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, model.EntryTypeUnknown, got.Type)

	row, err := st.LatestAnalysisByEntry(entry.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Contains(t, row.Document, "snack")
}

func TestAnalysisRequestCarriesNote(t *testing.T) {
	st := newTestStore(t)
	client := &fakeClient{analysis: mealDocument}
	s := newTestScheduler(t, st, client, testSettings, nil)

	entry := seedEntry(t, st, model.EntryTypeUnknown, model.StatusPending)

	s.EnqueueAnalysis(context.Background(), entry.ID)
	s.Wait()

	assert.Equal(t, entry.ID, client.lastAnalysis.EntryID)
	assert.Equal(t, "test note", client.lastAnalysis.Note)
}
