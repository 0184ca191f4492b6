package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

func seedDayEntry(t *testing.T, st *storage.Storage, entryType model.EntryType, status model.ProcessingStatus, capturedAt time.Time) *model.Entry {
	t.Helper()

	entry := &model.Entry{
		Type:       entryType,
		CapturedAt: capturedAt.UTC(),
		TimezoneID: "UTC",
		Payload:    &model.PendingPayload{},
		Status:     status,
	}
	if entryType == model.EntryTypeDailySummary {
		entry.Payload = &model.DailySummaryPayload{}
		entry.SchemaVersion = model.CurrentSchemaVersion
	}
	require.NoError(t, st.SaveEntry(entry))
	return entry
}

func seedAnalysis(t *testing.T, st *storage.Storage, entryID int64, document string) {
	t.Helper()
	require.NoError(t, st.InsertAnalysis(&model.Analysis{EntryID: entryID, Document: document}))
}

func TestBuildRequest(t *testing.T) {
	st := newTestStore(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	meal := seedDayEntry(t, st, model.EntryTypeMeal, model.StatusCompleted, day.Add(8*time.Hour))
	seedAnalysis(t, st, meal.ID, `{"entry_type":"meal","summary":"Oatmeal with berries","meal":{"nutrition":{"calories":500,"protein":20}}}`)

	exercise := seedDayEntry(t, st, model.EntryTypeExercise, model.StatusCompleted, day.Add(12*time.Hour))
	seedAnalysis(t, st, exercise.ID, `{"entry_type":"exercise","summary":"5km run"}`)

	// Completed but never analyzed: included with its stored type.
	other := seedDayEntry(t, st, model.EntryTypeOther, model.StatusCompleted, day.Add(15*time.Hour))

	// Excluded: not completed.
	seedDayEntry(t, st, model.EntryTypeMeal, model.StatusFailed, day.Add(18*time.Hour))

	summaryEntry := seedDayEntry(t, st, model.EntryTypeDailySummary, model.StatusPending, day.Add(12*time.Hour))

	d := NewDaySummarizer(st, &fakeClient{}, testSettings)
	req, err := d.BuildRequest(summaryEntry, day, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, summaryEntry.ID, req.SummaryEntryID)
	assert.Equal(t, "2025-03-10", req.Date)
	require.Len(t, req.Entries, 3, "summary slot, other summaries and non-completed entries are excluded")

	assert.Equal(t, meal.ID, req.Entries[0].EntryID)
	assert.Equal(t, "meal", req.Entries[0].EffectiveType)
	assert.Equal(t, "Oatmeal with berries", req.Entries[0].Description)

	assert.Equal(t, exercise.ID, req.Entries[1].EntryID)
	assert.Equal(t, "exercise", req.Entries[1].EffectiveType)

	assert.Equal(t, other.ID, req.Entries[2].EntryID)
	assert.Equal(t, "other", req.Entries[2].EffectiveType)

	assert.Equal(t, 500.0, req.Totals.Calories)
	assert.Equal(t, 20.0, req.Totals.Protein)
}

func TestBuildRequestPrefersDeclaredType(t *testing.T) {
	st := newTestStore(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	// Stored as other, but the analysis declares it a meal. The summary must
	// see the model's classification.
	entry := seedDayEntry(t, st, model.EntryTypeOther, model.StatusCompleted, day.Add(9*time.Hour))
	seedAnalysis(t, st, entry.ID, `{"entry_type":"meal","summary":"Late breakfast","meal":{"nutrition":{"calories":300}}}`)

	summaryEntry := seedDayEntry(t, st, model.EntryTypeDailySummary, model.StatusPending, day.Add(12*time.Hour))

	d := NewDaySummarizer(st, &fakeClient{}, testSettings)
	req, err := d.BuildRequest(summaryEntry, day, time.UTC)
	require.NoError(t, err)

	require.Len(t, req.Entries, 1)
	assert.Equal(t, "meal", req.Entries[0].EffectiveType)
	assert.Equal(t, 300.0, req.Totals.Calories, "a reclassified meal contributes to the totals")
}

func TestSummarizeRejectsNonSummaryEntry(t *testing.T) {
	st := newTestStore(t)
	d := NewDaySummarizer(st, &fakeClient{}, testSettings)

	entry := seedEntry(t, st, model.EntryTypeMeal, model.StatusPending)
	err := d.Summarize(context.Background(), entry)
	assert.Error(t, err)
}

func TestSummarizeSendsPriorDocument(t *testing.T) {
	st := newTestStore(t)
	client := &fakeClient{analysis: `{"entry_type":"daily_summary","day_summary":{"insights":["I"],"recommendations":["R"]}}`}
	d := NewDaySummarizer(st, client, testSettings)

	summaryEntry := seedEntry(t, st, model.EntryTypeDailySummary, model.StatusPending)
	seedAnalysis(t, st, summaryEntry.ID, `{"entry_type":"daily_summary","summary":"prior"}`)

	require.NoError(t, d.Summarize(context.Background(), summaryEntry))

	assert.Contains(t, client.lastSummary.ExistingSummaryJSON, "prior")

	// The regeneration upserts onto the existing row.
	row, err := st.LatestAnalysisByEntry(summaryEntry.ID)
	require.NoError(t, err)
	assert.Contains(t, row.Document, "recommendations")
}

func TestComputeDayTotals(t *testing.T) {
	meals := []*model.UnifiedAnalysis{
		{Meal: &model.MealAnalysis{Nutrition: &model.Nutrition{Calories: 500, Protein: 30, Carbs: 40}}},
		{Meal: &model.MealAnalysis{Nutrition: &model.Nutrition{Calories: 300, Protein: 10, Fat: 12}}},
		{Meal: &model.MealAnalysis{}}, // no nutrition estimated
		{},                            // no meal section at all
	}

	totals := ComputeDayTotals(meals)

	assert.Equal(t, 800.0, totals.Calories)
	assert.Equal(t, 40.0, totals.Protein)
	assert.Equal(t, 40.0, totals.Carbs)
	assert.Equal(t, 12.0, totals.Fat)
}

func TestComputeDayTotalsEmpty(t *testing.T) {
	totals := ComputeDayTotals(nil)
	assert.Equal(t, model.Nutrition{}, totals)
}
