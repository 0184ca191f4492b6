package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"healthtrack/internal/analyzer"
	"healthtrack/internal/logger"
	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

// DaySummarizer aggregates one local calendar day's completed entries into a
// single remote call and upserts the resulting analysis onto the day's
// summary entry. Regeneration is always possible: running it again for the
// same day produces a fresh upsert, not a duplicate.
type DaySummarizer struct {
	store    storage.Store
	client   analyzer.Client
	settings ProviderSettings
}

func NewDaySummarizer(store storage.Store, client analyzer.Client, settings ProviderSettings) *DaySummarizer {
	return &DaySummarizer{store: store, client: client, settings: settings}
}

// Summarize builds and runs the aggregate day-summary request for the given
// DailySummary-typed entry. The day is the entry's own captured local day,
// resolved through its stored timezone, else its stored UTC offset.
func (d *DaySummarizer) Summarize(ctx context.Context, summaryEntry *model.Entry) error {
	log := logger.GetLogger()

	if summaryEntry.Type != model.EntryTypeDailySummary {
		return fmt.Errorf("entry %d is %s, not a daily summary slot", summaryEntry.ID, summaryEntry.Type)
	}

	ic, err := d.settings.resolveSummary()
	if err != nil {
		return err
	}

	loc := summaryEntry.Location()
	day := summaryEntry.LocalDay()

	req, err := d.BuildRequest(summaryEntry, day, loc)
	if err != nil {
		return err
	}
	log.Infof("Summarizing %s: %d completed entries", req.Date, len(req.Entries))

	existing, err := d.store.LatestAnalysisByEntry(summaryEntry.ID)
	if err != nil {
		return fmt.Errorf("failed to load prior summary: %w", err)
	}
	if existing != nil {
		req.ExistingSummaryJSON = existing.Document
	}

	result, err := d.client.InvokeDailySummary(ctx, ic, *req)
	if err != nil {
		return fmt.Errorf("model invocation failed: %w", err)
	}
	if result.Analysis == "" {
		return ErrNoAnalysisReturned
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Best-effort convenience copy onto the summary entry's payload; the
	// analysis row stays the authoritative representation.
	if ua, parseErr := model.ParseUnifiedAnalysis(result.Analysis); parseErr != nil {
		log.Warnf("Day summary for entry %d did not parse, storing raw document: %v", summaryEntry.ID, parseErr)
	} else if ua.DaySummary != nil {
		payload, _ := summaryEntry.Payload.(*model.DailySummaryPayload)
		if payload == nil {
			payload = &model.DailySummaryPayload{}
		}
		payload.Highlights = joinLines(ua.DaySummary.Insights)
		payload.Recommendations = joinLines(ua.DaySummary.Recommendations)
		summaryEntry.Payload = payload
		summaryEntry.SchemaVersion = model.CurrentSchemaVersion
		if err := d.store.UpdateEntry(summaryEntry); err != nil {
			return fmt.Errorf("failed to update summary entry: %w", err)
		}
	}

	return upsertAnalysis(d.store, existing, summaryEntry.ID, result.Analysis, ic)
}

// BuildRequest assembles the aggregate request: every Completed entry of the
// day except the summary entry itself and any other DailySummary entries,
// each tagged with its effective type and a short description, plus the
// day's nutrition totals.
func (d *DaySummarizer) BuildRequest(summaryEntry *model.Entry, day time.Time, loc *time.Location) (*analyzer.DaySummaryRequest, error) {
	entries, err := d.store.EntriesByDay(day, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to load day entries: %w", err)
	}

	req := &analyzer.DaySummaryRequest{
		SummaryEntryID: summaryEntry.ID,
		Date:           day.Format("2006-01-02"),
		Timezone:       loc.String(),
	}

	var meals []*model.UnifiedAnalysis
	for _, entry := range entries {
		if entry.ID == summaryEntry.ID || entry.Type == model.EntryTypeDailySummary {
			continue
		}
		if entry.Status != model.StatusCompleted {
			continue
		}

		analysisRow, err := d.store.LatestAnalysisByEntry(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load analysis for entry %d: %w", entry.ID, err)
		}

		var ua *model.UnifiedAnalysis
		if analysisRow != nil {
			// Tolerated: a malformed document falls back to the stored type.
			ua, _ = analysisRow.ParseDocument()
		}

		effective := effectiveType(entry, ua)
		req.Entries = append(req.Entries, analyzer.EntryContext{
			EntryID:       entry.ID,
			EffectiveType: string(effective),
			CapturedAt:    entry.CapturedAt.In(loc).Format("15:04"),
			Description:   shortDescription(entry, ua),
		})

		if effective == model.EntryTypeMeal && ua != nil {
			meals = append(meals, ua)
		}
	}

	req.Totals = ComputeDayTotals(meals)
	return req, nil
}

// effectiveType prefers the analysis's declared type over the entry's stored
// one: a day summary must reflect the model's classification, not a possibly
// stale stored type.
func effectiveType(entry *model.Entry, ua *model.UnifiedAnalysis) model.EntryType {
	if ua != nil {
		if detected, known := model.ParseEntryType(ua.EntryType); known {
			return detected
		}
	}
	return entry.Type
}

// shortDescription resolves a one-line description for a day-summary entry
// context, preferring the analysis summary, then the payload fields.
func shortDescription(entry *model.Entry, ua *model.UnifiedAnalysis) string {
	if ua != nil && ua.Summary != "" {
		return ua.Summary
	}

	switch p := entry.Payload.(type) {
	case *model.MealPayload:
		if desc := p.Description(); desc != "" {
			return desc
		}
	case *model.ExercisePayload:
		if p.Note != "" {
			return p.Note
		}
		if p.ExerciseType != "" {
			return p.ExerciseType
		}
	case *model.PendingPayload:
		if p.Note != "" {
			return p.Note
		}
	}

	return string(entry.Type)
}

// ComputeDayTotals sums nutrition across meal analyses. Meals without a
// nutrition sub-object contribute nothing rather than zeroing the day.
func ComputeDayTotals(meals []*model.UnifiedAnalysis) model.Nutrition {
	var totals model.Nutrition
	for _, ua := range meals {
		if ua.Meal == nil || ua.Meal.Nutrition == nil {
			continue
		}
		n := ua.Meal.Nutrition
		totals.Calories += n.Calories
		totals.Protein += n.Protein
		totals.Carbs += n.Carbs
		totals.Fat += n.Fat
		totals.Fiber += n.Fiber
		totals.Sugar += n.Sugar
	}
	return totals
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
