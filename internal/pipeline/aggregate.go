package pipeline

import (
	"fmt"
	"time"

	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

// BuildDayAggregate derives one day's roll-up from the entry and analysis
// stores. The aggregate is never persisted; callers regenerate it whenever
// they need it.
func BuildDayAggregate(store storage.Store, day time.Time, loc *time.Location) (*model.DayAggregate, error) {
	entries, err := store.EntriesByDay(day, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to load day entries: %w", err)
	}

	agg := &model.DayAggregate{Date: day}

	var meals []*model.UnifiedAnalysis
	for _, entry := range entries {
		if entry.Type == model.EntryTypeDailySummary {
			agg.Status = entry.Status
			if payload, ok := entry.Payload.(*model.DailySummaryPayload); ok {
				agg.Highlights = payload.Highlights
				agg.Recommendations = payload.Recommendations
			}
			if row, err := store.LatestAnalysisByEntry(entry.ID); err == nil && row != nil {
				if ua, parseErr := row.ParseDocument(); parseErr == nil && ua.DaySummary != nil {
					agg.Insights = ua.DaySummary.Insights
					agg.Suggestions = ua.DaySummary.Recommendations
				}
			}
			continue
		}

		if entry.Status != model.StatusCompleted {
			continue
		}

		var ua *model.UnifiedAnalysis
		if row, err := store.LatestAnalysisByEntry(entry.ID); err == nil && row != nil {
			ua, _ = row.ParseDocument()
		}

		switch effectiveType(entry, ua) {
		case model.EntryTypeMeal:
			agg.MealCount++
			if ua != nil {
				meals = append(meals, ua)
			}
		case model.EntryTypeExercise:
			agg.ExerciseCount++
		case model.EntryTypeSleep:
			agg.SleepCount++
		default:
			agg.OtherCount++
		}
	}

	agg.Totals = ComputeDayTotals(meals)
	return agg, nil
}

// BuildWeekAggregates derives the seven day aggregates for the week ending
// on endDay (inclusive).
func BuildWeekAggregates(store storage.Store, endDay time.Time, loc *time.Location) ([]*model.DayAggregate, error) {
	days := make([]*model.DayAggregate, 0, 7)
	for i := 6; i >= 0; i-- {
		day := endDay.AddDate(0, 0, -i)
		agg, err := BuildDayAggregate(store, day, loc)
		if err != nil {
			return nil, err
		}
		days = append(days, agg)
	}
	return days, nil
}
