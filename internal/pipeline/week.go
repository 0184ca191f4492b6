package pipeline

import (
	"fmt"
	"strings"

	"healthtrack/internal/model"
)

// BuildWeekSummary composes a weekly highlights/recommendations pair from
// seven day aggregates. Pure aggregation, no remote call. Returns nil when
// all seven days are empty. A day missing its summary body is skipped
// silently rather than failing the whole aggregation.
func BuildWeekSummary(days []*model.DayAggregate) *model.WeekSummary {
	total := 0
	meals, exercises, sleeps, others := 0, 0, 0, 0
	var busiest *model.DayAggregate

	for _, day := range days {
		if day == nil {
			continue
		}
		total += day.TotalCount()
		meals += day.MealCount
		exercises += day.ExerciseCount
		sleeps += day.SleepCount
		others += day.OtherCount

		// Ties break toward the most recent date, so >= on a
		// chronologically ordered slice picks the later day.
		if busiest == nil || day.TotalCount() >= busiest.TotalCount() {
			if day.TotalCount() > 0 {
				busiest = day
			}
		}
	}

	if total == 0 {
		return nil
	}

	var highlights strings.Builder
	fmt.Fprintf(&highlights, "Logged %d entries this week.", total)
	fmt.Fprintf(&highlights, "\nMeals: %d, exercise: %d, sleep: %d, other: %d.", meals, exercises, sleeps, others)
	if busiest != nil {
		fmt.Fprintf(&highlights, "\nBusiest day: %s (%d entries).",
			busiest.Date.Format("Monday"), busiest.TotalCount())
	}

	var recommendations strings.Builder
	for _, day := range days {
		if day == nil || day.Status != model.StatusCompleted {
			continue
		}
		name := day.Date.Format("Mon")
		if len(day.Insights) > 0 {
			fmt.Fprintf(&highlights, "\n%s: %s", name, day.Insights[0])
		}
		if len(day.Suggestions) > 0 {
			if recommendations.Len() > 0 {
				recommendations.WriteString("\n")
			}
			fmt.Fprintf(&recommendations, "%s: %s", name, day.Suggestions[0])
		}
	}

	return &model.WeekSummary{
		Highlights:      highlights.String(),
		Recommendations: recommendations.String(),
	}
}
