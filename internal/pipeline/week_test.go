package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/model"
)

func weekDays(start time.Time) []*model.DayAggregate {
	days := make([]*model.DayAggregate, 7)
	for i := range days {
		days[i] = &model.DayAggregate{Date: start.AddDate(0, 0, i)}
	}
	return days
}

func TestBuildWeekSummaryEmptyWeek(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, BuildWeekSummary(weekDays(start)))
	assert.Nil(t, BuildWeekSummary(nil))
	assert.Nil(t, BuildWeekSummary([]*model.DayAggregate{nil, nil}))
}

func TestBuildWeekSummaryCounts(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) // a Monday
	days := weekDays(start)

	days[0].MealCount = 3
	days[0].ExerciseCount = 1
	days[2].MealCount = 2
	days[2].SleepCount = 1
	days[5].OtherCount = 1

	week := BuildWeekSummary(days)
	require.NotNil(t, week)

	assert.Contains(t, week.Highlights, "Logged 8 entries this week.")
	assert.Contains(t, week.Highlights, "Meals: 5, exercise: 1, sleep: 1, other: 1.")
	assert.Contains(t, week.Highlights, "Busiest day: Monday (4 entries).")
}

func TestBuildWeekSummaryBusiestDayTieBreaksToMostRecent(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) // Monday through Sunday
	days := weekDays(start)

	days[0].MealCount = 2 // Monday
	days[4].MealCount = 2 // Friday

	week := BuildWeekSummary(days)
	require.NotNil(t, week)
	assert.Contains(t, week.Highlights, "Busiest day: Friday (2 entries).")
}

func TestBuildWeekSummaryCollectsCompletedDayBodies(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	days := weekDays(start)

	days[1].MealCount = 1
	days[1].Status = model.StatusCompleted
	days[1].Insights = []string{"Protein intake on target"}
	days[1].Suggestions = []string{"Add a rest day"}

	// Summarized but the day summary never completed: its body is skipped.
	days[3].MealCount = 1
	days[3].Status = model.StatusFailed
	days[3].Insights = []string{"must not appear"}

	// Completed day with no bodies at all: skipped silently.
	days[4].MealCount = 1
	days[4].Status = model.StatusCompleted

	week := BuildWeekSummary(days)
	require.NotNil(t, week)

	assert.Contains(t, week.Highlights, "Tue: Protein intake on target")
	assert.NotContains(t, week.Highlights, "must not appear")
	assert.Equal(t, "Tue: Add a rest day", week.Recommendations)
}
