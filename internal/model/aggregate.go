package model

import "time"

// DayAggregate is the derived roll-up of one local calendar day. It is
// rebuilt on demand from entries and analyses and never stored, so it is
// always safe to discard and regenerate.
type DayAggregate struct {
	Date            time.Time
	Status          ProcessingStatus
	MealCount       int
	ExerciseCount   int
	SleepCount      int
	OtherCount      int
	Totals          Nutrition
	Highlights      string
	Recommendations string
	Insights        []string
	Suggestions     []string
}

// TotalCount is the number of non-summary entries logged on the day.
func (d *DayAggregate) TotalCount() int {
	return d.MealCount + d.ExerciseCount + d.SleepCount + d.OtherCount
}

// WeekSummary is the composed highlights/recommendations pair produced by the
// pure seven-day aggregation.
type WeekSummary struct {
	Highlights      string
	Recommendations string
}
