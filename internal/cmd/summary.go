package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"healthtrack/internal/pipeline"
)

var (
	summaryConfigPath string
	summaryDate       string
	summaryWeek       bool
)

func NewSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Generate or show the daily or weekly summary",
		Long:  "Regenerates the day summary via the model, or composes the weekly roll-up from the last seven day aggregates (no remote call)",
		RunE:  runSummary,
	}

	cmd.Flags().StringVarP(&summaryConfigPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&summaryDate, "date", "d", "", "Day to summarize (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVarP(&summaryWeek, "week", "w", false, "Show the weekly summary ending on the given day")

	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(summaryConfigPath)
	if err != nil {
		return err
	}
	defer a.Close()

	loc := a.cfg.Location()

	day := time.Now().In(loc)
	if summaryDate != "" {
		day, err = time.ParseInLocation("2006-01-02", summaryDate, loc)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", summaryDate, err)
		}
	}

	if summaryWeek {
		return runWeekSummary(a, day, loc)
	}

	summaryEntry, err := pipeline.EnsureDaySummaryEntry(a.storage, day, loc)
	if err != nil {
		return err
	}

	a.scheduler.EnqueueDailySummary(context.Background(), summaryEntry.ID)
	a.scheduler.Wait()

	agg, err := pipeline.BuildDayAggregate(a.storage, day, loc)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Daily summary for %s (%s)\n", day.Format("2006-01-02"), agg.Status)
	fmt.Fprintf(os.Stdout, "Entries: %d (meals %d, exercise %d, sleep %d, other %d)\n",
		agg.TotalCount(), agg.MealCount, agg.ExerciseCount, agg.SleepCount, agg.OtherCount)
	if agg.Totals.Calories > 0 {
		fmt.Fprintf(os.Stdout, "Intake: %.0f kcal\n", agg.Totals.Calories)
	}
	if agg.Highlights != "" {
		fmt.Fprintf(os.Stdout, "\nHighlights:\n%s\n", agg.Highlights)
	}
	if agg.Recommendations != "" {
		fmt.Fprintf(os.Stdout, "\nRecommendations:\n%s\n", agg.Recommendations)
	}

	return nil
}

func runWeekSummary(a *app, endDay time.Time, loc *time.Location) error {
	days, err := pipeline.BuildWeekAggregates(a.storage, endDay, loc)
	if err != nil {
		return err
	}

	week := pipeline.BuildWeekSummary(days)
	if week == nil {
		fmt.Fprintf(os.Stdout, "No entries logged in the week ending %s\n", endDay.Format("2006-01-02"))
		return nil
	}

	fmt.Fprintf(os.Stdout, "Week ending %s\n\n", endDay.Format("2006-01-02"))
	fmt.Fprintf(os.Stdout, "Highlights:\n%s\n", week.Highlights)
	if week.Recommendations != "" {
		fmt.Fprintf(os.Stdout, "\nRecommendations:\n%s\n", week.Recommendations)
	}

	return nil
}
