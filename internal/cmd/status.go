package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"healthtrack/internal/model"
	"healthtrack/internal/pipeline"
)

var statusConfigPath string

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline status and today's entries",
		RunE:  runStatus,
	}

	cmd.Flags().StringVarP(&statusConfigPath, "config", "c", "", "Path to config file")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(statusConfigPath)
	if err != nil {
		return err
	}
	defer a.Close()

	counts, err := a.storage.CountByStatus()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Entries by status:")
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	if len(statuses) == 0 {
		fmt.Fprintln(os.Stdout, "  (none)")
	}
	for _, status := range statuses {
		fmt.Fprintf(os.Stdout, "  %-10s %d\n", status, counts[model.ProcessingStatus(status)])
	}

	loc := a.cfg.Location()
	today := time.Now().In(loc)

	entries, err := a.storage.EntriesByDay(today, loc)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nToday (%s): %d entries\n", today.Format("2006-01-02"), len(entries))
	for _, entry := range entries {
		desc := ""
		if entry.Payload != nil {
			desc = truncate(entry.Payload.Description(), 60)
		}
		fmt.Fprintf(os.Stdout, "  #%-4d %-14s %-10s %s %s\n",
			entry.ID, entry.Type, entry.Status,
			entry.CapturedAt.In(loc).Format("15:04"), desc)
	}

	agg, err := pipeline.BuildDayAggregate(a.storage, today, loc)
	if err != nil {
		return err
	}
	if agg.TotalCount() > 0 && agg.Totals.Calories > 0 {
		fmt.Fprintf(os.Stdout, "\nIntake so far: %.0f kcal\n", agg.Totals.Calories)
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
