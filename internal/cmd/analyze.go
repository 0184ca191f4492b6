package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"healthtrack/internal/model"
)

var analyzeConfigPath string

func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <entry-id>",
		Short: "Analyze or re-analyze one entry",
		Long:  "Runs the analysis job for the entry. Failed, skipped and completed entries are reset to pending first",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	cmd.Flags().StringVarP(&analyzeConfigPath, "config", "c", "", "Path to config file")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	entryID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid entry id %q: %w", args[0], err)
	}

	a, err := bootstrap(analyzeConfigPath)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.storage.GetEntry(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("entry %d not found", entryID)
	}

	ctx := context.Background()
	if entry.Status == model.StatusPending {
		a.scheduler.EnqueueAnalysis(ctx, entryID)
	} else if err := a.scheduler.RetryEntry(ctx, entryID); err != nil {
		return err
	}
	a.scheduler.Wait()

	return printOutcome(a, entryID)
}

func printOutcome(a *app, entryID int64) error {
	entry, err := a.storage.GetEntry(entryID)
	if err != nil || entry == nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Entry %d: type=%s status=%s\n", entry.ID, entry.Type, entry.Status)

	row, err := a.storage.LatestAnalysisByEntry(entryID)
	if err != nil || row == nil {
		return err
	}
	if ua, parseErr := row.ParseDocument(); parseErr == nil && ua.Summary != "" {
		fmt.Fprintf(os.Stdout, "Summary: %s\n", ua.Summary)
	}
	return nil
}
