package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"healthtrack/internal/logger"
	"healthtrack/internal/model"
	"healthtrack/internal/pipeline"
)

var startConfigPath string

func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the analysis pipeline daemon",
		Long:  "Recovers entries left mid-flight by an unclean shutdown, processes pending entries, and keeps cron schedules for daily-summary regeneration and retention cleanup",
		RunE:  runStart,
	}

	cmd.Flags().StringVarP(&startConfigPath, "config", "c", "", "Path to config file")

	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(startConfigPath)
	if err != nil {
		return err
	}
	defer a.Close()

	log := logger.GetLogger()
	loc := a.cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Startup sweep: entries stuck in Processing are crash evidence.
	recovered, err := pipeline.RecoverStaleEntries(a.storage, loc)
	if err != nil {
		return fmt.Errorf("stale-entry recovery failed: %w", err)
	}

	// Re-enqueue everything retry-eligible, including what the sweep reset.
	enqueued := a.enqueuePending(ctx, loc)
	log.Infof("Startup: recovered %d stale entries, enqueued %d pending jobs", recovered, enqueued)

	c := cron.New(cron.WithSeconds())

	if spec := a.cfg.Pipeline.DailySummaryCron; spec != "" {
		_, err := c.AddFunc(spec, func() {
			day := time.Now().In(loc)
			summaryEntry, err := pipeline.EnsureDaySummaryEntry(a.storage, day, loc)
			if err != nil {
				log.Errorf("Failed to ensure day summary entry: %v", err)
				return
			}
			a.scheduler.EnqueueDailySummary(ctx, summaryEntry.ID)
		})
		if err != nil {
			return fmt.Errorf("invalid daily_summary_cron: %w", err)
		}
	}

	if spec := a.cfg.Pipeline.CleanupCron; spec != "" && a.cfg.Storage.RetentionDays > 0 {
		_, err := c.AddFunc(spec, func() {
			deleted, err := a.storage.DeleteOrphanedAnalyses()
			if err != nil {
				log.Errorf("Retention cleanup failed: %v", err)
				return
			}
			if deleted > 0 {
				log.Infof("Retention cleanup removed %d orphaned analyses", deleted)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cleanup_cron: %w", err)
		}
	}

	c.Start()

	log.Info("Healthtrack started. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Stopping...")
	c.Stop()

	// Cancelling the job context resolves in-flight work back to Pending;
	// the next start picks it up again.
	cancel()
	a.scheduler.Wait()
	log.Info("Stopped.")

	return nil
}

// enqueuePending schedules an analysis job for every Pending entry of the
// current local day.
func (a *app) enqueuePending(ctx context.Context, loc *time.Location) int {
	entries, err := a.storage.EntriesByDay(time.Now().In(loc), loc)
	if err != nil {
		logger.GetLogger().Errorf("Failed to load today's entries: %v", err)
		return 0
	}

	enqueued := 0
	for _, entry := range entries {
		if entry.Status != model.StatusPending {
			continue
		}
		a.scheduler.EnqueueAnalysis(ctx, entry.ID)
		enqueued++
	}
	return enqueued
}
