package pipeline

import (
	"fmt"
	"time"

	"healthtrack/internal/logger"
	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

// RecoverStaleEntries runs once at process start. An entry still in
// Processing cannot have survived a clean shutdown, so it is evidence of a
// crash mid-job; resetting it to Pending makes it retry-eligible again.
// Failed, Skipped and Completed entries are never touched. Returns the
// number of entries reset.
func RecoverStaleEntries(store storage.EntryStore, loc *time.Location) (int, error) {
	today := time.Now().In(loc)
	entries, err := store.EntriesByDay(today, loc)
	if err != nil {
		return 0, fmt.Errorf("failed to load today's entries: %w", err)
	}

	recovered := 0
	for _, entry := range entries {
		if entry.Status != model.StatusProcessing {
			continue
		}
		if err := store.UpdateEntryStatus(entry.ID, model.StatusPending); err != nil {
			return recovered, fmt.Errorf("failed to reset entry %d: %w", entry.ID, err)
		}
		logger.GetLogger().Warnf("Recovered entry %d stuck in processing, reset to pending", entry.ID)
		recovered++
	}

	if recovered > 0 {
		logger.GetLogger().Infof("Stale-entry recovery reset %d entries", recovered)
	}
	return recovered, nil
}
