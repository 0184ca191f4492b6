package pipeline

import (
	"fmt"
	"time"

	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

// ImportPhoto creates a Pending/Unknown entry for a photo file, moving the
// file into the staging asset directory. The capture timezone is recorded at
// creation so the original local day survives later device timezone changes.
func ImportPhoto(store storage.EntryStore, assets *storage.AssetStore, photoPath, note string, loc *time.Location) (*model.Entry, error) {
	blobPath, err := assets.Relocate(photoPath, model.EntryTypeUnknown)
	if err != nil {
		return nil, fmt.Errorf("failed to import photo: %w", err)
	}

	now := time.Now().In(loc)
	_, offsetSeconds := now.Zone()
	offsetMinutes := offsetSeconds / 60

	entry := &model.Entry{
		Type:             model.EntryTypeUnknown,
		CapturedAt:       now.UTC(),
		TimezoneID:       loc.String(),
		UTCOffsetMinutes: &offsetMinutes,
		BlobPath:         blobPath,
		Payload:          &model.PendingPayload{Note: note},
		SchemaVersion:    0,
		Status:           model.StatusPending,
	}

	if err := store.SaveEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// EnsureDaySummaryEntry returns the day's DailySummary slot entry, creating
// it in Pending when the day has none yet.
func EnsureDaySummaryEntry(store storage.EntryStore, day time.Time, loc *time.Location) (*model.Entry, error) {
	entries, err := store.EntriesByDay(day, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to load day entries: %w", err)
	}
	for _, entry := range entries {
		if entry.Type == model.EntryTypeDailySummary {
			return entry, nil
		}
	}

	// Anchor the slot mid-day so the capture instant stays inside the local
	// day regardless of DST shifts at the boundaries.
	noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
	_, offsetSeconds := noon.Zone()
	offsetMinutes := offsetSeconds / 60

	entry := &model.Entry{
		Type:             model.EntryTypeDailySummary,
		CapturedAt:       noon.UTC(),
		TimezoneID:       loc.String(),
		UTCOffsetMinutes: &offsetMinutes,
		Payload:          &model.DailySummaryPayload{},
		SchemaVersion:    model.CurrentSchemaVersion,
		Status:           model.StatusPending,
	}

	if err := store.SaveEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}
