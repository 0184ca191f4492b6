package model

import (
	"fmt"
	"time"
)

// EntryType classifies a tracked activity. Unknown is a staging type:
// the entry is waiting for the remote model to classify it.
type EntryType string

const (
	EntryTypeUnknown      EntryType = "unknown"
	EntryTypeMeal         EntryType = "meal"
	EntryTypeExercise     EntryType = "exercise"
	EntryTypeSleep        EntryType = "sleep"
	EntryTypeOther        EntryType = "other"
	EntryTypeDailySummary EntryType = "daily_summary"
)

// ParseEntryType resolves a type string declared by the remote model.
// Returns EntryTypeUnknown and false for anything it does not recognize.
func ParseEntryType(s string) (EntryType, bool) {
	switch EntryType(s) {
	case EntryTypeMeal, EntryTypeExercise, EntryTypeSleep, EntryTypeOther, EntryTypeDailySummary:
		return EntryType(s), true
	}
	return EntryTypeUnknown, false
}

// ProcessingStatus is the per-entry pipeline state.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
	StatusSkipped    ProcessingStatus = "skipped"
)

// statusTransitions is the explicit state-transition table. Processing -> Pending
// is the cancellation/crash-recovery edge; Failed/Skipped/Completed -> Pending is
// the manual retry / regeneration edge. There is no Pending -> Completed shortcut:
// every job passes through Processing.
var statusTransitions = map[ProcessingStatus]map[ProcessingStatus]bool{
	StatusPending: {
		StatusProcessing: true,
	},
	StatusProcessing: {
		StatusPending:   true,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusSkipped:   true,
	},
	StatusCompleted: {
		StatusPending: true,
	},
	StatusFailed: {
		StatusPending: true,
	},
	StatusSkipped: {
		StatusPending: true,
	},
}

// CanTransition reports whether moving from to the given status is a legal edge.
func CanTransition(from, to ProcessingStatus) bool {
	return statusTransitions[from][to]
}

// Entry represents one tracked activity (meal/exercise/sleep/other) or a
// day's summary placeholder. CapturedAt is always UTC; TimezoneID and
// UTCOffsetMinutes preserve the original local wall clock so the capture day
// can be reconstructed even after the device timezone changes.
type Entry struct {
	ID               int64
	UUID             string
	Type             EntryType
	CapturedAt       time.Time
	TimezoneID       string
	UTCOffsetMinutes *int
	BlobPath         string
	Payload          Payload
	SchemaVersion    int
	Status           ProcessingStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Location resolves the timezone the entry was captured in. The named zone
// wins; the stored UTC offset is the fallback when the zone database does not
// know the name; UTC is the last resort.
func (e *Entry) Location() *time.Location {
	if e.TimezoneID != "" {
		if loc, err := time.LoadLocation(e.TimezoneID); err == nil {
			return loc
		}
	}
	if e.UTCOffsetMinutes != nil {
		offset := *e.UTCOffsetMinutes
		return time.FixedZone(fmt.Sprintf("UTC%+d:%02d", offset/60, abs(offset%60)), offset*60)
	}
	return time.UTC
}

// LocalDay returns the calendar day the entry was captured on, in its own
// captured timezone.
func (e *Entry) LocalDay() time.Time {
	local := e.CapturedAt.In(e.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// DayBounds computes the [start, end) UTC instant range covering one local
// calendar day in the given location.
func DayBounds(day time.Time, loc *time.Location) (start, end time.Time) {
	start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}
