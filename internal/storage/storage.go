package storage

import (
	"fmt"
	"time"

	"healthtrack/internal/model"
)

// EntryStore defines the entry persistence interface.
type EntryStore interface {
	SaveEntry(entry *model.Entry) error
	GetEntry(id int64) (*model.Entry, error)
	UpdateEntry(entry *model.Entry) error
	UpdateEntryStatus(id int64, status model.ProcessingStatus) error
	EntriesByDay(day time.Time, loc *time.Location) ([]*model.Entry, error)
	CountByStatus() (map[model.ProcessingStatus]int, error)
}

// AnalysisStore defines the analysis persistence interface. Analyses are
// keyed by insertion order; the latest row per entry is authoritative.
type AnalysisStore interface {
	InsertAnalysis(analysis *model.Analysis) error
	UpdateAnalysis(analysis *model.Analysis) error
	LatestAnalysisByEntry(entryID int64) (*model.Analysis, error)
	AnalysesByDay(day time.Time, loc *time.Location) ([]*model.Analysis, error)
	DeleteOrphanedAnalyses() (int64, error)
}

// Store combines the entry and analysis stores backed by one database.
type Store interface {
	EntryStore
	AnalysisStore
	Close() error
}

// Storage wraps the concrete store implementation.
type Storage struct {
	Store
}

// NewStorage opens the SQLite-backed store at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	s, err := newSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite storage: %w", err)
	}
	return &Storage{Store: s}, nil
}
