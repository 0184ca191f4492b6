package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"healthtrack/internal/model"
)

type SQLiteStore struct {
	db *sql.DB
}

// newSQLiteStore creates a SQLite store instance (internal function)
func newSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) init() error {
	createEntriesTable := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		captured_at DATETIME NOT NULL,
		timezone_id TEXT NOT NULL DEFAULT '',
		utc_offset_minutes INTEGER,
		blob_path TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL DEFAULT '{}',
		data_schema_version INTEGER NOT NULL DEFAULT 0,
		processing_status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	createAnalysesTable := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id INTEGER NOT NULL,
		document TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	`

	createIndexes := `
	CREATE INDEX IF NOT EXISTS idx_entries_captured_at ON entries(captured_at);
	CREATE INDEX IF NOT EXISTS idx_entries_status ON entries(processing_status);
	CREATE INDEX IF NOT EXISTS idx_analyses_entry_id ON analyses(entry_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	`

	if _, err := s.db.Exec(createEntriesTable); err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}

	if _, err := s.db.Exec(createAnalysesTable); err != nil {
		return fmt.Errorf("failed to create analyses table: %w", err)
	}

	if _, err := s.db.Exec(createIndexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// SaveEntry inserts a new entry and assigns its store id. A missing UUID or
// timestamps are filled in here so callers can hand over sparse structs.
func (s *SQLiteStore) SaveEntry(entry *model.Entry) error {
	now := time.Now().UTC()
	if entry.UUID == "" {
		entry.UUID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	payload, err := model.EncodePayload(entry.Payload)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO entries (uuid, entry_type, captured_at, timezone_id, utc_offset_minutes, blob_path, payload, data_schema_version, processing_status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.Exec(query,
		entry.UUID, string(entry.Type), entry.CapturedAt.UTC().Format(time.RFC3339Nano),
		entry.TimezoneID, nullableInt(entry.UTCOffsetMinutes), entry.BlobPath,
		payload, entry.SchemaVersion, string(entry.Status),
		entry.CreatedAt.Format(time.RFC3339Nano), entry.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}

	entry.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read entry id: %w", err)
	}
	return nil
}

// GetEntry returns the entry with the given id, or nil when it does not exist.
func (s *SQLiteStore) GetEntry(id int64) (*model.Entry, error) {
	query := entrySelect + ` WHERE id = ?`
	row := s.db.QueryRow(query, id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// UpdateEntry rewrites the mutable entry fields (type, payload, schema
// version, blob path, status).
func (s *SQLiteStore) UpdateEntry(entry *model.Entry) error {
	payload, err := model.EncodePayload(entry.Payload)
	if err != nil {
		return err
	}
	entry.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE entries
	SET entry_type = ?, blob_path = ?, payload = ?, data_schema_version = ?, processing_status = ?, updated_at = ?
	WHERE id = ?
	`
	_, err = s.db.Exec(query,
		string(entry.Type), entry.BlobPath, payload, entry.SchemaVersion,
		string(entry.Status), entry.UpdatedAt.Format(time.RFC3339Nano), entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateEntryStatus(id int64, status model.ProcessingStatus) error {
	query := `UPDATE entries SET processing_status = ?, updated_at = ? WHERE id = ?`
	_, err := s.db.Exec(query, string(status), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("failed to update entry status: %w", err)
	}
	return nil
}

// EntriesByDay returns entries whose UTC capture instant falls within the
// [start, end) bounds of the given local calendar day, ordered by capture
// time.
func (s *SQLiteStore) EntriesByDay(day time.Time, loc *time.Location) ([]*model.Entry, error) {
	start, end := model.DayBounds(day, loc)

	query := entrySelect + `
	WHERE captured_at >= ? AND captured_at < ?
	ORDER BY captured_at ASC
	`
	rows, err := s.db.Query(query, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) CountByStatus() (map[model.ProcessingStatus]int, error) {
	query := `SELECT processing_status, COUNT(*) FROM entries GROUP BY processing_status`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.ProcessingStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[model.ProcessingStatus(status)] = count
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) InsertAnalysis(analysis *model.Analysis) error {
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO analyses (entry_id, document, provider, model, created_at)
	VALUES (?, ?, ?, ?, ?)
	`
	res, err := s.db.Exec(query, analysis.EntryID, analysis.Document,
		analysis.Provider, analysis.Model, analysis.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	analysis.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read analysis id: %w", err)
	}
	return nil
}

// UpdateAnalysis rewrites an existing row in place, preserving its identity.
func (s *SQLiteStore) UpdateAnalysis(analysis *model.Analysis) error {
	analysis.CreatedAt = time.Now().UTC()

	query := `UPDATE analyses SET document = ?, provider = ?, model = ?, created_at = ? WHERE id = ?`
	_, err := s.db.Exec(query, analysis.Document, analysis.Provider, analysis.Model,
		analysis.CreatedAt.Format(time.RFC3339Nano), analysis.ID)
	if err != nil {
		return fmt.Errorf("failed to update analysis: %w", err)
	}
	return nil
}

// LatestAnalysisByEntry returns the most recent analysis for the entry, or
// nil when none exists.
func (s *SQLiteStore) LatestAnalysisByEntry(entryID int64) (*model.Analysis, error) {
	query := `
	SELECT id, entry_id, document, provider, model, created_at
	FROM analyses
	WHERE entry_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT 1
	`
	var a model.Analysis
	var createdStr string
	err := s.db.QueryRow(query, entryID).Scan(&a.ID, &a.EntryID, &a.Document, &a.Provider, &a.Model, &createdStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &a, nil
}

// AnalysesByDay returns the analyses created within the local day's
// [start, end) bounds, ordered by creation time.
func (s *SQLiteStore) AnalysesByDay(day time.Time, loc *time.Location) ([]*model.Analysis, error) {
	start, end := model.DayBounds(day, loc)

	query := `
	SELECT id, entry_id, document, provider, model, created_at
	FROM analyses
	WHERE created_at >= ? AND created_at < ?
	ORDER BY created_at ASC
	`
	rows, err := s.db.Query(query, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*model.Analysis
	for rows.Next() {
		var a model.Analysis
		var createdStr string
		if err := rows.Scan(&a.ID, &a.EntryID, &a.Document, &a.Provider, &a.Model, &createdStr); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		analyses = append(analyses, &a)
	}
	return analyses, rows.Err()
}

// DeleteOrphanedAnalyses removes analysis rows whose entry was deleted by an
// external collaborator. The pipeline itself never deletes entries.
func (s *SQLiteStore) DeleteOrphanedAnalyses() (int64, error) {
	query := `DELETE FROM analyses WHERE entry_id NOT IN (SELECT id FROM entries)`
	res, err := s.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned analyses: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const entrySelect = `
	SELECT id, uuid, entry_type, captured_at, timezone_id, utc_offset_minutes, blob_path, payload, data_schema_version, processing_status, created_at, updated_at
	FROM entries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*model.Entry, error) {
	var e model.Entry
	var entryType, status string
	var capturedStr, createdStr, updatedStr string
	var offset sql.NullInt64
	var payloadRaw string

	if err := row.Scan(&e.ID, &e.UUID, &entryType, &capturedStr, &e.TimezoneID, &offset,
		&e.BlobPath, &payloadRaw, &e.SchemaVersion, &status, &createdStr, &updatedStr); err != nil {
		return nil, err
	}

	e.Type = model.EntryType(entryType)
	e.Status = model.ProcessingStatus(status)
	if offset.Valid {
		v := int(offset.Int64)
		e.UTCOffsetMinutes = &v
	}

	var err error
	e.CapturedAt, err = time.Parse(time.RFC3339Nano, capturedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse captured_at: %w", err)
	}
	e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	e.Payload, err = model.DecodePayload(e.Type, e.SchemaVersion, payloadRaw)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
