package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"healthtrack/internal/analyzer"
	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()

	st, err := storage.NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestAssets(t *testing.T) *storage.AssetStore {
	t.Helper()

	as, err := storage.NewAssetStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewAssetStore failed: %v", err)
	}
	return as
}

func seedEntry(t *testing.T, st *storage.Storage, entryType model.EntryType, status model.ProcessingStatus) *model.Entry {
	t.Helper()

	entry := &model.Entry{
		Type:       entryType,
		CapturedAt: time.Now().UTC(),
		Payload:    &model.PendingPayload{Note: "test note"},
		Status:     status,
	}
	if entryType == model.EntryTypeDailySummary {
		entry.Payload = &model.DailySummaryPayload{}
		entry.SchemaVersion = model.CurrentSchemaVersion
	}
	if err := st.SaveEntry(entry); err != nil {
		t.Fatalf("SaveEntry failed: %v", err)
	}
	return entry
}

var testSettings = ProviderSettings{Name: "openai", APIKey: "test-key", Model: "gpt-4o"}

const mealDocument = `{
	"entry_type": "meal",
	"confidence": 0.9,
	"health_score": 75,
	"summary": "Grilled chicken salad",
	"meal": {
		"name": "Chicken salad",
		"items": ["chicken", "greens"],
		"nutrition": {"calories": 450, "protein": 38}
	}
}`

// fakeClient is a scripted model client. onInvoke, when set, runs inside the
// remote call, before the scripted result is returned.
type fakeClient struct {
	mu            sync.Mutex
	analysis      string
	err           error
	onInvoke      func()
	analysisCalls int
	summaryCalls  int
	lastAnalysis  analyzer.AnalysisRequest
	lastSummary   analyzer.DaySummaryRequest
}

func (f *fakeClient) InvokeAnalysis(ctx context.Context, ic analyzer.InvokeContext, req analyzer.AnalysisRequest) (*analyzer.InvokeResult, error) {
	f.mu.Lock()
	f.analysisCalls++
	f.lastAnalysis = req
	f.mu.Unlock()

	if f.onInvoke != nil {
		f.onInvoke()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &analyzer.InvokeResult{Analysis: f.analysis}, nil
}

func (f *fakeClient) InvokeDailySummary(ctx context.Context, ic analyzer.InvokeContext, req analyzer.DaySummaryRequest) (*analyzer.InvokeResult, error) {
	f.mu.Lock()
	f.summaryCalls++
	f.lastSummary = req
	f.mu.Unlock()

	if f.onInvoke != nil {
		f.onInvoke()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &analyzer.InvokeResult{Analysis: f.analysis}, nil
}

// countingLease records acquire/release balance across jobs.
type countingLease struct {
	mu       sync.Mutex
	acquires int
	releases int
}

func (l *countingLease) Acquire() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
}

func (l *countingLease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
}

func (l *countingLease) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquires, l.releases
}

func newTestScheduler(t *testing.T, st *storage.Storage, client analyzer.Client, settings ProviderSettings, lease Lease) *Scheduler {
	t.Helper()

	applier := NewApplier(st, newTestAssets(t))
	orchestrator := NewOrchestrator(st, client, applier, settings)
	summarizer := NewDaySummarizer(st, client, settings)
	return NewScheduler(st, orchestrator, summarizer, lease)
}
