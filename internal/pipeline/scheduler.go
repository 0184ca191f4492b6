package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"healthtrack/internal/logger"
	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

// Lease keeps the process alive while a job is running (e.g. a platform wake
// lock). The scheduler acquires it before a job starts and releases it
// exactly once per job, whichever exit path the job takes.
type Lease interface {
	Acquire()
	Release()
}

// NopLease is the default lease for environments without a keep-alive
// mechanism.
type NopLease struct{}

func (NopLease) Acquire() {}
func (NopLease) Release() {}

// Scheduler runs analysis and aggregation jobs off the caller's path. Every
// enqueue spawns an independent goroutine; there is no shared queue, no
// concurrency cap and no de-duplication — enqueuing the same entry twice
// runs two overlapping jobs, which is the caller's responsibility to avoid
// when overlapping writes would be unacceptable.
type Scheduler struct {
	store        storage.Store
	orchestrator *Orchestrator
	summarizer   *DaySummarizer
	events       *Broadcaster
	lease        Lease
	wg           sync.WaitGroup
}

func NewScheduler(store storage.Store, orchestrator *Orchestrator, summarizer *DaySummarizer, lease Lease) *Scheduler {
	if lease == nil {
		lease = NopLease{}
	}
	return &Scheduler{
		store:        store,
		orchestrator: orchestrator,
		summarizer:   summarizer,
		events:       NewBroadcaster(),
		lease:        lease,
	}
}

// Events exposes the status-changed broadcast for UI-adjacent consumers.
func (s *Scheduler) Events() *Broadcaster {
	return s.events
}

// EnqueueAnalysis runs a single-entry analysis job. ctx is the cooperative
// cancellation signal; cancellation always resolves the entry back to
// Pending, never to Failed.
func (s *Scheduler) EnqueueAnalysis(ctx context.Context, entryID int64) {
	s.spawn(ctx, entryID, "analysis", func(jobCtx context.Context, entry *model.Entry) error {
		if entry.Type == model.EntryTypeDailySummary {
			return s.summarizer.Summarize(jobCtx, entry)
		}
		return s.orchestrator.AnalyzeEntry(jobCtx, entry, "")
	})
}

// EnqueueCorrection re-analyzes an entry with the user's correction text
// appended as additional model context.
func (s *Scheduler) EnqueueCorrection(ctx context.Context, entryID int64, correctionText string) {
	s.spawn(ctx, entryID, "correction", func(jobCtx context.Context, entry *model.Entry) error {
		return s.orchestrator.AnalyzeEntry(jobCtx, entry, correctionText)
	})
}

// EnqueueDailySummary regenerates the day summary backing the given
// DailySummary-typed entry.
func (s *Scheduler) EnqueueDailySummary(ctx context.Context, entryID int64) {
	s.spawn(ctx, entryID, "daily-summary", func(jobCtx context.Context, entry *model.Entry) error {
		return s.summarizer.Summarize(jobCtx, entry)
	})
}

// Wait blocks until all in-flight jobs have finished. Used on shutdown and
// in tests.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) spawn(ctx context.Context, entryID int64, kind string, dispatch func(context.Context, *model.Entry) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(ctx, entryID, kind, dispatch)
	}()
}

// runJob drives one job through the processing-status state machine.
// Cancellation is checked at exactly three points: before any mutation,
// before the remote call and after the remote call. The post-call checkpoint
// still resets to Pending even though remote work is sunk: cancellation
// means "abandon this attempt", not "ignore cancellation once work is done".
func (s *Scheduler) runJob(ctx context.Context, entryID int64, kind string, dispatch func(context.Context, *model.Entry) error) {
	log := logger.GetLogger()

	s.lease.Acquire()
	released := false
	releaseOnce := func() {
		if !released {
			released = true
			s.lease.Release()
		}
	}
	defer releaseOnce()

	// Nothing escapes the job boundary: a panic in dispatch lands the entry
	// on Failed like any other unexpected error.
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Job %s for entry %d panicked: %v", kind, entryID, r)
			s.setStatus(entryID, model.StatusFailed)
		}
	}()

	// Checkpoint 1: cancelled before any mutation, leave the entry as-is.
	if ctx.Err() != nil {
		log.Infof("Job %s for entry %d cancelled before start", kind, entryID)
		return
	}

	s.setStatus(entryID, model.StatusProcessing)

	entry, err := s.store.GetEntry(entryID)
	if err != nil {
		log.Errorf("Job %s failed to load entry %d: %v", kind, entryID, err)
		s.setStatus(entryID, model.StatusFailed)
		return
	}
	if entry == nil {
		log.Warnf("Job %s: entry %d not found, nothing to do", kind, entryID)
		return
	}

	// Checkpoint 2: cancelled before the remote call.
	if ctx.Err() != nil {
		log.Infof("Job %s for entry %d cancelled before remote call", kind, entryID)
		s.setStatus(entryID, model.StatusPending)
		return
	}

	dispatchErr := dispatch(ctx, entry)

	// Checkpoint 3: cancelled during or after the remote call. The result,
	// if any, is discarded.
	if ctx.Err() != nil || errors.Is(dispatchErr, context.Canceled) || errors.Is(dispatchErr, context.DeadlineExceeded) {
		log.Infof("Job %s for entry %d cancelled, resetting to pending", kind, entryID)
		s.setStatus(entryID, model.StatusPending)
		return
	}

	status := outcomeStatus(dispatchErr)
	if dispatchErr != nil {
		log.Warnf("Job %s for entry %d finished with status %s: %v", kind, entryID, status, dispatchErr)
	} else {
		log.Infof("Job %s for entry %d completed", kind, entryID)
	}

	s.setStatus(entryID, status)
}

// setStatus persists a status transition and republishes it as an event.
// Every exit path of a job ends here, so subscribers always observe the
// final state.
func (s *Scheduler) setStatus(entryID int64, status model.ProcessingStatus) {
	if err := s.store.UpdateEntryStatus(entryID, status); err != nil {
		logger.GetLogger().Errorf("Failed to persist status %s for entry %d: %v", status, entryID, err)
		return
	}
	s.events.Publish(StatusEvent{EntryID: entryID, Status: status})
}

// RetryEntry resets a Failed or Skipped (or Completed, for regeneration)
// entry to Pending and enqueues a fresh analysis job.
func (s *Scheduler) RetryEntry(ctx context.Context, entryID int64) error {
	entry, err := s.store.GetEntry(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("entry %d: %w", entryID, ErrEntryNotFound)
	}
	if !model.CanTransition(entry.Status, model.StatusPending) {
		return fmt.Errorf("entry %d in status %s cannot be retried", entryID, entry.Status)
	}

	s.setStatus(entryID, model.StatusPending)
	s.EnqueueAnalysis(ctx, entryID)
	return nil
}
