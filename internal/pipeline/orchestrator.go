package pipeline

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"healthtrack/internal/analyzer"
	"healthtrack/internal/logger"
	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

// Orchestrator runs the single-entry analysis flow: resolve provider
// settings, invoke the model, reclassify the entry from the declared type,
// and persist the analysis.
type Orchestrator struct {
	store    storage.Store
	client   analyzer.Client
	applier  *Applier
	settings ProviderSettings
}

func NewOrchestrator(store storage.Store, client analyzer.Client, applier *Applier, settings ProviderSettings) *Orchestrator {
	return &Orchestrator{
		store:    store,
		client:   client,
		applier:  applier,
		settings: settings,
	}
}

// AnalyzeEntry analyzes one entry, optionally with a user correction. The
// returned error follows the orchestration taxonomy in outcome.go; the
// scheduler maps it to a terminal status.
func (o *Orchestrator) AnalyzeEntry(ctx context.Context, entry *model.Entry, correctionText string) error {
	log := logger.GetLogger()

	ic, err := o.settings.resolveAnalysis()
	if err != nil {
		return err
	}

	req := analyzer.AnalysisRequest{
		EntryID:        entry.ID,
		EntryType:      entry.Type,
		CapturedAt:     entry.CapturedAt,
		Note:           entry.Payload.Description(),
		CorrectionText: correctionText,
	}

	if entry.BlobPath != "" {
		image, err := os.ReadFile(entry.BlobPath)
		if err != nil {
			// A lost photo still allows a text-only (re)analysis from the
			// note and prior result.
			log.Warnf("Failed to read asset for entry %d (%s): %v, analyzing without image", entry.ID, entry.BlobPath, err)
		} else {
			req.Image = image
			req.ImageMIME = mime.TypeByExtension(filepath.Ext(entry.BlobPath))
		}
	}

	existing, err := o.store.LatestAnalysisByEntry(entry.ID)
	if err != nil {
		return fmt.Errorf("failed to load prior analysis: %w", err)
	}
	if correctionText != "" && existing != nil {
		req.ExistingResultJSON = existing.Document
	}

	result, err := o.client.InvokeAnalysis(ctx, ic, req)
	if err != nil {
		return fmt.Errorf("model invocation failed: %w", err)
	}
	if result.Analysis == "" {
		return ErrNoAnalysisReturned
	}
	if d := result.Diagnostics; d != nil {
		log.Debugf("Entry %d analysis used %d tokens (%d prompt, %d completion)",
			entry.ID, d.TotalTokens, d.PromptTokens, d.CompletionTokens)
	}

	// Cancellation after the remote call discards the result; the scheduler
	// resets the entry to pending.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Malformed JSON is not fatal: the raw text is stored as the analysis
	// body and only the derived classification/validation steps are skipped.
	ua, parseErr := model.ParseUnifiedAnalysis(result.Analysis)
	if parseErr != nil {
		log.Warnf("Entry %d analysis did not parse, storing raw document: %v", entry.ID, parseErr)
	} else {
		// Classification lands before the analysis row is written, so a
		// reader never observes a completed analysis whose entry is still
		// unknown.
		if detected, known := model.ParseEntryType(ua.EntryType); known {
			if err := o.applier.Apply(entry, detected); err != nil {
				return fmt.Errorf("failed to apply classification: %w", err)
			}
		} else {
			log.Warnf("Entry %d analysis declared unknown type %q, keeping %s", entry.ID, ua.EntryType, entry.Type)
		}

		// Advisory only. The result is logged and deliberately not passed
		// to the save path.
		if vr := model.ValidateAnalysis(ua); !vr.OK() {
			for _, e := range vr.Errors {
				log.Warnf("Entry %d analysis validation: %s", entry.ID, e)
			}
			for _, w := range vr.Warnings {
				log.Debugf("Entry %d analysis validation: %s", entry.ID, w)
			}
		}
	}

	return upsertAnalysis(o.store, existing, entry.ID, result.Analysis, ic)
}

// upsertAnalysis persists a model document for an entry: insert when no prior
// analysis exists, otherwise update in place preserving the prior row's
// identity.
func upsertAnalysis(store storage.AnalysisStore, existing *model.Analysis, entryID int64, document string, ic analyzer.InvokeContext) error {
	if existing != nil {
		existing.Document = document
		existing.Provider = ic.Provider
		existing.Model = ic.Model
		if err := store.UpdateAnalysis(existing); err != nil {
			return fmt.Errorf("failed to update analysis: %w", err)
		}
		return nil
	}

	analysis := &model.Analysis{
		EntryID:  entryID,
		Document: document,
		Provider: ic.Provider,
		Model:    ic.Model,
	}
	if err := store.InsertAnalysis(analysis); err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}
