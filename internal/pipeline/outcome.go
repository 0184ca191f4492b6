package pipeline

import (
	"errors"

	"healthtrack/internal/model"
)

// Orchestration failure taxonomy. The configuration outcomes are expected,
// non-exceptional conditions: the user has not finished setting up a
// provider, so the entry is skipped rather than failed.
var (
	ErrProviderNotSupported = errors.New("provider not supported")
	ErrMissingModel         = errors.New("no model configured")
	ErrMissingCredentials   = errors.New("missing credentials")
	ErrNoAnalysisReturned   = errors.New("no analysis returned")
	ErrEntryNotFound        = errors.New("entry not found")
)

// outcomeStatus maps a job result to the terminal processing status.
// Configuration outcomes map to Skipped (user-retryable after fixing
// settings); an empty remote reply and any unexpected error map to Failed
// (retryable); nil maps to Completed.
func outcomeStatus(err error) model.ProcessingStatus {
	switch {
	case err == nil:
		return model.StatusCompleted
	case errors.Is(err, ErrProviderNotSupported),
		errors.Is(err, ErrMissingModel),
		errors.Is(err, ErrMissingCredentials):
		return model.StatusSkipped
	default:
		return model.StatusFailed
	}
}
