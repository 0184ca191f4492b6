package analyzer

import (
	"context"
	"time"

	"healthtrack/internal/model"
)

// InvokeContext carries the resolved provider selection for one remote call.
type InvokeContext struct {
	Provider string
	Model    string
	APIKey   string
}

// AnalysisRequest asks the model to analyze a single entry photo. For
// corrections, ExistingResultJSON and CorrectionText carry the prior analysis
// and the user's correction as additional context.
type AnalysisRequest struct {
	EntryID            int64
	EntryType          model.EntryType
	CapturedAt         time.Time
	Note               string
	Image              []byte
	ImageMIME          string
	ExistingResultJSON string
	CorrectionText     string
}

// EntryContext is one entry's contribution to a day-summary request.
type EntryContext struct {
	EntryID       int64  `json:"entry_id"`
	EffectiveType string `json:"effective_type"`
	CapturedAt    string `json:"captured_at"`
	Description   string `json:"description"`
}

// DaySummaryRequest asks the model to summarize one local calendar day.
type DaySummaryRequest struct {
	SummaryEntryID      int64
	Date                string
	Timezone            string
	Entries             []EntryContext
	Totals              model.Nutrition
	ExistingSummaryJSON string
}

// Diagnostics reports token usage for one remote call.
type Diagnostics struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// InvokeResult is the outcome of one remote call. An empty Analysis with a
// nil error means the model returned nothing usable; callers map that to
// their own "no analysis returned" outcome. Analysis is the raw document
// text and is not guaranteed to parse against the expected schema.
type InvokeResult struct {
	Analysis    string
	Diagnostics *Diagnostics
}

// Client is the model invocation boundary consumed by the pipeline.
type Client interface {
	InvokeAnalysis(ctx context.Context, ic InvokeContext, req AnalysisRequest) (*InvokeResult, error)
	InvokeDailySummary(ctx context.Context, ic InvokeContext, req DaySummaryRequest) (*InvokeResult, error)
}
