package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"healthtrack/internal/logger"
)

// OpenAI talks to an OpenAI-compatible chat-completions endpoint. The same
// client serves plain OpenAI and self-hosted compatible gateways via BaseURL.
type OpenAI struct {
	BaseURL             string
	MaxCompletionTokens int

	AnalysisPrompt string // Prompt for single-entry analysis
	SummaryPrompt  string // Prompt for the aggregate day summary

	httpClient *http.Client
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string          `json:"role"`
	Content []contentObject `json:"content"`
}

type contentObject struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage"`
}

type choice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func NewOpenAI(baseURL string, maxTokens int, analysisPrompt, summaryPrompt string) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	if analysisPrompt == "" {
		analysisPrompt = defaultAnalysisPrompt
	}
	if summaryPrompt == "" {
		summaryPrompt = defaultSummaryPrompt
	}

	return &OpenAI{
		BaseURL:             baseURL,
		MaxCompletionTokens: maxTokens,
		AnalysisPrompt:      analysisPrompt,
		SummaryPrompt:       summaryPrompt,
		httpClient:          &http.Client{Timeout: 5 * time.Minute},
	}
}

// InvokeAnalysis sends one entry photo for structured analysis. An empty
// model reply is reported through an empty InvokeResult.Analysis, not an
// error.
func (o *OpenAI) InvokeAnalysis(ctx context.Context, ic InvokeContext, req AnalysisRequest) (*InvokeResult, error) {
	prompt := o.AnalysisPrompt
	if req.Note != "" {
		prompt = fmt.Sprintf("%s\n\nUser note for this entry:\n%s", prompt, req.Note)
	}
	if req.ExistingResultJSON != "" {
		prompt = fmt.Sprintf("%s\n\nPrevious analysis of this entry:\n%s", prompt, req.ExistingResultJSON)
	}
	if req.CorrectionText != "" {
		prompt = fmt.Sprintf("%s\n\nThe user corrected the previous analysis as follows, produce an updated analysis:\n%s", prompt, req.CorrectionText)
	}

	content := []contentObject{{Type: "text", Text: prompt}}
	if len(req.Image) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		content = append(content, contentObject{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.Image)),
			},
		})
	}

	chatReq := chatRequest{
		Model:               ic.Model,
		MaxCompletionTokens: o.MaxCompletionTokens,
		ResponseFormat:      &responseFormat{Type: "json_object"},
		Messages:            []chatMessage{{Role: "user", Content: content}},
	}

	return o.callAPI(ctx, ic.APIKey, chatReq)
}

// InvokeDailySummary sends one aggregate request covering a full local day.
func (o *OpenAI) InvokeDailySummary(ctx context.Context, ic InvokeContext, req DaySummaryRequest) (*InvokeResult, error) {
	var sb strings.Builder
	sb.WriteString(o.SummaryPrompt)
	fmt.Fprintf(&sb, "\n\nDate: %s (timezone %s)\n", req.Date, req.Timezone)
	if req.Totals.Calories > 0 {
		fmt.Fprintf(&sb, "Estimated intake for the day: %.0f kcal (%.0fg protein, %.0fg carbs, %.0fg fat)\n",
			req.Totals.Calories, req.Totals.Protein, req.Totals.Carbs, req.Totals.Fat)
	}
	sb.WriteString("\nEntries logged on this day:\n")
	for _, ec := range req.Entries {
		fmt.Fprintf(&sb, "- [%s] %s: %s\n", ec.CapturedAt, ec.EffectiveType, ec.Description)
	}
	if req.ExistingSummaryJSON != "" {
		fmt.Fprintf(&sb, "\nPrevious summary for this day (regenerate, do not repeat verbatim):\n%s\n", req.ExistingSummaryJSON)
	}

	chatReq := chatRequest{
		Model:               ic.Model,
		MaxCompletionTokens: o.MaxCompletionTokens,
		ResponseFormat:      &responseFormat{Type: "json_object"},
		Messages: []chatMessage{{
			Role:    "user",
			Content: []contentObject{{Type: "text", Text: sb.String()}},
		}},
	}

	return o.callAPI(ctx, ic.APIKey, chatReq)
}

// callAPI is a helper method to make API calls with adaptive retry logic
func (o *OpenAI) callAPI(ctx context.Context, apiKey string, req chatRequest) (*InvokeResult, error) {
	const maxRetries = 3
	const initialBackoff = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := calculateBackoff(attempt, initialBackoff, lastErr)
			logger.GetLogger().Infof("Retrying API request (attempt %d/%d, backoff: %v, reason: %s)",
				attempt+1, maxRetries+1, backoff, errorType(lastErr))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := o.callAPISingle(ctx, apiKey, req)
		if err == nil {
			if attempt > 0 {
				logger.GetLogger().Infof("API request succeeded after %d retries", attempt)
			}
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryableError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("API call failed after %d retries: %w", maxRetries+1, lastErr)
}

// callAPISingle makes a single API call without retry
func (o *OpenAI) callAPISingle(ctx context.Context, apiKey string, req chatRequest) (*InvokeResult, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/chat/completions", o.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := &InvokeResult{}
	if chatResp.Usage != nil {
		result.Diagnostics = &Diagnostics{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		}
	}

	// An empty reply is a valid outcome here; the pipeline maps it to its
	// "no analysis returned" failure, not this layer.
	if len(chatResp.Choices) > 0 {
		result.Analysis = strings.TrimSpace(chatResp.Choices[0].Message.Content)
	}

	return result, nil
}

// calculateBackoff computes the adaptive backoff for the next retry. Rate
// limiting waits longest, timeouts and connection failures wait double.
func calculateBackoff(attempt int, initialBackoff time.Duration, lastErr error) time.Duration {
	baseBackoff := initialBackoff * time.Duration(1<<uint(attempt-1))

	if lastErr == nil {
		return baseBackoff
	}

	errStr := lastErr.Error()

	if strings.Contains(errStr, "status 429") || strings.Contains(errStr, "rate limit") {
		return baseBackoff * 3
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout") {
		return baseBackoff * 2
	}
	if strings.Contains(errStr, "dial tcp") || strings.Contains(errStr, "connection refused") {
		return baseBackoff * 2
	}

	return baseBackoff
}

// errorType returns a short description for retry logging.
func errorType(err error) string {
	if err == nil {
		return "unknown"
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "status 429") || strings.Contains(errStr, "rate limit"):
		return "rate_limit"
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout"):
		return "timeout"
	case strings.Contains(errStr, "dial tcp"):
		return "connection_failed"
	case strings.Contains(errStr, "status 502"):
		return "bad_gateway"
	case strings.Contains(errStr, "status 503"):
		return "service_unavailable"
	case strings.Contains(errStr, "status 504"):
		return "gateway_timeout"
	case strings.Contains(errStr, "status 500"):
		return "internal_server_error"
	}

	return "other_error"
}

// isRetryableError checks if an error is retryable (temporary network/server errors)
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryableStatusCodes := []string{
		"status 502", // Bad Gateway
		"status 503", // Service Unavailable
		"status 504", // Gateway Timeout
		"status 429", // Too Many Requests
		"status 500", // Internal Server Error
	}

	for _, code := range retryableStatusCodes {
		if strings.Contains(errStr, code) {
			return true
		}
	}

	networkErrors := []string{
		"failed to send request",
		"timeout",
		"connection reset",
		"connection refused",
		"no such host",
	}

	for _, netErr := range networkErrors {
		if strings.Contains(strings.ToLower(errStr), netErr) {
			return true
		}
	}

	return false
}
