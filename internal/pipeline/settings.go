package pipeline

import (
	"healthtrack/internal/analyzer"
	"healthtrack/internal/config"
)

// supportedProviders lists the provider names the pipeline can invoke. Both
// run through the same OpenAI-compatible client; the distinction exists so an
// unrecognized selection skips cleanly instead of sending credentials to an
// unknown endpoint.
var supportedProviders = map[string]bool{
	"openai":            true,
	"openai_compatible": true,
}

// ProviderSettings is the credential/provider resolution boundary. Values
// normally come from the loaded config, but tests inject them directly.
type ProviderSettings struct {
	Name         string
	APIKey       string
	Model        string
	SummaryModel string
}

func SettingsFromConfig(cfg *config.ProviderConfig) ProviderSettings {
	return ProviderSettings{
		Name:         cfg.Name,
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		SummaryModel: cfg.SummaryModel,
	}
}

// resolveAnalysis resolves the invocation context for single-entry analysis.
// Each missing piece of configuration is a distinct non-error outcome, not an
// exception: the scheduler maps all three to Skipped.
func (p ProviderSettings) resolveAnalysis() (analyzer.InvokeContext, error) {
	return p.resolve(p.Model)
}

// resolveSummary resolves the invocation context for the aggregate day
// summary, preferring the cheaper summary model when configured.
func (p ProviderSettings) resolveSummary() (analyzer.InvokeContext, error) {
	model := p.SummaryModel
	if model == "" {
		model = p.Model
	}
	return p.resolve(model)
}

func (p ProviderSettings) resolve(model string) (analyzer.InvokeContext, error) {
	if !supportedProviders[p.Name] {
		return analyzer.InvokeContext{}, ErrProviderNotSupported
	}
	if model == "" {
		return analyzer.InvokeContext{}, ErrMissingModel
	}
	if p.APIKey == "" {
		return analyzer.InvokeContext{}, ErrMissingCredentials
	}
	return analyzer.InvokeContext{Provider: p.Name, Model: model, APIKey: p.APIKey}, nil
}
