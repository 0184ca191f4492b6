package cmd

import (
	"fmt"

	"healthtrack/internal/analyzer"
	"healthtrack/internal/config"
	"healthtrack/internal/pipeline"
	"healthtrack/internal/storage"
)

// app bundles the wired-up pipeline components a command needs.
type app struct {
	cfg       *config.Config
	storage   *storage.Storage
	assets    *storage.AssetStore
	scheduler *pipeline.Scheduler
}

func (a *app) Close() error {
	return a.storage.Close()
}

// bootstrap loads config, initializes logging and wires the pipeline the
// same way for every command.
func bootstrap(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.InitLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	st, err := storage.NewStorage(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	assets, err := storage.NewAssetStore(cfg.Storage.AssetsPath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize asset store: %w", err)
	}

	client := analyzer.NewOpenAI(
		cfg.Provider.BaseURL,
		cfg.Provider.MaxCompletionTokens,
		cfg.Provider.AnalysisPrompt,
		cfg.Provider.SummaryPrompt,
	)

	settings := pipeline.SettingsFromConfig(&cfg.Provider)
	applier := pipeline.NewApplier(st, assets)
	orchestrator := pipeline.NewOrchestrator(st, client, applier, settings)
	summarizer := pipeline.NewDaySummarizer(st, client, settings)
	scheduler := pipeline.NewScheduler(st, orchestrator, summarizer, nil)

	return &app{cfg: cfg, storage: st, assets: assets, scheduler: scheduler}, nil
}
