package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"healthtrack/internal/config"
)

var configCmdPath string

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE:  runConfig,
	}

	cmd.Flags().StringVarP(&configCmdPath, "config", "c", "", "Path to config file")

	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configCmdPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Provider:")
	fmt.Fprintf(os.Stdout, "  name:                  %s\n", cfg.Provider.Name)
	fmt.Fprintf(os.Stdout, "  base_url:              %s\n", cfg.Provider.BaseURL)
	fmt.Fprintf(os.Stdout, "  model:                 %s\n", cfg.Provider.Model)
	fmt.Fprintf(os.Stdout, "  summary_model:         %s\n", cfg.Provider.SummaryModel)
	fmt.Fprintf(os.Stdout, "  max_completion_tokens: %d\n", cfg.Provider.MaxCompletionTokens)
	fmt.Fprintf(os.Stdout, "  api_key:               %s\n", maskKey(cfg.Provider.APIKey))

	fmt.Fprintln(os.Stdout, "Storage:")
	fmt.Fprintf(os.Stdout, "  db_path:        %s\n", cfg.Storage.DBPath)
	fmt.Fprintf(os.Stdout, "  assets_path:    %s\n", cfg.Storage.AssetsPath)
	fmt.Fprintf(os.Stdout, "  retention_days: %d\n", cfg.Storage.RetentionDays)
	fmt.Fprintf(os.Stdout, "  log_path:       %s\n", cfg.Storage.LogPath)
	fmt.Fprintf(os.Stdout, "  log_level:      %s\n", cfg.Storage.Log.Level)

	fmt.Fprintln(os.Stdout, "Pipeline:")
	fmt.Fprintf(os.Stdout, "  timezone:           %s\n", cfg.Location().String())
	fmt.Fprintf(os.Stdout, "  daily_summary_cron: %s\n", cfg.Pipeline.DailySummaryCron)
	fmt.Fprintf(os.Stdout, "  cleanup_cron:       %s\n", cfg.Pipeline.CleanupCron)

	return nil
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
