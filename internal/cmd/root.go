package cmd

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "healthtrack",
		Short: "Healthtrack - photo-based health tracking pipeline",
		Long:  "A health tracking agent that turns photos of meals, workouts and sleep into structured analyses using LLM, with daily and weekly summaries",
	}

	rootCmd.AddCommand(NewStartCmd())
	rootCmd.AddCommand(NewImportCmd())
	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewCorrectCmd())
	rootCmd.AddCommand(NewSummaryCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}
