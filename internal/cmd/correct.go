package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var correctConfigPath string

func NewCorrectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correct <entry-id> <correction>",
		Short: "Re-analyze an entry with a user correction",
		Long:  "Sends the entry back to the model with the prior analysis and the correction text as additional context",
		Args:  cobra.ExactArgs(2),
		RunE:  runCorrect,
	}

	cmd.Flags().StringVarP(&correctConfigPath, "config", "c", "", "Path to config file")

	return cmd
}

func runCorrect(cmd *cobra.Command, args []string) error {
	entryID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid entry id %q: %w", args[0], err)
	}

	a, err := bootstrap(correctConfigPath)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.storage.GetEntry(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("entry %d not found", entryID)
	}

	a.scheduler.EnqueueCorrection(context.Background(), entryID, args[1])
	a.scheduler.Wait()

	return printOutcome(a, entryID)
}
