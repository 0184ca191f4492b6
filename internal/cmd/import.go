package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"healthtrack/internal/pipeline"
)

var (
	importConfigPath string
	importNote       string
	importNoAnalyze  bool
)

func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <photo>",
		Short: "Import a photo as a new entry and analyze it",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	cmd.Flags().StringVarP(&importConfigPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&importNote, "note", "n", "", "Optional note attached to the entry")
	cmd.Flags().BoolVar(&importNoAnalyze, "no-analyze", false, "Only create the entry, leave it pending")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(importConfigPath)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := pipeline.ImportPhoto(a.storage, a.assets, args[0], importNote, a.cfg.Location())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Imported entry %d (%s)\n", entry.ID, entry.UUID)

	if importNoAnalyze {
		return nil
	}

	cancelSub := a.scheduler.Events().Subscribe(func(event pipeline.StatusEvent) {
		fmt.Fprintf(os.Stdout, "Entry %d: %s\n", event.EntryID, event.Status)
	})
	defer cancelSub()

	a.scheduler.EnqueueAnalysis(context.Background(), entry.ID)
	a.scheduler.Wait()

	final, err := a.storage.GetEntry(entry.ID)
	if err != nil || final == nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Final: type=%s status=%s\n", final.Type, final.Status)
	return nil
}
