package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlemos/taskdeck/internal/export"
	"github.com/mlemos/taskdeck/internal/store"
	"github.com/mlemos/taskdeck/internal/ui"
)

var (
	exportFormat string
	importFormat string
)

// openStoreStrict opens the store for commands that cannot run without it.
func openStoreStrict(cmd *cobra.Command) (*store.Store, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := st.InitSchema(cmd.Context()); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return st, nil
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the task list as JSONL or YAML",
	Long: `Export every task to a file, or to stdout when no file is given.

The export reflects durable state, read directly from the database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		st, err := openStoreStrict(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 0 {
			return export.Write(cmd.Context(), st, os.Stdout, format)
		}

		if err := export.WriteFile(cmd.Context(), st, args[0], format); err != nil {
			return err
		}
		fmt.Printf("%s Exported to %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import tasks from a JSONL or YAML export",
	Long: `Import tasks from a previous export.

Records keep their ids when the file carries them; bad records are
skipped and reported, and do not stop the import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(importFormat)
		if err != nil {
			return err
		}

		st, err := openStoreStrict(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		result, err := export.ImportFile(cmd.Context(), st, args[0], format)
		if err != nil {
			return err
		}

		fmt.Printf("%s Imported %d tasks", ui.RenderPass("✓"), result.Imported)
		if result.Skipped > 0 {
			fmt.Printf(" (%d skipped)", result.Skipped)
		}
		fmt.Println()
		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %s %s\n", ui.RenderWarn("skip:"), msg)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "jsonl", "export format (jsonl or yaml)")
	importCmd.Flags().StringVar(&importFormat, "format", "jsonl", "import format (jsonl or yaml)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
