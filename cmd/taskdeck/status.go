package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlemos/taskdeck/internal/store"
	"github.com/mlemos/taskdeck/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store status",
	Long: `Display the state of the task database.

Shows:
  - Database location and size
  - Task counts (total and completed)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DBPath == "" {
			fmt.Printf("\n%s Durable storage disabled\n\n", ui.RenderWarn("⚠"))
			return nil
		}

		info, err := os.Stat(cfg.DBPath)
		if os.IsNotExist(err) {
			fmt.Printf("\n%s Store not initialized\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'taskdeck add' to create it\n\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("checking store: %w", err)
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		if err := st.InitSchema(cmd.Context()); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}

		total, err := st.TaskCount(cmd.Context())
		if err != nil {
			return err
		}
		completed, err := st.CompletedCount(cmd.Context())
		if err != nil {
			return err
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		fmt.Printf("\n%s Task Store Status\n\n", ui.RenderAccent("📋"))
		fmt.Printf("Location: %s\n", cfg.DBPath)
		fmt.Printf("Size: %s\n", sizeStr)
		fmt.Printf("Tasks: %d (%d completed)\n", total, completed)
		fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
