package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlemos/taskdeck/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show the task list, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, cleanup := setup(cmd.Context())
		defer cleanup()

		fmt.Print(ui.RenderTaskList(mgr.Projection()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
