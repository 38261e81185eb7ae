package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlemos/taskdeck/internal/ui"
)

var renameCmd = &cobra.Command{
	Use:   "rename <id> <text>",
	Short: "Rewrite a task's text",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")

		mgr, cleanup := setup(cmd.Context())
		defer cleanup()

		if err := mgr.Rename(cmd.Context(), id, text); err != nil {
			return err
		}

		fmt.Print(ui.RenderTaskList(mgr.Projection()))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Delete a task",
	Long: `Delete a task from the list.

Removing an id that no longer exists is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		mgr, cleanup := setup(cmd.Context())
		defer cleanup()

		if err := mgr.Remove(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Print(ui.RenderTaskList(mgr.Projection()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(rmCmd)
}
