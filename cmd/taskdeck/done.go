package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mlemos/taskdeck/internal/ui"
)

// parseID converts a CLI argument to a task id.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  setCompletedRun(true),
}

var undoneCmd = &cobra.Command{
	Use:   "undone <id>",
	Short: "Mark a task as not completed",
	Args:  cobra.ExactArgs(1),
	RunE:  setCompletedRun(false),
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a task's completion state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		mgr, cleanup := setup(cmd.Context())
		defer cleanup()

		if err := mgr.Toggle(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Print(ui.RenderTaskList(mgr.Projection()))
		return nil
	},
}

func setCompletedRun(done bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		mgr, cleanup := setup(cmd.Context())
		defer cleanup()

		if err := mgr.SetCompleted(cmd.Context(), id, done); err != nil {
			return err
		}

		fmt.Print(ui.RenderTaskList(mgr.Projection()))
		return nil
	}
}

func init() {
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
	rootCmd.AddCommand(toggleCmd)
}
