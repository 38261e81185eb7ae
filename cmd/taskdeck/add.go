package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mlemos/taskdeck/internal/ui"
)

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a task",
	Long: `Add a task to the list.

With no argument, prompts for the task text interactively.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, cleanup := setup(cmd.Context())
		defer cleanup()

		text := strings.Join(args, " ")
		if strings.TrimSpace(text) == "" {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().
					Title("Task").
					Placeholder("What needs doing?").
					Value(&text),
			))
			if err := form.Run(); err != nil {
				return err
			}
		}

		if err := mgr.Add(cmd.Context(), text); err != nil {
			return err
		}

		fmt.Printf("%s Added\n", ui.RenderPass("✓"))
		fmt.Print(ui.RenderTaskList(mgr.Projection()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
