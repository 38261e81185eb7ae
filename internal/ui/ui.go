// Package ui provides terminal rendering helpers for the taskdeck CLI.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/mlemos/taskdeck/internal/task"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	doneStyle   = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	idStyle     = lipgloss.NewStyle().Faint(true)
)

// colorEnabled reports whether styled output makes sense for stdout.
func colorEnabled() bool {
	return termenv.EnvColorProfile() != termenv.Ascii &&
		term.IsTerminal(int(os.Stdout.Fd()))
}

func render(s lipgloss.Style, text string) string {
	if !colorEnabled() {
		return text
	}
	return s.Render(text)
}

// RenderPass renders success markers.
func RenderPass(text string) string { return render(passStyle, text) }

// RenderWarn renders warning markers.
func RenderWarn(text string) string { return render(warnStyle, text) }

// RenderError renders error markers.
func RenderError(text string) string { return render(errStyle, text) }

// RenderAccent renders informational markers.
func RenderAccent(text string) string { return render(accentStyle, text) }

// Width returns the terminal width, or 80 when stdout is not a terminal.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// RenderTaskList formats a projection for terminal display, newest first.
func RenderTaskList(tasks []task.Task) string {
	if len(tasks) == 0 {
		return "No tasks. Add one with 'taskdeck add'.\n"
	}

	width := Width()
	var b strings.Builder

	for _, t := range tasks {
		box := "[ ]"
		text := t.Text
		if t.Done {
			box = RenderPass("[x]")
			text = render(doneStyle, text)
		}

		line := fmt.Sprintf("%s %s %s", render(idStyle, fmt.Sprintf("%4d", t.ID)), box, text)
		if lipgloss.Width(line) > width {
			line = lipgloss.NewStyle().MaxWidth(width).Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String()
}
