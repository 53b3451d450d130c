package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theakshaypant/caldigest/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"interactive"},
	Short:   "Pick a date range interactively",
	Long: `Launch an interactive menu to choose the date range (current week, next week,
this month, next month, a custom range or a specific month) and whether to
email the summary.`,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, _ []string) error {
	// Log lines would draw over the alternate screen.
	runner, err := newRunner(cmd.Context(), zap.NewNop())
	if err != nil {
		return err
	}

	m := tui.NewModel(runner.Resolver, runner.Run)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if fm, ok := final.(tui.Model); ok {
		printReport(cmd.OutOrStdout(), fm.Report())
		return fm.Err()
	}
	return nil
}
