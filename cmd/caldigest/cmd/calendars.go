package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var calendarsCmd = &cobra.Command{
	Use:     "calendars",
	Aliases: []string{"cal", "cals"},
	Short:   "List available calendars",
	Long:    `List all calendars you have access to. Pass a name with --calendar to build the digest from it.`,
	RunE:    runCalendars,
}

func init() {
	rootCmd.AddCommand(calendarsCmd)
}

func runCalendars(cmd *cobra.Command, _ []string) error {
	adapter, err := newAdapter(cmd.Context())
	if err != nil {
		return err
	}

	calendars, err := adapter.Calendars(cmd.Context())
	if err != nil {
		return fmt.Errorf("list calendars: %w", err)
	}

	fmt.Println("📅 Available calendars:")
	fmt.Println("─────────────────────────────────────────────────")

	for _, c := range calendars {
		marker := " "
		if c.Name == cfg.Calendar {
			marker = "*"
		}
		fmt.Printf("\n %s %s\n", marker, c.Name)
		fmt.Printf("    ID: %s\n", c.ID)
	}

	fmt.Println()
	fmt.Printf("Total: %d calendars\n", len(calendars))
	fmt.Println("\nTip: Use 'caldigest -c \"calendar name\"' to build the digest from one calendar")

	return nil
}
