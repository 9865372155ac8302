// Package capture implements the `capture` CLI command: dispatches one
// free-text instruction to the capture orchestrator.
package capture

import (
	"fmt"
	"strings"

	"github.com/qnz18/qzwhatnext/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd handles `capture [instruction...]`.
var Cmd = &cobra.Command{
	Use:   "capture [instruction]",
	Short: "Capture a free-text instruction as a task, series, time block, or event",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cli.Container()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}

		calendarID := c.Config.GoogleCalendarID
		if c.SettingsService != nil {
			if id, err := c.SettingsService.GetCalendarID(cmd.Context(), c.UserID); err == nil && id != "" {
				calendarID = id
			}
		}

		instruction := strings.Join(args, " ")
		result, err := c.Capture.Capture(cmd.Context(), c.UserID, instruction, nil, calendarID)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s", result.Action, result.EntityKind)
		if result.EntityID != uuid.Nil {
			fmt.Printf(" %s", result.EntityID)
		}
		if result.TasksCreated > 0 {
			fmt.Printf(" (%d tasks created)", result.TasksCreated)
		}
		if result.CalendarEventID != "" {
			fmt.Printf(" (calendar event %s)", result.CalendarEventID)
		}
		fmt.Println()
		return nil
	},
}
