// Package schedule implements the `schedule` CLI subcommands: rebuild the
// plan, show the current plan, and run a calendar sync pass.
package schedule

import (
	"fmt"
	"time"

	"github.com/qnz18/qzwhatnext/adapter/cli"
	schedulingApp "github.com/qnz18/qzwhatnext/internal/scheduling/application"
	"github.com/spf13/cobra"
)

// Cmd is the `schedule` command group.
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Rebuild and inspect the scheduled plan",
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the schedule from open tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cli.Container()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}

		now := time.Now().UTC()
		result, err := schedulingApp.Rebuild(cmd.Context(), c.UserID, c.TaskRepo, c.BlockRepo, now, c.Config.ReconcileHorizonDays, time.UTC)
		if err != nil {
			return err
		}

		fmt.Printf("placed %d blocks, %d tasks overflowed the horizon\n", len(result.ScheduledBlocks), len(result.OverflowTasks))
		for _, b := range result.ScheduledBlocks {
			fmt.Printf("  %s  %s -> %s\n", b.EntityID(), b.StartTime().Format(time.RFC3339), b.EndTime().Format(time.RFC3339))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cli.Container()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}

		blocks, err := c.BlockRepo.ListForUser(cmd.Context(), c.UserID)
		if err != nil {
			return err
		}
		if len(blocks) == 0 {
			fmt.Println("no schedule has been built yet")
			return nil
		}
		for _, b := range blocks {
			locked := ""
			if b.Locked() {
				locked = " (locked)"
			}
			fmt.Printf("  %s  %s -> %s%s\n", b.EntityID(), b.StartTime().Format(time.RFC3339), b.EndTime().Format(time.RFC3339), locked)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the plan against the connected calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cli.Container()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		if c.Reconciler == nil {
			return fmt.Errorf("calendar sync is not configured")
		}

		calendarID := c.Config.GoogleCalendarID
		if c.SettingsService != nil {
			if id, err := c.SettingsService.GetCalendarID(cmd.Context(), c.UserID); err == nil && id != "" {
				calendarID = id
			}
		}

		result, err := c.Reconciler.Reconcile(cmd.Context(), c.UserID, calendarID)
		if err != nil {
			return err
		}
		fmt.Printf("inserted %d, patched %d, imported %d, deleted %d, overflow %d\n",
			result.Inserted, result.Patched, result.Imported, result.Deleted, len(result.Overflow))
		return nil
	},
}

func init() {
	Cmd.AddCommand(rebuildCmd, showCmd, syncCmd)
}
