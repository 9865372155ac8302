// Package task implements the `task` CLI subcommands: create, list, and
// complete, operating directly against the wired container's task
// repository.
package task

import (
	"fmt"
	"time"

	"github.com/qnz18/qzwhatnext/adapter/cli"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/spf13/cobra"
)

// Cmd is the `task` command group.
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Create, list, and complete tasks",
}

var (
	flagNotes    string
	flagCategory string
	flagDuration int
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cli.Container()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}

		t, err := taskDomain.NewTask(c.UserID, "manual", args[0])
		if err != nil {
			return err
		}
		if flagNotes != "" {
			t.SetNotes(flagNotes)
		}
		if flagCategory != "" {
			t.SetCategory(taskDomain.NormalizeCategory(flagCategory))
		}
		if flagDuration > 0 {
			if err := t.SetEstimatedDuration(flagDuration, taskDomain.DefaultDurationConfidence); err != nil {
				return err
			}
		}

		if err := c.TaskRepo.Save(cmd.Context(), t); err != nil {
			return err
		}

		fmt.Printf("created task %s: %s\n", t.ID(), t.Title())
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List non-deleted tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cli.Container()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}

		tasks, err := c.TaskRepo.ListAll(cmd.Context(), c.UserID)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			deadline := "-"
			if d := t.Deadline(); d != nil {
				deadline = d.Format(time.RFC3339)
			}
			fmt.Printf("%s  [%s]  %-8s  %s  (deadline %s)\n", t.ID(), t.Status(), t.Category(), t.Title(), deadline)
		}
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete [id]",
	Short: "Mark a task complete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cli.Container()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		t, err := c.TaskRepo.FindByID(cmd.Context(), c.UserID, id)
		if err != nil {
			return err
		}
		if t == nil {
			return taskDomain.ErrTaskNotFound
		}
		if err := t.Complete(); err != nil {
			return err
		}
		return c.TaskRepo.Save(cmd.Context(), t)
	},
}

func init() {
	createCmd.Flags().StringVar(&flagNotes, "notes", "", "free-text notes")
	createCmd.Flags().StringVar(&flagCategory, "category", "", "category (WORK, HEALTH, ...)")
	createCmd.Flags().IntVar(&flagDuration, "duration", 0, "estimated duration in minutes")

	Cmd.AddCommand(createCmd, listCmd, completeCmd)
}
