package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/qnz18/qzwhatnext/internal/app"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	logger    *slog.Logger
	container *app.Container
)

// SetContainer makes the wired container available to every subcommand.
func SetContainer(c *app.Container) {
	container = c
}

// Container returns the container commands were wired against, or nil if
// initialization failed (development mode without a database).
func Container() *app.Container {
	return container
}

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qzwhatnext",
	Short: "qzwhatnext - single-user task, schedule, and calendar sync CLI",
	Long: `qzwhatnext captures tasks and recurring commitments, ranks and
schedules them into a bounded horizon, and keeps one calendar in sync
with the plan.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.Info("command start",
			"command", cmd.CommandPath(),
			"correlation_id", info.correlationID.String(),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Info("command end",
			"command", cmd.CommandPath(),
			"correlation_id", info.correlationID.String(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
