package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/qnz18/qzwhatnext/adapter/cli"
	cliAuth "github.com/qnz18/qzwhatnext/adapter/cli/auth"
	cliCapture "github.com/qnz18/qzwhatnext/adapter/cli/capture"
	cliSchedule "github.com/qnz18/qzwhatnext/adapter/cli/schedule"
	cliTask "github.com/qnz18/qzwhatnext/adapter/cli/task"
	"github.com/qnz18/qzwhatnext/internal/app"
	"github.com/qnz18/qzwhatnext/pkg/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using development defaults", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		if cfg.OutboxProcessorEnabled && container.OutboxProcessor != nil {
			go container.OutboxProcessor.Start(ctx)
		}

		cli.SetContainer(container)
	}

	cli.AddCommand(cliTask.Cmd)
	cli.AddCommand(cliSchedule.Cmd)
	cli.AddCommand(cliCapture.Cmd)
	cli.AddCommand(cliAuth.Cmd)

	cli.Execute()
}
