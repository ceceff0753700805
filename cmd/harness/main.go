package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/programme-lv/harness/internal/environment"
	"github.com/urfave/cli/v3"
)

const (
	exitFail         = 1
	exitHarnessError = 2
)

func main() {
	env, err := environment.ReadEnvConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "harness: %v\n", err)
		os.Exit(exitHarnessError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "harness",
		Usage: "run scripts as isolated subprocesses and check their output",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: env.LogLevel.String(),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			lvl, err := environment.ParseLevel(cmd.String("log-level"))
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("invalid --log-level: %v", err), exitHarnessError)
			}
			slog.SetDefault(newLogger(lvl))
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCommand(env),
			suiteCommand(env),
			serveCommand(env),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		slog.Error("harness failed", "err", err)
		os.Exit(exitHarnessError)
	}
}

func newLogger(lvl slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	}))
}
