package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/nats-io/nats.go"
	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/environment"
	"github.com/programme-lv/harness/internal/fixture"
	"github.com/programme-lv/harness/internal/gatherer"
	"github.com/programme-lv/harness/internal/gatherer/natsgath"
	"github.com/programme-lv/harness/internal/gatherer/sqsgath"
	"github.com/programme-lv/harness/internal/gatherer/termgath"
	"github.com/programme-lv/harness/internal/runner"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/semaphore"
)

func suiteCommand(env *environment.EnvConfig) *cli.Command {
	flags := append(limitFlags(),
		&cli.IntFlag{Name: "parallel", Aliases: []string{"j"}, Usage: "fixtures run at once (0 = CPU count)", Value: env.Parallel},
		&cli.StringSliceFlag{Name: "tag", Usage: "only run fixtures carrying one of these tags"},
		&cli.StringSliceFlag{Name: "only", Usage: "only run fixtures with these names"},
		&cli.StringFlag{Name: "report", Usage: "write the JSON report here (.zst compresses it)"},
		&cli.StringFlag{Name: "nats-url", Usage: "publish progress to this NATS server", Value: env.NatsUrl},
		&cli.StringFlag{Name: "nats-subject", Value: env.NatsSubject},
		&cli.StringFlag{Name: "sqs-url", Usage: "send progress to this SQS queue", Value: env.SqsUrl},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print diffs"},
	)

	return &cli.Command{
		Name:      "suite",
		Usage:     "run every fixture in one or more fixture files",
		ArgsUsage: "<fixture-file>...",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return cli.Exit("missing fixture file", exitHarnessError)
			}

			sinks, closeSinks, err := suiteGatherers(ctx, cmd, env)
			if err != nil {
				return cli.Exit(err.Error(), exitHarnessError)
			}
			defer closeSinks()

			parallel := cmd.Int("parallel")
			if parallel <= 0 {
				parallel = runtime.NumCPU()
			}
			// one budget of children across all files
			slots := semaphore.NewWeighted(int64(parallel))
			filter := runner.Filter{Only: cmd.StringSlice("only"), Tags: cmd.StringSlice("tag")}

			var reports []*api.Report
			for _, file := range files {
				fixtures, err := fixture.LoadWithBase(file, baseLimits(env))
				if err != nil {
					return cli.Exit(err.Error(), exitHarnessError)
				}
				fixtures, err = filter.Select(fixtures)
				if err != nil {
					return cli.Exit(fmt.Sprintf("%s: %v", file, err), exitHarnessError)
				}
				for i := range fixtures {
					fixtures[i].Limits = applyLimitFlags(cmd, fixtures[i].Limits)
				}

				r := runner.New(runner.Config{
					Parallel: parallel,
					Slots:    slots,
					Gatherer: sinks,
					Log:      slog.Default(),
				})
				reports = append(reports, r.RunSuite(ctx, file, fixtures))
			}

			if path := cmd.String("report"); path != "" {
				if err := writeReports(path, reports); err != nil {
					return cli.Exit(err.Error(), exitHarnessError)
				}
			}
			return exitFor(mergeReports(reports))
		},
	}
}

func suiteGatherers(ctx context.Context, cmd *cli.Command, env *environment.EnvConfig) (gatherer.Gatherer, func(), error) {
	sinks := gatherer.Multi{termgath.New(cmd.Bool("verbose"))}
	closeFn := func() {}

	if url := cmd.String("nats-url"); url != "" {
		nc, err := nats.Connect(url, nats.Name("harness"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		sinks = append(sinks, natsgath.New(nc, cmd.String("nats-subject"), slog.Default()))
		closeFn = nc.Close
	}
	if url := cmd.String("sqs-url"); url != "" {
		g, err := sqsgath.New(ctx, env.AwsRegion, url, slog.Default())
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		sinks = append(sinks, g)
	}
	return sinks, closeFn, nil
}

// mergeReports folds per-file totals into one report for the exit status.
func mergeReports(reports []*api.Report) *api.Report {
	all := &api.Report{}
	for _, r := range reports {
		all.Total += r.Total
		all.Passed += r.Passed
		all.Failed += r.Failed
		all.Inconclusive += r.Inconclusive
		all.Errored += r.Errored
	}
	return all
}
