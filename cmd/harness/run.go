package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/environment"
	"github.com/programme-lv/harness/internal/fixture"
	"github.com/programme-lv/harness/internal/gatherer/termgath"
	"github.com/programme-lv/harness/internal/launcher"
	"github.com/programme-lv/harness/internal/runner"
	"github.com/programme-lv/harness/internal/verifier"
	"github.com/urfave/cli/v3"
)

func runCommand(env *environment.EnvConfig) *cli.Command {
	flags := append(limitFlags(),
		&cli.StringFlag{Name: "dir", Usage: "working directory of the script"},
		&cli.StringFlag{Name: "expect-stdout-file", Usage: "golden stdout (.zst allowed)"},
		&cli.StringFlag{Name: "expect-stderr-file", Usage: "golden stderr (.zst allowed)"},
		&cli.IntFlag{Name: "expect-exit", Usage: "expected exit code"},
		&cli.BoolFlag{Name: "normalize-newlines", Usage: "treat CRLF as LF when comparing"},
		&cli.BoolFlag{Name: "trim-trailing-space", Usage: "ignore trailing blanks when comparing"},
		&cli.BoolFlag{Name: "interleaved", Usage: "print the interleaved transcript after the run"},
		&cli.BoolFlag{Name: "echo", Usage: "forward the script's output while it runs"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print diffs"},
	)

	return &cli.Command{
		Name:      "run",
		Usage:     "run one script and check it against golden output",
		ArgsUsage: "-- <script> [args...]",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := runFixture(cmd, env)
			if err != nil {
				return cli.Exit(err.Error(), exitHarnessError)
			}

			cfg := runner.Config{
				Parallel: 1,
				Gatherer: termgath.New(cmd.Bool("verbose")),
				Log:      slog.Default(),
			}
			if cmd.Bool("echo") {
				cfg.EchoStdout, cfg.EchoStderr = os.Stdout, os.Stderr
			}

			report := runner.New(cfg).RunSuite(ctx, "command line", []fixture.Fixture{f})
			if cmd.Bool("interleaved") && len(report.Records) == 1 {
				printTranscript(os.Stdout, report.Records[0].Transcript)
			}
			return exitFor(report)
		},
	}
}

func runFixture(cmd *cli.Command, env *environment.EnvConfig) (fixture.Fixture, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fixture.Fixture{}, fmt.Errorf("missing script path")
	}

	limits, err := limitsFrom(cmd, env)
	if err != nil {
		return fixture.Fixture{}, err
	}

	f := fixture.Fixture{
		Name: args[0],
		Target: launcher.Target{
			Path: args[0],
			Args: args[1:],
			Dir:  cmd.String("dir"),
		},
		Limits: limits,
		Options: verifier.Options{
			NormalizeNewlines: cmd.Bool("normalize-newlines"),
			TrimTrailingSpace: cmd.Bool("trim-trailing-space"),
		},
	}

	if path := cmd.String("expect-stdout-file"); path != "" {
		if f.Expect.Stdout, err = fixture.ReadGolden(path); err != nil {
			return fixture.Fixture{}, err
		}
		f.Expect.CheckStdout = true
	}
	if path := cmd.String("expect-stderr-file"); path != "" {
		if f.Expect.Stderr, err = fixture.ReadGolden(path); err != nil {
			return fixture.Fixture{}, err
		}
		f.Expect.CheckStderr = true
	}
	if cmd.IsSet("expect-exit") {
		f.Expect.ExitCode = cmd.Int("expect-exit")
		f.Expect.CheckExitCode = true
	}
	return f, nil
}

func printTranscript(w io.Writer, segs []api.Segment) {
	tag := map[string]func(a ...interface{}) string{
		"stdout": color.New(color.FgCyan).SprintFunc(),
		"stderr": color.New(color.FgRed).SprintFunc(),
	}
	for _, seg := range segs {
		paint := tag[seg.Stream]
		for _, line := range strings.SplitAfter(seg.Data, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintf(w, "%s %s", paint("["+seg.Stream+"]"), line)
			if !strings.HasSuffix(line, "\n") {
				fmt.Fprintln(w)
			}
		}
	}
}

func exitFor(report *api.Report) error {
	switch {
	case report.Errored > 0:
		return cli.Exit("", exitHarnessError)
	case !report.Ok():
		return cli.Exit("", exitFail)
	}
	return nil
}
