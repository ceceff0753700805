package main

import (
	"github.com/programme-lv/harness/internal/environment"
	"github.com/programme-lv/harness/internal/launcher"
	"github.com/urfave/cli/v3"
)

func limitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{Name: "timeout", Usage: "wall-clock limit per run"},
		&cli.Int64Flag{Name: "max-bytes", Usage: "byte cap per captured stream"},
		&cli.Int64Flag{Name: "memory-kib", Usage: "address space limit (linux)"},
		&cli.DurationFlag{Name: "cpu", Usage: "CPU time limit (linux)"},
	}
}

// baseLimits is the built-in defaults with HARNESS_TIMEOUT and
// HARNESS_MAX_BYTES applied.
func baseLimits(env *environment.EnvConfig) launcher.Limits {
	limits := launcher.DefaultLimits()
	if env.Timeout > 0 {
		limits.Timeout = env.Timeout
	}
	if env.MaxBytes > 0 {
		limits = limits.WithMaxBytes(env.MaxBytes)
	}
	return limits
}

// limitsFrom layers flags over environment over built-in defaults.
func limitsFrom(cmd *cli.Command, env *environment.EnvConfig) (launcher.Limits, error) {
	limits := baseLimits(env)
	if cmd.IsSet("timeout") {
		limits.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("max-bytes") {
		limits = limits.WithMaxBytes(cmd.Int64("max-bytes"))
	}
	limits.MemoryKiB = cmd.Int64("memory-kib")
	limits.CpuTime = cmd.Duration("cpu")
	return limits, limits.Validate()
}

// applyLimitFlags lets explicit flags override limits read from a fixture file.
func applyLimitFlags(cmd *cli.Command, limits launcher.Limits) launcher.Limits {
	if cmd.IsSet("timeout") {
		limits.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("max-bytes") {
		limits = limits.WithMaxBytes(cmd.Int64("max-bytes"))
	}
	if cmd.IsSet("memory-kib") {
		limits.MemoryKiB = cmd.Int64("memory-kib")
	}
	if cmd.IsSet("cpu") {
		limits.CpuTime = cmd.Duration("cpu")
	}
	return limits
}
