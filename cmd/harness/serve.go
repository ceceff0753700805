package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/nats-io/nats.go"
	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/environment"
	"github.com/programme-lv/harness/internal/fixture"
	"github.com/programme-lv/harness/internal/runner"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func serveCommand(env *environment.EnvConfig) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "answer run requests received over NATS with run records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "nats-url", Value: firstNonEmpty(env.NatsUrl, nats.DefaultURL)},
			&cli.StringFlag{Name: "subject", Value: env.ServeSubj},
			&cli.StringFlag{Name: "queue", Value: "harness", Usage: "queue group shared by workers"},
			&cli.IntFlag{Name: "parallel", Aliases: []string{"j"}, Value: env.Parallel},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			nc, err := nats.Connect(cmd.String("nats-url"), nats.Name("harness-serve"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("failed to connect to NATS: %v", err), exitHarnessError)
			}
			defer nc.Close()

			parallel := cmd.Int("parallel")
			if parallel <= 0 {
				parallel = runtime.NumCPU()
			}
			return serve(ctx, nc, cmd.String("subject"), cmd.String("queue"), parallel)
		},
	}
}

func serve(ctx context.Context, nc *nats.Conn, subject, queue string, parallel int) error {
	msgs := make(chan *nats.Msg, parallel*4)
	sub, err := nc.ChanQueueSubscribe(subject, queue, msgs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	log := slog.Default().With("subject", subject)
	log.Info("serving run requests", "parallel", parallel)

	r := runner.New(runner.Config{Parallel: parallel, Log: slog.Default()})
	handle := func(runCtx context.Context, msg *nats.Msg) {
		rec := handleRequest(runCtx, r, msg.Data)
		if err := respond(msg, rec); err != nil {
			log.Error("failed to respond", "err", err)
		}
	}
	stop := func() {
		log.Info("shutting down, waiting for in-flight runs")
		if err := sub.Unsubscribe(); err != nil {
			log.Warn("failed to unsubscribe", "err", err)
		}
	}
	serveLoop(ctx, msgs, parallel, handle, stop)
	log.Info("stopped")
	return nil
}

// serveLoop hands each message to handle until ctx is done, then calls stop
// and waits for the handlers already started. Handlers run under a context
// that the shutdown does not cancel.
func serveLoop(ctx context.Context, msgs <-chan *nats.Msg, parallel int,
	handle func(context.Context, *nats.Msg), stop func()) {
	runCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(parallel)
	for {
		select {
		case <-ctx.Done():
			stop()
			_ = g.Wait()
			return
		case msg := <-msgs:
			g.Go(func() error {
				handle(runCtx, msg)
				return nil
			})
		}
	}
}

func handleRequest(ctx context.Context, r *runner.Runner, data []byte) api.RunRecord {
	var req api.RunReq
	if err := json.Unmarshal(data, &req); err != nil {
		return errorRecord("", fmt.Errorf("failed to unmarshal request: %w", err))
	}
	f, err := fixture.FromRequest(req)
	if err != nil {
		return errorRecord(req.Name, err)
	}
	return r.RunOne(ctx, f)
}

func errorRecord(name string, err error) api.RunRecord {
	msg := err.Error()
	return api.RunRecord{
		Fixture:    name,
		State:      "error",
		Transcript: []api.Segment{},
		Verdict:    api.VerdictRecord{Outcome: api.OutcomeError},
		Error:      &msg,
	}
}

func respond(msg *nats.Msg, rec api.RunRecord) error {
	if msg.Reply == "" {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return msg.Respond(data)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
