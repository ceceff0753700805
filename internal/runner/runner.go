package runner

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/fixture"
	"github.com/programme-lv/harness/internal/gatherer"
	"github.com/programme-lv/harness/internal/gatherer/respbuilder"
	"github.com/programme-lv/harness/internal/session"
	"github.com/programme-lv/harness/internal/verifier"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type Config struct {
	// Parallel bounds concurrently running fixtures. Zero means NumCPU.
	Parallel int
	// Slots, when set, is shared with other runners to bound children
	// process-wide.
	Slots    *semaphore.Weighted
	Gatherer gatherer.Gatherer
	Log      *slog.Logger

	EchoStdout io.Writer
	EchoStderr io.Writer
}

// Runner executes fixtures, each in its own isolated session.
type Runner struct {
	parallel int
	slots    *semaphore.Weighted
	gath     gatherer.Gatherer
	log      *slog.Logger
	echoOut  io.Writer
	echoErr  io.Writer

	inFlight *xsync.Counter
	peak     atomic.Int64
}

func New(cfg Config) *Runner {
	r := &Runner{
		parallel: cfg.Parallel,
		slots:    cfg.Slots,
		gath:     cfg.Gatherer,
		log:      cfg.Log,
		echoOut:  cfg.EchoStdout,
		echoErr:  cfg.EchoStderr,
		inFlight: xsync.NewCounter(),
	}
	if r.parallel <= 0 {
		r.parallel = runtime.NumCPU()
	}
	if r.gath == nil {
		r.gath = gatherer.Nop{}
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Peak is the highest number of fixtures that were running at once.
func (r *Runner) Peak() int64 {
	return r.peak.Load()
}

// Execute runs one fixture and verifies it. The returned error is a harness
// error (launch or OS failure); mismatches only show in the verdict.
func (r *Runner) Execute(ctx context.Context, f fixture.Fixture) (*session.Result, verifier.Verdict, error) {
	opts := []session.Option{
		session.WithLogger(r.log.With("fixture", f.Name)),
		session.WithEcho(r.echoOut, r.echoErr),
	}
	if r.slots != nil {
		opts = append(opts, session.WithSlots(r.slots))
	}

	r.enter()
	defer r.inFlight.Dec()

	res, err := session.Run(ctx, f.Target, f.Limits, opts...)
	if res == nil {
		return nil, verifier.Verdict{}, err
	}
	return res, verifier.Verify(res, f.Expect, f.Options), err
}

func (r *Runner) enter() {
	r.inFlight.Inc()
	now := r.inFlight.Value()
	for {
		old := r.peak.Load()
		if now <= old || r.peak.CompareAndSwap(old, now) {
			return
		}
	}
}

// RunOne executes f and returns its record.
func (r *Runner) RunOne(ctx context.Context, f fixture.Fixture) api.RunRecord {
	res, verdict, err := r.Execute(ctx, f)
	rec := NewRecord(f, res, verdict, err)

	log := r.log.With("fixture", f.Name, "outcome", rec.Verdict.Outcome, "state", rec.State)
	if err != nil {
		log.Error("fixture run failed", "err", err)
	} else {
		log.Info("fixture finished", "wall_ms", rec.WallMillis)
	}
	return rec
}

// RunSuite runs fixtures in parallel and reports them in declaration order.
func (r *Runner) RunSuite(ctx context.Context, source string, fixtures []fixture.Fixture) *api.Report {
	suiteId := uuid.NewString()

	order := make([]string, len(fixtures))
	for i, f := range fixtures {
		order[i] = f.Name
	}
	builder := respbuilder.New(order)
	sinks := gatherer.Multi{builder, r.gath}

	r.log.Info("starting suite", "suite_id", suiteId, "source", source,
		"fixtures", len(fixtures), "parallel", r.parallel)
	sinks.StartSuite(suiteId, source, len(fixtures))

	var g errgroup.Group
	g.SetLimit(r.parallel)
	for _, f := range fixtures {
		g.Go(func() error {
			sinks.StartRun(suiteId, f.Name)
			rec := r.RunOne(ctx, f)
			sinks.FinishRun(suiteId, &rec)
			r.log.Debug("suite progress", "suite_id", suiteId, "running", builder.Running())
			return nil
		})
	}
	_ = g.Wait()

	report := builder.Report(time.Now())
	sinks.FinishSuite(report)

	r.log.Info("suite finished", "suite_id", suiteId,
		"passed", report.Passed, "failed", report.Failed,
		"inconclusive", report.Inconclusive, "errored", report.Errored,
		"peak_parallel", r.Peak())
	return report
}
