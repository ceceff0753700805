package respbuilder

import (
	"sync"
	"time"

	"github.com/programme-lv/harness/api"
	"github.com/puzpuzpuz/xsync/v3"
)

// Builder gathers suite events and builds the api.Report. Runs may finish
// in any order; the report lists them in the order given to New.
type Builder struct {
	order []string

	mu      sync.Mutex
	suiteId string
	source  string
	started time.Time

	records *xsync.MapOf[string, api.RunRecord]
	running *xsync.Counter
}

func New(order []string) *Builder {
	return &Builder{
		order:   order,
		started: time.Now(),
		records: xsync.NewMapOf[string, api.RunRecord](),
		running: xsync.NewCounter(),
	}
}

// StartSuite implements gatherer.Gatherer.
func (b *Builder) StartSuite(suiteId, source string, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suiteId = suiteId
	b.source = source
	b.started = time.Now()
}

// StartRun implements gatherer.Gatherer.
func (b *Builder) StartRun(suiteId, fixture string) {
	b.running.Inc()
}

// FinishRun implements gatherer.Gatherer.
func (b *Builder) FinishRun(suiteId string, rec *api.RunRecord) {
	b.records.Store(rec.Fixture, *rec)
	b.running.Dec()
}

// FinishSuite implements gatherer.Gatherer.
func (b *Builder) FinishSuite(report *api.Report) {}

// Running is the number of runs started but not yet finished.
func (b *Builder) Running() int64 {
	return b.running.Value()
}

// Report builds the report from every finished run. Fixtures that never
// finished are left out.
func (b *Builder) Report(finished time.Time) *api.Report {
	b.mu.Lock()
	report := api.NewReport(b.suiteId, b.source, b.started)
	started := b.started
	b.mu.Unlock()

	for _, name := range b.order {
		if rec, ok := b.records.Load(name); ok {
			report.Add(rec)
		}
	}
	report.Finish(started, finished)
	return report
}
