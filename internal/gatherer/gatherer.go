package gatherer

import "github.com/programme-lv/harness/api"

// Gatherer receives suite progress. Implementations must be safe for
// concurrent use; runs finish in parallel.
type Gatherer interface {
	StartSuite(suiteId, source string, total int)
	StartRun(suiteId, fixture string)
	FinishRun(suiteId string, rec *api.RunRecord)
	FinishSuite(report *api.Report)
}

// Multi forwards every call to each gatherer in order.
type Multi []Gatherer

func (m Multi) StartSuite(suiteId, source string, total int) {
	for _, g := range m {
		g.StartSuite(suiteId, source, total)
	}
}

func (m Multi) StartRun(suiteId, fixture string) {
	for _, g := range m {
		g.StartRun(suiteId, fixture)
	}
}

func (m Multi) FinishRun(suiteId string, rec *api.RunRecord) {
	for _, g := range m {
		g.FinishRun(suiteId, rec)
	}
}

func (m Multi) FinishSuite(report *api.Report) {
	for _, g := range m {
		g.FinishSuite(report)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) StartSuite(string, string, int)   {}
func (Nop) StartRun(string, string)          {}
func (Nop) FinishRun(string, *api.RunRecord) {}
func (Nop) FinishSuite(*api.Report)          {}
