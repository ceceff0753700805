package natsgath

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/gatherer"
)

type natsGatherer struct {
	nc      *nats.Conn
	subject string
	log     *slog.Logger
}

// New creates a gatherer that publishes suite progress to subject.
func New(nc *nats.Conn, subject string, log *slog.Logger) *natsGatherer {
	if log == nil {
		log = slog.Default()
	}
	return &natsGatherer{
		nc:      nc,
		subject: subject,
		log:     log,
	}
}

func (s *natsGatherer) StartSuite(suiteId, source string, total int) {
	s.send(api.NewStartSuite(suiteId, source, total))
}

func (s *natsGatherer) StartRun(suiteId, fixture string) {
	s.send(api.NewStartRun(suiteId, fixture))
}

func (s *natsGatherer) FinishRun(suiteId string, rec *api.RunRecord) {
	trimmed := gatherer.TrimRecord(rec, api.MaxOutputHeight, api.MaxOutputWidth)
	s.send(api.NewFinishRun(suiteId, trimmed))
}

func (s *natsGatherer) FinishSuite(report *api.Report) {
	s.send(api.NewFinishSuite(report))
	if err := s.nc.Flush(); err != nil {
		s.log.Warn("failed to flush NATS connection", "err", err)
	}
}

func (s *natsGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("failed to marshal message", "err", err)
		return
	}

	if err := s.nc.Publish(s.subject, b); err != nil {
		s.log.Error("failed to publish message to NATS", "subject", s.subject, "err", err)
	}
}
