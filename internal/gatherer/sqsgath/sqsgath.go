package sqsgath

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/gatherer"
)

// Sender is the part of the SQS client the gatherer needs.
type Sender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsResQueueGatherer struct {
	sqsClient Sender
	queueUrl  string
	log       *slog.Logger
}

// New loads the default AWS config for region and sends suite progress to
// the queue at queueUrl.
func New(ctx context.Context, region, queueUrl string, log *slog.Logger) (*sqsResQueueGatherer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewWithClient(sqs.NewFromConfig(cfg), queueUrl, log), nil
}

func NewWithClient(client Sender, queueUrl string, log *slog.Logger) *sqsResQueueGatherer {
	if log == nil {
		log = slog.Default()
	}
	return &sqsResQueueGatherer{
		sqsClient: client,
		queueUrl:  queueUrl,
		log:       log,
	}
}

func (s *sqsResQueueGatherer) StartSuite(suiteId, source string, total int) {
	s.send(api.NewStartSuite(suiteId, source, total))
}

func (s *sqsResQueueGatherer) StartRun(suiteId, fixture string) {
	s.send(api.NewStartRun(suiteId, fixture))
}

func (s *sqsResQueueGatherer) FinishRun(suiteId string, rec *api.RunRecord) {
	trimmed := gatherer.TrimRecord(rec, api.MaxOutputHeight, api.MaxOutputWidth)
	s.send(api.NewFinishRun(suiteId, trimmed))
}

func (s *sqsResQueueGatherer) FinishSuite(report *api.Report) {
	s.send(api.NewFinishSuite(report))
}

func (s *sqsResQueueGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("failed to marshal message", "err", err)
		return
	}

	_, err = s.sqsClient.SendMessage(context.TODO(), &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueUrl),
		MessageBody: aws.String(string(b)),
	})
	if err != nil {
		s.log.Error("failed to send message", "queue", s.queueUrl, "err", err)
	}
}
