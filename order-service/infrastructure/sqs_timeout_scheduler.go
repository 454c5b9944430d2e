package infrastructure

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

// maxSQSDelay is the SQS SendMessage DelaySeconds ceiling
const maxSQSDelay = 900 * time.Second

// SQSClient is the SQS API surface the scheduler needs
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSTimeoutScheduler delivers order timeouts as delayed self-messages on
// the orchestrator's own queue. Each schedule carries a fresh token; a
// delivery whose token no longer matches the saga instance is stale.
// Cancel is a no-op because SQS cannot recall a delayed message, the
// consumer-side token check does the real cancellation.
type SQSTimeoutScheduler struct {
	client   SQSClient
	queueURL string
}

// NewSQSTimeoutScheduler creates a new SQSTimeoutScheduler
func NewSQSTimeoutScheduler(client SQSClient, queueURL string) *SQSTimeoutScheduler {
	return &SQSTimeoutScheduler{
		client:   client,
		queueURL: queueURL,
	}
}

// Schedule enqueues a timeout delivery after the given delay and returns
// the token identifying this schedule
func (s *SQSTimeoutScheduler) Schedule(ctx context.Context, orderID models.ID, delay time.Duration) (string, error) {
	if delay > maxSQSDelay {
		delay = maxSQSDelay
	}
	if delay < 0 {
		delay = 0
	}

	token := models.GenerateUUID().String()

	event := events.NewEvent(orderID, events.OrderTimeoutExpiredEvent, events.OrderTimeoutExpiredData{
		OrderID: orderID,
		Token:   token,
	})

	body, err := event.ToJSON()
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize timeout event")
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(s.queueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: int32(delay / time.Second),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to schedule timeout message")
	}

	return token, nil
}

// Cancel is advisory only; the delayed message will still be delivered and
// discarded by the token check
func (s *SQSTimeoutScheduler) Cancel(ctx context.Context, token string) error {
	return nil
}
