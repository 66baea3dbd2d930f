// Package events publishes job transition events to an SQS queue for
// downstream consumers (billing export, customer notifications).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/fieldserve/jobtrack-backend/internal/core"
)

// SQSPublisher implements core.EventPublisher over one SQS queue.
type SQSPublisher struct {
	client    *sqs.Client
	queueName string

	mu       sync.Mutex
	queueURL string
}

// NewSQSPublisher creates a publisher for the named queue. The queue URL
// is resolved lazily on first publish; the queue is created if missing.
func NewSQSPublisher(client *sqs.Client, queueName string) *SQSPublisher {
	return &SQSPublisher{
		client:    client,
		queueName: queueName,
	}
}

// Publish sends one transition event as a JSON SQS message.
func (p *SQSPublisher) Publish(ctx context.Context, event *core.TransitionEvent) error {
	queueURL, err := p.getOrCreateQueueURL(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transition event: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.EventType),
			},
			"to": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.To)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SQS SendMessage: %w", err)
	}
	return nil
}

// Close is a no-op; the SQS client holds no persistent connection.
func (p *SQSPublisher) Close() error { return nil }

func (p *SQSPublisher) getOrCreateQueueURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queueURL != "" {
		return p.queueURL, nil
	}

	out, err := p.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(p.queueName),
	})
	if err == nil {
		p.queueURL = *out.QueueUrl
		return p.queueURL, nil
	}

	created, err := p.client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(p.queueName),
	})
	if err != nil {
		return "", fmt.Errorf("SQS CreateQueue %q: %w", p.queueName, err)
	}
	p.queueURL = *created.QueueUrl
	return p.queueURL, nil
}
