package queuemsg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"safetube-pipeline/internal/types"
)

type api interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Queue wraps the attempt queue and its dead-letter destination. Delivery is
// at-least-once; the consumer owns acknowledgement via Delete after terminal
// handling of an attempt.
type Queue struct {
	client   api
	queueURL string
	dlqURL   string
}

func New(client *sqs.Client, queueURL, dlqURL string) *Queue {
	return &Queue{client: client, queueURL: queueURL, dlqURL: dlqURL}
}

func newWithAPI(client api, queueURL, dlqURL string) *Queue {
	return &Queue{client: client, queueURL: queueURL, dlqURL: dlqURL}
}

// SendAttempt enqueues a fresh processing attempt. A requeue after failure is
// a new message, never a redelivery of the consumed one.
func (q *Queue) SendAttempt(ctx context.Context, msg types.QueueMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal queue message: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send attempt for %s: %w", msg.VideoID, err)
	}
	return nil
}

// SendDeadLetter routes an exhausted job to the dead-letter queue.
func (q *Queue) SendDeadLetter(ctx context.Context, msg types.DeadLetterMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal dead-letter message: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.dlqURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send dead-letter for %s: %w", msg.VideoID, err)
	}
	return nil
}

// Received pairs a decoded attempt with the handle needed to acknowledge it.
type Received struct {
	Message       types.QueueMessage
	ReceiptHandle string
}

// ReceiveOne long-polls for a single attempt. Returns nil when the wait
// expires with nothing to do.
func (q *Queue) ReceiveOne(ctx context.Context, waitSeconds int32) (*Received, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     waitSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	raw := out.Messages[0]
	var msg types.QueueMessage
	if err := json.Unmarshal([]byte(aws.ToString(raw.Body)), &msg); err != nil {
		return nil, fmt.Errorf("decode queue message: %w", err)
	}
	return &Received{Message: msg, ReceiptHandle: aws.ToString(raw.ReceiptHandle)}, nil
}

// Delete acknowledges a consumed message.
func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
