package queuemsg

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"safetube-pipeline/internal/types"
)

type fakeSQS struct {
	sent     []*sqs.SendMessageInput
	deleted  []string
	incoming []sqstypes.Message
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	out := &sqs.ReceiveMessageOutput{Messages: f.incoming}
	f.incoming = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSendAttemptTargetsMainQueue(t *testing.T) {
	fake := &fakeSQS{}
	q := newWithAPI(fake, "https://sqs/main", "https://sqs/dlq")

	err := q.SendAttempt(context.Background(), types.QueueMessage{
		VideoID: "abc123", YouTubeLink: "https://youtu.be/abc123", RetryCount: 1,
	})
	if err != nil {
		t.Fatalf("SendAttempt: %v", err)
	}
	if got := aws.ToString(fake.sent[0].QueueUrl); got != "https://sqs/main" {
		t.Errorf("queue url = %q", got)
	}

	var msg types.QueueMessage
	if err := json.Unmarshal([]byte(aws.ToString(fake.sent[0].MessageBody)), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.RetryCount != 1 || msg.VideoID != "abc123" {
		t.Errorf("decoded message = %+v", msg)
	}
}

func TestSendDeadLetterCarriesFinalStatus(t *testing.T) {
	fake := &fakeSQS{}
	q := newWithAPI(fake, "https://sqs/main", "https://sqs/dlq")

	err := q.SendDeadLetter(context.Background(), types.DeadLetterMessage{
		VideoID: "abc123", FinalStatus: types.StatusFailedPermanent,
	})
	if err != nil {
		t.Fatalf("SendDeadLetter: %v", err)
	}
	if got := aws.ToString(fake.sent[0].QueueUrl); got != "https://sqs/dlq" {
		t.Errorf("queue url = %q", got)
	}

	var msg types.DeadLetterMessage
	if err := json.Unmarshal([]byte(aws.ToString(fake.sent[0].MessageBody)), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.FinalStatus != types.StatusFailedPermanent {
		t.Errorf("final_status = %q", msg.FinalStatus)
	}
}

func TestReceiveOneAndDelete(t *testing.T) {
	body, _ := json.Marshal(types.QueueMessage{VideoID: "abc123", RetryCount: 0})
	fake := &fakeSQS{incoming: []sqstypes.Message{{
		Body:          aws.String(string(body)),
		ReceiptHandle: aws.String("rh-1"),
	}}}
	q := newWithAPI(fake, "https://sqs/main", "https://sqs/dlq")

	got, err := q.ReceiveOne(context.Background(), 20)
	if err != nil {
		t.Fatalf("ReceiveOne: %v", err)
	}
	if got == nil || got.Message.VideoID != "abc123" || got.ReceiptHandle != "rh-1" {
		t.Fatalf("received = %+v", got)
	}

	if err := q.Delete(context.Background(), got.ReceiptHandle); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "rh-1" {
		t.Errorf("deleted = %v", fake.deleted)
	}

	// empty poll
	again, err := q.ReceiveOne(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReceiveOne: %v", err)
	}
	if again != nil {
		t.Errorf("expected nil on empty queue, got %+v", again)
	}
}
