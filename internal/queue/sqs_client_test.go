package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func testMessage() Message {
	return Message{
		Event:      EventVersionCommitted,
		ResumeID:   "r-1",
		UserID:     42,
		Version:    2,
		MarkupPath: "42/r-1/html/resume_html_42_v2.html",
		EnqueuedAt: "2026-01-30T22:00:00Z",
	}
}

func TestSQSClientSendStandardQueue(t *testing.T) {
	api := &fakeSQS{}
	c := &SQSClient{client: api, queueURL: "https://sqs.local/123/events"}

	if err := c.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(api.inputs) != 1 {
		t.Fatalf("expected one send, got %d", len(api.inputs))
	}
	in := api.inputs[0]
	if in.MessageGroupId != nil {
		t.Fatalf("did not expect group id on standard queue")
	}
	var got Message
	if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got != testMessage() {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestSQSClientSendFIFOQueue(t *testing.T) {
	api := &fakeSQS{}
	c := &SQSClient{client: api, queueURL: "https://sqs.local/123/events.fifo"}

	if err := c.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	in := api.inputs[0]
	if aws.ToString(in.MessageGroupId) != "r-1" || aws.ToString(in.MessageDeduplicationId) != "r-1-v2" {
		t.Fatalf("unexpected fifo attributes %v %v", aws.ToString(in.MessageGroupId), aws.ToString(in.MessageDeduplicationId))
	}
}

func TestSQSClientSendError(t *testing.T) {
	boom := errors.New("boom")
	c := &SQSClient{client: &fakeSQS{err: boom}, queueURL: "q"}
	if err := c.Send(context.Background(), testMessage()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestMemoryClientRecords(t *testing.T) {
	c := NewMemoryClient()
	_ = c.Send(context.Background(), testMessage())
	if msgs := c.Messages(); len(msgs) != 1 || msgs[0].Version != 2 {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}
