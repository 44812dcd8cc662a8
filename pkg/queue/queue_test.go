package queue

import (
	"context"
	"testing"
	"time"

	"github.com/merchantiq/docverify/pkg/domain"
)

func TestInMemoryPortSendReceiveDelete(t *testing.T) {
	port := NewInMemoryPort()
	ctx := context.Background()

	if err := port.Send(ctx, domain.JobQueueMessage{JobID: "job-1", Action: "process"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs, err := port.Receive(ctx, 1, 1, 900)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body.JobID != "job-1" {
		t.Fatalf("got %+v", msgs)
	}

	if err := port.Delete(ctx, msgs[0].Receipt); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	empty, err := port.Receive(ctx, 0, 1, 900)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no further messages, got %+v", empty)
	}
}

func TestInMemoryPortRequeuesAfterVisibilityTimeout(t *testing.T) {
	port := NewInMemoryPort()
	port.pollEvery = 10 * time.Millisecond
	ctx := context.Background()

	if err := port.Send(ctx, domain.JobQueueMessage{JobID: "job-2", Action: "process"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	first, err := port.Receive(ctx, 0, 1, 0)
	if err != nil || len(first) != 1 {
		t.Fatalf("first Receive: %+v, err=%v", first, err)
	}

	second, err := port.Receive(ctx, 1, 1, 900)
	if err != nil {
		t.Fatalf("second Receive: %v", err)
	}
	if len(second) != 1 || second[0].Body.JobID != "job-2" {
		t.Fatalf("expected requeued message, got %+v", second)
	}
}
