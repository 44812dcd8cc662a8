package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/progress"
)

type stubPoster struct {
	posted  bool
	channel string
}

func (s *stubPoster) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	s.posted = true
	s.channel = channelID
	return "", "", nil
}

func TestWatchPostsOnFailedTerminalEvent(t *testing.T) {
	bus := progress.NewBus(0)
	poster := &stubPoster{}
	notifier := NewNotifierWithClient(poster, "C123", zap.NewNop())

	done := make(chan struct{})
	go func() {
		notifier.Watch(context.Background(), bus, "job-1", "VAT_REGISTRATION")
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	bus.Publish(domain.ProgressEvent{JobID: "job-1", Percent: 0, Status: domain.StatusFailed})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after terminal event")
	}

	if !poster.posted {
		t.Fatal("expected a Slack message to be posted")
	}
	if poster.channel != "C123" {
		t.Fatalf("expected channel C123, got %s", poster.channel)
	}
}

func TestWatchSkipsPassedTerminalEvent(t *testing.T) {
	bus := progress.NewBus(0)
	poster := &stubPoster{}
	notifier := NewNotifierWithClient(poster, "C123", zap.NewNop())

	done := make(chan struct{})
	go func() {
		notifier.Watch(context.Background(), bus, "job-2", "CORP_INCORPORATION")
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	bus.Publish(domain.ProgressEvent{JobID: "job-2", Percent: 100, Status: domain.StatusPassed})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after terminal event")
	}

	if poster.posted {
		t.Fatal("expected no Slack message for a PASSED terminal event")
	}
}
