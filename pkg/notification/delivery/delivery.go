// Package delivery implements the Notification Hook (§4.11): an optional
// Progress Bus subscriber that posts a one-line Slack message when a job
// reaches a FAILED or REVIEW terminal event. It is a pure observer of
// already-published events and never influences Dispatcher control flow.
package delivery

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/progress"
)

// Poster is the subset of slack-go's client this package depends on,
// narrowed for testability.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier subscribes to a progress.Bus and posts to Slack on terminal
// FAILED/REVIEW events.
type Notifier struct {
	client    Poster
	channelID string
	log       *zap.Logger
}

// NewNotifier builds a Notifier posting to channelID via a slack-go client
// constructed from webhookToken.
func NewNotifier(webhookToken, channelID string, log *zap.Logger) *Notifier {
	return &Notifier{client: slack.New(webhookToken), channelID: channelID, log: log}
}

// NewNotifierWithClient builds a Notifier against an arbitrary Poster,
// used by tests to avoid a live Slack dependency.
func NewNotifierWithClient(client Poster, channelID string, log *zap.Logger) *Notifier {
	return &Notifier{client: client, channelID: channelID, log: log}
}

// Watch subscribes to bus for jobID and blocks until the subscription's
// channel closes (i.e. until a terminal event is delivered), posting a
// Slack message for FAILED or REVIEW terminal events. Callers run this in
// its own goroutine per job.
func (n *Notifier) Watch(ctx context.Context, bus *progress.Bus, jobID, variant string) {
	handle := bus.Subscribe(jobID)
	defer bus.Unsubscribe(handle)

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-handle.Events():
			if !open {
				return
			}
			if !event.IsTerminal() {
				continue
			}
			if event.Status == domain.StatusFailed || event.Status == domain.StatusReview {
				n.notify(ctx, jobID, variant, event)
			}
			return
		}
	}
}

func (n *Notifier) notify(ctx context.Context, jobID, variant string, event domain.ProgressEvent) {
	text := fmt.Sprintf("Job %s (%s) reached %s: %s", jobID, variant, event.Status, event.Message)
	if _, _, err := n.client.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(text, false)); err != nil {
		n.log.Warn("notification: slack post failed", zap.String("job_id", jobID), zap.Error(err))
	}
}
