// Package queue defines the Queue Port (§6) and an in-memory implementation
// used in local/dev deployments; a durable message queue (SQS, etc.) is an
// external collaborator out of this engine's scope.
package queue

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/merchantiq/docverify/pkg/domain"
)

// Message is one received queue message: its body plus an opaque receipt
// handle used to acknowledge (delete) it.
type Message struct {
	Receipt string
	Body    domain.JobQueueMessage
}

// Port is the pipeline's work-queue dependency.
type Port interface {
	Send(ctx context.Context, body domain.JobQueueMessage) error
	Receive(ctx context.Context, waitSeconds, maxMessages int, visibilityTimeoutSeconds int) ([]Message, error)
	Delete(ctx context.Context, receipt string) error
}

type inFlightEntry struct {
	receipt      string
	body         domain.JobQueueMessage
	visibleAfter time.Time
}

// InMemoryPort implements Port with an in-process FIFO queue and
// visibility-timeout semantics: a received message becomes invisible to
// further Receive calls until its timeout elapses or it is Deleted.
type InMemoryPort struct {
	mu        sync.Mutex
	pending   *list.List
	inFlight  map[string]*inFlightEntry
	pollEvery time.Duration
}

// NewInMemoryPort builds an empty InMemoryPort.
func NewInMemoryPort() *InMemoryPort {
	return &InMemoryPort{
		pending:   list.New(),
		inFlight:  make(map[string]*inFlightEntry),
		pollEvery: 200 * time.Millisecond,
	}
}

// Send enqueues body.
func (p *InMemoryPort) Send(ctx context.Context, body domain.JobQueueMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending.PushBack(body)
	return nil
}

// Receive long-polls up to waitSeconds for up to maxMessages visible
// messages, marking each returned message invisible for
// visibilityTimeoutSeconds.
func (p *InMemoryPort) Receive(ctx context.Context, waitSeconds, maxMessages, visibilityTimeoutSeconds int) ([]Message, error) {
	deadline := time.Now().Add(time.Duration(waitSeconds) * time.Second)
	for {
		p.requeueExpired()

		if msgs := p.drain(maxMessages, visibilityTimeoutSeconds); len(msgs) > 0 {
			return msgs, nil
		}

		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.pollEvery):
		}
	}
}

// Delete acknowledges receipt, removing it from the in-flight set.
func (p *InMemoryPort) Delete(ctx context.Context, receipt string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, receipt)
	return nil
}

func (p *InMemoryPort) drain(maxMessages, visibilityTimeoutSeconds int) []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []Message
	for len(out) < maxMessages {
		front := p.pending.Front()
		if front == nil {
			break
		}
		p.pending.Remove(front)

		body := front.Value.(domain.JobQueueMessage)
		receipt := uuid.NewString()
		p.inFlight[receipt] = &inFlightEntry{
			receipt:      receipt,
			body:         body,
			visibleAfter: time.Now().Add(time.Duration(visibilityTimeoutSeconds) * time.Second),
		}
		out = append(out, Message{Receipt: receipt, Body: body})
	}
	return out
}

func (p *InMemoryPort) requeueExpired() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	for receipt, entry := range p.inFlight {
		if now.After(entry.visibleAfter) {
			p.pending.PushBack(entry.body)
			delete(p.inFlight, receipt)
		}
	}
}
