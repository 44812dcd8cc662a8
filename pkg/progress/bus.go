// Package progress implements the in-process progress pub/sub fabric: a
// single long-lived Bus instance, threaded through the Dispatcher, that
// streams ProgressEvents to whatever external transport (§6's SSE adapter)
// subscribes on behalf of a client.
package progress

import (
	"sync"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/infrastructure/metrics"
)

const defaultBufferSize = 16

// Handle identifies one subscription returned by Subscribe.
type Handle struct {
	jobID string
	id    uint64
	ch    chan domain.ProgressEvent
}

// Events returns the channel this subscription delivers events on. The
// channel is closed after a terminal event has been delivered.
func (h *Handle) Events() <-chan domain.ProgressEvent {
	return h.ch
}

type subscriber struct {
	id     uint64
	ch     chan domain.ProgressEvent
	closed bool
}

type jobState struct {
	latest      *domain.ProgressEvent
	subscribers map[uint64]*subscriber
}

// Bus is a shared mutable registry of subscribers keyed by job id,
// protected by a single mutex per the documented concurrency model.
type Bus struct {
	mu      sync.Mutex
	jobs    map[string]*jobState
	nextID  uint64
	bufSize int
}

// NewBus constructs an empty Bus. bufSize overrides the per-subscriber
// buffer depth; 0 selects the default.
func NewBus(bufSize int) *Bus {
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	return &Bus{jobs: make(map[string]*jobState), bufSize: bufSize}
}

// Subscribe registers a new subscriber for jobID. If a latest event
// already exists for the job, it is delivered immediately.
func (b *Bus) Subscribe(jobID string) *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.stateLocked(jobID)
	b.nextID++
	id := b.nextID
	sub := &subscriber{id: id, ch: make(chan domain.ProgressEvent, b.bufSize)}
	state.subscribers[id] = sub

	if state.latest != nil {
		deliver(sub, *state.latest)
	}

	metrics.SetProgressBusSubscribers(b.subscriberCountLocked())
	return &Handle{jobID: jobID, id: id, ch: sub.ch}
}

// Unsubscribe detaches handle. When the last subscriber for a job leaves,
// the job's retained latest event may be evicted.
func (b *Bus) Unsubscribe(handle *Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.jobs[handle.jobID]
	if !ok {
		return
	}
	if sub, ok := state.subscribers[handle.id]; ok {
		closeSubscriber(sub)
		delete(state.subscribers, handle.id)
	}
	if len(state.subscribers) == 0 {
		delete(b.jobs, handle.jobID)
	}
	metrics.SetProgressBusSubscribers(b.subscriberCountLocked())
}

// Publish delivers event to every live subscriber of its job, non-blocking
// and best-effort: a full subscriber buffer drops its oldest queued event
// to make room. Subscribers are closed (and removed) once event is
// terminal.
func (b *Bus) Publish(event domain.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.stateLocked(event.JobID)
	state.latest = &event

	terminal := event.IsTerminal()
	for id, sub := range state.subscribers {
		deliver(sub, event)
		if terminal {
			closeSubscriber(sub)
			delete(state.subscribers, id)
		}
	}
	if terminal {
		metrics.SetProgressBusSubscribers(b.subscriberCountLocked())
	}
}

// Latest returns the most recently published event for jobID, for
// one-shot polling callers that do not want a live subscription.
func (b *Bus) Latest(jobID string) (domain.ProgressEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.jobs[jobID]
	if !ok || state.latest == nil {
		return domain.ProgressEvent{}, false
	}
	return *state.latest, true
}

// subscriberCountLocked sums live subscribers across every job. Callers
// must already hold b.mu.
func (b *Bus) subscriberCountLocked() int {
	total := 0
	for _, state := range b.jobs {
		total += len(state.subscribers)
	}
	return total
}

func (b *Bus) stateLocked(jobID string) *jobState {
	state, ok := b.jobs[jobID]
	if !ok {
		state = &jobState{subscribers: make(map[uint64]*subscriber)}
		b.jobs[jobID] = state
	}
	return state
}

// deliver is non-blocking: if sub's buffer is full, the oldest queued event
// is dropped to make room for event.
func deliver(sub *subscriber, event domain.ProgressEvent) {
	if sub.closed {
		return
	}
	for {
		select {
		case sub.ch <- event:
			return
		default:
			select {
			case <-sub.ch:
			default:
				return
			}
		}
	}
}

func closeSubscriber(sub *subscriber) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}
