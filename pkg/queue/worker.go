package queue

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DispatchFunc invokes the pipeline Dispatcher synchronously for jobID.
type DispatchFunc func(ctx context.Context, jobID string) error

// WorkerConfig tunes the Queue Worker's long-poll parameters per §4.8.
type WorkerConfig struct {
	WaitSeconds       int
	MaxMessages       int
	VisibilityTimeout int
}

// DefaultWorkerConfig matches §4.8's documented defaults: 20s wait, batch
// size 1, 900s visibility timeout.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{WaitSeconds: 20, MaxMessages: 1, VisibilityTimeout: 900}
}

// Worker long-polls a Port and hands each "process" message to dispatch.
type Worker struct {
	port     Port
	dispatch DispatchFunc
	cfg      WorkerConfig
	log      *zap.Logger
}

// NewWorker builds a Worker.
func NewWorker(port Port, dispatch DispatchFunc, cfg WorkerConfig, log *zap.Logger) *Worker {
	return &Worker{port: port, dispatch: dispatch, cfg: cfg, log: log}
}

// Run polls in a loop until ctx is cancelled. Each received message is
// acknowledged (deleted) only after a successful Dispatcher run; a failed
// run leaves the message to reappear after the visibility timeout.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := w.port.Receive(ctx, w.cfg.WaitSeconds, w.cfg.MaxMessages, w.cfg.VisibilityTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warn("queue receive failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg Message) {
	if msg.Body.Action != "process" {
		w.log.Warn("queue message has unrecognized action, skipping without ack", zap.String("action", msg.Body.Action))
		return
	}

	if err := w.dispatch(ctx, msg.Body.JobID); err != nil {
		w.log.Error("dispatcher failed for queued job, leaving message for redelivery", zap.Error(err), zap.String("job_id", msg.Body.JobID))
		return
	}

	if err := w.port.Delete(ctx, msg.Receipt); err != nil {
		w.log.Warn("failed to delete acknowledged queue message", zap.Error(err))
	}
}
