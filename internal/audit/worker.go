package audit

import (
	"context"
	"errors"
	"log/slog"
)

// ErrQueueFull is returned by Queue.Emit when the buffer has no room.
var ErrQueueFull = errors.New("audit queue full")

// Queue is a non-blocking publisher that hands events to a Worker.
type Queue struct {
	events chan Event
}

func NewQueue(size int) *Queue {
	return &Queue{events: make(chan Event, size)}
}

func (q *Queue) Emit(_ context.Context, base Event) error {
	select {
	case q.events <- normalize(base):
		return nil
	default:
		return ErrQueueFull
	}
}

// Events exposes the receive side for a Worker.
func (q *Queue) Events() <-chan Event {
	return q.events
}

// Worker consumes audit events from a channel and persists them. A failed
// append is logged and dropped so one bad write does not stop the stream.
// On cancellation it drains whatever is already buffered before returning.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func NewWorker(store Store, inbox <-chan Event, opts ...WorkerOption) *Worker {
	w := &Worker{store: store, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.append(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.inbox:
			w.append(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to persist audit event",
			"error", err,
			"action", event.Action,
			"event_id", event.ID,
			"request_id", event.RequestID,
		)
	}
}
