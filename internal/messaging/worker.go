package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// PostProcessor consumes post-processing payloads. Implemented by
// chat.PostProcessor; defined here so the worker does not depend on the chat
// package.
type PostProcessor interface {
	Process(ctx context.Context, payload PostProcessPayload) error
}

// Worker drains post-processing tasks from a receiver. Task failures are
// logged and nacked without requeue; the bookkeeping tail is best-effort and
// never retried automatically.
type Worker struct {
	Receiver  Receiver
	Processor PostProcessor
	WaitGroup *sync.WaitGroup
}

func (w *Worker) Start(ctx context.Context) {
	w.WaitGroup.Add(1)
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer w.WaitGroup.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-w.Receiver.Tasks():
			if !ok {
				return
			}
			w.handle(ctx, task)
		}
	}
}

func (w *Worker) handle(ctx context.Context, task Task) {
	var payload PostProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("could not unmarshal post-process payload", "error", err)
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting task", "error", err)
		}
		return
	}

	if err := w.Processor.Process(ctx, payload); err != nil {
		slog.Error("post-processing failed", "room_id", payload.RoomId, "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error nacking task", "error", err)
		}
		return
	}

	if err := task.Ack(); err != nil {
		slog.Error("error acking task", "error", err)
	}
}
