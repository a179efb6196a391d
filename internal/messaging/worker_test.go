package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	err      error
	payloads chan PostProcessPayload
}

func newRecordingProcessor(err error) *recordingProcessor {
	return &recordingProcessor{err: err, payloads: make(chan PostProcessPayload, 10)}
}

func (p *recordingProcessor) Process(ctx context.Context, payload PostProcessPayload) error {
	p.payloads <- payload
	return p.err
}

func startWorker(t *testing.T, queue *InMemoryQueue, processor PostProcessor) {
	t.Helper()

	ctx, stop := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	worker := Worker{Receiver: queue, Processor: processor, WaitGroup: &wg}
	worker.Start(ctx)
	t.Cleanup(func() {
		stop()
		wg.Wait()
	})
}

func TestWorkerProcessesPublishedTask(t *testing.T) {
	queue := NewInMemoryQueue()
	processor := newRecordingProcessor(nil)
	startWorker(t, queue, processor)

	payload := PostProcessPayload{
		RoomId:           uuid.New(),
		UserMessage:      "보증금 질문",
		AssistantMessage: "답변입니다.",
	}
	require.NoError(t, queue.PublishPostProcessTask(context.Background(), payload))

	select {
	case got := <-processor.payloads:
		assert.Equal(t, payload.RoomId, got.RoomId)
		assert.Equal(t, payload.UserMessage, got.UserMessage)
		assert.Equal(t, payload.AssistantMessage, got.AssistantMessage)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not process the published task")
	}
}

func TestWorkerContinuesAfterProcessorError(t *testing.T) {
	queue := NewInMemoryQueue()
	processor := newRecordingProcessor(errors.New("transient failure"))
	startWorker(t, queue, processor)

	first := PostProcessPayload{RoomId: uuid.New(), UserMessage: "첫 번째"}
	second := PostProcessPayload{RoomId: uuid.New(), UserMessage: "두 번째"}
	require.NoError(t, queue.PublishPostProcessTask(context.Background(), first))
	require.NoError(t, queue.PublishPostProcessTask(context.Background(), second))

	for _, want := range []PostProcessPayload{first, second} {
		select {
		case got := <-processor.payloads:
			assert.Equal(t, want.RoomId, got.RoomId)
		case <-time.After(5 * time.Second):
			t.Fatal("worker stopped after a processor error")
		}
	}
}
