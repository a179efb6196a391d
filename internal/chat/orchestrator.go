package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"lawchat-backend/internal/database"
	"lawchat-backend/internal/messaging"
	"lawchat-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stream is a finite, non-restartable sequence of response chunks. The
// consumer stops it by returning false from yield.
type Stream func(yield func(api.ChatStreamChunk) bool)

var errStreamClosed = errors.New("stream consumer gone")

// Orchestrator owns the lifecycle of one chat exchange: room resolution,
// context retrieval, memory updates, streamed generation, and dispatch of
// the post-processing tail.
type Orchestrator struct {
	db        *gorm.DB
	retriever Retriever
	generator Generator
	memory    *MemoryWindow
	publisher messaging.Publisher
	topK      int
}

func NewOrchestrator(db *gorm.DB, retriever Retriever, generator Generator, memory *MemoryWindow, publisher messaging.Publisher, topK int) *Orchestrator {
	return &Orchestrator{
		db:        db,
		retriever: retriever,
		generator: generator,
		memory:    memory,
		publisher: publisher,
		topK:      topK,
	}
}

// SendMessage validates the request and resolves (or lazily creates) the
// room, then returns the response stream. Validation failures are returned
// eagerly; once the stream starts, every failure inside it degrades to the
// apology chunk instead of propagating.
func (o *Orchestrator) SendMessage(ctx context.Context, memberId, roomId uuid.UUID, message string) (Stream, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	if _, err := GetMember(ctx, o.db, memberId); err != nil {
		return nil, err
	}

	var room database.ChatRoom
	var err error
	if roomId == uuid.Nil {
		room, err = CreateRoom(ctx, o.db, memberId)
	} else {
		room, err = GetMemberRoom(ctx, o.db, memberId, roomId)
	}
	if err != nil {
		return nil, err
	}

	return func(yield func(api.ChatStreamChunk) bool) {
		o.run(ctx, room, message, yield)
	}, nil
}

func (o *Orchestrator) run(ctx context.Context, room database.ChatRoom, message string, yield func(api.ChatStreamChunk) bool) {
	precedents, laws := o.retrieveContext(ctx, message)

	if err := o.memory.Append(ctx, room.Id, database.TurnRoleUser, message); err != nil {
		slog.Error("error appending user entry to memory window", "room_id", room.Id, "error", err)
	}

	snapshot, err := o.memory.Read(ctx, room.Id)
	if err != nil {
		slog.Error("error reading memory window", "room_id", room.Id, "error", err)
	}

	var full string
	prompt, err := BuildPrompt(FormatDocuments(precedents), FormatDocuments(laws), snapshot)
	if err == nil {
		full, err = o.generator.Stream(ctx, prompt, func(delta string) error {
			if !yield(api.ChatStreamChunk{RoomId: room.Id, Title: room.Title, Message: delta}) {
				return errStreamClosed
			}
			return nil
		})
	}

	degraded := false
	switch {
	case err == nil:
		if !yield(api.ChatStreamChunk{
			RoomId:       room.Id,
			Title:        room.Title,
			Message:      full,
			SimilarCases: toCitedCases(precedents),
			SimilarLaws:  toCitedLaws(laws),
			Last:         true,
		}) {
			return
		}

	case errors.Is(err, errStreamClosed) || ctx.Err() != nil:
		// The caller disconnected mid-stream: the upstream call is already
		// cancelled, and post-processing is skipped so no partial turn is
		// persisted for an abandoned stream.
		slog.Info("stream consumer gone, skipping post-processing", "room_id", room.Id)
		return

	default:
		slog.Error("generation failed, degrading to apology response", "room_id", room.Id, "error", err)
		degraded = true
		full = ApologyMessage
		if !yield(api.ChatStreamChunk{RoomId: room.Id, Title: room.Title, Message: ApologyMessage, Last: true}) {
			return
		}
	}

	if err := o.memory.Append(ctx, room.Id, database.TurnRoleAssistant, full); err != nil {
		slog.Error("error appending assistant entry to memory window", "room_id", room.Id, "error", err)
	}

	payload := messaging.PostProcessPayload{
		RoomId:           room.Id,
		UserMessage:      message,
		AssistantMessage: full,
		Degraded:         degraded,
	}
	if !degraded {
		payload.Precedents = toCitedCases(precedents)
		payload.Laws = toCitedLaws(laws)
	}

	// The response has already been delivered; the bookkeeping tail must not
	// die with the request context.
	if err := o.publisher.PublishPostProcessTask(context.WithoutCancel(ctx), payload); err != nil {
		slog.Error("error dispatching post-processing task", "room_id", room.Id, "error", err)
	}
}

// retrieveContext issues the precedent and law searches concurrently and
// joins on both. An unavailable index degrades to empty context.
func (o *Orchestrator) retrieveContext(ctx context.Context, query string) ([]Document, []Document) {
	var precedents, laws []Document

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		docs, err := o.retriever.Search(ctx, query, CategoryPrecedent, o.topK)
		if err != nil {
			slog.Warn("precedent retrieval unavailable, continuing without context", "error", err)
			return
		}
		precedents = docs
	}()

	go func() {
		defer wg.Done()
		docs, err := o.retriever.Search(ctx, query, CategoryLaw, o.topK)
		if err != nil {
			slog.Warn("law retrieval unavailable, continuing without context", "error", err)
			return
		}
		laws = docs
	}()

	wg.Wait()
	return precedents, laws
}

func toCitedCases(docs []Document) []api.CitedCase {
	cases := make([]api.CitedCase, 0, len(docs))
	for _, doc := range docs {
		cases = append(cases, api.CitedCase{
			Content:    doc.Content,
			CaseNumber: metadataString(doc.Metadata, "case_number"),
			CaseName:   metadataString(doc.Metadata, "case_name"),
			Metadata:   citationMetadata(doc),
		})
	}
	return cases
}

func toCitedLaws(docs []Document) []api.CitedLaw {
	laws := make([]api.CitedLaw, 0, len(docs))
	for _, doc := range docs {
		laws = append(laws, api.CitedLaw{
			Content:  doc.Content,
			LawName:  metadataString(doc.Metadata, "law_name"),
			Metadata: citationMetadata(doc),
		})
	}
	return laws
}

// citationMetadata preserves the full retrieval-hit attributes on the
// citation, with the similarity score folded in under "score".
func citationMetadata(doc Document) map[string]any {
	metadata := make(map[string]any, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	metadata["score"] = doc.Score
	return metadata
}
