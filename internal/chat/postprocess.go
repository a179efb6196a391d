package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"lawchat-backend/internal/database"
	"lawchat-backend/internal/messaging"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PostProcessor runs the bookkeeping tail of an exchange: out-of-domain
// classification, room title extraction, transcript persistence, and keyword
// aggregation. It runs after the response stream has completed and its
// failures are never surfaced to the caller.
type PostProcessor struct {
	db        *gorm.DB
	extractor Extractor
	keywords  *KeywordAggregator
}

func NewPostProcessor(db *gorm.DB, extractor Extractor) *PostProcessor {
	return &PostProcessor{
		db:        db,
		extractor: extractor,
		keywords:  NewKeywordAggregator(db, extractor),
	}
}

func (p *PostProcessor) Process(ctx context.Context, payload messaging.PostProcessPayload) error {
	if payload.Degraded {
		// The apology is persisted as a regular assistant turn so the room
		// history stays well-formed, but citations are dropped and no title
		// or keyword is derived from a failed generation.
		return database.SaveExchange(ctx, p.db, payload.RoomId, payload.UserMessage, payload.AssistantMessage, nil, nil)
	}

	outOfDomain := strings.Contains(payload.AssistantMessage, OutOfDomainMarker)

	// For out-of-domain replies the assistant text is boilerplate, so the
	// title comes from what the user actually asked.
	titleSource := payload.AssistantMessage
	if outOfDomain {
		titleSource = payload.UserMessage
	}
	if title, err := p.extractor.ExtractTitle(ctx, titleSource); err != nil {
		slog.Error("title extraction failed", "room_id", payload.RoomId, "error", err)
	} else if title != "" {
		database.UpdateRoomTitle(ctx, p.db, payload.RoomId, title) //nolint:errcheck
	}

	precedents := make([]database.PrecedentCitation, 0, len(payload.Precedents))
	for _, c := range payload.Precedents {
		metadata, err := marshalMetadata(c.Metadata)
		if err != nil {
			slog.Error("could not marshal precedent citation metadata", "room_id", payload.RoomId, "error", err)
		}
		precedents = append(precedents, database.PrecedentCitation{
			Content:    c.Content,
			CaseNumber: c.CaseNumber,
			CaseName:   c.CaseName,
			Metadata:   metadata,
		})
	}

	laws := make([]database.LawCitation, 0, len(payload.Laws))
	for _, c := range payload.Laws {
		metadata, err := marshalMetadata(c.Metadata)
		if err != nil {
			slog.Error("could not marshal law citation metadata", "room_id", payload.RoomId, "error", err)
		}
		laws = append(laws, database.LawCitation{
			Content:  c.Content,
			LawName:  c.LawName,
			Metadata: metadata,
		})
	}

	if err := database.SaveExchange(ctx, p.db, payload.RoomId, payload.UserMessage, payload.AssistantMessage, precedents, laws); err != nil {
		slog.Error("error persisting exchange", "room_id", payload.RoomId, "error", err)
		return err
	}

	if !outOfDomain {
		if err := p.keywords.RecordOccurrence(ctx, payload.UserMessage); err != nil {
			slog.Error("keyword aggregation failed", "room_id", payload.RoomId, "error", err)
		}
	}

	return nil
}

func marshalMetadata(metadata map[string]any) (datatypes.JSON, error) {
	if metadata == nil {
		return nil, nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
