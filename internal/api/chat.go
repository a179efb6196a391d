package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"lawchat-backend/internal/chat"
	"lawchat-backend/internal/database"
	"lawchat-backend/pkg/api"
)

const keywordRankLimit = 5

type ChatService struct {
	db           *gorm.DB
	orchestrator *chat.Orchestrator
}

func NewChatService(db *gorm.DB, orchestrator *chat.Orchestrator) *ChatService {
	return &ChatService{db: db, orchestrator: orchestrator}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Use(MemberAuth(s.db))
		r.Post("/message", RestStreamHandler(s.SendMessage))
		r.Post("/{room_id}/message", RestStreamHandler(s.SendRoomMessage))
		r.Get("/history/", RestHandler(s.GetHistory))
		r.Get("/history/{history_id}", RestHandler(s.GetRoomHistory))
		r.Delete("/history/{history_id}", RestHandler(s.DeleteRoom))
		r.Get("/keyword/ranks", RestHandler(s.GetKeywordRanks))
	})
}

func (s *ChatService) SendMessage(r *http.Request) (StreamResponse, error) {
	return s.streamMessage(r, uuid.Nil)
}

func (s *ChatService) SendRoomMessage(r *http.Request) (StreamResponse, error) {
	roomId, err := URLParamUUID(r, "room_id")
	if err != nil {
		return nil, err
	}
	return s.streamMessage(r, roomId)
}

func (s *ChatService) streamMessage(r *http.Request, roomId uuid.UUID) (StreamResponse, error) {
	member, err := MemberFromContext(r.Context())
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.ChatMessageRequest](r)
	if err != nil {
		return nil, err
	}

	stream, err := s.orchestrator.SendMessage(r.Context(), member.Id, roomId, req.Message)
	if err != nil {
		return nil, mapChatError(err)
	}

	return func(yield func(any, error) bool) {
		for chunk := range stream {
			if !yield(chunk, nil) {
				return
			}
		}
	}, nil
}

func (s *ChatService) GetHistory(r *http.Request) (any, error) {
	member, err := MemberFromContext(r.Context())
	if err != nil {
		return nil, err
	}

	query, err := ParseRequestQueryParams[api.HistoryQuery](r)
	if err != nil {
		return nil, err
	}

	rooms, err := chat.GetMemberRooms(r.Context(), s.db, member.Id, query.Limit, query.Offset)
	if err != nil {
		return nil, err
	}

	resp := make([]api.HistoryRoom, 0, len(rooms))
	for _, room := range rooms {
		resp = append(resp, api.HistoryRoom{
			HistoryRoomId: room.Id,
			Title:         room.Title,
			CreatedAt:     room.CreatedAt,
			UpdatedAt:     room.UpdatedAt,
		})
	}

	return resp, nil
}

func (s *ChatService) GetRoomHistory(r *http.Request) (any, error) {
	member, err := MemberFromContext(r.Context())
	if err != nil {
		return nil, err
	}

	roomId, err := URLParamUUID(r, "history_id")
	if err != nil {
		return nil, err
	}

	room, err := chat.GetMemberRoom(r.Context(), s.db, member.Id, roomId)
	if err != nil {
		return nil, mapChatError(err)
	}

	turns, err := chat.GetRoomTurns(r.Context(), s.db, room.Id)
	if err != nil {
		return nil, err
	}

	resp := make([]api.HistoryTurn, 0, len(turns))
	for _, turn := range turns {
		resp = append(resp, api.HistoryTurn{
			Type:      turn.Role,
			Message:   turn.Message,
			CreatedAt: turn.CreatedAt,
		})
	}

	return resp, nil
}

func (s *ChatService) DeleteRoom(r *http.Request) (any, error) {
	member, err := MemberFromContext(r.Context())
	if err != nil {
		return nil, err
	}

	roomId, err := URLParamUUID(r, "history_id")
	if err != nil {
		return nil, err
	}

	room, err := chat.GetMemberRoom(r.Context(), s.db, member.Id, roomId)
	if err != nil {
		return nil, mapChatError(err)
	}

	if err := chat.DeleteRoom(r.Context(), s.db, room.Id); err != nil {
		return nil, err
	}

	return "채팅방이 삭제되었습니다.", nil
}

func (s *ChatService) GetKeywordRanks(r *http.Request) (any, error) {
	ranks, err := database.TopKeywordRanks(r.Context(), s.db, keywordRankLimit)
	if err != nil {
		return nil, err
	}

	resp := make([]api.KeywordRankItem, 0, len(ranks))
	for _, rank := range ranks {
		resp = append(resp, api.KeywordRankItem{Keyword: rank.Keyword, Score: rank.Score})
	}

	return resp, nil
}

func mapChatError(err error) error {
	switch {
	case errors.Is(err, chat.ErrMemberNotFound), errors.Is(err, chat.ErrRoomNotFound):
		return CodedError(http.StatusNotFound, err)
	case errors.Is(err, chat.ErrEmptyMessage):
		return CodedError(http.StatusBadRequest, err)
	default:
		return err
	}
}
