package chat

import (
	"context"
	"encoding/json"
	"testing"

	"lawchat-backend/internal/database"
	"lawchat-backend/internal/messaging"
	"lawchat-backend/pkg/api"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRoom(t *testing.T, db *gorm.DB, memberId uuid.UUID) database.ChatRoom {
	t.Helper()

	room, err := CreateRoom(context.Background(), db, memberId)
	require.NoError(t, err)
	return room
}

func TestProcessPersistsExchangeWithCitations(t *testing.T) {
	db := newTestDB(t)
	member := newTestMember(t, db, "user@example.com")
	room := newTestRoom(t, db, member.Id)

	extractor := &fakeExtractor{title: "보증금 반환", keyword: "보증금"}
	processor := NewPostProcessor(db, extractor)

	payload := messaging.PostProcessPayload{
		RoomId:           room.Id,
		UserMessage:      "보증금을 돌려받을 수 있나요?",
		AssistantMessage: "임대차 종료 시 반환 의무가 발생합니다.",
		Precedents: []api.CitedCase{
			{
				Content:    "판례 A",
				CaseNumber: "2020다1234",
				CaseName:   "손해배상",
				Metadata:   map[string]any{"case_number": "2020다1234", "court": "대법원", "score": 0.87},
			},
			{Content: "판례 B", CaseNumber: "2021다5678", CaseName: "부당이득"},
		},
		Laws: []api.CitedLaw{
			{
				Content:  "민법 제618조",
				LawName:  "민법",
				Metadata: map[string]any{"law_name": "민법", "article": "제618조"},
			},
		},
	}
	require.NoError(t, processor.Process(context.Background(), payload))

	turns, err := GetRoomTurns(context.Background(), db, room.Id)
	require.NoError(t, err)
	require.Len(t, turns, 2)

	assert.Equal(t, database.TurnRoleUser, turns[0].Role)
	assert.Equal(t, payload.UserMessage, turns[0].Message)
	assert.Equal(t, database.TurnRoleAssistant, turns[1].Role)
	assert.Equal(t, payload.AssistantMessage, turns[1].Message)

	// Citations hang off the user turn only.
	var precedents []database.PrecedentCitation
	require.NoError(t, db.Where("turn_id = ?", turns[0].ID).Find(&precedents).Error)
	require.Len(t, precedents, 2)
	assert.Equal(t, "2020다1234", precedents[0].CaseNumber)

	// The raw retrieval-hit attributes land in the metadata column.
	var precedentMeta map[string]any
	require.NoError(t, json.Unmarshal(precedents[0].Metadata, &precedentMeta))
	assert.Equal(t, "대법원", precedentMeta["court"])
	assert.Equal(t, 0.87, precedentMeta["score"])
	assert.Empty(t, precedents[1].Metadata)

	var laws []database.LawCitation
	require.NoError(t, db.Where("turn_id = ?", turns[0].ID).Find(&laws).Error)
	require.Len(t, laws, 1)
	assert.Equal(t, "민법", laws[0].LawName)

	var lawMeta map[string]any
	require.NoError(t, json.Unmarshal(laws[0].Metadata, &lawMeta))
	assert.Equal(t, "제618조", lawMeta["article"])

	var assistantCitations int64
	require.NoError(t, db.Model(&database.PrecedentCitation{}).Where("turn_id = ?", turns[1].ID).Count(&assistantCitations).Error)
	assert.Zero(t, assistantCitations)
}

func TestProcessExtractsTitleFromAssistant(t *testing.T) {
	db := newTestDB(t)
	member := newTestMember(t, db, "user@example.com")
	room := newTestRoom(t, db, member.Id)

	extractor := &fakeExtractor{title: "전세금 반환 상담", keyword: "전세금"}
	processor := NewPostProcessor(db, extractor)

	payload := messaging.PostProcessPayload{
		RoomId:           room.Id,
		UserMessage:      "전세금 문제입니다.",
		AssistantMessage: "주택임대차보호법에 따라 보호받을 수 있습니다.",
	}
	require.NoError(t, processor.Process(context.Background(), payload))

	var updated database.ChatRoom
	require.NoError(t, db.First(&updated, "id = ?", room.Id).Error)
	assert.Equal(t, "전세금 반환 상담", updated.Title)

	require.Len(t, extractor.titleCalls, 1)
	assert.Equal(t, payload.AssistantMessage, extractor.titleCalls[0])
	require.Len(t, extractor.keywordCalls, 1)
	assert.Equal(t, payload.UserMessage, extractor.keywordCalls[0])

	ranks, err := database.TopKeywordRanks(context.Background(), db, 5)
	require.NoError(t, err)
	require.Len(t, ranks, 1)
	assert.Equal(t, "전세금", ranks[0].Keyword)
	assert.EqualValues(t, 1, ranks[0].Score)
}

func TestProcessOutOfDomain(t *testing.T) {
	db := newTestDB(t)
	member := newTestMember(t, db, "user@example.com")
	room := newTestRoom(t, db, member.Id)

	extractor := &fakeExtractor{title: "일상 대화", keyword: "날씨"}
	processor := NewPostProcessor(db, extractor)

	payload := messaging.PostProcessPayload{
		RoomId:           room.Id,
		UserMessage:      "오늘 날씨 어때?",
		AssistantMessage: OutOfDomainMarker + " 법률 관련 질문을 해주세요.",
	}
	require.NoError(t, processor.Process(context.Background(), payload))

	// Out-of-domain replies title off the question and skip keyword counting.
	require.Len(t, extractor.titleCalls, 1)
	assert.Equal(t, payload.UserMessage, extractor.titleCalls[0])
	assert.Empty(t, extractor.keywordCalls)

	ranks, err := database.TopKeywordRanks(context.Background(), db, 5)
	require.NoError(t, err)
	assert.Empty(t, ranks)

	turns, err := GetRoomTurns(context.Background(), db, room.Id)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestProcessDegraded(t *testing.T) {
	db := newTestDB(t)
	member := newTestMember(t, db, "user@example.com")
	room := newTestRoom(t, db, member.Id)

	extractor := &fakeExtractor{title: "쓰이지 않는 제목", keyword: "쓰이지 않는 키워드"}
	processor := NewPostProcessor(db, extractor)

	payload := messaging.PostProcessPayload{
		RoomId:           room.Id,
		UserMessage:      "질문입니다.",
		AssistantMessage: ApologyMessage,
		Degraded:         true,
	}
	require.NoError(t, processor.Process(context.Background(), payload))

	// The transcript is kept so the room history stays well-formed, but no
	// derived data is produced from a failed generation.
	turns, err := GetRoomTurns(context.Background(), db, room.Id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, ApologyMessage, turns[1].Message)

	assert.Empty(t, extractor.titleCalls)
	assert.Empty(t, extractor.keywordCalls)

	var updated database.ChatRoom
	require.NoError(t, db.First(&updated, "id = ?", room.Id).Error)
	assert.Equal(t, room.Title, updated.Title)

	var citations int64
	require.NoError(t, db.Model(&database.PrecedentCitation{}).Count(&citations).Error)
	assert.Zero(t, citations)
}

func TestProcessEmptyTitleLeavesRoomUntouched(t *testing.T) {
	db := newTestDB(t)
	member := newTestMember(t, db, "user@example.com")
	room := newTestRoom(t, db, member.Id)

	extractor := &fakeExtractor{title: "", keyword: "보증금"}
	processor := NewPostProcessor(db, extractor)

	payload := messaging.PostProcessPayload{
		RoomId:           room.Id,
		UserMessage:      "보증금 질문",
		AssistantMessage: "답변입니다.",
	}
	require.NoError(t, processor.Process(context.Background(), payload))

	var updated database.ChatRoom
	require.NoError(t, db.First(&updated, "id = ?", room.Id).Error)
	assert.Equal(t, room.Title, updated.Title)
}
