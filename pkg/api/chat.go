package api

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessageRequest struct {
	Message string `json:"message"`
}

// ChatStreamChunk is one frame of the streamed chat response. Message holds
// an incremental delta while the model is producing output; the terminal
// frame (Last == true) carries the joined full text along with the sources
// retrieved for this exchange.
type ChatStreamChunk struct {
	RoomId       uuid.UUID   `json:"roomId"`
	Title        string      `json:"title,omitempty"`
	Message      string      `json:"message"`
	SimilarCases []CitedCase `json:"similarCases,omitempty"`
	SimilarLaws  []CitedLaw  `json:"similarLaws,omitempty"`
	Last         bool        `json:"last,omitempty"`
}

// Metadata carries the raw retrieval-hit attributes (court, decision date,
// article number, similarity score, ...) alongside the fields promoted to
// their own columns.
type CitedCase struct {
	Content    string         `json:"content"`
	CaseNumber string         `json:"caseNumber"`
	CaseName   string         `json:"caseName"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type CitedLaw struct {
	Content  string         `json:"content"`
	LawName  string         `json:"lawName"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type HistoryRoom struct {
	HistoryRoomId uuid.UUID `json:"historyRoomId"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type HistoryTurn struct {
	Type      string    `json:"type"` // "USER" or "ASSISTANT"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type HistoryQuery struct {
	Limit  int `schema:"limit"`
	Offset int `schema:"offset"`
}

type KeywordRankItem struct {
	Keyword string `json:"keyword"`
	Score   int64  `json:"score"`
}
