package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveExchange persists one completed exchange: the user turn with its
// citations, then the assistant turn. The two inserts run inside a single
// transaction so a reader never observes a user turn without its reply's
// eventual ordering slot.
func SaveExchange(ctx context.Context, db *gorm.DB, roomId uuid.UUID, userMessage, assistantMessage string, precedents []PrecedentCitation, laws []LawCitation) error {
	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		userTurn := ChatTurn{RoomId: roomId, Role: TurnRoleUser, Message: userMessage}
		if err := txn.Create(&userTurn).Error; err != nil {
			return err
		}

		for i := range precedents {
			precedents[i].TurnId = userTurn.ID
		}
		if len(precedents) > 0 {
			if err := txn.Create(&precedents).Error; err != nil {
				return err
			}
		}

		for i := range laws {
			laws[i].TurnId = userTurn.ID
		}
		if len(laws) > 0 {
			if err := txn.Create(&laws).Error; err != nil {
				return err
			}
		}

		assistantTurn := ChatTurn{RoomId: roomId, Role: TurnRoleAssistant, Message: assistantMessage}
		if err := txn.Create(&assistantTurn).Error; err != nil {
			return err
		}

		return txn.Model(&ChatRoom{}).Where("id = ?", roomId).Update("updated_at", time.Now().UTC()).Error
	})
}

func UpdateRoomTitle(ctx context.Context, db *gorm.DB, roomId uuid.UUID, title string) error {
	if err := db.WithContext(ctx).Model(&ChatRoom{}).Where("id = ?", roomId).Update("title", title).Error; err != nil {
		slog.Error("error updating room title", "room_id", roomId, "error", err)
		return err
	}
	return nil
}

// IncrementKeywordScore bumps the popularity score for a keyword, creating
// the row with score 1 on first occurrence. The conditional upsert keeps the
// increment atomic under concurrent occurrences of the same keyword.
func IncrementKeywordScore(ctx context.Context, db *gorm.DB, keyword string) error {
	rank := KeywordRank{Keyword: keyword, Score: 1, UpdatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "keyword"}},
		DoUpdates: clause.Assignments(map[string]any{
			"score":      gorm.Expr("score + 1"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&rank).Error; err != nil {
		slog.Error("error incrementing keyword score", "keyword", keyword, "error", err)
		return err
	}
	return nil
}

func TopKeywordRanks(ctx context.Context, db *gorm.DB, limit int) ([]KeywordRank, error) {
	var ranks []KeywordRank
	err := db.WithContext(ctx).Order("score DESC").Limit(limit).Find(&ranks).Error
	return ranks, err
}
