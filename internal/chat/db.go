package chat

import (
	"context"
	"errors"
	"math"

	"lawchat-backend/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrRoomNotFound   = errors.New("chat room not found")
	ErrEmptyMessage   = errors.New("message must not be empty")
)

func GetMember(ctx context.Context, db *gorm.DB, memberId uuid.UUID) (database.Member, error) {
	var member database.Member
	err := db.WithContext(ctx).First(&member, "id = ?", memberId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return member, ErrMemberNotFound
	}
	return member, err
}

func CreateRoom(ctx context.Context, db *gorm.DB, memberId uuid.UUID) (database.ChatRoom, error) {
	room := database.ChatRoom{Id: uuid.New(), MemberId: memberId}
	err := db.WithContext(ctx).Create(&room).Error
	return room, err
}

// GetMemberRoom loads a room scoped to its owner. A room belonging to a
// different member is reported as not found rather than forbidden so room
// ids are not probeable.
func GetMemberRoom(ctx context.Context, db *gorm.DB, memberId, roomId uuid.UUID) (database.ChatRoom, error) {
	var room database.ChatRoom
	err := db.WithContext(ctx).First(&room, "id = ? AND member_id = ?", roomId, memberId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return room, ErrRoomNotFound
	}
	return room, err
}

func GetMemberRooms(ctx context.Context, db *gorm.DB, memberId uuid.UUID, limit, offset int) ([]database.ChatRoom, error) {
	var rooms []database.ChatRoom
	query := db.WithContext(ctx).Where("member_id = ?", memberId).Order("updated_at DESC")
	if limit <= 0 && offset > 0 {
		// sqlite only honors OFFSET when a LIMIT clause is present.
		limit = math.MaxInt32
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&rooms).Error
	return rooms, err
}

func GetRoomTurns(ctx context.Context, db *gorm.DB, roomId uuid.UUID) ([]database.ChatTurn, error) {
	var turns []database.ChatTurn
	err := db.WithContext(ctx).Where("room_id = ?", roomId).Order("id ASC").Find(&turns).Error
	return turns, err
}

// DeleteRoom removes a room along with its turns, citations, and memory
// window entries. Children are deleted explicitly so the cascade does not
// depend on foreign keys being enforced by the dialect.
func DeleteRoom(ctx context.Context, db *gorm.DB, roomId uuid.UUID) error {
	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		turnIds := txn.Model(&database.ChatTurn{}).Select("id").Where("room_id = ?", roomId)
		if err := txn.Where("turn_id IN (?)", turnIds).Delete(&database.PrecedentCitation{}).Error; err != nil {
			return err
		}
		if err := txn.Where("turn_id IN (?)", turnIds).Delete(&database.LawCitation{}).Error; err != nil {
			return err
		}
		if err := txn.Where("room_id = ?", roomId).Delete(&database.ChatTurn{}).Error; err != nil {
			return err
		}
		if err := txn.Where("room_id = ?", roomId).Delete(&database.MemoryEntry{}).Error; err != nil {
			return err
		}
		return txn.Delete(&database.ChatRoom{}, "id = ?", roomId).Error
	})
}
