package chat

import (
	"context"

	"lawchat-backend/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMemoryLimit caps the rolling window handed to the model. User and
// assistant entries count toward the same bound.
const DefaultMemoryLimit = 10

// MemoryWindow is the bounded per-room conversation memory. It is a
// projection of the transcript: entries beyond the limit are evicted oldest
// first without touching the permanent ChatTurn records.
type MemoryWindow struct {
	db    *gorm.DB
	limit int
}

func NewMemoryWindow(db *gorm.DB) *MemoryWindow {
	return &MemoryWindow{db: db, limit: DefaultMemoryLimit}
}

func (m *MemoryWindow) Append(ctx context.Context, roomId uuid.UUID, role, content string) error {
	entry := database.MemoryEntry{RoomId: roomId, Role: role, Content: content}
	if err := m.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	keep := m.db.Model(&database.MemoryEntry{}).
		Select("id").
		Where("room_id = ?", roomId).
		Order("id DESC").
		Limit(m.limit)

	return m.db.WithContext(ctx).
		Where("room_id = ? AND id NOT IN (?)", roomId, keep).
		Delete(&database.MemoryEntry{}).Error
}

// Read returns the window in chronological order. An unknown room yields an
// empty slice, not an error.
func (m *MemoryWindow) Read(ctx context.Context, roomId uuid.UUID) ([]database.MemoryEntry, error) {
	var entries []database.MemoryEntry
	err := m.db.WithContext(ctx).Where("room_id = ?", roomId).Order("id ASC").Find(&entries).Error
	return entries, err
}
