package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TurnRoleUser      string = "USER"
	TurnRoleAssistant string = "ASSISTANT"
)

type Member struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Name      string
	CreatedAt time.Time

	Rooms []ChatRoom `gorm:"foreignKey:MemberId;constraint:OnDelete:CASCADE"`
}

type ChatRoom struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	MemberId uuid.UUID `gorm:"type:uuid;index;not null"`
	Member   *Member   `gorm:"foreignKey:MemberId"`

	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Turns []ChatTurn `gorm:"foreignKey:RoomId;constraint:OnDelete:CASCADE"`
}

// ChatTurn is one message of the permanent transcript. Turns are never
// updated after creation; citations are attached to USER turns only.
type ChatTurn struct {
	ID     uint      `gorm:"primaryKey"`
	RoomId uuid.UUID `gorm:"type:uuid;index;not null"`
	Role   string    `gorm:"size:20;not null"` // USER or ASSISTANT

	Message   string `gorm:"type:text"`
	CreatedAt time.Time

	Precedents []PrecedentCitation `gorm:"foreignKey:TurnId;constraint:OnDelete:CASCADE"`
	Laws       []LawCitation       `gorm:"foreignKey:TurnId;constraint:OnDelete:CASCADE"`
}

type PrecedentCitation struct {
	ID     uint `gorm:"primaryKey"`
	TurnId uint `gorm:"index;not null"`

	Content    string `gorm:"type:text"`
	CaseNumber string
	CaseName   string
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
}

type LawCitation struct {
	ID     uint `gorm:"primaryKey"`
	TurnId uint `gorm:"index;not null"`

	Content  string `gorm:"type:text"`
	LawName  string
	Metadata datatypes.JSON `gorm:"type:jsonb"`
}

// MemoryEntry is one slot of the rolling conversation window. Entries are a
// projection of the transcript and are pruned independently of ChatTurn, so
// they must never be read as the system of record.
type MemoryEntry struct {
	ID        uint      `gorm:"primaryKey"`
	RoomId    uuid.UUID `gorm:"type:uuid;index;not null"`
	Role      string    `gorm:"size:20;not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time
}

type KeywordRank struct {
	ID        uint   `gorm:"primaryKey"`
	Keyword   string `gorm:"uniqueIndex;not null"`
	Score     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
