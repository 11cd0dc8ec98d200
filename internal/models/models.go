package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	DisplayName  string    `gorm:"size:100;not null"`
	AvatarColor  string    `gorm:"size:7;default:'#3B82F6'"`
	IsOnline     bool      `gorm:"default:false"`
	LastSeen     *time.Time
	CreatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Group struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"size:100;not null"`
	Description string     `gorm:"size:500"`
	IsGlobal    bool       `gorm:"default:false"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type GroupMember struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID  uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_group_user;not null"`
	UserID   uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_group_user;index;not null"`
	JoinedAt time.Time
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	return nil
}

type Message struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	GroupID     uuid.UUID  `gorm:"type:uuid;index:idx_msg_group_id;not null"`
	SenderID    *uuid.UUID `gorm:"type:uuid;index"`
	Content     *string    `gorm:"type:text"`
	MessageType string     `gorm:"size:20;not null;default:text"`
	CreatedAt   time.Time  `gorm:"index"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type FileAttachment struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	MessageID        *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	OriginalFilename string     `gorm:"size:255;not null"`
	StoredFilename   string     `gorm:"size:255;not null"`
	FileSize         int64      `gorm:"not null"`
	MimeType         string     `gorm:"size:100;not null"`
	CreatedAt        time.Time
}

func (f *FileAttachment) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
