package ws

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Authenticator 将连接时携带的凭证映射为用户身份，签发与校验逻辑在外部。
type Authenticator func(token string) (uuid.UUID, error)

type UserProfile struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	AvatarColor string
}

type SaveMessageParams struct {
	GroupID          uuid.UUID
	SenderID         uuid.UUID
	Content          *string
	MessageType      string
	FileAttachmentID *uuid.UUID
}

// SavedMessage 是持久化协作方返回的消息规范记录。
type SavedMessage struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Attachment *AttachmentInfo
}

// Store 是会话协调器依赖的数据访问协作方。
type Store interface {
	UserByID(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	GroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	SaveMessage(ctx context.Context, p SaveMessageParams) (*SavedMessage, error)
	SetOnline(ctx context.Context, userID uuid.UUID) error
	SetOffline(ctx context.Context, userID uuid.UUID, lastSeen time.Time) error
}
