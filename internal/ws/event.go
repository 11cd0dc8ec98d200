package ws

import (
	"time"

	"github.com/google/uuid"
)

// 入站意图的统一外壳，type 决定哪些字段有效。
type Intent struct {
	Type             string     `json:"type"`
	GroupID          uuid.UUID  `json:"group_id"`
	Content          *string    `json:"content"`
	MessageType      string     `json:"message_type"`
	FileAttachmentID *uuid.UUID `json:"file_attachment_id"`
	IsTyping         *bool      `json:"is_typing"`
}

const (
	IntentChatMessage = "chat_message"
	IntentTyping      = "typing"
	IntentJoinRoom    = "join_room"
)

type SenderInfo struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarColor string    `json:"avatar_color"`
}

type AttachmentInfo struct {
	ID               uuid.UUID `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
}

// ChatMessageEvent 携带渲染一条消息所需的全部信息，客户端无需再查询。
type ChatMessageEvent struct {
	Type           string          `json:"type"`
	ID             uuid.UUID       `json:"id"`
	GroupID        uuid.UUID       `json:"group_id"`
	SenderID       uuid.UUID       `json:"sender_id"`
	Sender         *SenderInfo     `json:"sender"`
	Content        *string         `json:"content"`
	MessageType    string          `json:"message_type"`
	CreatedAt      time.Time       `json:"created_at"`
	FileAttachment *AttachmentInfo `json:"file_attachment"`
}

type TypingEvent struct {
	Type     string    `json:"type"`
	GroupID  uuid.UUID `json:"group_id"`
	UserID   uuid.UUID `json:"user_id"`
	IsTyping bool      `json:"is_typing"`
}

type UserStatusEvent struct {
	Type     string    `json:"type"`
	UserID   uuid.UUID `json:"user_id"`
	IsOnline bool      `json:"is_online"`
}
