package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boltayevjahongir/local-chat/internal/models"
	"github.com/boltayevjahongir/local-chat/internal/ws"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrGroupNotFound = errors.New("group not found")
)

// Store 封装会话协调器依赖的数据访问，是核心之外的薄协作层。
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UserByID(ctx context.Context, userID uuid.UUID) (*ws.UserProfile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &ws.UserProfile{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarColor: user.AvatarColor,
	}, nil
}

// GroupIDs 返回用户的群组成员关系，全局群组对所有用户可见。
func (s *Store) GroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	var globalIDs []uuid.UUID
	err = s.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("is_global = ?", true).
		Pluck("id", &globalIDs).Error
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range globalIDs {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SaveMessage 在单个事务内落库消息，并把已上传的附件挂到新消息上，
// 返回广播所需的规范记录。
func (s *Store) SaveMessage(ctx context.Context, p ws.SaveMessageParams) (*ws.SavedMessage, error) {
	var saved ws.SavedMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		senderID := p.SenderID
		msg := models.Message{
			GroupID:     p.GroupID,
			SenderID:    &senderID,
			Content:     p.Content,
			MessageType: p.MessageType,
		}
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now().UTC()
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		saved.ID = msg.ID
		saved.CreatedAt = msg.CreatedAt

		if p.FileAttachmentID != nil {
			var att models.FileAttachment
			if err := tx.First(&att, "id = ?", *p.FileAttachmentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// 附件 id 无效不阻断消息本身。
					return nil
				}
				return err
			}
			if err := tx.Model(&att).Update("message_id", msg.ID).Error; err != nil {
				return err
			}
			saved.Attachment = &ws.AttachmentInfo{
				ID:               att.ID,
				OriginalFilename: att.OriginalFilename,
				FileSize:         att.FileSize,
				MimeType:         att.MimeType,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *Store) SetOnline(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_online", true).Error
}

// SetOffline 记录下线与 last_seen，这是唯一进入持久层的在线状态。
func (s *Store) SetOffline(ctx context.Context, userID uuid.UUID, lastSeen time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"is_online": false, "last_seen": lastSeen}).Error
}
