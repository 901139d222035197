// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"errors"
	"fmt"
	"spur-chat-go/internal/model"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrConversationNotFound 表示追加消息时目标会话不存在。
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository 定义了会话与消息的持久化操作。
type ConversationRepository interface {
	CreateConversation(ctx context.Context) (string, error)
	// GetConversation 在会话不存在时返回 (nil, nil)。
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	CreateMessage(ctx context.Context, conversationID string, sender model.Sender, text string) (*model.Message, error)
	GetConversationMessages(ctx context.Context, conversationID string) ([]model.Message, error)
}

// conversationRepository 是 ConversationRepository 接口的 GORM 实现。
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// CreateConversation 生成新的会话 ID 并插入记录。
func (r *conversationRepository) CreateConversation(ctx context.Context) (string, error) {
	ts := now()
	conv := model.Conversation{
		ID:        uuid.NewString(),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv.ID, nil
}

// GetConversation 根据 ID 查找会话。
func (r *conversationRepository) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// CreateMessage 在同一事务内插入消息并刷新会话的 updated_at。
// 会话行加锁后，消息的 created_at 严格大于会话当前的 updated_at，
// 同一会话内的消息因此全序且 updated_at 单调递增。
func (r *conversationRepository) CreateMessage(ctx context.Context, conversationID string, sender model.Sender, text string) (*model.Message, error) {
	if !sender.Valid() {
		return nil, fmt.Errorf("invalid sender %q", sender)
	}

	var msg model.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", conversationID).
			First(&conv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock conversation: %w", err)
		}

		ts := now()
		if !ts.After(conv.UpdatedAt) {
			ts = conv.UpdatedAt.UTC().Add(time.Millisecond)
		}

		msg = model.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			Sender:         sender,
			Text:           text,
			CreatedAt:      ts,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		err = tx.Model(&model.Conversation{}).
			Where("id = ?", conversationID).
			UpdateColumn("updated_at", ts).Error
		if err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetConversationMessages 按 created_at 升序返回会话的全部消息。
// 会话不存在或没有消息时返回空切片。
func (r *conversationRepository) GetConversationMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	messages := []model.Message{}
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation messages: %w", err)
	}
	return messages, nil
}
