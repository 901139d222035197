package service

import (
	"context"
	"spur-chat-go/internal/model"
	"spur-chat-go/internal/repository"
	"spur-chat-go/pkg/log"
)

// ConversationService 定义了对话历史查询的接口。
type ConversationService interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Message, error)
}

type conversationService struct {
	repo  repository.ConversationRepository
	cache repository.TranscriptCache
}

// NewConversationService 创建一个新的 ConversationService。cache 为 nil 时直接读库。
func NewConversationService(repo repository.ConversationRepository, cache repository.TranscriptCache) ConversationService {
	return &conversationService{repo: repo, cache: cache}
}

// GetHistory 返回会话的完整消息记录，会话不存在时返回 ErrConversationNotFound。
func (s *conversationService) GetHistory(ctx context.Context, sessionID string) ([]model.Message, error) {
	conv, err := s.repo.GetConversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	if s.cache != nil {
		messages, ok, err := s.cache.Get(ctx, conv)
		if err != nil {
			log.Warnf("读取对话记录缓存失败，回退到数据库: %v", err)
		} else if ok {
			return messages, nil
		}
	}

	messages, err := s.repo.GetConversationMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, conv, messages); err != nil {
			log.Warnf("写入对话记录缓存失败: %v", err)
		}
	}
	return messages, nil
}
