package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"spur-chat-go/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
)

// TranscriptCache 缓存会话的完整消息记录。
// 缓存键包含会话的 updated_at，每次追加消息都会产生新键，旧条目只会自然过期。
type TranscriptCache interface {
	Get(ctx context.Context, conv *model.Conversation) ([]model.Message, bool, error)
	Set(ctx context.Context, conv *model.Conversation, messages []model.Message) error
}

type redisTranscriptCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewTranscriptCache 创建一个基于 Redis 的 TranscriptCache。
func NewTranscriptCache(redisClient *redis.Client, ttl time.Duration) TranscriptCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisTranscriptCache{redisClient: redisClient, ttl: ttl}
}

// TranscriptKey 返回会话当前版本对应的缓存键。
func TranscriptKey(conv *model.Conversation) string {
	return fmt.Sprintf("conversation:%s:transcript:%d", conv.ID, conv.UpdatedAt.UnixMilli())
}

// Get 从 Redis 读取消息记录，未命中时返回 ok=false。
func (c *redisTranscriptCache) Get(ctx context.Context, conv *model.Conversation) ([]model.Message, bool, error) {
	jsonData, err := c.redisClient.Get(ctx, TranscriptKey(conv)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get transcript: %w", err)
	}
	var messages []model.Message
	if err := json.Unmarshal(jsonData, &messages); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, true, nil
}

// Set 将消息记录写入 Redis。
func (c *redisTranscriptCache) Set(ctx context.Context, conv *model.Conversation, messages []model.Message) error {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	if err := c.redisClient.Set(ctx, TranscriptKey(conv), jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set transcript: %w", err)
	}
	return nil
}
