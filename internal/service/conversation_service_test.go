package service

import (
	"context"
	"errors"
	"testing"

	"spur-chat-go/internal/model"
	"spur-chat-go/internal/repository"
	"spur-chat-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	entries map[string][]model.Message
	gets    int
	hits    int
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]model.Message{}}
}

func (c *memoryCache) Get(_ context.Context, conv *model.Conversation) ([]model.Message, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	m, ok := c.entries[repository.TranscriptKey(conv)]
	if ok {
		c.hits++
	}
	return m, ok, nil
}

func (c *memoryCache) Set(_ context.Context, conv *model.Conversation, messages []model.Message) error {
	c.entries[repository.TranscriptKey(conv)] = messages
	return nil
}

func TestGetHistoryUnknownSession(t *testing.T) {
	repo := repository.NewConversationRepository(testutil.DB(t))
	svc := NewConversationService(repo, nil)

	messages, err := svc.GetHistory(context.Background(), "nope")
	assert.Nil(t, messages)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestGetHistoryEmptyConversation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepository(testutil.DB(t))
	svc := NewConversationService(repo, nil)

	id, err := repo.CreateConversation(ctx)
	require.NoError(t, err)

	messages, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestGetHistoryUsesVersionedCache(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepository(testutil.DB(t))
	cache := newMemoryCache()
	svc := NewConversationService(repo, cache)

	id, err := repo.CreateConversation(ctx)
	require.NoError(t, err)
	_, err = repo.CreateMessage(ctx, id, model.SenderUser, "one")
	require.NoError(t, err)

	first, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 0, cache.hits)

	second, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, cache.hits)

	// 追加消息后 updated_at 变化，旧缓存不再命中
	_, err = repo.CreateMessage(ctx, id, model.SenderAI, "two")
	require.NoError(t, err)

	third, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, third, 2)
	assert.Equal(t, 1, cache.hits)
	assert.Len(t, cache.entries, 2)
}

func TestGetHistoryFallsBackWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepository(testutil.DB(t))
	cache := newMemoryCache()
	cache.getErr = errors.New("redis unavailable")
	svc := NewConversationService(repo, cache)

	id, err := repo.CreateConversation(ctx)
	require.NoError(t, err)
	_, err = repo.CreateMessage(ctx, id, model.SenderUser, "one")
	require.NoError(t, err)

	messages, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, 1, cache.gets)
}
