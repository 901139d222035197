package repository

import (
	"context"
	"testing"
	"time"

	"spur-chat-go/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (TranscriptCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTranscriptCache(client, ttl), mr
}

func testConversation(updatedAt time.Time) *model.Conversation {
	return &model.Conversation{ID: "conv-1", CreatedAt: updatedAt, UpdatedAt: updatedAt}
}

func TestTranscriptCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	messages, ok, err := cache.Get(context.Background(), testConversation(time.Now().UTC()))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, messages)
}

func TestTranscriptCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t, 5*time.Minute)
	created := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	conv := testConversation(created.Add(time.Millisecond))

	want := []model.Message{
		{ID: "m1", ConversationID: conv.ID, Sender: model.SenderUser, Text: "Hi", CreatedAt: created},
		{ID: "m2", ConversationID: conv.ID, Sender: model.SenderAI, Text: "Hello!", CreatedAt: created.Add(time.Millisecond)},
	}
	require.NoError(t, cache.Set(ctx, conv, want))

	key := TranscriptKey(conv)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 5*time.Minute, mr.TTL(key))

	got, ok, err := cache.Get(ctx, conv)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Sender, got[i].Sender)
		assert.Equal(t, want[i].Text, got[i].Text)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt), "created_at %v != %v", want[i].CreatedAt, got[i].CreatedAt)
	}
}

func TestTranscriptCacheEmptyTranscript(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t, time.Minute)
	conv := testConversation(time.Now().UTC())

	require.NoError(t, cache.Set(ctx, conv, []model.Message{}))

	got, ok, err := cache.Get(ctx, conv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTranscriptCacheNewVersionMisses(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t, time.Minute)
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, cache.Set(ctx, testConversation(ts), []model.Message{{ID: "m1", Text: "Hi"}}))

	_, ok, err := cache.Get(ctx, testConversation(ts.Add(time.Millisecond)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTranscriptCacheDefaultTTL(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	conv := testConversation(time.Now().UTC())

	require.NoError(t, cache.Set(context.Background(), conv, []model.Message{}))
	assert.Equal(t, 10*time.Minute, mr.TTL(TranscriptKey(conv)))
}
