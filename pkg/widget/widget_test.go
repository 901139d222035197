package widget

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"spur-chat-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	sendResp   *SendResponse
	sendErr    error
	history    []model.Message
	historyErr error

	sentMessage string
	sentSession string
	sends       int
	block       chan struct{}
}

func (f *fakeAPI) SendMessage(_ context.Context, message, sessionID string) (*SendResponse, error) {
	f.sends++
	f.sentMessage = message
	f.sentSession = sessionID
	if f.block != nil {
		<-f.block
	}
	return f.sendResp, f.sendErr
}

func (f *fakeAPI) GetHistory(context.Context, string) ([]model.Message, error) {
	return f.history, f.historyErr
}

func TestSendCommits(t *testing.T) {
	api := &fakeAPI{sendResp: &SendResponse{Reply: "Hello!", SessionID: "s-1"}}
	store := &MemorySessionStore{}
	w := New(api, store)

	w.SetInput("  Hi  ")
	require.True(t, w.Send(context.Background()))

	snap := w.Snapshot()
	assert.Equal(t, StateCommitted, snap.State)
	assert.Equal(t, "s-1", snap.SessionID)
	assert.Empty(t, snap.Input)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Loading)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, model.SenderUser, snap.Messages[0].Sender)
	assert.Equal(t, "Hi", snap.Messages[0].Text)
	assert.Equal(t, model.SenderAI, snap.Messages[1].Sender)
	assert.Equal(t, "Hello!", snap.Messages[1].Text)

	assert.Equal(t, "Hi", api.sentMessage)
	assert.Empty(t, api.sentSession)
	stored, _ := store.Load()
	assert.Equal(t, "s-1", stored)

	// 后续发送复用同一会话
	w.SetInput("again")
	require.True(t, w.Send(context.Background()))
	assert.Equal(t, "s-1", api.sentSession)
	assert.Len(t, w.Snapshot().Messages, 4)
}

func TestSendRollsBack(t *testing.T) {
	api := &fakeAPI{sendErr: &APIError{StatusCode: http.StatusBadRequest, Message: "Message is too long (max 2000 characters)"}}
	w := New(api, nil)

	w.SetInput("hello")
	require.True(t, w.Send(context.Background()))

	snap := w.Snapshot()
	assert.Equal(t, StateRolledBack, snap.State)
	assert.Empty(t, snap.Messages)
	assert.Equal(t, "hello", snap.Input)
	assert.Equal(t, "Message is too long (max 2000 characters)", snap.Error)
	assert.Empty(t, snap.SessionID)
}

func TestSendRollbackUsesDefaultError(t *testing.T) {
	w := New(&fakeAPI{sendErr: errors.New("connection refused")}, nil)
	w.SetInput("hello")
	w.Send(context.Background())
	assert.Equal(t, DefaultSendError, w.Snapshot().Error)
}

func TestSendIgnoresBlankInput(t *testing.T) {
	api := &fakeAPI{}
	w := New(api, nil)
	w.SetInput("   ")
	assert.False(t, w.Send(context.Background()))
	assert.Zero(t, api.sends)
	assert.Equal(t, StateIdle, w.Snapshot().State)
}

func TestSendIgnoredWhileInFlight(t *testing.T) {
	api := &fakeAPI{sendResp: &SendResponse{Reply: "ok", SessionID: "s-1"}, block: make(chan struct{})}
	w := New(api, nil)
	w.SetInput("first")

	done := make(chan bool)
	go func() { done <- w.Send(context.Background()) }()

	require.Eventually(t, func() bool { return w.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	snap := w.Snapshot()
	assert.Equal(t, StateSending, snap.State)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "first", snap.Messages[0].Text)

	w.SetInput("second")
	assert.False(t, w.Send(context.Background()))

	close(api.block)
	assert.True(t, <-done)
	assert.Equal(t, 1, api.sends)
	assert.Equal(t, "second", w.Snapshot().Input)
}

func TestRestoreLoadsHistory(t *testing.T) {
	store := &MemorySessionStore{}
	require.NoError(t, store.Save("s-1"))
	api := &fakeAPI{history: []model.Message{
		{ID: "m1", ConversationID: "s-1", Sender: model.SenderUser, Text: "Hi"},
		{ID: "m2", ConversationID: "s-1", Sender: model.SenderAI, Text: "Hello!"},
	}}
	w := New(api, store)

	w.Restore(context.Background())
	snap := w.Snapshot()
	assert.Equal(t, "s-1", snap.SessionID)
	assert.Len(t, snap.Messages, 2)
}

func TestRestoreFailureLeavesTranscriptEmpty(t *testing.T) {
	store := &MemorySessionStore{}
	require.NoError(t, store.Save("gone"))
	w := New(&fakeAPI{historyErr: &APIError{StatusCode: http.StatusNotFound, Message: "Conversation not found"}}, store)

	w.Restore(context.Background())
	snap := w.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.Error)
}

func TestNewChatResets(t *testing.T) {
	store := &MemorySessionStore{}
	api := &fakeAPI{sendResp: &SendResponse{Reply: "ok", SessionID: "s-1"}}
	w := New(api, store)
	w.SetInput("hi")
	w.Send(context.Background())
	w.QuickQuestion(SuggestedQuestions[0])

	w.NewChat()
	snap := w.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.SessionID)
	assert.Empty(t, snap.Input)
	assert.Equal(t, StateIdle, snap.State)
	stored, _ := store.Load()
	assert.Empty(t, stored)
}

func TestQuickQuestion(t *testing.T) {
	w := New(&fakeAPI{}, nil)
	w.QuickQuestion("Do you offer free shipping?")
	assert.Equal(t, "Do you offer free shipping?", w.Snapshot().Input)
}
