package widget

import (
	"context"
	"errors"
	"spur-chat-go/internal/model"
	"spur-chat-go/pkg/log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSendError 是无法从后端拿到错误信息时展示的文本。
const DefaultSendError = "Failed to send message. Please try again."

// SuggestedQuestions 是欢迎界面提供的快捷问题。
var SuggestedQuestions = []string{
	"What's your return policy?",
	"Do you offer free shipping?",
	"What are your support hours?",
}

// SendState 描述最近一次发送所处的阶段。
type SendState int

const (
	StateIdle SendState = iota
	StateSending
	StateCommitted
	StateRolledBack
)

func (s SendState) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// Snapshot 是组件某一时刻的完整视图状态。
type Snapshot struct {
	Messages  []model.Message
	Input     string
	SessionID string
	Loading   bool
	Error     string
	State     SendState
}

// Widget 维护聊天界面的状态，所有方法都可以并发调用。
type Widget struct {
	api   APIClient
	store SessionStore

	mu        sync.Mutex
	messages  []model.Message
	input     string
	sessionID string
	loading   bool
	errMsg    string
	state     SendState
}

// New 创建一个新的 Widget。store 为 nil 时使用 MemorySessionStore。
func New(api APIClient, store SessionStore) *Widget {
	if store == nil {
		store = &MemorySessionStore{}
	}
	return &Widget{api: api, store: store, messages: []model.Message{}}
}

// Restore 读取保存的会话 ID 并加载其历史记录。
// 加载失败只记录日志，界面保持空白。
func (w *Widget) Restore(ctx context.Context) {
	sessionID, err := w.store.Load()
	if err != nil {
		log.Warnf("读取会话 ID 失败: %v", err)
		return
	}
	if sessionID == "" {
		return
	}

	w.mu.Lock()
	w.sessionID = sessionID
	w.mu.Unlock()

	messages, err := w.api.GetHistory(ctx, sessionID)
	if err != nil {
		log.Warnf("Failed to load history: %v", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// 加载期间可能已经开始了新对话
	if w.sessionID == sessionID {
		w.messages = messages
	}
}

// SetInput 设置输入框内容。
func (w *Widget) SetInput(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input = text
}

// QuickQuestion 将快捷问题填入输入框。
func (w *Widget) QuickQuestion(text string) {
	w.SetInput(text)
}

// Send 发送当前输入。输入为空或已有消息在发送中时什么都不做。
// 返回值表示是否真正发起了请求。
func (w *Widget) Send(ctx context.Context) bool {
	w.mu.Lock()
	text := strings.TrimSpace(w.input)
	if text == "" || w.loading {
		w.mu.Unlock()
		return false
	}

	tempID := "tmp-" + uuid.NewString()
	w.messages = append(w.messages, model.Message{
		ID:             tempID,
		ConversationID: w.sessionID,
		Sender:         model.SenderUser,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	})
	w.input = ""
	w.errMsg = ""
	w.loading = true
	w.state = StateSending
	sessionID := w.sessionID
	w.mu.Unlock()

	resp, err := w.api.SendMessage(ctx, text, sessionID)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false

	if err != nil {
		w.errMsg = sendErrorMessage(err)
		w.messages = removeMessage(w.messages, tempID)
		w.input = text
		w.state = StateRolledBack
		return true
	}

	if w.sessionID == "" {
		w.sessionID = resp.SessionID
		if err := w.store.Save(resp.SessionID); err != nil {
			log.Warnf("保存会话 ID 失败: %v", err)
		}
	}
	w.messages = append(w.messages, model.Message{
		ID:             "local-" + uuid.NewString(),
		ConversationID: resp.SessionID,
		Sender:         model.SenderAI,
		Text:           resp.Reply,
		CreatedAt:      time.Now().UTC(),
	})
	w.state = StateCommitted
	return true
}

// NewChat 清空当前对话并删除保存的会话 ID。
func (w *Widget) NewChat() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = []model.Message{}
	w.sessionID = ""
	w.errMsg = ""
	w.input = ""
	w.state = StateIdle
	if err := w.store.Clear(); err != nil {
		log.Warnf("删除会话 ID 失败: %v", err)
	}
}

// Snapshot 返回当前状态的副本。
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Messages:  append([]model.Message(nil), w.messages...),
		Input:     w.input,
		SessionID: w.sessionID,
		Loading:   w.loading,
		Error:     w.errMsg,
		State:     w.state,
	}
}

func sendErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return DefaultSendError
}

func removeMessage(messages []model.Message, id string) []model.Message {
	out := messages[:0]
	for _, m := range messages {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
