// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"spur-chat-go/internal/model"
	"spur-chat-go/internal/repository"
	"spur-chat-go/pkg/events"
	"spur-chat-go/pkg/kafka"
	"spur-chat-go/pkg/llm"
	"spur-chat-go/pkg/log"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxMessageLength 是用户消息去除首尾空白后的最大字符数。
const MaxMessageLength = 2000

// DegradedReplyPrefix 是模型调用失败时降级回复的前缀。
const DegradedReplyPrefix = "I apologize, but I'm experiencing technical difficulties. "

var (
	ErrMessageRequired = errors.New("Message must be a non-empty string")
	ErrMessageEmpty    = errors.New("Message cannot be empty")
	ErrMessageTooLong  = fmt.Errorf("Message is too long (max %d characters)", MaxMessageLength)
	// ErrConversationNotFound 表示客户端提供的 sessionId 不存在。
	ErrConversationNotFound = errors.New("Conversation not found")
)

// IsValidationError 判断错误是否属于消息校验失败。
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMessageRequired) || errors.Is(err, ErrMessageEmpty) || errors.Is(err, ErrMessageTooLong)
}

// ValidateMessage 校验用户消息并返回去除首尾空白后的文本。
// message 为 nil 表示请求中缺少该字段或类型不是字符串。
func ValidateMessage(message *string) (string, error) {
	if message == nil || *message == "" {
		return "", ErrMessageRequired
	}
	trimmed := trimMessage(*message)
	if trimmed == "" {
		return "", ErrMessageEmpty
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}

// trimMessage 去除首尾空白，U+FEFF 也视为空白。
func trimMessage(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// SendResult 是一次消息交换的结果。
type SendResult struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

// ChatService 定义了聊天操作的接口。
type ChatService interface {
	SendMessage(ctx context.Context, message *string, sessionID string) (*SendResult, error)
}

type chatService struct {
	conversationRepo repository.ConversationRepository
	llmClient        llm.Client
	publisher        kafka.Publisher
}

// NewChatService 创建一个新的 ChatService 实例。publisher 可以为 nil。
func NewChatService(conversationRepo repository.ConversationRepository, llmClient llm.Client, publisher kafka.Publisher) ChatService {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &chatService{
		conversationRepo: conversationRepo,
		llmClient:        llmClient,
		publisher:        publisher,
	}
}

// SendMessage 完成一次用户消息到 AI 回复的交换：
// 校验 -> 解析会话 -> 保存用户消息 -> 加载历史 -> 调用模型 -> 保存 AI 回复。
// 模型调用失败不会中断流程，而是以降级回复代替。
func (s *chatService) SendMessage(ctx context.Context, message *string, sessionID string) (*SendResult, error) {
	text, err := ValidateMessage(message)
	if err != nil {
		return nil, err
	}

	// 客户端断开连接后仍然完成整个流程，保证对话记录完整
	ctx = context.WithoutCancel(ctx)

	conversationID, created, err := s.resolveConversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.conversationRepo.CreateMessage(ctx, conversationID, model.SenderUser, text)
	if err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	history, err := s.conversationRepo.GetConversationMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	var errorKind string
	reply, err := s.llmClient.GenerateReply(ctx, history, text)
	if err != nil {
		var llmErr *llm.Error
		if !errors.As(err, &llmErr) {
			llmErr = &llm.Error{Kind: llm.ErrorUnknown, Err: err}
		}
		errorKind = llmErr.Kind.String()
		switch llmErr.Kind {
		case llm.ErrorAuthFailed:
			log.Errorw("LLM 认证失败，请检查 API key", "conversationId", conversationID, "detail", llmErr.Detail())
		default:
			log.Warnw("LLM 调用失败，使用降级回复", "conversationId", conversationID, "kind", errorKind, "detail", llmErr.Detail())
		}
		reply = DegradedReplyPrefix + llmErr.Error()
	}

	aiMsg, err := s.conversationRepo.CreateMessage(ctx, conversationID, model.SenderAI, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to save ai message: %w", err)
	}

	event := events.ExchangeEvent{
		ConversationID:  conversationID,
		UserMessageID:   userMsg.ID,
		AIMessageID:     aiMsg.ID,
		NewConversation: created,
		Degraded:        errorKind != "",
		ErrorKind:       errorKind,
		OccurredAt:      time.Now().UTC(),
	}
	if err := s.publisher.PublishExchange(ctx, event); err != nil {
		// 只记录错误，事件发布失败不影响回复
		log.Errorf("Failed to publish exchange event: %v", err)
	}

	return &SendResult{Reply: reply, SessionID: conversationID}, nil
}

// resolveConversation 返回本次请求使用的会话 ID。
// 未提供 sessionID 时创建新会话；提供了但不存在时返回 ErrConversationNotFound。
func (s *chatService) resolveConversation(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		id, err := s.conversationRepo.CreateConversation(ctx)
		if err != nil {
			return "", false, err
		}
		return id, true, nil
	}

	conv, err := s.conversationRepo.GetConversation(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	if conv == nil {
		return "", false, ErrConversationNotFound
	}
	return conv.ID, false, nil
}
