// Package llm provides a client for the hosted chat-completion API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"spur-chat-go/internal/config"
	"spur-chat-go/internal/model"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// HistoryWindow 是每次请求携带的历史消息上限。
const HistoryWindow = 10

const (
	DefaultModel   = "llama-3.3-70b-versatile"
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultFallbackText 在接口没有返回可用文本时使用。
	DefaultFallbackText = "I apologize, but I could not generate a response. Please try again."
)

// StoreKnowledge 是默认的系统提示词。
const StoreKnowledge = `You are a helpful support agent for TechVibe Electronics, an e-commerce store.

STORE INFORMATION:
- Shipping Policy: Free shipping on orders over $50. Standard shipping takes 5-7 business days. Express shipping (2-3 days) available for $15.
- Return Policy: 30-day money-back guarantee. Items must be unused and in original packaging. Free return shipping for defective items.
- Support Hours: Monday-Friday 9 AM - 6 PM EST. Email support available 24/7 at support@techvibe.com
- Payment Methods: We accept Visa, Mastercard, American Express, PayPal, and Apple Pay.
- International Shipping: We ship to USA, Canada, UK, and EU countries. International shipping costs vary by location.

Answer customer questions clearly, concisely, and professionally. If you don't know something, direct them to contact support@techvibe.com.`

// Client defines the interface for an LLM client.
type Client interface {
	// GenerateReply 根据历史消息和新的用户消息生成回复。
	// 失败时返回 *Error。
	GenerateReply(ctx context.Context, history []model.Message, userMessage string) (string, error)
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatClient struct {
	cfg          config.LLMConfig
	client       *http.Client
	sem          *semaphore.Weighted
	systemPrompt string
	fallbackText string
}

// NewClient creates a new LLM client from config.
func NewClient(cfg config.LLMConfig) Client {
	return NewClientWithHTTP(cfg, &http.Client{})
}

// NewClientWithHTTP 使用指定的 http.Client 创建客户端，便于测试替换传输层。
func NewClientWithHTTP(cfg config.LLMConfig, httpClient *http.Client) Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	// 只有整组生成参数都未配置时才使用默认值，单个 0 值（如 temperature: 0）保持原样
	if cfg.Generation == (config.LLMGenerationConfig{}) {
		cfg.Generation = config.LLMGenerationConfig{Temperature: 0.7, TopP: 1, MaxTokens: 500}
	}

	systemPrompt := cfg.Prompt.System
	if systemPrompt == "" {
		systemPrompt = StoreKnowledge
	}
	fallback := cfg.Prompt.FallbackText
	if fallback == "" {
		fallback = DefaultFallbackText
	}

	return &chatClient{
		cfg:          cfg,
		client:       httpClient,
		sem:          semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		systemPrompt: systemPrompt,
		fallbackText: fallback,
	}
}

// BuildMessages 组装发送给模型的消息序列：
// system 提示词 + 最近 HistoryWindow 条历史 + 新的用户消息。
func BuildMessages(systemPrompt string, history []model.Message, userMessage string) []Message {
	recent := history
	if len(recent) > HistoryWindow {
		recent = recent[len(recent)-HistoryWindow:]
	}

	msgs := make([]Message, 0, len(recent)+2)
	msgs = append(msgs, Message{Role: "system", Content: systemPrompt})
	for _, m := range recent {
		msgs = append(msgs, Message{Role: roleFor(m.Sender), Content: m.Text})
	}
	msgs = append(msgs, Message{Role: "user", Content: userMessage})
	return msgs
}

func roleFor(sender model.Sender) string {
	if sender == model.SenderUser {
		return "user"
	}
	return "assistant"
}

// GenerateReply 调用 chat/completions 接口，返回第一个 choice 的文本。
func (c *chatClient) GenerateReply(ctx context.Context, history []model.Message, userMessage string) (string, error) {
	// 超时同时覆盖排队等待和请求本身
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", classifyTransportError(fmt.Errorf("waiting for completion slot: %w", err))
	}
	defer c.sem.Release(1)

	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    BuildMessages(c.systemPrompt, history, userMessage),
		Temperature: c.cfg.Generation.Temperature,
		TopP:        c.cfg.Generation.TopP,
		MaxTokens:   c.cfg.Generation.MaxTokens,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Kind: ErrorUnknown, Err: fmt.Errorf("failed to marshal chat request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", &Error{Kind: ErrorUnknown, Err: fmt.Errorf("failed to create chat request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportError(fmt.Errorf("failed to call chat api: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", classifyStatus(resp.StatusCode, string(bodyBytes))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", classifyTransportError(fmt.Errorf("failed to decode chat response: %w", err))
	}

	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return c.fallbackText, nil
	}
	return out.Choices[0].Message.Content, nil
}
