// Package widget 实现聊天组件的客户端逻辑：HTTP 接口调用、会话 ID 持久化以及消息发送状态机。
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"spur-chat-go/internal/model"
	"strings"
	"time"
)

// DefaultAPIURL 是未配置时使用的后端地址。
const DefaultAPIURL = "http://localhost:3000/api"

// APIError 表示后端返回的非 2xx 响应。
type APIError struct {
	StatusCode int
	// Message 取自响应体的 error 字段，可能为空
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat api returned status %d", e.StatusCode)
	}
	return e.Message
}

// SendResponse 对应 POST /chat/message 的成功响应。
type SendResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

type historyResponse struct {
	Messages []model.Message `json:"messages"`
}

type sendRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// APIClient 封装了聊天后端的两个接口。
type APIClient interface {
	SendMessage(ctx context.Context, message, sessionID string) (*SendResponse, error)
	GetHistory(ctx context.Context, sessionID string) ([]model.Message, error)
}

type httpAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient 创建一个新的 APIClient。httpClient 为 nil 时使用带超时的默认客户端。
func NewAPIClient(baseURL string, httpClient *http.Client) APIClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &httpAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SendMessage 发送一条消息，sessionID 为空时由后端创建新会话。
func (c *httpAPIClient) SendMessage(ctx context.Context, message, sessionID string) (*SendResponse, error) {
	body, err := json.Marshal(sendRequest{Message: message, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/message", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out SendResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHistory 获取会话的全部消息。
func (c *httpAPIClient) GetHistory(ctx context.Context, sessionID string) ([]model.Message, error) {
	endpoint := c.baseURL + "/chat/history/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var out historyResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.Messages == nil {
		out.Messages = []model.Message{}
	}
	return out.Messages, nil
}

func (c *httpAPIClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
