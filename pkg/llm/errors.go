package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind 是补全调用失败的分类，取值封闭。
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorAuthFailed
	ErrorRateLimited
	ErrorTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorAuthFailed:
		return "auth_failed"
	case ErrorRateLimited:
		return "rate_limited"
	case ErrorTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Message 返回面向用户的错误提示。
func (k ErrorKind) Message() string {
	switch k {
	case ErrorAuthFailed:
		return "API authentication failed. Please check your API key."
	case ErrorRateLimited:
		return "Rate limit exceeded. Please try again in a moment."
	case ErrorTimeout:
		return "Request timeout. Please try again."
	default:
		return "An error occurred while generating a response. Please try again later."
	}
}

// Error 是补全客户端返回的领域错误，Error() 的内容可以直接展示给用户。
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Kind.Message()
}

func (e *Error) Unwrap() error { return e.Err }

// Detail 返回包含底层原因的描述，仅用于日志。
func (e *Error) Detail() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status=%d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// classifyTransportError 将请求阶段的错误归类。
func classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrorTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: ErrorTimeout, Err: err}
	}
	return &Error{Kind: ErrorUnknown, Err: err}
}

// classifyStatus 将非 2xx 的 HTTP 状态码归类。
func classifyStatus(statusCode int, body string) *Error {
	err := fmt.Errorf("chat api returned status %d: %s", statusCode, body)
	switch statusCode {
	case 401:
		return &Error{Kind: ErrorAuthFailed, StatusCode: statusCode, Err: err}
	case 429:
		return &Error{Kind: ErrorRateLimited, StatusCode: statusCode, Err: err}
	default:
		return &Error{Kind: ErrorUnknown, StatusCode: statusCode, Err: err}
	}
}
