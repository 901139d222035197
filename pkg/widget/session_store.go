package widget

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SessionStore 保存当前会话 ID，供下次启动时恢复。
// Load 在没有保存的会话时返回空字符串。
type SessionStore interface {
	Load() (string, error)
	Save(sessionID string) error
	Clear() error
}

// FileSessionStore 将会话 ID 保存在单个文件中。
type FileSessionStore struct {
	path string
}

// NewFileSessionStore 创建一个基于文件的 SessionStore。
// path 为空时使用用户配置目录下的 spur-chat/session。
func NewFileSessionStore(path string) (*FileSessionStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user config dir: %w", err)
		}
		path = filepath.Join(dir, "spur-chat", "session")
	}
	return &FileSessionStore{path: path}, nil
}

func (s *FileSessionStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileSessionStore) Save(sessionID string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(sessionID), 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemorySessionStore 在内存中保存会话 ID，进程退出即丢失。
type MemorySessionStore struct {
	mu        sync.Mutex
	sessionID string
}

func (s *MemorySessionStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID, nil
}

func (s *MemorySessionStore) Save(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = sessionID
	return nil
}

func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = ""
	return nil
}
