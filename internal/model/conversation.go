// Package model 包含了应用的数据模型定义。
package model

import "time"

// Sender 标识消息的发送方，只有 user 和 ai 两种取值。
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Valid 判断 sender 是否为合法取值。
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// Conversation 代表一个会话，ID 即客户端持有的 sessionId。
type Conversation struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	Messages  []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message 代表会话中的单条消息，按 CreatedAt 升序构成完整的对话记录。
type Message struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConversationID string    `gorm:"type:varchar(36);not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	Sender         Sender    `gorm:"type:varchar(8);not null" json:"sender"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_conversation_created,priority:2" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
