// Package events defines the payloads published to Kafka.
package events

import "time"

// ExchangeEvent is emitted once per completed user/ai exchange.
type ExchangeEvent struct {
	ConversationID  string    `json:"conversation_id"`
	UserMessageID   string    `json:"user_message_id"`
	AIMessageID     string    `json:"ai_message_id"`
	NewConversation bool      `json:"new_conversation"`
	Degraded        bool      `json:"degraded"`
	ErrorKind       string    `json:"error_kind,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
