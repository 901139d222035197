// Package kafka 提供了向 Kafka 发布对话事件的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"spur-chat-go/internal/config"
	"spur-chat-go/pkg/events"
	"spur-chat-go/pkg/log"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Publisher 发布对话交换事件。
type Publisher interface {
	PublishExchange(ctx context.Context, event events.ExchangeEvent) error
	Close() error
}

// messageWriter 是 *kafka.Writer 中被使用到的部分。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type producer struct {
	writer messageWriter
}

// NewPublisher 根据配置创建 Publisher。未配置 brokers 时返回空实现。
func NewPublisher(cfg config.KafkaConfig) Publisher {
	brokers := splitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		log.Info("未配置 Kafka brokers，对话事件发布已禁用")
		return NopPublisher{}
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
		// 异步写入，不阻塞请求链路；失败通过 Completion 回调记录
		Async: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Errorw("发布对话事件失败", "count", len(messages), "error", err)
			}
		},
	}
	log.Infof("Kafka 生产者初始化成功, topic=%s", cfg.Topic)
	return &producer{writer: writer}
}

func newProducer(w messageWriter) Publisher {
	return &producer{writer: w}
}

// PublishExchange 将事件编码为 JSON，以会话 ID 作为消息 key 发送。
func (p *producer) PublishExchange(ctx context.Context, event events.ExchangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ConversationID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write exchange event: %w", err)
	}
	return nil
}

func (p *producer) Close() error {
	return p.writer.Close()
}

// NopPublisher 丢弃所有事件。
type NopPublisher struct{}

func (NopPublisher) PublishExchange(context.Context, events.ExchangeEvent) error { return nil }
func (NopPublisher) Close() error                                                  { return nil }

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
