package database

import (
	"context"
	"fmt"
	"spur-chat-go/internal/config"
	"spur-chat-go/pkg/log"
	"time"

	"github.com/go-redis/redis/v8"
)

// OpenRedis 初始化 Redis 客户端连接。Addr 为空时返回 nil，表示不启用缓存。
func OpenRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis client connected successfully")
	return rdb, nil
}
