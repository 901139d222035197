// Package main 是应用程序的入口点。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"spur-chat-go/internal/config"
	"spur-chat-go/internal/repository"
	"spur-chat-go/internal/server"
	"spur-chat-go/internal/service"
	"spur-chat-go/pkg/database"
	"spur-chat-go/pkg/kafka"
	"spur-chat-go/pkg/llm"
	"spur-chat-go/pkg/log"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "./configs/config.yaml"), "配置文件路径")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	if cfg.LLM.APIKey == "" {
		log.Warnf("未配置 LLM API key，所有回复都将是降级回复")
	}

	// 3. 初始化数据库和 Redis
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("数据库连接失败", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("关闭数据库连接失败", err)
		}
	}()
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("数据库迁移失败", err)
	}

	var transcriptCache repository.TranscriptCache
	rdb, err := database.OpenRedis(cfg.Database.Redis)
	if err != nil {
		// 缓存不可用时直接读库
		log.Warnf("Redis 连接失败，对话记录缓存已禁用: %v", err)
	} else if rdb != nil {
		defer rdb.Close()
		transcriptCache = repository.NewTranscriptCache(rdb, cfg.Database.Redis.TranscriptTTL)
	}

	publisher := kafka.NewPublisher(cfg.Kafka)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("关闭 Kafka 生产者失败", err)
		}
	}()

	// 4. 初始化 Repository 和 Service
	conversationRepo := repository.NewConversationRepository(db)
	llmClient := llm.NewClient(cfg.LLM)
	chatService := service.NewChatService(conversationRepo, llmClient, publisher)
	conversationService := service.NewConversationService(conversationRepo, transcriptCache)

	// 5. 创建路由引擎
	r := server.NewRouter(server.Options{
		Mode:                cfg.Server.Mode,
		ServiceName:         cfg.Server.Name,
		CORSOrigins:         cfg.Server.CORSOrigins,
		ChatService:         chatService,
		ConversationService: conversationService,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 进行中的对话不受客户端断开影响，停机需等待它们完成后才能关闭数据库
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.LLM.Timeout))
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
		return
	}
	log.Info("服务已优雅关闭")
}

// shutdownTimeout 返回优雅停机的等待时间：模型调用超时再留 5 秒写库。
func shutdownTimeout(llmTimeout time.Duration) time.Duration {
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}
	return llmTimeout + 5*time.Second
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
