// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Widget   WidgetConfig   `mapstructure:"widget"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	Name        string   `mapstructure:"name"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	// Driver 取值 mysql / postgres / sqlite
	Driver       string      `mapstructure:"driver"`
	DSN          string      `mapstructure:"dsn"`
	MaxIdleConns int         `mapstructure:"max_idle_conns"`
	MaxOpenConns int         `mapstructure:"max_open_conns"`
	Redis        RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时不启用对话记录缓存。
type RedisConfig struct {
	Addr          string        `mapstructure:"addr"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	TranscriptTTL time.Duration `mapstructure:"transcript_ttl"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。Brokers 为空时不发布对话事件。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey         string              `mapstructure:"api_key"`
	BaseURL        string              `mapstructure:"base_url"`
	Model          string              `mapstructure:"model"`
	Timeout        time.Duration       `mapstructure:"timeout"`
	MaxConcurrency int                 `mapstructure:"max_concurrency"`
	Generation     LLMGenerationConfig `mapstructure:"generation"`
	Prompt         LLMPromptConfig     `mapstructure:"prompt"`
}

// LLMGenerationConfig 配置生成相关参数。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMPromptConfig 配置系统提示词与兜底回复（可选，留空使用内置文本）。
type LLMPromptConfig struct {
	System       string `mapstructure:"system"`
	FallbackText string `mapstructure:"fallback_text"`
}

// WidgetConfig 是终端聊天客户端使用的配置。
type WidgetConfig struct {
	APIURL      string `mapstructure:"api_url"`
	SessionFile string `mapstructure:"session_file"`
}

// 与原部署方式保持一致的环境变量别名
var envAliases = map[string][]string{
	"server.port":    {"PORT"},
	"database.dsn":   {"DATABASE_URL"},
	"llm.api_key":    {"LLM_API_KEY", "GROQ_API_KEY"},
	"widget.api_url": {"CHAT_API_URL", "REACT_APP_API_URL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.name", "Spur Chat API")
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.redis.addr", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.transcript_ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "chat-exchanges")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.max_concurrency", 8)
	v.SetDefault("llm.generation.temperature", 0.7)
	v.SetDefault("llm.generation.top_p", 1.0)
	v.SetDefault("llm.generation.max_tokens", 500)
	v.SetDefault("llm.prompt.system", "")
	v.SetDefault("llm.prompt.fallback_text", "")

	v.SetDefault("widget.api_url", "http://localhost:3000/api")
	v.SetDefault("widget.session_file", "")
}

// Load 读取指定路径的 YAML 文件并叠加环境变量。
// 配置文件不存在时仅使用默认值和环境变量。
func Load(configPath string) (Config, error) {
	var cfg Config

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return cfg, fmt.Errorf("绑定环境变量失败 %s: %w", key, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return cfg, fmt.Errorf("读取配置文件失败: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return cfg, nil
}

// Init 初始化配置加载，结果写入全局 Conf，失败时 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
