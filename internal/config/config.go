package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port               int              `json:"port"`
	AdminSecret        string           `json:"admin_secret"`
	AdminTokenTTLHours int              `json:"admin_token_ttl_hours"`
	LogConfig          logger.LogConfig `json:"log_config"`
	Database           DatabaseConfig   `json:"database"`
	Telegram           TelegramConfig   `json:"telegram"`
	AI                 AIConfig         `json:"ai"`
	Bot                BotConfig        `json:"bot"`
	PromptStore        FileStoreConfig  `json:"prompt_store"`
	Schedule           ScheduleConfig   `json:"schedule"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type TelegramConfig struct {
	Token       string `json:"token"`
	WebhookURL  string `json:"webhook_url"`
	SecretToken string `json:"secret_token"`
}

type ProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Chat                   ProviderConfig `json:"chat"`
	Embedding              ProviderConfig `json:"embedding"`
	EmbeddingDimension     int            `json:"embedding_dimension"`
	GenerateTimeoutSeconds int            `json:"generate_timeout_seconds"`
	EmbedTimeoutSeconds    int            `json:"embed_timeout_seconds"`
	EmbedCacheSize         int            `json:"embed_cache_size"`
	EmbedCacheTTLMinutes   int            `json:"embed_cache_ttl_minutes"`
}

type BotConfig struct {
	SharedScopeID     string `json:"shared_scope_id"`
	PromptTemplateKey string `json:"prompt_template_key"`
	RetrieveLimit     int    `json:"retrieve_limit"`
	HistoryLimit      int    `json:"history_limit"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ScheduleConfig struct {
	EmbeddingBackfillSpec  string `json:"embedding_backfill_spec"`
	EmbeddingBackfillBatch int    `json:"embedding_backfill_batch"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.AdminSecret == "" {
		return nil, fmt.Errorf("admin_secret is required")
	}
	if cfg.AdminTokenTTLHours == 0 {
		cfg.AdminTokenTTLHours = 72
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database.dsn or database.host/db_name is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.AI.Chat.Provider == "" || cfg.AI.Chat.Model == "" {
		return nil, fmt.Errorf("ai.chat provider/model is required")
	}
	if cfg.AI.Embedding.Provider == "" || cfg.AI.Embedding.Model == "" {
		return nil, fmt.Errorf("ai.embedding provider/model is required")
	}
	if cfg.AI.EmbeddingDimension == 0 {
		cfg.AI.EmbeddingDimension = 768
	}
	if cfg.AI.GenerateTimeoutSeconds == 0 {
		cfg.AI.GenerateTimeoutSeconds = 180
	}
	if cfg.AI.EmbedTimeoutSeconds == 0 {
		cfg.AI.EmbedTimeoutSeconds = 30
	}
	if cfg.Bot.SharedScopeID == "" {
		return nil, fmt.Errorf("bot.shared_scope_id is required")
	}
	if cfg.Bot.RetrieveLimit == 0 {
		cfg.Bot.RetrieveLimit = 5
	}
	if cfg.Bot.HistoryLimit == 0 {
		cfg.Bot.HistoryLimit = 10
	}
	if cfg.Schedule.EmbeddingBackfillSpec == "" {
		cfg.Schedule.EmbeddingBackfillSpec = "*/5 * * * *"
	}
	if cfg.Schedule.EmbeddingBackfillBatch == 0 {
		cfg.Schedule.EmbeddingBackfillBatch = 32
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
