package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/ai"
	"github.com/twinchat/twinchat/internal/config"
	"github.com/twinchat/twinchat/internal/db"
	"github.com/twinchat/twinchat/internal/embedcache"
	"github.com/twinchat/twinchat/internal/filestore"
	"github.com/twinchat/twinchat/internal/handler"
	"github.com/twinchat/twinchat/internal/job"
	"github.com/twinchat/twinchat/internal/middleware"
	"github.com/twinchat/twinchat/internal/repo"
	"github.com/twinchat/twinchat/internal/schedule"
	"github.com/twinchat/twinchat/internal/service"
	"github.com/twinchat/twinchat/internal/telegram"
)

var configPath string

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "twinchat",
		Short: "twinchat digital twin bot",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to config.json")

	rootCmd.AddCommand(
		newRunCmd(),
		newAdminTokenCmd(),
		newWebhookCmd(),
		newRagtestCmd(),
		newKnowledgeCmd(),
		newProfileCmd(),
		newConversationCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return cfg, nil
}

// app bundles everything the server and the operator commands share.
type app struct {
	cfg *config.Config
	db  *sql.DB

	embedder  ai.IEmbedder
	generator ai.IChatGenerator
	files     filestore.Store

	processor     *service.MessageProcessor
	gate          *service.RelevanceGate
	knowledge     *service.KnowledgeService
	profiles      *service.ProfileService
	conversations *service.ConversationService
	tg            *telegram.Client
}

func buildApp(cfg *config.Config) (*app, error) {
	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	chatProvider, err := ai.NewChatProvider(cfg.AI.Chat.Provider, cfg.AI.Chat.Data)
	if err != nil {
		return nil, fmt.Errorf("init chat provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.Embedding.Provider, cfg.AI.Embedding.Data)
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	generator := ai.NewChatGenerator(chatProvider, cfg.AI.Chat.Model)
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.Embedding.Model, cfg.AI.EmbeddingDimension)
	embedder = embedcache.WrapLRUCacheToEmbedder(embedder,
		cfg.AI.EmbedCacheSize, time.Duration(cfg.AI.EmbedCacheTTLMinutes)*time.Minute)

	// Without a file store the built-in prompt template is used and file
	// imports are rejected.
	var files filestore.Store
	if cfg.PromptStore.Type != "" {
		files, err = filestore.New(cfg.PromptStore)
		if err != nil {
			return nil, fmt.Errorf("init file store: %w", err)
		}
	}

	knowledgeRepo := repo.NewKnowledgeRepo(database)
	conversationRepo := repo.NewConversationRepo(database)
	profileRepo := repo.NewProfileRepo(database)

	embedTimeout := time.Duration(cfg.AI.EmbedTimeoutSeconds) * time.Second
	generateTimeout := time.Duration(cfg.AI.GenerateTimeoutSeconds) * time.Second

	gate := service.NewRelevanceGate(embedder, knowledgeRepo,
		cfg.Bot.SharedScopeID, cfg.Bot.RetrieveLimit, embedTimeout)
	templates := service.NewPromptTemplateSource(files, cfg.Bot.PromptTemplateKey)
	composer := service.NewResponseComposer(embedder, generator, knowledgeRepo, templates,
		cfg.Bot.SharedScopeID, cfg.Bot.RetrieveLimit, embedTimeout, generateTimeout)
	processor := service.NewMessageProcessor(profileRepo, conversationRepo, knowledgeRepo,
		gate, composer, cfg.Bot.SharedScopeID, cfg.Bot.HistoryLimit)

	return &app{
		cfg:           cfg,
		db:            database,
		embedder:      embedder,
		generator:     generator,
		files:         files,
		processor:     processor,
		gate:          gate,
		knowledge:     service.NewKnowledgeService(knowledgeRepo, embedder, files, embedTimeout),
		profiles:      service.NewProfileService(profileRepo),
		conversations: service.NewConversationService(conversationRepo),
		tg:            telegram.NewClient(cfg.Telegram.Token),
	}, nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the bot server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return runServer(app)
		},
	}
}

func runServer(a *app) error {
	cfg := a.cfg
	logutil.GetLogger(context.Background()).Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("shared_scope", cfg.Bot.SharedScopeID),
		zap.String("chat_provider", cfg.AI.Chat.Provider),
		zap.String("embed_provider", cfg.AI.Embedding.Provider),
	)

	deps := handler.RouterDeps{
		Webhook:       handler.NewWebhookHandler(a.processor, a.tg, cfg.Telegram.SecretToken),
		Profiles:      handler.NewProfileHandler(a.profiles),
		Knowledge:     handler.NewKnowledgeHandler(a.knowledge),
		Conversations: handler.NewConversationHandler(a.conversations),
		AdminSecret:   []byte(cfg.AdminSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	backfill := job.NewEmbeddingBackfillJob(a.knowledge, cfg.Schedule.EmbeddingBackfillBatch)
	if err := scheduler.AddJob(backfill, cfg.Schedule.EmbeddingBackfillSpec); err != nil {
		return fmt.Errorf("schedule backfill job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()
	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
