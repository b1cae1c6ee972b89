package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/techsphere/techsphere/internal/aiservice"
	"github.com/techsphere/techsphere/internal/assetservice"
	"github.com/techsphere/techsphere/internal/blogservice"
	"github.com/techsphere/techsphere/internal/commentservice"
	"github.com/techsphere/techsphere/internal/common"
	"github.com/techsphere/techsphere/internal/mailservice"
	"github.com/techsphere/techsphere/internal/userservice"
)

type application struct {
	config         *Config
	logger         *slog.Logger
	userService    *userservice.UserService
	blogService    *blogservice.BlogService
	commentService *commentservice.CommentService
	aiService      *aiservice.AIService
	mailService    *mailservice.MailService
	cleanupService *assetservice.CleanupService
	broker         *common.MessageBroker
}

func main() {
	// Initialize the logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load the configuration
	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the database
	db, err := common.NewDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	// Initialize the message broker
	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	// Setup the exchanges, queues, and binding keys
	err = common.SetupUserExchange(broker)
	if err != nil {
		logger.Error("failed to setup the user exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = common.SetupAssetExchange(broker)
	if err != nil {
		logger.Error("failed to setup the asset exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the asset store
	assets, err := assetservice.NewS3Store(context.Background(), cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Endpoint, cfg.S3.BaseURL)
	if err != nil {
		logger.Error("failed to initialize the asset store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the language model client
	model := cfg.Gemini.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	llm, err := googleai.New(context.Background(), googleai.WithAPIKey(cfg.Gemini.APIKey), googleai.WithDefaultModel(model))
	if err != nil {
		logger.Error("failed to initialize the language model client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache := common.NewCache(aiservice.ExplanationCacheTime, 10*time.Minute)

	// Initialize the services
	app := &application{
		config:         cfg,
		logger:         logger,
		userService:    userservice.NewUserService(db, broker, assets, cfg.JWTSecret, logger),
		blogService:    blogservice.NewBlogService(db, broker, assets, logger),
		commentService: commentservice.NewCommentService(db),
		aiService:      aiservice.NewAIService(llm, cache),
		mailService:    mailservice.NewMailService(broker, cfg.Mail.Host, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.Sender, cfg.Mail.Port, logger),
		cleanupService: assetservice.NewCleanupService(broker, assets, logger),
		broker:         broker,
	}

	// Initialize the consumers
	go app.mailService.SendPasswordResetEmail()
	go app.cleanupService.DeleteOrphanedAssets()
	defer app.mailService.Close()
	defer app.cleanupService.Close()

	// Start the HTTP server
	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
