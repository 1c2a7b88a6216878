package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pulse-chat/config"
	"pulse-chat/internal/domain/conversation"
	"pulse-chat/internal/domain/message"
	"pulse-chat/internal/domain/typing"
	"pulse-chat/internal/domain/user"
	"pulse-chat/internal/handler"
	"pulse-chat/internal/repository"
	"pulse-chat/internal/server"
	"pulse-chat/internal/services"
	"pulse-chat/internal/storage"
	"pulse-chat/pkg/database"
	"pulse-chat/pkg/events"
	"pulse-chat/pkg/logger"
)

func main() {
	cfg := config.Load()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	defer l.Logger.Sync()

	database.Connect(cfg)
	if err := database.DB.AutoMigrate(
		&user.User{},
		&conversation.Conversation{},
		&conversation.Participant{},
		&message.Message{},
		&message.Reaction{},
		&typing.Signal{},
	); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	broker := events.NewRedisBroker(
		fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		cfg.RedisPassword,
		cfg.RedisDB,
	)
	defer broker.Close()

	userRepo := repository.NewUserRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.DB)
	msgRepo := repository.NewMessageRepository(database.DB)
	typingRepo := repository.NewTypingRepository(database.DB)

	authService := services.NewAuthService(cfg.JWTSecret)
	userService := services.NewUserService(userRepo, l)
	presenceService := services.NewPresenceService(userRepo, broker, l)
	typingService := services.NewTypingService(typingRepo, userRepo, broker, l)
	convService := services.NewConversationService(database.DB, convRepo, userRepo, broker, l)
	msgService := services.NewMessageService(database.DB, msgRepo, convRepo, userRepo, broker, l)
	queryService := services.NewQueryService(convRepo, msgRepo, userRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(broker, convRepo, l)
	go func() {
		if err := hub.Run(ctx); err != nil && err != context.Canceled {
			l.Errorf("hub stopped: %v", err)
		}
	}()

	handlers := &server.Handlers{
		User:         handler.NewUserHandler(userService, authService),
		Webhook:      handler.NewWebhookHandler(userService, l),
		Conversation: handler.NewConversationHandler(convService, queryService),
		Message:      handler.NewMessageHandler(msgService, typingService),
		Presence:     handler.NewPresenceHandler(presenceService),
		WS:           server.NewWSHandler(hub, typingService, presenceService, l),
	}

	// Media uploads are optional; without a bucket the API runs text-only.
	if cfg.S3Bucket != "" {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3EndPoint,
			PresignTTL: cfg.S3PresignTTL,
		})
		if err != nil {
			log.Fatalf("Failed to init s3 client: %v", err)
		}
		handlers.Upload = handler.NewUploadHandler(services.NewUploadService(s3Client))
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, authService, userService)

	go func() {
		<-ctx.Done()
		hub.Stop()
		if err := srv.Shutdown(context.Background()); err != nil {
			l.Errorf("shutdown: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
