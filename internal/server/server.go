package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pulse-chat/config"
	"pulse-chat/internal/handler"
	"pulse-chat/internal/middleware"
	"pulse-chat/internal/services"
	"pulse-chat/internal/transport/httpdto"
	"pulse-chat/pkg/database"
	"pulse-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	User         *handler.UserHandler
	Webhook      *handler.WebhookHandler
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Presence     *handler.PresenceHandler
	Upload       *handler.UploadHandler
	WS           *WSHandler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(h *Handlers, authService *services.AuthService, userService *services.UserService) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	// Identity hooks: session sync verifies its own token, the webhook is
	// guarded by the shared secret.
	s.engine.POST("/users/sync", h.User.Sync)
	s.engine.POST("/webhooks/identity", middleware.WebhookAuthMiddleware(s.config.WebhookSecret), h.Webhook.Identity)

	authed := s.engine.Group("/", middleware.AuthMiddleware(authService, userService))
	{
		authed.GET("/users", h.User.List)

		authed.POST("/conversations/direct", h.Conversation.CreateDirect)
		authed.POST("/conversations/group", h.Conversation.CreateGroup)
		authed.GET("/conversations", h.Conversation.List)
		authed.GET("/conversations/:id", h.Conversation.GetByID)

		authed.POST("/conversations/:id/messages", h.Message.Send)
		authed.GET("/conversations/:id/messages", h.Message.List)
		authed.POST("/conversations/:id/read", h.Message.MarkRead)
		authed.GET("/conversations/:id/unread", h.Message.UnreadCount)
		authed.POST("/conversations/:id/typing", h.Message.SetTyping)
		authed.GET("/conversations/:id/typing", h.Message.ListTyping)

		authed.DELETE("/messages/:id", h.Message.SoftDelete)
		authed.POST("/messages/:id/reactions", h.Message.ToggleReaction)

		authed.POST("/presence/heartbeat", h.Presence.Heartbeat)
		authed.POST("/presence/offline", h.Presence.Offline)

		if h.Upload != nil {
			authed.POST("/uploads/presign", h.Upload.Presign)
		}

		if h.WS != nil {
			authed.GET("/ws", h.WS.Serve)
		}
	}
}

func (s *Server) Start() error {
	if s.logger != nil {
		s.logger.Infof("listening on %s", s.httpServer.Addr)
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
