package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"healthline/internal/auth"
	"healthline/internal/service"
)

// Config carries the handler's collaborators.
type Config struct {
	Users   service.UserService
	Records service.RecordService
	Chat    service.ChatService
	Exports service.ExportService
	Tokens  *auth.TokenIssuer
	// TrustHeaders accepts unverified user-id/user-role headers when no bearer token is sent.
	TrustHeaders bool
	Logger       *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	records      service.RecordService
	chat         service.ChatService
	exports      service.ExportService
	tokens       *auth.TokenIssuer
	trustHeaders bool
	logger       *logrus.Logger
}

func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Handler{
		users:        cfg.Users,
		records:      cfg.Records,
		chat:         cfg.Chat,
		exports:      cfg.Exports,
		tokens:       cfg.Tokens,
		trustHeaders: cfg.TrustHeaders,
		logger:       cfg.Logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", headerUserID, headerUserRole},
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	router.POST("/register", h.register)
	router.POST("/login", h.login)
	router.POST("/chat", h.sendChat)

	authed := router.Group("/", h.identity(), requireIdentity())
	{
		authed.GET("/me", h.me)
		authed.GET("/patients", h.listPatients)
		authed.POST("/patients", h.createPatient)
		authed.GET("/patients/:id", h.getPatient)
		authed.DELETE("/patients/:id", h.deletePatient)
		authed.POST("/exports", h.createExport)
		authed.GET("/exports", h.listExports)
	}
}
