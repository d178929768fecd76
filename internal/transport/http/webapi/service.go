package webapi

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-server-go/internal/domain/auth"
	"portfolio-server-go/internal/domain/content"
	"portfolio-server-go/internal/platform/config"
	"portfolio-server-go/internal/platform/errors"
	"portfolio-server-go/internal/platform/logging"
	httptransport "portfolio-server-go/internal/transport/http"
)

// Service is the HTTP surface over the authentication service and the
// content manager.
type Service struct {
	config    *config.Config
	logger    *logging.Logger
	auth      *auth.Service
	content   *content.Manager
	tokens    *TokenIssuer
	startedAt time.Time
}

// NewService creates the web API transport service.
func NewService(cfg *config.Config, logger *logging.Logger, authSvc *auth.Service, manager *content.Manager) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "config is required")
	}
	if logger == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "logger is required")
	}
	if authSvc == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "auth service is required")
	}
	if manager == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "content manager is required")
	}

	tokens, err := NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.SessionTimeout.Std())
	if err != nil {
		return nil, errors.Wrap(errors.KindConfig, "webapi.new", "token issuer", err)
	}

	return &Service{
		config:    cfg,
		logger:    logger,
		auth:      authSvc,
		content:   manager,
		tokens:    tokens,
		startedAt: time.Now(),
	}, nil
}

// Register wires the API routes onto the shared group.
func (s *Service) Register(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	authGroup.POST("/login", s.handleLogin)
	authGroup.POST("/logout", s.handleLogout)
	authGroup.GET("/session", s.handleSession)
	authGroup.POST("/extend", s.handleExtend)
	authGroup.GET("/lockout", s.handleLockout)

	contentGroup := router.Group("/content")
	contentGroup.GET("", s.handleContentGet)
	contentGroup.GET("/modified", s.handleContentModified)

	// Edit-mode operations require a bearer token and a live session.
	secured := router.Group("")
	secured.Use(s.authMiddleware())
	{
		secured.PUT("/auth/config", s.handleAuthConfigPut)
		secured.PUT("/content", s.handleContentPut)
		secured.GET("/content/export", s.handleContentExport)
		secured.POST("/content/import", s.handleContentImport)
		secured.POST("/content/reset", s.handleContentReset)
	}

	router.GET("/system/status", s.handleSystemStatus)

	s.logger.InfoTag("HTTP", "web API routes registered")
}

func (s *Service) handleLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid JSON format", nil)
		return
	}

	result := s.auth.Authenticate(c.Request.Context(), req.Password)
	if !result.Success {
		httptransport.RespondError(c, http.StatusUnauthorized, result.Error, nil)
		return
	}

	token, err := s.tokens.Issue()
	if err != nil {
		s.logger.ErrorTag("HTTP", "failed to issue token: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to issue token", nil)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"token":       token,
		"expiresInMs": s.auth.Config().SessionTimeout.Milliseconds(),
	}, "Authenticated")
}

func (s *Service) handleLogout(c *gin.Context) {
	s.auth.Logout(c.Request.Context())
	httptransport.RespondSuccess(c, http.StatusOK, nil, "Logged out")
}

func (s *Service) handleSession(c *gin.Context) {
	ctx := c.Request.Context()
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"authenticated": s.auth.IsAuthenticated(ctx),
		"remainingMs":   s.auth.SessionTimeRemaining(ctx).Milliseconds(),
	}, "")
}

func (s *Service) handleExtend(c *gin.Context) {
	ctx := c.Request.Context()
	if !s.auth.ExtendSession(ctx) {
		httptransport.RespondError(c, http.StatusUnauthorized, "No active session", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"remainingMs": s.auth.SessionTimeRemaining(ctx).Milliseconds(),
	}, "Session extended")
}

func (s *Service) handleLockout(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, s.auth.Lockout(c.Request.Context()), "")
}

func (s *Service) handleAuthConfigPut(c *gin.Context) {
	var req struct {
		SessionTimeoutMs  *int64 `json:"sessionTimeoutMs"`
		MaxLoginAttempts  *int   `json:"maxLoginAttempts"`
		LockoutDurationMs *int64 `json:"lockoutDurationMs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid JSON format", nil)
		return
	}

	var update auth.ConfigUpdate
	if req.SessionTimeoutMs != nil {
		d := time.Duration(*req.SessionTimeoutMs) * time.Millisecond
		update.SessionTimeout = &d
	}
	if req.MaxLoginAttempts != nil {
		update.MaxLoginAttempts = req.MaxLoginAttempts
	}
	if req.LockoutDurationMs != nil {
		d := time.Duration(*req.LockoutDurationMs) * time.Millisecond
		update.LockoutDuration = &d
	}
	s.auth.UpdateConfig(update)

	cfg := s.auth.Config()
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"sessionTimeoutMs":  cfg.SessionTimeout.Milliseconds(),
		"maxLoginAttempts":  cfg.MaxLoginAttempts,
		"lockoutDurationMs": cfg.LockoutDuration.Milliseconds(),
	}, "Configuration updated")
}

func (s *Service) handleContentGet(c *gin.Context) {
	doc := s.content.Load(c.Request.Context())
	httptransport.RespondSuccess(c, http.StatusOK, doc, "")
}

func (s *Service) handleContentModified(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"modified": s.content.HasLocalModifications(c.Request.Context()),
	}, "")
}

func (s *Service) handleContentPut(c *gin.Context) {
	var doc content.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid JSON format", nil)
		return
	}
	if err := content.Validate(doc); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := s.content.Save(c.Request.Context(), doc); err != nil {
		s.logger.ErrorTag("HTTP", "save failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to save content", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, doc, "Content saved")
}

func (s *Service) handleContentExport(c *gin.Context) {
	raw, err := s.content.Export()
	if err != nil {
		httptransport.RespondError(c, http.StatusConflict, err.Error(), nil)
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(raw))
}

func (s *Service) handleContentImport(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "Failed to read request body", nil)
		return
	}

	if err := s.content.Import(c.Request.Context(), string(raw)); err != nil {
		if errors.IsKind(err, errors.KindStorage) {
			s.logger.ErrorTag("HTTP", "import failed: %v", err)
			httptransport.RespondError(c, http.StatusInternalServerError, "Failed to persist imported content", nil)
			return
		}
		httptransport.RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, s.content.Cached(), "Content imported")
}

func (s *Service) handleContentReset(c *gin.Context) {
	doc, err := s.content.Reset(c.Request.Context())
	if err != nil {
		s.logger.ErrorTag("HTTP", "reset failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to reset content", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, doc, "Content reset to defaults")
}

// authMiddleware verifies the bearer token, then checks that the underlying
// session is still alive. Token validity alone is not enough: logout or
// expiry on the service side invalidates edit access immediately.
func (s *Service) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			httptransport.RespondError(c, http.StatusUnauthorized, "Missing bearer token", nil)
			c.Abort()
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		if err := s.tokens.Verify(token); err != nil {
			s.logger.WarnTag("HTTP", "rejected token: %v", err)
			httptransport.RespondError(c, http.StatusUnauthorized, "Invalid token", nil)
			c.Abort()
			return
		}
		if !s.auth.IsAuthenticated(c.Request.Context()) {
			httptransport.RespondError(c, http.StatusUnauthorized, "Session expired", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
