package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/humanorai/internal/api/auth"
	"github.com/jon4hz/humanorai/internal/api/handler"
	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/engine"
)

const sessionName = "humanorai_session"

type Server struct {
	cfg          *config.Config
	ginEngine    *gin.Engine
	engine       *engine.Engine
	authProvider *auth.MultiProvider
	httpServer   *http.Server
}

func New(ctx context.Context, cfg *config.Config, e *engine.Engine, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if e == nil {
		return nil, fmt.Errorf("engine is required")
	}

	authProvider, err := auth.NewProvider(ctx, cfg, e)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:          cfg,
		ginEngine:    gin.New(),
		engine:       e,
		authProvider: authProvider,
	}
	// nil disables X-Forwarded-For so the client address is the peer address
	var proxies []string
	if len(cfg.TrustedProxies) > 0 {
		proxies = cfg.TrustedProxies
	}
	if err := s.ginEngine.SetTrustedProxies(proxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the http handler of the server.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(sessionName, store))
}

func (s *Server) setupRoutes() {
	s.ginEngine.Use(gin.Recovery(), requestLogger(), gzip.Gzip(gzip.DefaultCompression))
	s.setupSession()
	s.ginEngine.Use(s.authProvider.Gate())

	h := handler.New(s.engine, s.cfg, s.authProvider.Tokens())

	s.ginEngine.GET("/", h.Home)

	api := s.ginEngine.Group("/api")
	api.POST("/register", h.Register)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", h.Me)
	authGroup.POST("/token", h.Token)
	authGroup.GET("/oidc/login", s.authProvider.OIDCLogin)
	authGroup.GET("/oidc/callback", s.authProvider.OIDCCallback)

	api.GET("/contents", h.ListContents)
	api.POST("/contents", h.CreateContent)
	api.GET("/contents/:id", h.GetContent)
	api.PUT("/contents/:id", h.UpdateContent)
	api.DELETE("/contents/:id", h.DeleteContent)
	api.GET("/contents/:id/results", h.GetResults)

	api.GET("/votes", h.GetVotes)
	api.POST("/votes", h.SubmitVote)

	adminGroup := api.Group("/admin")
	adminGroup.GET("/users", h.ListUsers)
	adminGroup.PUT("/users/:id/role", h.SetUserRole)
	adminGroup.GET("/stats", h.Stats)
}

// requestLogger logs every request with the charm logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// Run serves until the server is shut down.
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
