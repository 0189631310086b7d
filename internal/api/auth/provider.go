package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/humanorai/internal/api/models"
	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/database"
	"github.com/jon4hz/humanorai/internal/engine"
	"github.com/jon4hz/humanorai/internal/gravatar"
)

// MultiProvider resolves the principal of a request from the session or a bearer token
// and hosts the optional OIDC login flow.
type MultiProvider struct {
	cfg           *config.Config
	oidcProvider  *OIDCProvider
	tokenProvider *TokenProvider
}

// NewProvider creates the auth provider for the enabled authentication methods.
func NewProvider(ctx context.Context, cfg *config.Config, eng *engine.Engine) (*MultiProvider, error) {
	if cfg == nil || cfg.Auth == nil {
		return nil, fmt.Errorf("auth config is required")
	}

	mp := &MultiProvider{cfg: cfg}

	if cfg.Auth.OIDC != nil && cfg.Auth.OIDC.Enabled {
		oidcProvider, err := NewOIDCProvider(ctx, cfg.Auth.OIDC, eng)
		if err != nil {
			return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
		}
		mp.oidcProvider = oidcProvider
	}

	if cfg.TokensEnabled() {
		tokenProvider, err := NewTokenProvider(cfg.Auth.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to create token provider: %w", err)
		}
		mp.tokenProvider = tokenProvider
	}

	credentials := cfg.Auth.Credentials != nil && cfg.Auth.Credentials.Enabled
	if !credentials && mp.oidcProvider == nil {
		return nil, fmt.Errorf("no authentication provider is enabled")
	}

	return mp, nil
}

// Gate resolves the principal of the request and applies the access rules.
func (mp *MultiProvider) Gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := mp.principal(c)
		if user != nil {
			c.Set("user", user)
		}

		d := Classify(c.Request.Method, c.Request.URL.Path, user)
		if d != Allow {
			log.Debug("request rejected by gate", "method", c.Request.Method, "path", c.Request.URL.Path, "decision", d)
		}
		apply(c, d)
	}
}

// principal returns the caller from a bearer token or the session.
// An invalid bearer token is treated like no credentials at all.
func (mp *MultiProvider) principal(c *gin.Context) *models.User {
	var user *models.User

	if header := c.GetHeader("Authorization"); mp.tokenProvider != nil && header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if ok {
			u, err := mp.tokenProvider.Verify(strings.TrimSpace(token))
			if err != nil {
				log.Debug("rejected bearer token", "error", err)
			} else {
				user = u
			}
		}
	}

	if user == nil {
		user = userFromSession(sessions.Default(c))
	}

	if user != nil && user.Email != "" {
		user.GravatarURL = gravatar.URL(user.Email, mp.cfg.Gravatar)
	}
	return user
}

// Tokens returns the bearer token provider, nil if tokens are disabled.
func (mp *MultiProvider) Tokens() *TokenProvider {
	return mp.tokenProvider
}

// HasOIDC reports whether OIDC login is enabled.
func (mp *MultiProvider) HasOIDC() bool {
	return mp.oidcProvider != nil
}

// OIDCLogin starts the OIDC flow.
func (mp *MultiProvider) OIDCLogin(c *gin.Context) {
	if mp.oidcProvider == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "OIDC login is not enabled"})
		return
	}
	mp.oidcProvider.Login(c)
}

// OIDCCallback completes the OIDC flow.
func (mp *MultiProvider) OIDCCallback(c *gin.Context) {
	if mp.oidcProvider == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "OIDC login is not enabled"})
		return
	}
	mp.oidcProvider.Callback(c)
}

// SaveSession stores the user in the session of the request.
func SaveSession(c *gin.Context, user *database.User) error {
	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("user_email", user.Email)
	session.Set("user_name", user.Name)
	session.Set("user_role", string(user.Role))
	return session.Save()
}

// ClearSession removes the user from the session of the request.
func ClearSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}

// userFromSession returns the session user. Sessions with an unknown role carry no principal.
func userFromSession(session sessions.Session) *models.User {
	userID := getSessionString(session, "user_id")
	if userID == "" {
		return nil
	}
	role, err := database.ParseRole(getSessionString(session, "user_role"))
	if err != nil {
		log.Warn("ignoring session with invalid role", "user_id", userID, "error", err)
		return nil
	}
	return &models.User{
		ID:    userID,
		Email: getSessionString(session, "user_email"),
		Name:  getSessionString(session, "user_name"),
		Role:  role,
	}
}

// Helper function to safely get session values.
func getSessionString(session sessions.Session, key string) string {
	if val := session.Get(key); val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
