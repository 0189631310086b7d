package auth

import (
	"context"
	"net/http"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/engine"
	"golang.org/x/oauth2"
)

type OIDCProvider struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
	cfg      *config.OIDCConfig
	engine   *engine.Engine
}

func NewOIDCProvider(ctx context.Context, cfg *config.OIDCConfig, eng *engine.Engine) (*OIDCProvider, error) {
	p := OIDCProvider{
		cfg:    cfg,
		engine: eng,
	}
	var err error
	p.provider, err = oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	p.config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     p.provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "groups"},
	}

	p.verifier = p.provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return &p, nil
}

// isAdmin reports whether the groups claim contains the configured admin group.
func (p *OIDCProvider) isAdmin(groups []string) bool {
	if p.cfg.AdminGroup == "" {
		return false
	}
	return slices.Contains(groups, p.cfg.AdminGroup)
}

func unauthorized(c *gin.Context, err error) {
	c.Error(err) //nolint:errcheck
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
}

func internalError(c *gin.Context, err error) {
	c.Error(err) //nolint:errcheck
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete login"})
}
