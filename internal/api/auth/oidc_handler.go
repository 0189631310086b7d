package auth

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jon4hz/humanorai/internal/api/apierror"
)

const oidcStateKey = "oidc_state"

func (p *OIDCProvider) Login(c *gin.Context) {
	state := uuid.New().String()

	session := sessions.Default(c)
	session.Set(oidcStateKey, state)
	if err := session.Save(); err != nil {
		internalError(c, err)
		return
	}

	url := p.config.AuthCodeURL(state)
	c.Redirect(http.StatusFound, url)
}

func (p *OIDCProvider) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	state := getSessionString(session, oidcStateKey)
	session.Delete(oidcStateKey)
	if err := session.Save(); err != nil {
		internalError(c, err)
		return
	}
	if state == "" || c.Query("state") != state {
		unauthorized(c, errors.New("oidc state mismatch"))
		return
	}

	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	oauth2Token, err := p.config.Exchange(ctx, code)
	if err != nil {
		unauthorized(c, err)
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		internalError(c, errors.New("no id_token in token response"))
		return
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		unauthorized(c, err)
		return
	}

	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		internalError(c, err)
		return
	}

	p.completeLogin(c, claims)
}

type oidcClaims struct {
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Sub    string   `json:"sub"`
	Groups []string `json:"groups"`
}

// completeLogin signs in the user of verified id token claims.
func (p *OIDCProvider) completeLogin(c *gin.Context, claims oidcClaims) {
	user, err := p.engine.GetOrCreateOIDCUser(c.Request.Context(), claims.Email, claims.Name, p.isAdmin(claims.Groups))
	if err != nil {
		log.Warn("oidc login rejected", "sub", claims.Sub, "error", err)
		apierror.Write(c, err, "Failed to complete login")
		return
	}

	if err := SaveSession(c, user); err != nil {
		internalError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}
