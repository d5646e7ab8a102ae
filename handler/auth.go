package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/middleware"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/pkg/logger"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/service"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/store"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	identity *service.IdentityService
	config   *config.Config
}

func NewAuthHandler(identity *service.IdentityService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{identity: identity, config: cfg}
}

type SignupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GoogleRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type ProfileRequest struct {
	DisplayName *string `json:"display_name"`
	PhotoURL    *string `json:"photo_url"`
}

// authStatus maps identity errors to HTTP statuses; the message is passed
// through so clients can show it verbatim
func authStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidGoogleToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrEmailInUse):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrGoogleDisabled):
		return http.StatusNotImplemented, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "user not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *AuthHandler) fail(c *gin.Context, err error) {
	status, msg := authStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("auth request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

// respond issues a session token for acct, sets the page cookie and writes
// the auth response
func (h *AuthHandler) respond(c *gin.Context, acct *store.Account) {
	token, expiresAt, err := middleware.GenerateToken(acct.UID, acct.Email, &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.config.Auth.CookieName, token, maxAge, "/", "", c.Request.TLS != nil, true)

	c.JSON(http.StatusOK, model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		User:      acct.Profile(),
	})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	acct, err := h.identity.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, acct)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	acct, err := h.identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, acct)
}

func (h *AuthHandler) Google(c *gin.Context) {
	var req GoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	acct, err := h.identity.SignInWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, acct)
}

// Refresh re-reads the profile and issues a fresh token
func (h *AuthHandler) Refresh(c *gin.Context) {
	acct, err := h.identity.Account(c.Request.Context(), middleware.GetUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, acct)
}

// GetCurrentUser returns the stored profile of the caller
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	acct, err := h.identity.Account(c.Request.Context(), middleware.GetUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acct.Profile())
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	acct, err := h.identity.UpdateProfile(c.Request.Context(), middleware.GetUID(c), store.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acct.Profile())
}

// Logout clears the page cookie; bearer tokens simply expire
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(h.config.Auth.CookieName, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}
