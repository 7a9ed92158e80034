package handlers

import (
	"errors"
	"net/http"

	"blogapi/internal/auth"
	"blogapi/internal/models"
	"blogapi/internal/services"
	"blogapi/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users    *services.UserService
	provider *auth.Provider
}

func NewAuthHandler(users *services.UserService, provider *auth.Provider) *AuthHandler {
	return &AuthHandler{users: users, provider: provider}
}

// Register 注册新用户
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registration successful",
		"user":    user,
	})
}

// Login 校验凭据并签发 token
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.provider.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	utils.LogInfoWithUser(user.ID, "User logged in")
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"user_id":    user.ID,
		"token":      token.Value,
		"token_type": "Bearer",
		"expires_at": token.ExpiresAt,
	})
}

// Logout 仅吊销当前请求所携带的 token
func (h *AuthHandler) Logout(c *gin.Context) {
	identity := caller(c)
	if identity == nil {
		respondError(c, services.ErrUnauthenticated)
		return
	}
	if err := h.provider.Revoke(c.Request.Context(), identity.TokenID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
