package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lastcallsw/trackeats/internal/service"
	"github.com/lastcallsw/trackeats/internal/types"
)

type AuthHandler struct {
	db          *gorm.DB
	authService *service.AuthService
}

func NewAuthHandler(db *gorm.DB, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{db: db, authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, limiter gin.HandlerFunc) {
	auth := router.Group("/auth")
	if limiter != nil {
		auth.Use(limiter)
	}
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/confirm", h.Confirm)
		auth.POST("/resend", h.ResendConfirmation)
	}
}

// RegisterProtectedRoutes mounts the routes that need an authenticated caller.
func (h *AuthHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	router.GET("/users/me", h.Me)
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"status":   user.Status,
	})
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.authService.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// Same response for unknown user and wrong password.
		if service.IsKind(err, service.KindNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}

	token, err := h.authService.GenerateToken(&types.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": user.ID,
		"token":   token,
	})
}

func (h *AuthHandler) Confirm(c *gin.Context) {
	username := c.Query("username")
	token := c.Query("token")
	if username == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and token are required"})
		return
	}

	if err := h.authService.Confirm(c.Request.Context(), username, token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

type ResendRequest struct {
	Username string `json:"username" binding:"required"`
}

func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	var req ResendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.authService.ResendConfirmation(c.Request.Context(), req.Username); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	email, err := h.authService.EmailAddress(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"status":     user.Status,
		"email":      email,
		"created_at": user.CreatedAt,
	})
}
