package handlers

import (
	"net/http"
	"time"

	"nexus-bakery-api/middleware"
	"nexus-bakery-api/models"
	"nexus-bakery-api/service"

	"github.com/gin-gonic/gin"
)

// TokenConfig signs the JWTs handed out at login
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

type RegisterRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type DemoLoginRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// Register creates a new user account
func Register(accounts *service.AccountService, tokens TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		user, err := accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
		if err != nil {
			respondError(c, err)
			return
		}
		issueToken(c, http.StatusCreated, "Account created successfully", user, tokens)
	}
}

// Login authenticates a user and returns a JWT
func Login(accounts *service.AccountService, tokens TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		user, err := accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		issueToken(c, http.StatusOK, "Login successful", user, tokens)
	}
}

// DemoLogin signs in as the shared demo account of a role
func DemoLogin(accounts *service.AccountService, tokens TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DemoLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		user, err := accounts.DemoLogin(c.Request.Context(), req.Role)
		if err != nil {
			respondError(c, err)
			return
		}
		issueToken(c, http.StatusOK, "Demo session started", user, tokens)
	}
}

func issueToken(c *gin.Context, status int, message string, user models.User, tokens TokenConfig) {
	token, err := middleware.GenerateToken(&user, tokens.Secret, tokens.TTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, gin.H{
		"message": message,
		"token":   token,
		"user":    user,
	})
}

// GetProfile returns the authenticated user's profile
func GetProfile(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := accounts.Profile(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}
