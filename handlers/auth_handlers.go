package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"ivytime/site/models"
	"ivytime/site/utils"
)

// AuthHandlers issues the operator token. There is no user table: the only
// credential is the bcrypt hash in ADMIN_PASSWORD_HASH.
type AuthHandlers struct{}

func NewAuthHandlers() *AuthHandlers {
	return &AuthHandlers{}
}

// Login checks the operator password and sets the JWT cookie.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	hash := os.Getenv("ADMIN_PASSWORD_HASH")
	if hash == "" {
		logrus.Error("ADMIN_PASSWORD_HASH is not set; operator login disabled")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Login is not configured"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		logrus.Warn("Operator login failed: password mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := utils.GenerateAdminJWT()
	if err != nil {
		logrus.WithError(err).Error("Failed to generate operator JWT")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetCookie(
		"jwt_token",
		tokenString,
		int(24*time.Hour/time.Second),
		"/",
		"",
		false,
		true,
	)

	logrus.Info("Operator logged in. JWT issued.")
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

// Logout clears the JWT cookie.
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(
		"jwt_token",
		"",
		-1,
		"/",
		"",
		false,
		true,
	)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
