package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ivytime/site/utils"
)

// AuthRequired guards operator endpoints (content refresh). It accepts the
// static X-API-KEY, the jwt_token cookie set at login, or a Bearer header.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := os.Getenv("AUTH_DEFAULT")
		if apiKey != "" && c.GetHeader("X-API-KEY") == apiKey {
			c.Next()
			return
		}

		tokenString, err := c.Cookie("jwt_token")
		if err != nil {
			tokenString = c.GetHeader("Authorization")
			if tokenString == "" {
				logrus.Debug("AuthRequired: no JWT token found in cookie or header")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
				return
			}
			if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
				tokenString = tokenString[7:]
			}
		}

		claims, err := utils.ValidateAdminJWT(tokenString)
		if err != nil {
			logrus.WithError(err).Warn("AuthRequired: invalid JWT token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set("token_id", claims.ID)
		c.Next()
	}
}
