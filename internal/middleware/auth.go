package middleware

import (
	"strings"

	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/pkg/utils"
	"github.com/gin-gonic/gin"
)

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// WebSocket clients cannot set headers and pass the token as a query parameter
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(401, gin.H{"error": "Authorization header or token query parameter required"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			c.JSON(401, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("userType", string(claims.UserType))
		c.Next()
	}
}

// RequireRole rejects callers whose token carries a different user type.
func RequireRole(roles ...models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := models.UserType(c.GetString("userType"))
		for _, role := range roles {
			if userType == role {
				c.Next()
				return
			}
		}
		c.JSON(403, gin.H{"error": "Access denied"})
		c.Abort()
	}
}
