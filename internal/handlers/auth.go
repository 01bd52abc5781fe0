package handlers

import (
	"errors"

	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Login(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		err := db.WithContext(c.Request.Context()).Where("email = ?", input.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}

		if user.PasswordHash == "" || user.CheckPassword(input.Password) != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := utils.GenerateToken(&user, secret)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"token": token,
			"user":  user,
		})
	}
}
