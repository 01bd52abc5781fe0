package handlers

import (
	"github.com/chachabrian/mooveit-ledger/internal/services"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler handles WebSocket connections
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		services.HandleWebSocket(hub, c.Writer, c.Request, c.GetString("userId"), c.GetString("userType"))
	}
}
