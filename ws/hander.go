package ws

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/vnkhanh/e-shop-backend/models"
	"github.com/vnkhanh/e-shop-backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // chỉ để phát triển, nên giới hạn ở production
	},
}

// WebSocket cho trang quản trị theo dõi hoạt động upload
func HandleActivityWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Thiếu token"})
		return
	}
	claims, err := utils.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Token không hợp lệ hoặc hết hạn"})
		return
	}
	if claims.Role != string(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Chỉ admin được theo dõi hoạt động upload"})
		return
	}

	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade thất bại:", err)
		return
	}

	// Từ đây conn thuộc về hub: read pump và write pump của hub là reader/
	// writer duy nhất trên conn (ràng buộc của gorilla/websocket), nên mọi
	// message — kể cả lời chào — đều đi qua Send channel của client
	H.RegisterGlobal(conn)

	greeting, err := json.Marshal(gin.H{"type": "connected", "message": "Connected to activity WebSocket"})
	if err != nil {
		log.Println("Lỗi JSON marshal:", err)
		return
	}
	H.SendTo(conn, greeting)

	log.Printf("Activity WS connected: userID=%s\n", userID)
}
