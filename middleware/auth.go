package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vnkhanh/e-shop-backend/config"
	"github.com/vnkhanh/e-shop-backend/models"
	"github.com/vnkhanh/e-shop-backend/utils"
)

// extractToken lấy JWT từ cookie "jwt" (session), fallback về Authorization header
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie("jwt"); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	// Tách token khỏi chuỗi "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Thiếu token xác thực"})
			c.Abort()
			return
		}

		claims, err := utils.VerifyToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Token không hợp lệ hoặc hết hạn"})
			c.Abort()
			return
		}

		// Kiểm tra user còn tồn tại trong DB
		var user models.User
		if err := config.DB.Select("id", "role").First(&user, "id = ?", claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Không tìm thấy người dùng"})
			c.Abort()
			return
		}

		// Lưu thông tin vào context để controller dùng
		c.Set("user_id", claims.UserID)
		c.Set("role", string(user.Role))
		c.Next()
	}
}
