package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-shop-backend/controllers"
	"github.com/vnkhanh/e-shop-backend/middleware"
	"github.com/vnkhanh/e-shop-backend/models"
	"github.com/vnkhanh/e-shop-backend/ws"
)

func SetupRouter(r *gin.Engine, db *gorm.DB) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")

	sessions := api.Group("/sessions")
	{
		sessions.POST("/register", controllers.Register)
		sessions.POST("/login", controllers.Login)
		sessions.POST("/logout", controllers.Logout)
		sessions.POST("/forgot-password", controllers.ForgotPassword)
		sessions.POST("/reset-password", controllers.ResetPassword)
		sessions.GET("/current", middleware.AuthMiddleware(), controllers.CurrentSession)
	}

	products := api.Group("/products")
	{
		products.GET("", controllers.GetProducts)
		products.GET("/:pid", controllers.GetProduct)

		// Chỉ admin được thêm/sửa/xóa sản phẩm
		adminOnly := products.Group("")
		adminOnly.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db),
			middleware.RequireRoles(string(models.RoleAdmin)))
		adminOnly.POST("", controllers.CreateProduct)
		adminOnly.PUT("/:pid", controllers.UpdateProduct)
		adminOnly.DELETE("/:pid", controllers.DeleteProduct)
	}

	users := api.Group("/users")
	{
		users.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db))

		// Upload tài liệu / ảnh đại diện: mọi vai trò đã đăng nhập
		users.POST("/upload",
			middleware.RequireRoles(string(models.RoleAdmin), string(models.RoleUser), string(models.RolePremium)),
			controllers.UploadDocuments)

		// Quản trị user
		users.GET("", middleware.RequireRoles(string(models.RoleAdmin)), controllers.GetUsers)
		users.PATCH("/premium/:uid", middleware.RequireRoles(string(models.RoleAdmin)), controllers.ToggleUserPremium)
		users.DELETE("/:uid", middleware.RequireRoles(string(models.RoleAdmin)), controllers.DeleteUser)
	}

	r.GET("/ws/activity", ws.HandleActivityWebSocket)

	return r
}
