package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/e-shop-backend/config"
	"github.com/vnkhanh/e-shop-backend/middleware"
	"github.com/vnkhanh/e-shop-backend/routes"
	"github.com/vnkhanh/e-shop-backend/utils"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	config.InitDB()

	// Cleanup job: xóa reset token hết hạn + user không hoạt động
	utils.StartCleanupJob()

	r := gin.Default()

	// Logger theo từng request
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	r.Use(middleware.RequestLogger(logger))

	//Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	// Gọi SetupRouter để đăng ký route
	r = routes.SetupRouter(r, config.DB)

	// Route test server
	r.GET("/", func(c *gin.Context) {
		c.String(200, "E-Shop server is running")
	})

	// Lấy PORT từ env
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // mặc định nếu không có PORT
	}

	log.Println("Server running at Port:" + port)
	r.Run(":" + port)
}
