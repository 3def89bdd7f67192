package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/e-shop-backend/models"
)

var DB *gorm.DB

func InitDB() {
	// Lấy thông tin từ biến môi trường
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	// DSN cho PostgreSQL
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Ho_Chi_Minh",
		dbHost, dbUser, dbPass, dbName, dbPort,
	)

	// Kết nối DB với logger
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatal("Không thể kết nối database:", err)
	}

	DB = db

	// Lấy *sql.DB để config connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Không thể lấy sql.DB từ gorm:", err)
	}

	// Connection Pooling config
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	// AutoMigrate các models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.Cart{},
		&models.CartItem{},
		&models.Product{},
		&models.PasswordReset{},
	)
	if err != nil {
		log.Fatal("autoMigrate lỗi: ", err)
	}
	log.Println("postgreSQL connected & migrated successfully!")
}

// UploadRoot trả về thư mục gốc chứa file upload của user.
func UploadRoot() string {
	root := os.Getenv("UPLOAD_DIR")
	if root == "" {
		root = "uploads"
	}
	return root
}
