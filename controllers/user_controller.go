package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-shop-backend/config"
	"github.com/vnkhanh/e-shop-backend/middleware"
	"github.com/vnkhanh/e-shop-backend/models"
	"github.com/vnkhanh/e-shop-backend/services"
	"github.com/vnkhanh/e-shop-backend/ws"
)

// Ingestor dùng chung cho mọi request: lock theo user id chỉ có tác dụng
// khi tất cả upload đi qua cùng một instance
var (
	ingestorOnce sync.Once
	ingestor     *services.Ingestor
)

func getIngestor(db *gorm.DB) *services.Ingestor {
	ingestorOnce.Do(func() {
		ingestor = services.NewIngestor(config.UploadRoot(), services.NewGormUserStore(db))
	})
	return ingestor
}

// GET /api/users (admin)
func GetUsers(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var users []models.User
	if err := db.Preload("Documents").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể lấy danh sách người dùng"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "users": users})
}

// POST /api/users/upload
// Nhận multipart với field "profile" (0..1 file) và "document" (0..n file)
func UploadDocuments(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	logger := middleware.GetLogger(c)

	uid, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "user_id không hợp lệ"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Không có file nào được gửi lên"})
		return
	}

	var profile *multipart.FileHeader
	if files := form.File["profile"]; len(files) > 0 {
		profile = files[0]
	}
	documents := form.File["document"]

	result, err := getIngestor(db).Ingest(logger, uid, profile, documents)
	switch {
	case errors.Is(err, services.ErrNoFiles):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Không có file nào được gửi lên"})
		return
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Không tìm thấy người dùng"})
		return
	case errors.Is(err, services.ErrStorageUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể lưu trữ file, hãy thử lại sau"})
		return
	case err != nil:
		logger.Error("lỗi xử lý upload", "user_id", uid, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Lỗi khi lưu tài liệu"})
		return
	}

	if result.StoredCount > 0 {
		ws.BroadcastUploadActivity(uid.String(), result.StoredCount)
	}

	// Ảnh đại diện sai định dạng: các file còn lại vẫn được lưu, nhưng
	// batch được báo là thất bại một phần
	if result.ProfileRejected {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":       "error",
			"message":      "Định dạng ảnh đại diện phải là: jpg, jpeg hoặc png",
			"stored_count": result.StoredCount,
			"documents":    result.Documents,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"message":      "Đã lưu tất cả tài liệu",
		"stored_count": result.StoredCount,
		"documents":    result.Documents,
	})
}

// PATCH /api/users/premium/:uid (admin) — đổi vai trò user <-> premium
func ToggleUserPremium(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	logger := middleware.GetLogger(c)
	uid := c.Param("uid")

	var user models.User
	if err := db.First(&user, "id = ?", uid).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Không tìm thấy người dùng"})
		return
	}

	switch user.Role {
	case models.RoleUser:
		user.Role = models.RolePremium
	case models.RolePremium:
		user.Role = models.RoleUser
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Không thể đổi vai trò admin"})
		return
	}

	if err := db.Model(&user).Update("role", user.Role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Lỗi khi cập nhật vai trò"})
		return
	}

	logger.Info("đã đổi vai trò user", "user_id", user.ID, "role", user.Role)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Cập nhật vai trò thành công",
		"user": gin.H{
			"id":   user.ID,
			"role": user.Role,
		},
	})
}

// DELETE /api/users/:uid (admin)
func DeleteUser(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	logger := middleware.GetLogger(c)
	uid := c.Param("uid")

	var user models.User
	if err := db.First(&user, "id = ?", uid).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Không tìm thấy người dùng"})
		return
	}

	if err := db.Select("Documents").Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Lỗi khi xóa người dùng"})
		return
	}

	// Dọn thư mục upload của user
	dir := filepath.Join(config.UploadRoot(), user.ID.String())
	if err := os.RemoveAll(dir); err != nil {
		logger.Error("không xóa được thư mục upload", "user_id", user.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Đã xóa người dùng"})
}
