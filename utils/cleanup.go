package utils

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/vnkhanh/e-shop-backend/config"
	"github.com/vnkhanh/e-shop-backend/models"
)

// CleanupExpiredTokens xóa các token khôi phục mật khẩu đã hết hạn hoặc đã sử dụng
func CleanupExpiredTokens() {
	db := config.DB

	// Xóa token hết hạn HOẶC đã dùng
	result := db.Where("expires_at < ? OR used = ?", time.Now(), true).
		Delete(&models.PasswordReset{})

	if result.Error != nil {
		log.Printf("Lỗi khi xóa password reset tokens: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Đã xóa %d password reset tokens hết hạn/đã dùng", result.RowsAffected)
	}
}

// CleanupInactiveUsers xóa các tài khoản không hoạt động quá INACTIVE_DAYS ngày
// (mặc định 30). Admin không bị xóa. Gửi mail thông báo trước khi xóa.
func CleanupInactiveUsers() {
	db := config.DB

	days := 30
	if v := os.Getenv("INACTIVE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var inactive []models.User
	if err := db.Where("last_connection < ? AND role <> ?", cutoff, models.RoleAdmin).
		Find(&inactive).Error; err != nil {
		log.Printf("Lỗi khi tìm user không hoạt động: %v", err)
		return
	}

	for _, user := range inactive {
		if err := db.Select("Documents").Delete(&user).Error; err != nil {
			log.Printf("Lỗi khi xóa user %s: %v", user.ID, err)
			continue
		}

		// Gửi email thông báo (không chặn luồng)
		go func(email string) {
			subject := "Tài khoản E-Shop của bạn đã bị xóa"
			body := `
			<h3>Xin chào,</h3>
			<p>Tài khoản <b>E-Shop</b> của bạn đã bị xóa do không hoạt động trong thời gian dài.</p>
			<p>Bạn có thể đăng ký lại bất cứ lúc nào.</p>
			<hr>
			<p><i>Đây là email tự động, vui lòng không trả lời.</i></p>
			`
			if err := SendEmail(email, subject, body); err != nil {
				log.Println("Lỗi gửi email:", err.Error())
			}
		}(user.Email)
	}

	if len(inactive) > 0 {
		log.Printf("Đã xóa %d user không hoạt động", len(inactive))
	}
}

// StartCleanupJob chạy cleanup job định kỳ
func StartCleanupJob() {
	// Chạy cleanup ngay lần đầu khi khởi động
	log.Println("Đang chạy cleanup lần đầu...")
	CleanupExpiredTokens()
	CleanupInactiveUsers()

	// Thiết lập ticker để chạy mỗi 6 giờ
	ticker := time.NewTicker(6 * time.Hour)

	go func() {
		defer ticker.Stop()
		for range ticker.C {
			log.Println("Cleanup job được kích hoạt...")
			CleanupExpiredTokens()
			CleanupInactiveUsers()
		}
	}()

	log.Println("Cleanup job đã được khởi động (chạy mỗi 6 giờ)")
}
