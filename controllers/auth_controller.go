package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vnkhanh/e-shop-backend/config"
	"github.com/vnkhanh/e-shop-backend/middleware"
	"github.com/vnkhanh/e-shop-backend/models"
	"github.com/vnkhanh/e-shop-backend/utils"
)

// ====== INPUT STRUCTS ======
type RegisterInput struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Age       int    `json:"age" binding:"required,gt=0"`
	Password  string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

const sessionCookieMaxAge = 72 * 3600

// setSessionCookie gắn JWT vào cookie "jwt" (httpOnly)
func setSessionCookie(c *gin.Context, token string) {
	c.SetCookie("jwt", token, sessionCookieMaxAge, "/", "", false, true)
}

// ====== HANDLERS ======
func Register(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	// Check email tồn tại
	var existing models.User
	if err := config.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Email đã được sử dụng"})
		return
	}

	// Hash password
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể mã hoá mật khẩu"})
		return
	}

	// Mỗi user mới có một giỏ hàng riêng
	cart := models.Cart{}
	if err := config.DB.Create(&cart).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể tạo giỏ hàng"})
		return
	}

	newUser := models.User{
		// ID sẽ tự sinh vì default:gen_random_uuid()
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		Age:            input.Age,
		Password:       string(hashed),
		Role:           models.RoleUser,
		CartID:         cart.ID,
		LastConnection: time.Now(),
	}

	if err := config.DB.Create(&newUser).Error; err != nil {
		// Email trùng có thể lọt qua check ở trên khi hai request đăng ký
		// cùng lúc: unique index trả lỗi thì vẫn là 400, không phải 500
		if isUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Email đã được sử dụng"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Lỗi khi tạo người dùng"})
		return
	}

	token, err := utils.GenerateToken(newUser.ID.String(), string(newUser.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể tạo token"})
		return
	}
	setSessionCookie(c, token)

	logger.Info("đăng ký user mới", "user_id", newUser.ID, "email", newUser.Email)

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Đăng ký thành công",
		"user":    newUser,
	})
}

func Login(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Email hoặc mật khẩu không đúng"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Email hoặc mật khẩu không đúng"})
		return
	}

	// Cập nhật thời điểm đăng nhập
	user.LastConnection = time.Now()
	if err := config.DB.Model(&user).Update("last_connection", user.LastConnection).Error; err != nil {
		logger.Error("không cập nhật được last_connection", "user_id", user.ID, "error", err)
	}

	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể tạo token"})
		return
	}
	setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Đăng nhập thành công",
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.Role,
		},
	})
}

func Logout(c *gin.Context) {
	tokenString, err := c.Cookie("jwt")
	if err != nil || tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Không có token xác thực"})
		return
	}

	claims, err := utils.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Token không hợp lệ"})
		return
	}

	// Ghi nhận thời điểm rời hệ thống
	config.DB.Model(&models.User{}).Where("id = ?", claims.UserID).
		Update("last_connection", time.Now())

	c.SetCookie("jwt", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Đăng xuất thành công"})
}

func CurrentSession(c *gin.Context) {
	userID := c.GetString("user_id")

	var user models.User
	if err := config.DB.Preload("Documents").First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Không tìm thấy người dùng"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"payload": user,
	})
}

type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

func ForgotPassword(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var input ForgotPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Phải nhập email hợp lệ"})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Email chưa được đăng ký"})
		return
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := config.DB.Create(&reset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể tạo token khôi phục"})
		return
	}

	// Gửi email (không chặn luồng)
	go func() {
		if err := utils.SendResetMail(user.Email, reset.Token); err != nil {
			logger.Error("lỗi gửi email khôi phục", "user_id", user.ID, "error", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Đã gửi email chứa link khôi phục mật khẩu",
	})
}

type ResetPasswordInput struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func ResetPassword(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Phải nhập mật khẩu và token hợp lệ"})
		return
	}

	var reset models.PasswordReset
	if err := config.DB.Where("token = ? AND used = ? AND expires_at > ?",
		input.Token, false, time.Now()).First(&reset).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Token khôi phục không hợp lệ hoặc đã hết hạn"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", reset.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Không tìm thấy người dùng"})
		return
	}

	// Mật khẩu mới không được trùng mật khẩu cũ
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.NewPassword)); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Mật khẩu mới không được trùng mật khẩu cũ"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể mã hoá mật khẩu mới"})
		return
	}

	if err := config.DB.Model(&user).Update("password", string(hashed)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Lỗi khi cập nhật mật khẩu"})
		return
	}
	config.DB.Model(&reset).Update("used", true)

	logger.Info("đã đặt lại mật khẩu", "user_id", user.ID)

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Mật khẩu đã được cập nhật"})
}
