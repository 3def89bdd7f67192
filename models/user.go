package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"   // Quản trị hệ thống
	RolePremium UserRole = "premium" // Người dùng nâng cấp
	RoleUser    UserRole = "user"    // Người dùng thường
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName      string    `gorm:"size:100;not null" json:"first_name"`
	LastName       string    `gorm:"size:100;not null" json:"last_name"`
	Email          string    `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Age            int       `json:"age"`
	Password       string    `gorm:"type:text;not null" json:"-"`
	Role           UserRole  `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	LastConnection time.Time `json:"last_connection"`
	CartID         uuid.UUID `gorm:"type:uuid" json:"cart_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Quan hệ
	Documents []Document `gorm:"constraint:OnDelete:CASCADE;" json:"documents"`
}

// ProfileDocument trả về document ảnh đại diện hiện tại (nil nếu chưa có).
// Bất biến: mỗi user chỉ có tối đa một document tên "profile".
func (u *User) ProfileDocument() *Document {
	for i := range u.Documents {
		if u.Documents[i].Name == ProfileDocumentName {
			return &u.Documents[i]
		}
	}
	return nil
}
