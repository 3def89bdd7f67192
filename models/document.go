package models

import (
	"time"

	"github.com/google/uuid"
)

// ProfileDocumentName là tên cố định cho document ảnh đại diện.
const ProfileDocumentName = "profile"

type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`     // "profile" hoặc tên file gốc
	Reference string    `gorm:"type:text;not null" json:"reference"` // đường dẫn file trên đĩa
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
