package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Slug        string    `gorm:"size:220;index" json:"slug"`
	Code        string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Price       float64   `gorm:"not null" json:"price"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	Category    string    `gorm:"size:100" json:"category"`
	Thumbnail   string    `gorm:"type:text" json:"thumbnail"`
	Status      bool      `gorm:"default:true" json:"status"`
	// Chủ sở hữu: admin hoặc user premium đăng bán
	OwnerID   *uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
