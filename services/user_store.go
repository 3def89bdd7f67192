package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-shop-backend/models"
)

// GormUserStore là UserStore chạy trên gorm/postgres.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) FindUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Documents").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SaveUser lưu user và thay thế nguyên danh sách documents trong một
// transaction (danh sách được replace wholesale, không merge).
func (s *GormUserStore) SaveUser(user *models.User) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		for i := range user.Documents {
			user.Documents[i].UserID = user.ID
		}
		if len(user.Documents) > 0 {
			if err := tx.Create(&user.Documents).Error; err != nil {
				return err
			}
		}
		return tx.Omit("Documents").Save(user).Error
	})
}
