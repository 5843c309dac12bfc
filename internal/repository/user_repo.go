package repository

import (
	"github.com/pawmates/pawmates-backend/internal/domain"
	"gorm.io/gorm"
)

// UserRepository read-only access to the user directory
type UserRepository interface {
	FindByID(id uint64) (*domain.User, error)
	Exists(id uint64) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByID finds a user by ID
func (r *userRepository) FindByID(id uint64) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists checks whether a user account exists
func (r *userRepository) Exists(id uint64) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
