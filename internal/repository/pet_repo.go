package repository

import (
	"github.com/pawmates/pawmates-backend/internal/domain"
	"gorm.io/gorm"
)

// PetRepository read-only access to the pet catalog
type PetRepository interface {
	FindByID(id uint64) (*domain.Pet, error)
	Exists(id uint64) (bool, error)
}

type petRepository struct {
	db *gorm.DB
}

// NewPetRepository creates a new PetRepository
func NewPetRepository(db *gorm.DB) PetRepository {
	return &petRepository{db: db}
}

// FindByID finds a pet by ID
func (r *petRepository) FindByID(id uint64) (*domain.Pet, error) {
	var pet domain.Pet
	err := r.db.Where("id = ?", id).First(&pet).Error
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

// Exists checks whether a pet listing exists
func (r *petRepository) Exists(id uint64) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Pet{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
