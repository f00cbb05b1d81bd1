package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"linkcraft/internal/model"
)

type GenerationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

func (r *GenerationRepository) Create(record *model.GenerationRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("create generation record failed: %w", err)
	}
	return nil
}

func (r *GenerationRepository) GetByIDAndUserID(id string, userID uint) (*model.GenerationRecord, error) {
	var record model.GenerationRecord
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get generation record failed: %w", err)
	}
	return &record, nil
}

func (r *GenerationRepository) ListByUserID(userID uint, limit int) ([]model.GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []model.GenerationRecord
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list generation records failed: %w", err)
	}
	return records, nil
}
