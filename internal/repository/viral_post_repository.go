package repository

import (
	"fmt"

	"gorm.io/gorm"

	"linkcraft/internal/model"
)

type ViralPostRepository struct {
	db *gorm.DB
}

func NewViralPostRepository(db *gorm.DB) *ViralPostRepository {
	return &ViralPostRepository{db: db}
}

func (r *ViralPostRepository) CreateBatch(posts []model.ViralPost) ([]model.ViralPost, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	if err := r.db.Create(&posts).Error; err != nil {
		return nil, fmt.Errorf("create viral posts batch failed: %w", err)
	}
	return posts, nil
}

func (r *ViralPostRepository) GetByIDs(ids []uint) ([]model.ViralPost, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []model.ViralPost
	if err := r.db.Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list viral posts by ids failed: %w", err)
	}
	return posts, nil
}

// TopByEngagement returns the highest engagement-rate active posts,
// optionally restricted to one intent. This is the retrieval fallback when
// semantic search yields nothing.
func (r *ViralPostRepository) TopByEngagement(intent model.Intent, limit int) ([]model.ViralPost, error) {
	q := r.db.Where("active = ?", true)
	if intent != "" {
		q = q.Where("intent = ?", intent)
	}
	var posts []model.ViralPost
	if err := q.Order("engagement_rate DESC").Limit(limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list viral posts by engagement failed: %w", err)
	}
	return posts, nil
}

// Deactivate soft-deletes a curated post; rows are never hard-deleted
// outside ingestion rollback.
func (r *ViralPostRepository) Deactivate(id uint) error {
	res := r.db.Model(&model.ViralPost{}).Where("id = ?", id).UpdateColumn("active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate viral post failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ViralPostRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.Where("id IN ?", ids).Delete(&model.ViralPost{}).Error; err != nil {
		return fmt.Errorf("delete viral posts failed: %w", err)
	}
	return nil
}
