package repository

import (
	"fmt"

	"gorm.io/gorm"

	"linkcraft/internal/model"
)

type UserPostRepository struct {
	db *gorm.DB
}

func NewUserPostRepository(db *gorm.DB) *UserPostRepository {
	return &UserPostRepository{db: db}
}

// CreateBatch inserts the posts in one statement; generated IDs are
// written back into the slice elements.
func (r *UserPostRepository) CreateBatch(posts []model.UserPost) ([]model.UserPost, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	if err := r.db.Create(&posts).Error; err != nil {
		return nil, fmt.Errorf("create user posts batch failed: %w", err)
	}
	return posts, nil
}

func (r *UserPostRepository) GetByIDs(ids []uint) ([]model.UserPost, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []model.UserPost
	if err := r.db.Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list user posts by ids failed: %w", err)
	}
	return posts, nil
}

func (r *UserPostRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.UserPost{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count user posts failed: %w", err)
	}
	return count, nil
}

// DeleteByIDs removes posts by primary key; used by the ingestion
// compensating rollback.
func (r *UserPostRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.Where("id IN ?", ids).Delete(&model.UserPost{}).Error; err != nil {
		return fmt.Errorf("delete user posts failed: %w", err)
	}
	return nil
}
