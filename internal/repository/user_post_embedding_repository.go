package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"linkcraft/internal/model"
)

// UserPostVectorRow is an embedding joined with the columns retrieval
// needs from its post, avoiding a second round trip per candidate.
type UserPostVectorRow struct {
	PostID        uint
	Content       string
	PostCreatedAt time.Time
	Embedding     string
	ModelVersion  string
}

func (row *UserPostVectorRow) Vector() []float32 {
	e := model.UserPostEmbedding{Embedding: row.Embedding}
	return e.Vector()
}

type UserPostEmbeddingRepository struct {
	db *gorm.DB
}

func NewUserPostEmbeddingRepository(db *gorm.DB) *UserPostEmbeddingRepository {
	return &UserPostEmbeddingRepository{db: db}
}

func (r *UserPostEmbeddingRepository) CreateBatch(embeddings []model.UserPostEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	if err := r.db.Create(&embeddings).Error; err != nil {
		return fmt.Errorf("create user post embeddings batch failed: %w", err)
	}
	return nil
}

// ListByUserID returns every embedding the user owns, joined with post
// content and creation time for similarity ranking.
func (r *UserPostEmbeddingRepository) ListByUserID(userID uint) ([]UserPostVectorRow, error) {
	var rows []UserPostVectorRow
	err := r.db.Table("user_post_embeddings").
		Select("user_post_embeddings.post_id AS post_id, user_posts.content AS content, user_posts.created_at AS post_created_at, user_post_embeddings.embedding AS embedding, user_post_embeddings.model_version AS model_version").
		Joins("JOIN user_posts ON user_posts.id = user_post_embeddings.post_id").
		Where("user_post_embeddings.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list user post embeddings failed: %w", err)
	}
	return rows, nil
}

func (r *UserPostEmbeddingRepository) ListByPostIDs(postIDs []uint) ([]model.UserPostEmbedding, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var embeddings []model.UserPostEmbedding
	if err := r.db.Where("post_id IN ?", postIDs).Find(&embeddings).Error; err != nil {
		return nil, fmt.Errorf("list user post embeddings by post ids failed: %w", err)
	}
	return embeddings, nil
}

func (r *UserPostEmbeddingRepository) DeleteByPostIDs(postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	if err := r.db.Where("post_id IN ?", postIDs).Delete(&model.UserPostEmbedding{}).Error; err != nil {
		return fmt.Errorf("delete user post embeddings failed: %w", err)
	}
	return nil
}
