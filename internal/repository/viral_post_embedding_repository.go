package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"linkcraft/internal/model"
)

// ViralPostVectorRow is an embedding joined with the viral-post columns
// retrieval ranks and displays.
type ViralPostVectorRow struct {
	PostID         uint
	Content        string
	EngagementRate float64
	PostCreatedAt  time.Time
	Embedding      string
	ModelVersion   string
}

func (row *ViralPostVectorRow) Vector() []float32 {
	e := model.ViralPostEmbedding{Embedding: row.Embedding}
	return e.Vector()
}

type ViralPostEmbeddingRepository struct {
	db *gorm.DB
}

func NewViralPostEmbeddingRepository(db *gorm.DB) *ViralPostEmbeddingRepository {
	return &ViralPostEmbeddingRepository{db: db}
}

func (r *ViralPostEmbeddingRepository) CreateBatch(embeddings []model.ViralPostEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	if err := r.db.Create(&embeddings).Error; err != nil {
		return fmt.Errorf("create viral post embeddings batch failed: %w", err)
	}
	return nil
}

// ListActive returns embeddings of active viral posts, optionally
// restricted to one intent.
func (r *ViralPostEmbeddingRepository) ListActive(intent model.Intent) ([]ViralPostVectorRow, error) {
	q := r.db.Table("viral_post_embeddings").
		Select("viral_post_embeddings.post_id AS post_id, viral_posts.content AS content, viral_posts.engagement_rate AS engagement_rate, viral_posts.created_at AS post_created_at, viral_post_embeddings.embedding AS embedding, viral_post_embeddings.model_version AS model_version").
		Joins("JOIN viral_posts ON viral_posts.id = viral_post_embeddings.post_id").
		Where("viral_posts.active = ?", true)
	if intent != "" {
		q = q.Where("viral_posts.intent = ?", intent)
	}
	var rows []ViralPostVectorRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list viral post embeddings failed: %w", err)
	}
	return rows, nil
}

func (r *ViralPostEmbeddingRepository) ListByPostIDs(postIDs []uint) ([]model.ViralPostEmbedding, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var embeddings []model.ViralPostEmbedding
	if err := r.db.Where("post_id IN ?", postIDs).Find(&embeddings).Error; err != nil {
		return nil, fmt.Errorf("list viral post embeddings by post ids failed: %w", err)
	}
	return embeddings, nil
}

func (r *ViralPostEmbeddingRepository) DeleteByPostIDs(postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	if err := r.db.Where("post_id IN ?", postIDs).Delete(&model.ViralPostEmbedding{}).Error; err != nil {
		return fmt.Errorf("delete viral post embeddings failed: %w", err)
	}
	return nil
}
