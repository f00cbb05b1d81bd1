package model

import (
	"encoding/json"
	"time"
)

// Embedding vectors are stored as a JSON array of float32 in a text column
// for portability, tagged with the model version that produced them so a
// model upgrade can be detected and trigger re-embedding instead of
// silently comparing incompatible vector spaces.

// UserPostEmbedding is one-to-one with UserPost. UserID is denormalized so
// retrieval can filter by owner without joining through user_posts.
type UserPostEmbedding struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"not null;uniqueIndex" json:"post_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Embedding    string    `gorm:"type:text;not null" json:"-"`
	ModelVersion string    `gorm:"size:64;not null" json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`
}

// ViralPostEmbedding is one-to-one with ViralPost, scoped globally.
type ViralPostEmbedding struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"not null;uniqueIndex" json:"post_id"`
	Embedding    string    `gorm:"type:text;not null" json:"-"`
	ModelVersion string    `gorm:"size:64;not null" json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`
}

func (e *UserPostEmbedding) Vector() []float32        { return decodeVector(e.Embedding) }
func (e *UserPostEmbedding) SetVector(vec []float32)  { e.Embedding = encodeVector(vec) }
func (e *ViralPostEmbedding) Vector() []float32       { return decodeVector(e.Embedding) }
func (e *ViralPostEmbedding) SetVector(vec []float32) { e.Embedding = encodeVector(vec) }

func decodeVector(raw string) []float32 {
	if raw == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(raw), &v)
	return v
}

func encodeVector(vec []float32) string {
	if len(vec) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(vec)
	return string(b)
}
