package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"linkcraft/internal/model"
)

const (
	// MaxUserPostBatch bounds one user-post ingestion call.
	MaxUserPostBatch = 100
	// MaxViralPostBatch is smaller: viral items carry more mandatory
	// fields and get curator review.
	MaxViralPostBatch = 50
)

// BatchEmbedder embeds ingestion batches.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelVersion() string
}

type UserPostWriter interface {
	CreateBatch(posts []model.UserPost) ([]model.UserPost, error)
	DeleteByIDs(ids []uint) error
}

type UserVectorWriter interface {
	CreateBatch(embeddings []model.UserPostEmbedding) error
	DeleteByPostIDs(postIDs []uint) error
}

type ViralPostWriter interface {
	CreateBatch(posts []model.ViralPost) ([]model.ViralPost, error)
	DeleteByIDs(ids []uint) error
}

type ViralVectorWriter interface {
	CreateBatch(embeddings []model.ViralPostEmbedding) error
	DeleteByPostIDs(postIDs []uint) error
}

type UserLookup interface {
	GetByID(id uint) (*model.User, error)
}

// IngestService bulk-loads content and embeddings with all-or-nothing
// semantics per batch: content rows inserted in step one are deleted again
// if embedding or embedding persistence fails, so the store never holds a
// post without its embedding.
type IngestService struct {
	users        UserLookup
	userPosts    UserPostWriter
	userVectors  UserVectorWriter
	viralPosts   ViralPostWriter
	viralVectors ViralVectorWriter
	embedder     BatchEmbedder
}

func NewIngestService(
	users UserLookup,
	userPosts UserPostWriter,
	userVectors UserVectorWriter,
	viralPosts ViralPostWriter,
	viralVectors ViralVectorWriter,
	embedder BatchEmbedder,
) *IngestService {
	return &IngestService{
		users:        users,
		userPosts:    userPosts,
		userVectors:  userVectors,
		viralPosts:   viralPosts,
		viralVectors: viralVectors,
		embedder:     embedder,
	}
}

type UserPostItem struct {
	Content  string
	Likes    int
	Comments int
	Shares   int
	Views    int
}

type ViralPostItem struct {
	Content   string
	Topics    []string
	Intent    string
	Likes     int
	Comments  int
	Shares    int
	Views     int
	SourceURL string
}

type IngestResult struct {
	PostsCreated      int    `json:"posts_created"`
	EmbeddingsCreated int    `json:"embeddings_created"`
	PostIDs           []uint `json:"post_ids"`
}

// IngestUserPosts validates the whole batch up front, persists the posts,
// batch-embeds them, and persists the embeddings, rolling back the posts
// on any embedding failure.
func (s *IngestService) IngestUserPosts(ctx context.Context, userID uint, items []UserPostItem) (*IngestResult, error) {
	if len(items) == 0 {
		return nil, NewValidationError(FieldError{Field: "posts", Reason: "batch is empty"})
	}
	if len(items) > MaxUserPostBatch {
		return nil, NewValidationError(FieldError{Field: "posts", Reason: fmt.Sprintf("batch exceeds %d items", MaxUserPostBatch)})
	}
	for i, item := range items {
		if strings.TrimSpace(item.Content) == "" {
			return nil, NewValidationError(FieldError{Field: fmt.Sprintf("posts[%d].content", i), Reason: "must not be empty"})
		}
		if item.Likes < 0 || item.Comments < 0 || item.Shares < 0 || item.Views < 0 {
			return nil, NewValidationError(FieldError{Field: fmt.Sprintf("posts[%d]", i), Reason: "engagement counts must be non-negative"})
		}
	}

	posts := make([]model.UserPost, len(items))
	contents := make([]string, len(items))
	for i, item := range items {
		content := strings.TrimSpace(item.Content)
		posts[i] = model.UserPost{
			UserID:    userID,
			Content:   content,
			WordCount: model.CountWords(content),
			Likes:     item.Likes,
			Comments:  item.Comments,
			Shares:    item.Shares,
			Views:     item.Views,
		}
		contents[i] = content
	}

	created, err := s.userPosts.CreateBatch(posts)
	if err != nil {
		return nil, NewStorageError("persist user posts failed", err)
	}
	postIDs := make([]uint, len(created))
	for i := range created {
		postIDs[i] = created[i].ID
	}

	vectors, err := s.embedder.EmbedBatch(ctx, contents)
	if err != nil || len(vectors) != len(created) {
		s.rollbackUserPosts(postIDs, false)
		if err == nil {
			err = fmt.Errorf("embedding count mismatch: %d posts, %d vectors", len(created), len(vectors))
		}
		return nil, NewExternalServiceError("embedding", err)
	}

	embeddings := make([]model.UserPostEmbedding, len(created))
	for i := range created {
		embeddings[i] = model.UserPostEmbedding{
			PostID:       created[i].ID,
			UserID:       userID,
			ModelVersion: s.embedder.ModelVersion(),
		}
		embeddings[i].SetVector(vectors[i])
	}
	if err := s.userVectors.CreateBatch(embeddings); err != nil {
		s.rollbackUserPosts(postIDs, true)
		return nil, NewStorageError("persist user post embeddings failed", err)
	}

	return &IngestResult{
		PostsCreated:      len(created),
		EmbeddingsCreated: len(embeddings),
		PostIDs:           postIDs,
	}, nil
}

// IngestViralPosts is the admin-only curated ingestion path. The admin
// capability is checked before any validation or write.
func (s *IngestService) IngestViralPosts(ctx context.Context, curatorID uint, items []ViralPostItem) (*IngestResult, error) {
	curator, err := s.users.GetByID(curatorID)
	if err != nil {
		return nil, NewStorageError("load curator failed", err)
	}
	if curator == nil || !curator.IsAdmin {
		return nil, NewForbiddenError("viral ingestion requires an administrator")
	}

	if len(items) == 0 {
		return nil, NewValidationError(FieldError{Field: "posts", Reason: "batch is empty"})
	}
	if len(items) > MaxViralPostBatch {
		return nil, NewValidationError(FieldError{Field: "posts", Reason: fmt.Sprintf("batch exceeds %d items", MaxViralPostBatch)})
	}

	posts := make([]model.ViralPost, len(items))
	contents := make([]string, len(items))
	for i, item := range items {
		content := strings.TrimSpace(item.Content)
		if content == "" {
			return nil, NewValidationError(FieldError{Field: fmt.Sprintf("posts[%d].content", i), Reason: "must not be empty"})
		}
		if len(item.Topics) == 0 {
			return nil, NewValidationError(FieldError{Field: fmt.Sprintf("posts[%d].topics", i), Reason: "at least one topic tag is required"})
		}
		intent, ok := model.ParseIntent(item.Intent)
		if !ok {
			return nil, NewValidationError(FieldError{Field: fmt.Sprintf("posts[%d].intent", i), Reason: "must be a valid intent"})
		}
		if item.Likes < 0 || item.Comments < 0 || item.Shares < 0 || item.Views < 0 {
			return nil, NewValidationError(FieldError{Field: fmt.Sprintf("posts[%d]", i), Reason: "engagement counts must be non-negative"})
		}

		posts[i] = model.ViralPost{
			Content:        content,
			Intent:         intent,
			Likes:          item.Likes,
			Comments:       item.Comments,
			Shares:         item.Shares,
			Views:          item.Views,
			EngagementRate: model.ComputeEngagementRate(item.Likes, item.Comments, item.Shares, item.Views),
			Active:         true,
			CuratorID:      curatorID,
			SourceURL:      strings.TrimSpace(item.SourceURL),
		}
		posts[i].SetTopics(item.Topics)
		contents[i] = content
	}

	created, err := s.viralPosts.CreateBatch(posts)
	if err != nil {
		return nil, NewStorageError("persist viral posts failed", err)
	}
	postIDs := make([]uint, len(created))
	for i := range created {
		postIDs[i] = created[i].ID
	}

	vectors, err := s.embedder.EmbedBatch(ctx, contents)
	if err != nil || len(vectors) != len(created) {
		s.rollbackViralPosts(postIDs, false)
		if err == nil {
			err = fmt.Errorf("embedding count mismatch: %d posts, %d vectors", len(created), len(vectors))
		}
		return nil, NewExternalServiceError("embedding", err)
	}

	embeddings := make([]model.ViralPostEmbedding, len(created))
	for i := range created {
		embeddings[i] = model.ViralPostEmbedding{
			PostID:       created[i].ID,
			ModelVersion: s.embedder.ModelVersion(),
		}
		embeddings[i].SetVector(vectors[i])
	}
	if err := s.viralVectors.CreateBatch(embeddings); err != nil {
		s.rollbackViralPosts(postIDs, true)
		return nil, NewStorageError("persist viral post embeddings failed", err)
	}

	return &IngestResult{
		PostsCreated:      len(created),
		EmbeddingsCreated: len(embeddings),
		PostIDs:           postIDs,
	}, nil
}

// rollbackUserPosts compensates a failed ingestion: embeddings first (in
// case step three partially succeeded), then the content rows.
func (s *IngestService) rollbackUserPosts(postIDs []uint, embeddingsWritten bool) {
	if embeddingsWritten {
		if err := s.userVectors.DeleteByPostIDs(postIDs); err != nil {
			log.Printf("ingest: rollback of user post embeddings failed: %v", err)
		}
	}
	if err := s.userPosts.DeleteByIDs(postIDs); err != nil {
		log.Printf("ingest: rollback of user posts failed, orphaned rows possible: %v", err)
	}
}

func (s *IngestService) rollbackViralPosts(postIDs []uint, embeddingsWritten bool) {
	if embeddingsWritten {
		if err := s.viralVectors.DeleteByPostIDs(postIDs); err != nil {
			log.Printf("ingest: rollback of viral post embeddings failed: %v", err)
		}
	}
	if err := s.viralPosts.DeleteByIDs(postIDs); err != nil {
		log.Printf("ingest: rollback of viral posts failed, orphaned rows possible: %v", err)
	}
}
