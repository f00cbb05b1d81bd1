package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"linkcraft/internal/model"
)

type memUserLookup struct {
	users map[uint]*model.User
}

func (m *memUserLookup) GetByID(id uint) (*model.User, error) {
	return m.users[id], nil
}

type memUserPostWriter struct {
	nextID    uint
	created   []model.UserPost
	deleted   []uint
	createErr error
}

func (m *memUserPostWriter) CreateBatch(posts []model.UserPost) ([]model.UserPost, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	for i := range posts {
		m.nextID++
		posts[i].ID = m.nextID
	}
	m.created = append(m.created, posts...)
	return posts, nil
}

func (m *memUserPostWriter) DeleteByIDs(ids []uint) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

type memUserVectorWriter struct {
	created   []model.UserPostEmbedding
	deleted   []uint
	createErr error
}

func (m *memUserVectorWriter) CreateBatch(embeddings []model.UserPostEmbedding) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, embeddings...)
	return nil
}

func (m *memUserVectorWriter) DeleteByPostIDs(postIDs []uint) error {
	m.deleted = append(m.deleted, postIDs...)
	return nil
}

type memViralPostWriter struct {
	nextID    uint
	created   []model.ViralPost
	deleted   []uint
	createErr error
}

func (m *memViralPostWriter) CreateBatch(posts []model.ViralPost) ([]model.ViralPost, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	for i := range posts {
		m.nextID++
		posts[i].ID = m.nextID
	}
	m.created = append(m.created, posts...)
	return posts, nil
}

func (m *memViralPostWriter) DeleteByIDs(ids []uint) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

type memViralVectorWriter struct {
	created   []model.ViralPostEmbedding
	deleted   []uint
	createErr error
}

func (m *memViralVectorWriter) CreateBatch(embeddings []model.ViralPostEmbedding) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, embeddings...)
	return nil
}

func (m *memViralVectorWriter) DeleteByPostIDs(postIDs []uint) error {
	m.deleted = append(m.deleted, postIDs...)
	return nil
}

type stubBatchEmbedder struct {
	err      error
	shortOne bool // return one vector fewer than inputs
}

func (s *stubBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	n := len(texts)
	if s.shortOne && n > 0 {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{float32(i), 1}
	}
	return vectors, nil
}

func (s *stubBatchEmbedder) ModelVersion() string { return "text-embedding-3-small" }

type ingestFixture struct {
	users        *memUserLookup
	userPosts    *memUserPostWriter
	userVectors  *memUserVectorWriter
	viralPosts   *memViralPostWriter
	viralVectors *memViralVectorWriter
	embedder     *stubBatchEmbedder
	service      *IngestService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		users: &memUserLookup{users: map[uint]*model.User{
			1: {ID: 1, Username: "maya"},
			2: {ID: 2, Username: "root", IsAdmin: true},
		}},
		userPosts:    &memUserPostWriter{},
		userVectors:  &memUserVectorWriter{},
		viralPosts:   &memViralPostWriter{},
		viralVectors: &memViralVectorWriter{},
		embedder:     &stubBatchEmbedder{},
	}
	f.service = NewIngestService(f.users, f.userPosts, f.userVectors, f.viralPosts, f.viralVectors, f.embedder)
	return f
}

func userItems(n int) []UserPostItem {
	items := make([]UserPostItem, n)
	for i := range items {
		items[i] = UserPostItem{Content: fmt.Sprintf("post number %d about shipping software", i), Likes: i, Views: 100}
	}
	return items
}

func viralItems(n int) []ViralPostItem {
	items := make([]ViralPostItem, n)
	for i := range items {
		items[i] = ViralPostItem{
			Content:  fmt.Sprintf("viral post %d", i),
			Topics:   []string{"leadership"},
			Intent:   "inspirational",
			Likes:    80,
			Comments: 15,
			Shares:   5,
			Views:    1000,
		}
	}
	return items
}

func Test_IngestUserPosts_Success(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)

	result, err := f.service.IngestUserPosts(context.Background(), 1, userItems(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PostsCreated != 3 || result.EmbeddingsCreated != 3 {
		t.Errorf("want 3 posts and 3 embeddings, got %d/%d", result.PostsCreated, result.EmbeddingsCreated)
	}
	if len(f.userVectors.created) != 3 {
		t.Fatalf("want 3 embedding rows, got %d", len(f.userVectors.created))
	}
	for i, emb := range f.userVectors.created {
		if emb.PostID != f.userPosts.created[i].ID {
			t.Errorf("embedding %d bound to post %d, want %d", i, emb.PostID, f.userPosts.created[i].ID)
		}
		if emb.ModelVersion != "text-embedding-3-small" {
			t.Errorf("embedding %d missing model version", i)
		}
	}
	if f.userPosts.created[0].WordCount == 0 {
		t.Errorf("word count should be derived from content")
	}
}

func Test_IngestUserPosts_ValidationAbortsBeforeWrites(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)
	items := userItems(3)
	items[1].Content = "   "

	_, err := f.service.IngestUserPosts(context.Background(), 1, items)

	appErr, ok := AsError(err)
	if !ok || appErr.Kind != KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
	if len(appErr.Fields) != 1 || !strings.Contains(appErr.Fields[0].Field, "posts[1]") {
		t.Errorf("violation should name the offending index, got %v", appErr.Fields)
	}
	if len(f.userPosts.created) != 0 {
		t.Errorf("nothing may be written when any item is invalid")
	}
}

func Test_IngestUserPosts_BatchLimit(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)

	_, err := f.service.IngestUserPosts(context.Background(), 1, userItems(MaxUserPostBatch+1))
	if KindOf(err) != KindValidation {
		t.Fatalf("want validation error for oversized batch, got %v", err)
	}

	if _, err := f.service.IngestUserPosts(context.Background(), 1, userItems(MaxUserPostBatch)); err != nil {
		t.Errorf("batch at the limit should succeed, got %v", err)
	}
}

func Test_IngestUserPosts_EmbedFailureRollsBackPosts(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)
	f.embedder.err = errors.New("rate limited")

	_, err := f.service.IngestUserPosts(context.Background(), 1, userItems(5))

	appErr, ok := AsError(err)
	if !ok || appErr.Kind != KindExternalService || appErr.Service != "embedding" {
		t.Fatalf("want external service error for embedding, got %v", err)
	}
	if len(f.userPosts.deleted) != 5 {
		t.Errorf("all 5 inserted posts must be rolled back, deleted %d", len(f.userPosts.deleted))
	}
	if len(f.userVectors.created) != 0 || len(f.userVectors.deleted) != 0 {
		t.Errorf("embeddings were never written, so none should be deleted")
	}
}

func Test_IngestUserPosts_EmbeddingCountMismatchRollsBack(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)
	f.embedder.shortOne = true

	_, err := f.service.IngestUserPosts(context.Background(), 1, userItems(3))
	if KindOf(err) != KindExternalService {
		t.Fatalf("want external service error on count mismatch, got %v", err)
	}
	if len(f.userPosts.deleted) != 3 {
		t.Errorf("posts must be rolled back on count mismatch, deleted %d", len(f.userPosts.deleted))
	}
}

func Test_IngestUserPosts_VectorWriteFailureRollsBackBoth(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)
	f.userVectors.createErr = errors.New("disk full")

	_, err := f.service.IngestUserPosts(context.Background(), 1, userItems(2))
	if KindOf(err) != KindStorage {
		t.Fatalf("want storage error, got %v", err)
	}
	if len(f.userVectors.deleted) != 2 || len(f.userPosts.deleted) != 2 {
		t.Errorf("both embeddings and posts must be rolled back, got %d/%d",
			len(f.userVectors.deleted), len(f.userPosts.deleted))
	}
}

func Test_IngestViralPosts_ForbiddenForNonAdmin(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)

	// Even an invalid payload must not leak validation detail to a
	// caller without the admin capability.
	_, err := f.service.IngestViralPosts(context.Background(), 1, []ViralPostItem{{Content: ""}})
	if KindOf(err) != KindForbidden {
		t.Fatalf("want forbidden error, got %v", err)
	}
}

func Test_IngestViralPosts_Success(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)

	result, err := f.service.IngestViralPosts(context.Background(), 2, viralItems(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PostsCreated != 2 {
		t.Errorf("want 2 posts created, got %d", result.PostsCreated)
	}

	post := f.viralPosts.created[0]
	wantRate := float64(80+15+5) / 1000
	if post.EngagementRate != wantRate {
		t.Errorf("engagement rate = %v, want %v", post.EngagementRate, wantRate)
	}
	if !post.Active || post.CuratorID != 2 {
		t.Errorf("post should be active and attributed to the curator, got active=%v curator=%d", post.Active, post.CuratorID)
	}
	if topics := post.TopicList(); len(topics) != 1 || topics[0] != "leadership" {
		t.Errorf("topics did not round-trip: %v", topics)
	}
}

func Test_IngestViralPosts_ValidationPerItem(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)
	items := viralItems(2)
	items[1].Intent = "ragebait"

	_, err := f.service.IngestViralPosts(context.Background(), 2, items)

	appErr, ok := AsError(err)
	if !ok || appErr.Kind != KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
	if !strings.Contains(appErr.Fields[0].Field, "posts[1].intent") {
		t.Errorf("violation should name the offending field, got %v", appErr.Fields)
	}
	if len(f.viralPosts.created) != 0 {
		t.Errorf("nothing may be written when any item is invalid")
	}
}

func Test_IngestViralPosts_BatchLimit(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)

	_, err := f.service.IngestViralPosts(context.Background(), 2, viralItems(MaxViralPostBatch+1))
	if KindOf(err) != KindValidation {
		t.Fatalf("want validation error for oversized batch, got %v", err)
	}
}

func Test_IngestViralPosts_EmbedFailureRollsBackPosts(t *testing.T) {
	t.Parallel()
	f := newIngestFixture(t)
	f.embedder.err = errors.New("rate limited")

	_, err := f.service.IngestViralPosts(context.Background(), 2, viralItems(4))
	if KindOf(err) != KindExternalService {
		t.Fatalf("want external service error, got %v", err)
	}
	if len(f.viralPosts.deleted) != 4 {
		t.Errorf("all 4 inserted posts must be rolled back, deleted %d", len(f.viralPosts.deleted))
	}
}
