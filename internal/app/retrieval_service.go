package app

import (
	"context"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"linkcraft/internal/cache"
	"linkcraft/internal/model"
	"linkcraft/internal/repository"
	"linkcraft/internal/vector"
)

const (
	DefaultTopKUser  = 5
	MaxTopKUser      = 10
	DefaultTopKViral = 5
	MaxTopKViral     = 20

	// fallbackSimilarity labels engagement-ranked fallback results, where
	// no semantic comparison was performed.
	fallbackSimilarity = 0.5
)

// SimilarUserPost is one retrieval candidate from the user's own corpus.
type SimilarUserPost struct {
	PostID     uint    `json:"post_id"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// SimilarViralPost is one retrieval candidate from the curated corpus.
type SimilarViralPost struct {
	PostID         uint    `json:"post_id"`
	Content        string  `json:"content"`
	Similarity     float64 `json:"similarity"`
	EngagementRate float64 `json:"engagement_rate"`
}

// Sources the retrieval service consumes. The repositories satisfy these;
// tests substitute in-memory fakes.
type UserPostSource interface {
	GetByIDs(ids []uint) ([]model.UserPost, error)
}

type UserVectorSource interface {
	ListByUserID(userID uint) ([]repository.UserPostVectorRow, error)
	ListByPostIDs(postIDs []uint) ([]model.UserPostEmbedding, error)
}

type ViralPostSource interface {
	GetByIDs(ids []uint) ([]model.ViralPost, error)
	TopByEngagement(intent model.Intent, limit int) ([]model.ViralPost, error)
}

type ViralVectorSource interface {
	ListActive(intent model.Intent) ([]repository.ViralPostVectorRow, error)
	ListByPostIDs(postIDs []uint) ([]model.ViralPostEmbedding, error)
}

type RetrievalCacheStore interface {
	Get(ctx context.Context, key string) (*cache.RetrievalEntry, bool, error)
	Put(ctx context.Context, key string, queryEmbedding []float32, userPostIDs, viralPostIDs []uint) error
}

// RetrievalService answers nearest-neighbor queries over both corpora and
// memoizes results through the retrieval cache. Store failures degrade to
// zero results instead of blocking generation.
type RetrievalService struct {
	userPosts    UserPostSource
	userVectors  UserVectorSource
	viralPosts   ViralPostSource
	viralVectors ViralVectorSource
	cache        RetrievalCacheStore
}

func NewRetrievalService(
	userPosts UserPostSource,
	userVectors UserVectorSource,
	viralPosts ViralPostSource,
	viralVectors ViralVectorSource,
	cacheStore RetrievalCacheStore,
) *RetrievalService {
	return &RetrievalService{
		userPosts:    userPosts,
		userVectors:  userVectors,
		viralPosts:   viralPosts,
		viralVectors: viralVectors,
		cache:        cacheStore,
	}
}

// FindSimilarUserPosts ranks the user's own posts by cosine similarity to
// the query vector, descending; ties break toward the most recent post.
func (s *RetrievalService) FindSimilarUserPosts(userID uint, queryVec []float32, limit int) []SimilarUserPost {
	rows, err := s.userVectors.ListByUserID(userID)
	if err != nil {
		log.Printf("retrieval: list user vectors failed, degrading to zero results: %v", err)
		return nil
	}

	type scored struct {
		repository.UserPostVectorRow
		similarity float64
	}
	candidates := make([]scored, 0, len(rows))
	for _, row := range rows {
		sim, err := vector.CosineSimilarity(queryVec, row.Vector())
		if err != nil {
			log.Printf("retrieval: skipping user post %d: %v", row.PostID, err)
			continue
		}
		candidates = append(candidates, scored{row, sim})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].PostCreatedAt.After(candidates[j].PostCreatedAt)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	results := make([]SimilarUserPost, len(candidates))
	for i, c := range candidates {
		results[i] = SimilarUserPost{PostID: c.PostID, Content: c.Content, Similarity: c.similarity}
	}
	return results
}

// FindSimilarViralPosts ranks active viral posts by similarity, optionally
// filtered by intent. When semantic search yields nothing the corpus falls
// back to engagement-rate ranking with a placeholder similarity.
func (s *RetrievalService) FindSimilarViralPosts(queryVec []float32, intent model.Intent, limit int) []SimilarViralPost {
	rows, err := s.viralVectors.ListActive(intent)
	if err != nil {
		log.Printf("retrieval: list viral vectors failed, degrading to zero results: %v", err)
		rows = nil
	}

	type scored struct {
		repository.ViralPostVectorRow
		similarity float64
	}
	candidates := make([]scored, 0, len(rows))
	for _, row := range rows {
		sim, err := vector.CosineSimilarity(queryVec, row.Vector())
		if err != nil {
			log.Printf("retrieval: skipping viral post %d: %v", row.PostID, err)
			continue
		}
		candidates = append(candidates, scored{row, sim})
	}

	if len(candidates) == 0 {
		return s.viralFallback(intent, limit)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].PostCreatedAt.After(candidates[j].PostCreatedAt)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	results := make([]SimilarViralPost, len(candidates))
	for i, c := range candidates {
		results[i] = SimilarViralPost{
			PostID:         c.PostID,
			Content:        c.Content,
			Similarity:     c.similarity,
			EngagementRate: c.EngagementRate,
		}
	}
	return results
}

func (s *RetrievalService) viralFallback(intent model.Intent, limit int) []SimilarViralPost {
	posts, err := s.viralPosts.TopByEngagement(intent, limit)
	if err != nil {
		log.Printf("retrieval: engagement fallback failed, degrading to zero results: %v", err)
		return nil
	}
	results := make([]SimilarViralPost, len(posts))
	for i, p := range posts {
		results[i] = SimilarViralPost{
			PostID:         p.ID,
			Content:        p.Content,
			Similarity:     fallbackSimilarity,
			EngagementRate: p.EngagementRate,
		}
	}
	return results
}

// RetrieveInput describes one retrieval query. QueryEmbedding must already
// be computed by the caller.
type RetrieveInput struct {
	UserID         uint
	Topic          string
	Intent         model.Intent // empty = wildcard
	QueryEmbedding []float32
	TopKUser       int
	TopKViral      int
	UseCache       bool
}

type RetrieveResult struct {
	UserPosts  []SimilarUserPost  `json:"user_posts"`
	ViralPosts []SimilarViralPost `json:"viral_posts"`
	CacheHit   bool               `json:"cache_hit"`
	QueryHash  string             `json:"query_hash"`
}

// Retrieve serves the query from the cache when possible, otherwise runs
// both corpus lookups concurrently and writes the cache entry before
// returning. It never fails: every error path degrades and is logged.
func (s *RetrievalService) Retrieve(ctx context.Context, input RetrieveInput) *RetrieveResult {
	topKUser := clampTopK(input.TopKUser, DefaultTopKUser, MaxTopKUser)
	topKViral := clampTopK(input.TopKViral, DefaultTopKViral, MaxTopKViral)
	queryHash := cache.Key(input.UserID, input.Topic, input.Intent.String())

	if input.UseCache {
		if result := s.fromCache(ctx, queryHash, input.UserID); result != nil {
			return result
		}
	}

	var userResults []SimilarUserPost
	var viralResults []SimilarViralPost

	// The two corpus lookups are independent; issue them concurrently.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		userResults = s.FindSimilarUserPosts(input.UserID, input.QueryEmbedding, topKUser)
		return nil
	})
	g.Go(func() error {
		viralResults = s.FindSimilarViralPosts(input.QueryEmbedding, input.Intent, topKViral)
		return nil
	})
	_ = g.Wait()

	if input.UseCache {
		userIDs := make([]uint, len(userResults))
		for i, r := range userResults {
			userIDs[i] = r.PostID
		}
		viralIDs := make([]uint, len(viralResults))
		for i, r := range viralResults {
			viralIDs[i] = r.PostID
		}
		if err := s.cache.Put(ctx, queryHash, input.QueryEmbedding, userIDs, viralIDs); err != nil {
			log.Printf("retrieval: cache write failed (ignored): %v", err)
		}
	}

	return &RetrieveResult{
		UserPosts:  userResults,
		ViralPosts: viralResults,
		CacheHit:   false,
		QueryHash:  queryHash,
	}
}

// fromCache resolves a cached entry's post IDs back into content rows,
// recomputing similarity against the cached query embedding. The cache
// stores identifiers, not content, so edited rows are never served stale.
func (s *RetrievalService) fromCache(ctx context.Context, queryHash string, userID uint) *RetrieveResult {
	entry, hit, err := s.cache.Get(ctx, queryHash)
	if err != nil {
		log.Printf("retrieval: cache read failed (treated as miss): %v", err)
		return nil
	}
	if !hit {
		return nil
	}

	userResults, err := s.resolveUserPosts(entry.UserPostIDs, entry.QueryEmbedding)
	if err != nil {
		log.Printf("retrieval: cached user posts unresolvable (treated as miss): %v", err)
		return nil
	}
	viralResults, err := s.resolveViralPosts(entry.ViralPostIDs, entry.QueryEmbedding)
	if err != nil {
		log.Printf("retrieval: cached viral posts unresolvable (treated as miss): %v", err)
		return nil
	}

	return &RetrieveResult{
		UserPosts:  userResults,
		ViralPosts: viralResults,
		CacheHit:   true,
		QueryHash:  queryHash,
	}
}

func (s *RetrievalService) resolveUserPosts(ids []uint, queryVec []float32) ([]SimilarUserPost, error) {
	posts, err := s.userPosts.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	embeddings, err := s.userVectors.ListByPostIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.UserPost, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	vecByID := make(map[uint][]float32, len(embeddings))
	for i := range embeddings {
		vecByID[embeddings[i].PostID] = embeddings[i].Vector()
	}

	// The stored ID order is the ranking.
	results := make([]SimilarUserPost, 0, len(ids))
	for _, id := range ids {
		post, ok := byID[id]
		if !ok {
			continue
		}
		sim := 0.0
		if vec, ok := vecByID[id]; ok {
			if computed, err := vector.CosineSimilarity(queryVec, vec); err == nil {
				sim = computed
			}
		}
		results = append(results, SimilarUserPost{PostID: id, Content: post.Content, Similarity: sim})
	}
	return results, nil
}

func (s *RetrievalService) resolveViralPosts(ids []uint, queryVec []float32) ([]SimilarViralPost, error) {
	posts, err := s.viralPosts.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	embeddings, err := s.viralVectors.ListByPostIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.ViralPost, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	vecByID := make(map[uint][]float32, len(embeddings))
	for i := range embeddings {
		vecByID[embeddings[i].PostID] = embeddings[i].Vector()
	}

	results := make([]SimilarViralPost, 0, len(ids))
	for _, id := range ids {
		post, ok := byID[id]
		if !ok {
			continue
		}
		sim := fallbackSimilarity
		if vec, ok := vecByID[id]; ok {
			if computed, err := vector.CosineSimilarity(queryVec, vec); err == nil {
				sim = computed
			}
		}
		results = append(results, SimilarViralPost{
			PostID:         id,
			Content:        post.Content,
			Similarity:     sim,
			EngagementRate: post.EngagementRate,
		})
	}
	return results, nil
}

func clampTopK(requested, fallback, max int) int {
	if requested <= 0 {
		return fallback
	}
	if requested > max {
		return max
	}
	return requested
}
